// Package bus implements the Command/Query Bus (M): register message-typed
// handler factories, compose the middleware chain once per message type on
// its first dispatch, dispatch
// by concrete message type at call time. Grounded on
// IANDYI-care-service's MetricsMiddleware wrap-once idiom (metrics.go),
// generalized from the http.Handler chain to the message-Bus chain.
package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/IANDYI/authguard/internal/core/domain"
	"github.com/IANDYI/authguard/internal/core/ports"
	"github.com/IANDYI/authguard/internal/core/result"
)

// Bus is a ports.Bus implementation. Register collects raw (type ->
// factory) entries; the middleware chain around each entry is only
// composed once, the first time Send resolves it, and cached from then on.
type Bus struct {
	mu         sync.RWMutex
	factories  map[string]ports.HandlerFactory
	middleware []ports.Middleware
	compiled   map[string]ports.Handler
}

func New() *Bus {
	return &Bus{
		factories: make(map[string]ports.HandlerFactory),
		compiled:  make(map[string]ports.Handler),
	}
}

// Register must be called before any Send; it is not safe to call
// concurrently with dispatch.
func (b *Bus) Register(messageType string, factory ports.HandlerFactory) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.factories[messageType] = factory
}

// Use appends middleware to the chain every handler is wrapped in. Like
// Register, call before the bus starts serving traffic.
func (b *Bus) Use(mw ...ports.Middleware) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.middleware = append(b.middleware, mw...)
}

func (b *Bus) Send(ctx context.Context, rc *domain.RequestContext, msg ports.Message) result.Result[any] {
	messageType := msg.MessageType()

	b.mu.RLock()
	handler, ok := b.compiled[messageType]
	b.mu.RUnlock()
	if ok {
		return handler.Handle(ctx, rc, msg)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if handler, ok := b.compiled[messageType]; ok {
		return handler.Handle(ctx, rc, msg)
	}

	factory, ok := b.factories[messageType]
	if !ok {
		return result.Err[any](result.BadRequest(fmt.Sprintf("no handler registered for %s", messageType)))
	}

	handler = factory()
	for i := len(b.middleware) - 1; i >= 0; i-- {
		handler = b.middleware[i](handler)
	}
	b.compiled[messageType] = handler
	return handler.Handle(ctx, rc, msg)
}

var _ ports.Bus = (*Bus)(nil)
