package ports

import (
	"context"

	"github.com/IANDYI/authguard/internal/core/domain"
	"github.com/IANDYI/authguard/internal/core/result"
)

// Message is any command or query dispatched through the Bus.
type Message interface {
	MessageType() string
}

// Handler resolves a Message into a Result. Handlers are message-typed: the
// bus looks one up by the concrete type of the message it is given.
type Handler interface {
	Handle(ctx context.Context, rc *domain.RequestContext, msg Message) result.Result[any]
}

// HandlerFunc adapts a plain function to a Handler.
type HandlerFunc func(ctx context.Context, rc *domain.RequestContext, msg Message) result.Result[any]

func (f HandlerFunc) Handle(ctx context.Context, rc *domain.RequestContext, msg Message) result.Result[any] {
	return f(ctx, rc, msg)
}

// HandlerFactory builds a Handler lazily; invoked once per message type, on
// the first Send of that type.
type HandlerFactory func() Handler

// Middleware wraps a Handler with cross-cutting behavior (cache-through,
// epoch bump, metrics, ...). The chain is composed once per message type, on
// its first dispatch: middleware_1(...middleware_n(handler)...), so the first
// middleware passed to Use is the outermost.
type Middleware func(next Handler) Handler

// Bus dispatches a Message to its registered Handler through the
// pre-composed middleware chain. Unknown message types are a BadRequest
// AppError, not a panic.
type Bus interface {
	Register(messageType string, factory HandlerFactory)
	Use(mw ...Middleware)
	Send(ctx context.Context, rc *domain.RequestContext, msg Message) result.Result[any]
}

// Event is a fire-and-forget notification published on the EventBus.
type Event interface {
	EventType() string
}

// EventHandler reacts to a published Event. It returns nothing; a panic in
// it is recovered and logged, never propagated back to the publisher.
type EventHandler func(ctx context.Context, evt Event)

// EventBus fans out published events to every handler registered for the
// event's type plus every wildcard handler, gathering all invocations
// concurrently (see SPEC_FULL.md §9 Open Question resolution).
type EventBus interface {
	Register(eventType string, h EventHandler)
	RegisterAny(h EventHandler)
	Publish(ctx context.Context, evt Event)
}
