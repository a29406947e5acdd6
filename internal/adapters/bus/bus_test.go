package bus_test

import (
	"context"
	"testing"

	"github.com/IANDYI/authguard/internal/adapters/bus"
	"github.com/IANDYI/authguard/internal/core/domain"
	"github.com/IANDYI/authguard/internal/core/ports"
	"github.com/IANDYI/authguard/internal/core/result"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingMsg struct{}

func (pingMsg) MessageType() string { return "Ping" }

func TestBus_SendDispatchesToRegisteredHandler(t *testing.T) {
	b := bus.New()
	b.Register("Ping", func() ports.Handler {
		return ports.HandlerFunc(func(ctx context.Context, rc *domain.RequestContext, msg ports.Message) result.Result[any] {
			return result.Ok[any]("pong")
		})
	})

	out := b.Send(context.Background(), &domain.RequestContext{}, pingMsg{})
	require.True(t, out.IsOk())
	assert.Equal(t, "pong", out.Unwrap())
}

func TestBus_SendOnUnregisteredTypeIsBadRequest(t *testing.T) {
	b := bus.New()
	out := b.Send(context.Background(), &domain.RequestContext{}, pingMsg{})
	require.True(t, out.IsErr())
	assert.Equal(t, result.KindBadRequest, out.Error().Kind)
}

func TestBus_MiddlewareWrapsInRegistrationOrder(t *testing.T) {
	b := bus.New()
	var order []string

	trace := func(name string) ports.Middleware {
		return func(next ports.Handler) ports.Handler {
			return ports.HandlerFunc(func(ctx context.Context, rc *domain.RequestContext, msg ports.Message) result.Result[any] {
				order = append(order, name+":before")
				out := next.Handle(ctx, rc, msg)
				order = append(order, name+":after")
				return out
			})
		}
	}

	b.Use(trace("outer"), trace("inner"))
	b.Register("Ping", func() ports.Handler {
		return ports.HandlerFunc(func(ctx context.Context, rc *domain.RequestContext, msg ports.Message) result.Result[any] {
			order = append(order, "handler")
			return result.Ok[any](nil)
		})
	})

	b.Send(context.Background(), &domain.RequestContext{}, pingMsg{})

	assert.Equal(t, []string{"outer:before", "inner:before", "handler", "inner:after", "outer:after"}, order)
}

func TestBus_HandlerCompiledOnce(t *testing.T) {
	b := bus.New()
	calls := 0
	b.Register("Ping", func() ports.Handler {
		calls++
		return ports.HandlerFunc(func(ctx context.Context, rc *domain.RequestContext, msg ports.Message) result.Result[any] {
			return result.Ok[any](nil)
		})
	})

	for i := 0; i < 5; i++ {
		b.Send(context.Background(), &domain.RequestContext{}, pingMsg{})
	}

	assert.Equal(t, 1, calls)
}
