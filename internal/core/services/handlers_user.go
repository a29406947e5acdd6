package services

import (
	"context"

	"github.com/IANDYI/authguard/internal/core/domain"
	"github.com/IANDYI/authguard/internal/core/ports"
	"github.com/IANDYI/authguard/internal/core/result"
)

func getUserHandler(d Deps) ports.HandlerFactory {
	return func() ports.Handler {
		return ports.HandlerFunc(func(ctx context.Context, rc *domain.RequestContext, msg ports.Message) result.Result[any] {
			cmd, ok := msg.(GetUserQuery)
			if !ok {
				return result.Err[any](result.BadRequest("malformed get-user query"))
			}
			gw, err := d.Gateways.ForQuery(ctx)
			if err != nil {
				return result.Err[any](result.ServiceUnavailable("database unavailable"))
			}
			found := gw.User().GetByID(ctx, cmd.UserID)
			if found.IsErr() {
				return result.Err[any](found.Error())
			}
			return result.Ok[any](found.Unwrap())
		})
	}
}

func listUsersHandler(d Deps) ports.HandlerFactory {
	return func() ports.Handler {
		return ports.HandlerFunc(func(ctx context.Context, rc *domain.RequestContext, msg ports.Message) result.Result[any] {
			cmd, ok := msg.(ListUsersQuery)
			if !ok {
				return result.Err[any](result.BadRequest("malformed list-users query"))
			}
			gw, err := d.Gateways.ForQuery(ctx)
			if err != nil {
				return result.Err[any](result.ServiceUnavailable("database unavailable"))
			}
			page := gw.User().List(ctx, cmd.Filter)
			if page.IsErr() {
				return result.Err[any](page.Error())
			}
			return result.Ok[any](page.Unwrap())
		})
	}
}

func updateUserHandler(d Deps) ports.HandlerFactory {
	return func() ports.Handler {
		return ports.HandlerFunc(func(ctx context.Context, rc *domain.RequestContext, msg ports.Message) result.Result[any] {
			cmd, ok := msg.(UpdateUserCommand)
			if !ok {
				return result.Err[any](result.BadRequest("malformed update-user command"))
			}

			var emailPtr *string
			if cmd.Email != nil {
				e := domain.NormalizeEmail(*cmd.Email)
				emailPtr = &e
			}
			var hashPtr *string
			if cmd.Password != nil {
				h, err := d.Hasher.Hash(*cmd.Password)
				if err != nil {
					return result.Err[any](result.Internal("failed to hash password"))
				}
				hashPtr = &h
			}

			gw, err := d.Gateways.ForCommand(ctx)
			if err != nil {
				return result.Err[any](result.ServiceUnavailable("database unavailable"))
			}
			updated := gw.User().Update(ctx, cmd.UserID, emailPtr, hashPtr)
			if commitErr := commit(ctx, gw, updated.Error()); commitErr != nil && updated.IsOk() {
				return result.Err[any](result.Internal("failed to commit user update"))
			}
			if updated.IsErr() {
				return result.Err[any](updated.Error())
			}
			return result.Ok[any](updated.Unwrap())
		})
	}
}

func deleteUserHandler(d Deps) ports.HandlerFactory {
	return func() ports.Handler {
		return ports.HandlerFunc(func(ctx context.Context, rc *domain.RequestContext, msg ports.Message) result.Result[any] {
			cmd, ok := msg.(DeleteUserCommand)
			if !ok {
				return result.Err[any](result.BadRequest("malformed delete-user command"))
			}
			gw, err := d.Gateways.ForCommand(ctx)
			if err != nil {
				return result.Err[any](result.ServiceUnavailable("database unavailable"))
			}
			deleted := gw.User().Delete(ctx, cmd.UserID)
			if commitErr := commit(ctx, gw, deleted.Error()); commitErr != nil && deleted.IsOk() {
				return result.Err[any](result.Internal("failed to commit user delete"))
			}
			if deleted.IsErr() {
				return result.Err[any](deleted.Error())
			}
			return result.Ok[any](deleted.Unwrap())
		})
	}
}
