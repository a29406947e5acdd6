package services

import (
	"context"
	"errors"
	"time"

	"github.com/IANDYI/authguard/internal/core/domain"
	"github.com/IANDYI/authguard/internal/core/ports"
	"github.com/IANDYI/authguard/internal/core/result"
	"github.com/google/uuid"
)

func signupHandler(d Deps) ports.HandlerFactory {
	return func() ports.Handler {
		return ports.HandlerFunc(func(ctx context.Context, rc *domain.RequestContext, msg ports.Message) result.Result[any] {
			cmd, ok := msg.(SignupCommand)
			if !ok {
				return result.Err[any](result.BadRequest("malformed signup command"))
			}
			email := domain.NormalizeEmail(cmd.Email)
			if email == "" || cmd.Password == "" {
				return result.Err[any](result.BadRequest("email and password are required"))
			}
			hash, err := d.Hasher.Hash(cmd.Password)
			if err != nil {
				return result.Err[any](result.Internal("failed to hash password"))
			}
			gw, err := d.Gateways.ForCommand(ctx)
			if err != nil {
				return result.Err[any](result.ServiceUnavailable("database unavailable"))
			}
			created := gw.User().Create(ctx, email, hash)
			if commitErr := commit(ctx, gw, created.Error()); commitErr != nil && created.IsOk() {
				return result.Err[any](result.Internal("failed to commit signup"))
			}
			if created.IsErr() {
				return result.Err[any](created.Error())
			}
			u := created.Unwrap()
			d.Events.Publish(ctx, domain.UserCreatedEvent{UserID: u.ID, Email: u.Email, Timestamp: time.Now()})
			return result.Ok[any](u)
		})
	}
}

func loginHandler(d Deps) ports.HandlerFactory {
	return func() ports.Handler {
		return ports.HandlerFunc(func(ctx context.Context, rc *domain.RequestContext, msg ports.Message) result.Result[any] {
			cmd, ok := msg.(LoginCommand)
			if !ok {
				return result.Err[any](result.BadRequest("malformed login command"))
			}
			userResult := d.Authenticator.AuthenticateByEmail(ctx, domain.NormalizeEmail(cmd.Email))
			if userResult.IsErr() {
				return result.Err[any](result.Unauthorized("invalid credentials"))
			}
			u := userResult.Unwrap()
			if !d.Hasher.Verify(u.PasswordHash, cmd.Password) {
				return result.Err[any](result.Unauthorized("invalid credentials"))
			}
			pair, err := d.Sessions.MakeToken(ctx, u.ID, cmd.Fingerprint)
			if err != nil {
				return result.Err[any](result.Internal("failed to issue session"))
			}
			d.Events.Publish(ctx, domain.UserAuthenticatedEvent{UserID: u.ID, Fingerprint: cmd.Fingerprint, Timestamp: time.Now()})
			return result.Ok[any](pair)
		})
	}
}

func refreshHandler(d Deps) ports.HandlerFactory {
	return func() ports.Handler {
		return ports.HandlerFunc(func(ctx context.Context, rc *domain.RequestContext, msg ports.Message) result.Result[any] {
			cmd, ok := msg.(RefreshCommand)
			if !ok {
				return result.Err[any](result.BadRequest("malformed refresh command"))
			}
			pair, err := d.Sessions.Rotate(ctx, cmd.Fingerprint, cmd.RefreshToken)
			if err != nil {
				if errors.Is(err, ports.ErrSessionReplay) {
					d.reportReplay(ctx, cmd.RefreshToken, cmd.Fingerprint)
				}
				return result.Err[any](result.Unauthorized("invalid or expired refresh token"))
			}
			return result.Ok[any](pair)
		})
	}
}

func logoutHandler(d Deps) ports.HandlerFactory {
	return func() ports.Handler {
		return ports.HandlerFunc(func(ctx context.Context, rc *domain.RequestContext, msg ports.Message) result.Result[any] {
			cmd, ok := msg.(LogoutCommand)
			if !ok {
				return result.Err[any](result.BadRequest("malformed logout command"))
			}
			revoked, err := d.Sessions.Revoke(ctx, cmd.Fingerprint, cmd.RefreshToken)
			if err != nil {
				return result.Err[any](result.Internal("failed to revoke session"))
			}
			return result.Ok[any](revoked)
		})
	}
}

// reportReplay decodes the presented refresh token's subject (best-effort,
// for the event payload only) and publishes the replay-detected event.
func (d Deps) reportReplay(ctx context.Context, refreshToken, fingerprint string) {
	claims, err := d.Tokens.Verify(refreshToken)
	if err != nil {
		return
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return
	}
	d.Events.Publish(ctx, domain.SessionReplayDetectedEvent{UserID: userID, Fingerprint: fingerprint, Timestamp: time.Now()})
}
