// Package services implements the business-logic components H, I and J:
// the Authenticator, the permission catalog bootstrapper and the route
// rule/field/scope resolvers that the auth middleware composes at request
// time. Composition here is original (no pack repo carries this exact
// policy-evaluation shape); each piece follows the result.Result idiom
// established in internal/core/result.
package services

import (
	"context"

	"github.com/IANDYI/authguard/internal/core/domain"
	"github.com/IANDYI/authguard/internal/core/ports"
	"github.com/IANDYI/authguard/internal/core/result"
	"github.com/google/uuid"
)

// Authenticator resolves the calling principal and the Permission granted
// for a route's PermissionSpec (component H).
type Authenticator struct {
	gateways ports.GatewayFactory
}

func NewAuthenticator(gateways ports.GatewayFactory) *Authenticator {
	return &Authenticator{gateways: gateways}
}

// AuthenticateByID loads the user (with roles) for a verified access
// token's subject.
func (a *Authenticator) AuthenticateByID(ctx context.Context, userID uuid.UUID) result.Result[domain.User] {
	gw, err := a.gateways.ForQuery(ctx)
	if err != nil {
		return result.Err[domain.User](result.Internal("authenticator: open gateway").WithContext("cause", err.Error()))
	}
	return gw.User().GetByID(ctx, userID)
}

func (a *Authenticator) AuthenticateByEmail(ctx context.Context, email string) result.Result[domain.User] {
	gw, err := a.gateways.ForQuery(ctx)
	if err != nil {
		return result.Err[domain.User](result.Internal("authenticator: open gateway").WithContext("cause", err.Error()))
	}
	return gw.User().GetByEmail(ctx, email)
}

// GetPermissionFor reads the single EffectivePermission materialized row for
// (user, spec.Key()).
func (a *Authenticator) GetPermissionFor(ctx context.Context, user domain.User, spec domain.PermissionSpec) result.Result[domain.EffectivePermission] {
	gw, err := a.gateways.ForQuery(ctx)
	if err != nil {
		return result.Err[domain.EffectivePermission](result.Internal("authenticator: open gateway").WithContext("cause", err.Error()))
	}
	return gw.RBAC().GetEffectivePermission(ctx, user.ID, spec.Key())
}
