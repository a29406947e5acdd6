package services

import (
	"context"
	"log"

	"github.com/IANDYI/authguard/internal/core/ports"
	"github.com/IANDYI/authguard/internal/core/result"
)

// Deps wires every port a command/query handler needs. It is built once in
// cmd/api/main.go and closed over by each handler factory registered on the
// Bus.
type Deps struct {
	Gateways      ports.GatewayFactory
	Hasher        ports.Hasher
	Tokens        ports.TokenIssuer
	Sessions      ports.RefreshStore
	Authenticator *Authenticator
	Events        ports.EventBus
}

// RegisterCommandHandlers registers every mutating message this package
// implements onto the command bus. Kept separate from
// RegisterQueryHandlers so main.go can give the two buses different
// middleware chains (cache-invalidate vs cache-through).
func RegisterCommandHandlers(bus ports.Bus, d Deps) {
	bus.Register(SignupCommand{}.MessageType(), signupHandler(d))
	bus.Register(LoginCommand{}.MessageType(), loginHandler(d))
	bus.Register(RefreshCommand{}.MessageType(), refreshHandler(d))
	bus.Register(LogoutCommand{}.MessageType(), logoutHandler(d))

	bus.Register(UpdateUserCommand{}.MessageType(), updateUserHandler(d))
	bus.Register(DeleteUserCommand{}.MessageType(), deleteUserHandler(d))

	bus.Register(CreateRoleCommand{}.MessageType(), createRoleHandler(d))
	bus.Register(UpdateRoleCommand{}.MessageType(), updateRoleHandler(d))
	bus.Register(DeleteRoleCommand{}.MessageType(), deleteRoleHandler(d))
	bus.Register(AssignUserRoleCommand{}.MessageType(), assignUserRoleHandler(d))
	bus.Register(RevokeUserRoleCommand{}.MessageType(), revokeUserRoleHandler(d))
	bus.Register(GrantPermissionCommand{}.MessageType(), grantPermissionHandler(d))
	bus.Register(RevokePermissionCommand{}.MessageType(), revokePermissionHandler(d))
	bus.Register(GrantFieldCommand{}.MessageType(), grantFieldHandler(d))
	bus.Register(RevokeFieldCommand{}.MessageType(), revokeFieldHandler(d))
}

// RegisterQueryHandlers registers every read-only message this package
// implements onto the query bus.
func RegisterQueryHandlers(bus ports.Bus, d Deps) {
	bus.Register(GetUserQuery{}.MessageType(), getUserHandler(d))
	bus.Register(ListUsersQuery{}.MessageType(), listUsersHandler(d))
	bus.Register(ListRolesQuery{}.MessageType(), listRolesHandler(d))
	bus.Register(GetRoleQuery{}.MessageType(), getRoleHandler(d))
	bus.Register(ListPermissionsQuery{}.MessageType(), listPermissionsHandler(d))
}

// commit finishes gw's transaction, rolling back when appErr is non-nil.
// AppErr must be converted through this helper rather than passed directly
// as an `error`, since a typed-nil *result.AppError boxed straight into the
// error interface is non-nil and would force a spurious rollback.
func commit(ctx context.Context, gw ports.Gateway, appErr *result.AppError) error {
	var err error
	if appErr != nil {
		err = appErr
	}
	return gw.Manager().Finish(ctx, err)
}

// refreshPermissionsView rebuilds mv_user_permissions out-of-band,
// synchronously, right after an RBAC-mutating command commits.
func refreshPermissionsView(ctx context.Context, d Deps) {
	gw, err := d.Gateways.ForQuery(ctx)
	if err != nil {
		log.Printf("rbac: could not open gateway to refresh effective permissions: %v", err)
		return
	}
	if res := gw.RBAC().RefreshEffectivePermissions(ctx); res.IsErr() {
		log.Printf("rbac: failed to refresh effective permissions view: %v", res.Error())
	}
}
