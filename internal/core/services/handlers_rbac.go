package services

import (
	"context"
	"time"

	"github.com/IANDYI/authguard/internal/core/domain"
	"github.com/IANDYI/authguard/internal/core/ports"
	"github.com/IANDYI/authguard/internal/core/result"
)

func createRoleHandler(d Deps) ports.HandlerFactory {
	return func() ports.Handler {
		return ports.HandlerFunc(func(ctx context.Context, rc *domain.RequestContext, msg ports.Message) result.Result[any] {
			cmd, ok := msg.(CreateRoleCommand)
			if !ok {
				return result.Err[any](result.BadRequest("malformed create-role command"))
			}
			gw, err := d.Gateways.ForCommand(ctx)
			if err != nil {
				return result.Err[any](result.ServiceUnavailable("database unavailable"))
			}
			created := gw.RBAC().CreateRole(ctx, cmd.Name, cmd.Level, cmd.IsSuperuser)
			if commitErr := commit(ctx, gw, created.Error()); commitErr != nil && created.IsOk() {
				return result.Err[any](result.Internal("failed to commit role creation"))
			}
			if created.IsErr() {
				return result.Err[any](created.Error())
			}
			refreshPermissionsView(ctx, d)
			return result.Ok[any](created.Unwrap())
		})
	}
}

func updateRoleHandler(d Deps) ports.HandlerFactory {
	return func() ports.Handler {
		return ports.HandlerFunc(func(ctx context.Context, rc *domain.RequestContext, msg ports.Message) result.Result[any] {
			cmd, ok := msg.(UpdateRoleCommand)
			if !ok {
				return result.Err[any](result.BadRequest("malformed update-role command"))
			}
			gw, err := d.Gateways.ForCommand(ctx)
			if err != nil {
				return result.Err[any](result.ServiceUnavailable("database unavailable"))
			}
			updated := gw.RBAC().UpdateRole(ctx, cmd.RoleID, cmd.Name, cmd.Level)
			if commitErr := commit(ctx, gw, updated.Error()); commitErr != nil && updated.IsOk() {
				return result.Err[any](result.Internal("failed to commit role update"))
			}
			if updated.IsErr() {
				return result.Err[any](updated.Error())
			}
			refreshPermissionsView(ctx, d)
			return result.Ok[any](updated.Unwrap())
		})
	}
}

func deleteRoleHandler(d Deps) ports.HandlerFactory {
	return func() ports.Handler {
		return ports.HandlerFunc(func(ctx context.Context, rc *domain.RequestContext, msg ports.Message) result.Result[any] {
			cmd, ok := msg.(DeleteRoleCommand)
			if !ok {
				return result.Err[any](result.BadRequest("malformed delete-role command"))
			}
			gw, err := d.Gateways.ForCommand(ctx)
			if err != nil {
				return result.Err[any](result.ServiceUnavailable("database unavailable"))
			}
			deleted := gw.RBAC().DeleteRole(ctx, cmd.RoleID)
			if commitErr := commit(ctx, gw, deleted.Error()); commitErr != nil && deleted.IsOk() {
				return result.Err[any](result.Internal("failed to commit role deletion"))
			}
			if deleted.IsErr() {
				return result.Err[any](deleted.Error())
			}
			refreshPermissionsView(ctx, d)
			return result.Ok[any](deleted.Unwrap())
		})
	}
}

func assignUserRoleHandler(d Deps) ports.HandlerFactory {
	return func() ports.Handler {
		return ports.HandlerFunc(func(ctx context.Context, rc *domain.RequestContext, msg ports.Message) result.Result[any] {
			cmd, ok := msg.(AssignUserRoleCommand)
			if !ok {
				return result.Err[any](result.BadRequest("malformed assign-user-role command"))
			}
			gw, err := d.Gateways.ForCommand(ctx)
			if err != nil {
				return result.Err[any](result.ServiceUnavailable("database unavailable"))
			}
			assigned := gw.RBAC().AssignUserRole(ctx, cmd.UserID, cmd.RoleID)
			if commitErr := commit(ctx, gw, assigned.Error()); commitErr != nil && assigned.IsOk() {
				return result.Err[any](result.Internal("failed to commit role assignment"))
			}
			if assigned.IsErr() {
				return result.Err[any](assigned.Error())
			}
			refreshPermissionsView(ctx, d)
			d.Events.Publish(ctx, domain.RoleAssignmentChangedEvent{UserID: cmd.UserID, RoleID: cmd.RoleID, Assigned: true, Timestamp: time.Now()})
			return result.Ok[any](assigned.Unwrap())
		})
	}
}

func revokeUserRoleHandler(d Deps) ports.HandlerFactory {
	return func() ports.Handler {
		return ports.HandlerFunc(func(ctx context.Context, rc *domain.RequestContext, msg ports.Message) result.Result[any] {
			cmd, ok := msg.(RevokeUserRoleCommand)
			if !ok {
				return result.Err[any](result.BadRequest("malformed revoke-user-role command"))
			}
			gw, err := d.Gateways.ForCommand(ctx)
			if err != nil {
				return result.Err[any](result.ServiceUnavailable("database unavailable"))
			}
			revoked := gw.RBAC().RevokeUserRole(ctx, cmd.UserID, cmd.RoleID)
			if commitErr := commit(ctx, gw, revoked.Error()); commitErr != nil && revoked.IsOk() {
				return result.Err[any](result.Internal("failed to commit role revocation"))
			}
			if revoked.IsErr() {
				return result.Err[any](revoked.Error())
			}
			refreshPermissionsView(ctx, d)
			d.Events.Publish(ctx, domain.RoleAssignmentChangedEvent{UserID: cmd.UserID, RoleID: cmd.RoleID, Assigned: false, Timestamp: time.Now()})
			return result.Ok[any](revoked.Unwrap())
		})
	}
}

func grantPermissionHandler(d Deps) ports.HandlerFactory {
	return func() ports.Handler {
		return ports.HandlerFunc(func(ctx context.Context, rc *domain.RequestContext, msg ports.Message) result.Result[any] {
			cmd, ok := msg.(GrantPermissionCommand)
			if !ok {
				return result.Err[any](result.BadRequest("malformed grant-permission command"))
			}
			gw, err := d.Gateways.ForCommand(ctx)
			if err != nil {
				return result.Err[any](result.ServiceUnavailable("database unavailable"))
			}
			granted := gw.RBAC().GrantPermission(ctx, cmd.RoleID, cmd.PermissionID, cmd.Scope)
			if commitErr := commit(ctx, gw, granted.Error()); commitErr != nil && granted.IsOk() {
				return result.Err[any](result.Internal("failed to commit permission grant"))
			}
			if granted.IsErr() {
				return result.Err[any](granted.Error())
			}
			refreshPermissionsView(ctx, d)
			d.Events.Publish(ctx, domain.PermissionGrantChangedEvent{RoleID: cmd.RoleID, PermissionID: cmd.PermissionID, Granted: true, Timestamp: time.Now()})
			return result.Ok[any](granted.Unwrap())
		})
	}
}

func revokePermissionHandler(d Deps) ports.HandlerFactory {
	return func() ports.Handler {
		return ports.HandlerFunc(func(ctx context.Context, rc *domain.RequestContext, msg ports.Message) result.Result[any] {
			cmd, ok := msg.(RevokePermissionCommand)
			if !ok {
				return result.Err[any](result.BadRequest("malformed revoke-permission command"))
			}
			gw, err := d.Gateways.ForCommand(ctx)
			if err != nil {
				return result.Err[any](result.ServiceUnavailable("database unavailable"))
			}
			revoked := gw.RBAC().RevokePermission(ctx, cmd.RoleID, cmd.PermissionID)
			if commitErr := commit(ctx, gw, revoked.Error()); commitErr != nil && revoked.IsOk() {
				return result.Err[any](result.Internal("failed to commit permission revocation"))
			}
			if revoked.IsErr() {
				return result.Err[any](revoked.Error())
			}
			refreshPermissionsView(ctx, d)
			d.Events.Publish(ctx, domain.PermissionGrantChangedEvent{RoleID: cmd.RoleID, PermissionID: cmd.PermissionID, Granted: false, Timestamp: time.Now()})
			return result.Ok[any](revoked.Unwrap())
		})
	}
}

func grantFieldHandler(d Deps) ports.HandlerFactory {
	return func() ports.Handler {
		return ports.HandlerFunc(func(ctx context.Context, rc *domain.RequestContext, msg ports.Message) result.Result[any] {
			cmd, ok := msg.(GrantFieldCommand)
			if !ok {
				return result.Err[any](result.BadRequest("malformed grant-field command"))
			}
			gw, err := d.Gateways.ForCommand(ctx)
			if err != nil {
				return result.Err[any](result.ServiceUnavailable("database unavailable"))
			}
			granted := gw.RBAC().GrantField(ctx, cmd.RoleID, cmd.PermissionID, cmd.FieldID, cmd.Effect)
			if commitErr := commit(ctx, gw, granted.Error()); commitErr != nil && granted.IsOk() {
				return result.Err[any](result.Internal("failed to commit field grant"))
			}
			if granted.IsErr() {
				return result.Err[any](granted.Error())
			}
			refreshPermissionsView(ctx, d)
			d.Events.Publish(ctx, domain.PermissionGrantChangedEvent{RoleID: cmd.RoleID, PermissionID: cmd.PermissionID, FieldID: cmd.FieldID, Granted: true, Timestamp: time.Now()})
			return result.Ok[any](granted.Unwrap())
		})
	}
}

func revokeFieldHandler(d Deps) ports.HandlerFactory {
	return func() ports.Handler {
		return ports.HandlerFunc(func(ctx context.Context, rc *domain.RequestContext, msg ports.Message) result.Result[any] {
			cmd, ok := msg.(RevokeFieldCommand)
			if !ok {
				return result.Err[any](result.BadRequest("malformed revoke-field command"))
			}
			gw, err := d.Gateways.ForCommand(ctx)
			if err != nil {
				return result.Err[any](result.ServiceUnavailable("database unavailable"))
			}
			revoked := gw.RBAC().RevokeField(ctx, cmd.RoleID, cmd.PermissionID, cmd.FieldID)
			if commitErr := commit(ctx, gw, revoked.Error()); commitErr != nil && revoked.IsOk() {
				return result.Err[any](result.Internal("failed to commit field revocation"))
			}
			if revoked.IsErr() {
				return result.Err[any](revoked.Error())
			}
			refreshPermissionsView(ctx, d)
			d.Events.Publish(ctx, domain.PermissionGrantChangedEvent{RoleID: cmd.RoleID, PermissionID: cmd.PermissionID, FieldID: cmd.FieldID, Granted: false, Timestamp: time.Now()})
			return result.Ok[any](revoked.Unwrap())
		})
	}
}

func listRolesHandler(d Deps) ports.HandlerFactory {
	return func() ports.Handler {
		return ports.HandlerFunc(func(ctx context.Context, rc *domain.RequestContext, msg ports.Message) result.Result[any] {
			gw, err := d.Gateways.ForQuery(ctx)
			if err != nil {
				return result.Err[any](result.ServiceUnavailable("database unavailable"))
			}
			roles := gw.RBAC().ListRoles(ctx)
			if roles.IsErr() {
				return result.Err[any](roles.Error())
			}
			return result.Ok[any](roles.Unwrap())
		})
	}
}

// getRoleHandler composes the role-detail view (role + its permission
// grants) the original_source supplement calls for.
func getRoleHandler(d Deps) ports.HandlerFactory {
	return func() ports.Handler {
		return ports.HandlerFunc(func(ctx context.Context, rc *domain.RequestContext, msg ports.Message) result.Result[any] {
			cmd, ok := msg.(GetRoleQuery)
			if !ok {
				return result.Err[any](result.BadRequest("malformed get-role query"))
			}
			gw, err := d.Gateways.ForQuery(ctx)
			if err != nil {
				return result.Err[any](result.ServiceUnavailable("database unavailable"))
			}
			role := gw.RBAC().GetRole(ctx, cmd.RoleID)
			if role.IsErr() {
				return result.Err[any](role.Error())
			}
			grants := gw.RBAC().ListRolePermissions(ctx, cmd.RoleID)
			if grants.IsErr() {
				return result.Err[any](grants.Error())
			}
			return result.Ok[any](domain.RoleDetail{Role: role.Unwrap(), Grants: grants.Unwrap()})
		})
	}
}

func listPermissionsHandler(d Deps) ports.HandlerFactory {
	return func() ports.Handler {
		return ports.HandlerFunc(func(ctx context.Context, rc *domain.RequestContext, msg ports.Message) result.Result[any] {
			gw, err := d.Gateways.ForQuery(ctx)
			if err != nil {
				return result.Err[any](result.ServiceUnavailable("database unavailable"))
			}
			perms := gw.RBAC().ListPermissions(ctx)
			if perms.IsErr() {
				return result.Err[any](perms.Error())
			}
			return result.Ok[any](perms.Unwrap())
		})
	}
}
