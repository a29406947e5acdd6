package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/IANDYI/authguard/internal/core/domain"
	"github.com/IANDYI/authguard/internal/core/ports"
	"github.com/IANDYI/authguard/internal/core/result"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sony/gobreaker"
)

type RBACRepository struct {
	exec ports.Executor
	cb   *gobreaker.CircuitBreaker
}

func (r *RBACRepository) CreateRole(ctx context.Context, name string, level int, isSuperuser bool) result.Result[domain.Role] {
	role := domain.Role{ID: uuid.New(), Name: name, Level: level, IsSuperuser: isSuperuser}
	err := resilient(r.cb, func() error {
		_, execErr := r.exec.ExecContext(ctx,
			`INSERT INTO roles (id, name, level, is_superuser) VALUES ($1, $2, $3, $4)`,
			role.ID, role.Name, role.Level, role.IsSuperuser)
		return execErr
	})
	if isUniqueViolation(err) {
		return result.Err[domain.Role](result.Conflict(fmt.Sprintf("role %s already exists", name)))
	}
	if err != nil {
		return result.AsResult(domain.Role{}, err)
	}
	return result.Ok(role)
}

func (r *RBACRepository) GetRole(ctx context.Context, id uuid.UUID) result.Result[domain.Role] {
	var role domain.Role
	err := resilient(r.cb, func() error {
		row := r.exec.QueryRowContext(ctx, `SELECT id, name, level, is_superuser FROM roles WHERE id = $1`, id)
		return row.Scan(&role.ID, &role.Name, &role.Level, &role.IsSuperuser)
	})
	if err != nil {
		return result.AsResult(domain.Role{}, err)
	}
	return result.Ok(role)
}

func (r *RBACRepository) ListRoles(ctx context.Context) result.Result[[]domain.Role] {
	var roles []domain.Role
	err := resilient(r.cb, func() error {
		rows, queryErr := r.exec.QueryContext(ctx, `SELECT id, name, level, is_superuser FROM roles ORDER BY level DESC`)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		for rows.Next() {
			var role domain.Role
			if err := rows.Scan(&role.ID, &role.Name, &role.Level, &role.IsSuperuser); err != nil {
				return err
			}
			roles = append(roles, role)
		}
		return rows.Err()
	})
	if err != nil {
		return result.AsResult[[]domain.Role](nil, err)
	}
	return result.Ok(roles)
}

func (r *RBACRepository) UpdateRole(ctx context.Context, id uuid.UUID, name *string, level *int) result.Result[domain.Role] {
	err := resilient(r.cb, func() error {
		sets := []string{}
		var args []interface{}
		idx := 1
		if name != nil {
			sets = append(sets, fmt.Sprintf("name = $%d", idx))
			args = append(args, *name)
			idx++
		}
		if level != nil {
			sets = append(sets, fmt.Sprintf("level = $%d", idx))
			args = append(args, *level)
			idx++
		}
		if len(sets) == 0 {
			return nil
		}
		args = append(args, id)
		query := fmt.Sprintf("UPDATE roles SET %s WHERE id = $%d", strings.Join(sets, ", "), idx)
		res, execErr := r.exec.ExecContext(ctx, query, args...)
		if execErr != nil {
			return execErr
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
	if isUniqueViolation(err) {
		return result.Err[domain.Role](result.Conflict("role name already exists"))
	}
	if err != nil {
		return result.AsResult(domain.Role{}, err)
	}
	return r.GetRole(ctx, id)
}

func (r *RBACRepository) DeleteRole(ctx context.Context, id uuid.UUID) result.Result[bool] {
	err := resilient(r.cb, func() error {
		res, execErr := r.exec.ExecContext(ctx, `DELETE FROM roles WHERE id = $1`, id)
		if execErr != nil {
			return execErr
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
	if err != nil {
		return result.AsResult(false, err)
	}
	return result.Ok(true)
}

func (r *RBACRepository) AssignUserRole(ctx context.Context, userID, roleID uuid.UUID) result.Result[bool] {
	err := resilient(r.cb, func() error {
		_, execErr := r.exec.ExecContext(ctx,
			`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, userID, roleID)
		return execErr
	})
	if err != nil {
		return result.AsResult(false, err)
	}
	return result.Ok(true)
}

func (r *RBACRepository) RevokeUserRole(ctx context.Context, userID, roleID uuid.UUID) result.Result[bool] {
	err := resilient(r.cb, func() error {
		_, execErr := r.exec.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`, userID, roleID)
		return execErr
	})
	if err != nil {
		return result.AsResult(false, err)
	}
	return result.Ok(true)
}

func (r *RBACRepository) GrantPermission(ctx context.Context, roleID, permissionID uuid.UUID, scope domain.Scope) result.Result[domain.RolePermission] {
	rp := domain.RolePermission{RoleID: roleID, PermissionID: permissionID, Scope: scope}
	err := resilient(r.cb, func() error {
		_, execErr := r.exec.ExecContext(ctx, `
			INSERT INTO role_permissions (role_id, permission_id, scope) VALUES ($1, $2, $3)
			ON CONFLICT (role_id, permission_id) DO UPDATE SET scope = EXCLUDED.scope`,
			rp.RoleID, rp.PermissionID, string(rp.Scope))
		return execErr
	})
	if err != nil {
		return result.AsResult(domain.RolePermission{}, err)
	}
	return result.Ok(rp)
}

func (r *RBACRepository) RevokePermission(ctx context.Context, roleID, permissionID uuid.UUID) result.Result[bool] {
	err := resilient(r.cb, func() error {
		_, execErr := r.exec.ExecContext(ctx,
			`DELETE FROM role_permissions WHERE role_id = $1 AND permission_id = $2`, roleID, permissionID)
		return execErr
	})
	if err != nil {
		return result.AsResult(false, err)
	}
	return result.Ok(true)
}

// ListRolePermissions returns every permission grant for a role, used to
// compose the nested role-detail view.
func (r *RBACRepository) ListRolePermissions(ctx context.Context, roleID uuid.UUID) result.Result[[]domain.RolePermission] {
	var grants []domain.RolePermission
	err := resilient(r.cb, func() error {
		rows, queryErr := r.exec.QueryContext(ctx,
			`SELECT role_id, permission_id, scope FROM role_permissions WHERE role_id = $1`, roleID)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		for rows.Next() {
			var rp domain.RolePermission
			var scope string
			if err := rows.Scan(&rp.RoleID, &rp.PermissionID, &scope); err != nil {
				return err
			}
			rp.Scope = domain.Scope(scope)
			grants = append(grants, rp)
		}
		return rows.Err()
	})
	if err != nil {
		return result.AsResult[[]domain.RolePermission](nil, err)
	}
	return result.Ok(grants)
}

func (r *RBACRepository) GrantField(ctx context.Context, roleID, permissionID, fieldID uuid.UUID, effect domain.Effect) result.Result[domain.RolePermissionField] {
	rpf := domain.RolePermissionField{RoleID: roleID, PermissionID: permissionID, FieldID: fieldID, Effect: effect}
	err := resilient(r.cb, func() error {
		_, execErr := r.exec.ExecContext(ctx, `
			INSERT INTO role_permission_fields (role_id, permission_id, field_id, effect) VALUES ($1, $2, $3, $4)
			ON CONFLICT (role_id, permission_id, field_id) DO UPDATE SET effect = EXCLUDED.effect`,
			rpf.RoleID, rpf.PermissionID, rpf.FieldID, string(rpf.Effect))
		return execErr
	})
	if err != nil {
		return result.AsResult(domain.RolePermissionField{}, err)
	}
	return result.Ok(rpf)
}

func (r *RBACRepository) RevokeField(ctx context.Context, roleID, permissionID, fieldID uuid.UUID) result.Result[bool] {
	err := resilient(r.cb, func() error {
		_, execErr := r.exec.ExecContext(ctx,
			`DELETE FROM role_permission_fields WHERE role_id = $1 AND permission_id = $2 AND field_id = $3`,
			roleID, permissionID, fieldID)
		return execErr
	})
	if err != nil {
		return result.AsResult(false, err)
	}
	return result.Ok(true)
}

func (r *RBACRepository) UpsertPermission(ctx context.Context, resource string, action domain.Action, operation, description string) result.Result[domain.Permission] {
	key := domain.PermissionKey(resource, string(action), operation)
	err := resilient(r.cb, func() error {
		_, execErr := r.exec.ExecContext(ctx, `
			INSERT INTO permissions (id, resource, action, operation, description, key)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (key) DO NOTHING`,
			uuid.New(), resource, string(action), operation, description, key)
		return execErr
	})
	if err != nil {
		return result.AsResult(domain.Permission{}, err)
	}
	return r.GetPermissionByKey(ctx, key)
}

func (r *RBACRepository) GetPermissionByKey(ctx context.Context, key string) result.Result[domain.Permission] {
	var p domain.Permission
	var action string
	err := resilient(r.cb, func() error {
		row := r.exec.QueryRowContext(ctx,
			`SELECT id, resource, action, operation, description FROM permissions WHERE key = $1`, key)
		return row.Scan(&p.ID, &p.Resource, &action, &p.Operation, &p.Description)
	})
	if err != nil {
		return result.AsResult(domain.Permission{}, err)
	}
	p.Action = domain.Action(action)
	return result.Ok(p)
}

func (r *RBACRepository) ListPermissions(ctx context.Context) result.Result[[]domain.Permission] {
	var perms []domain.Permission
	err := resilient(r.cb, func() error {
		rows, queryErr := r.exec.QueryContext(ctx,
			`SELECT id, resource, action, operation, description FROM permissions ORDER BY resource, action, operation`)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		for rows.Next() {
			var p domain.Permission
			var action string
			if err := rows.Scan(&p.ID, &p.Resource, &action, &p.Operation, &p.Description); err != nil {
				return err
			}
			p.Action = domain.Action(action)
			perms = append(perms, p)
		}
		return rows.Err()
	})
	if err != nil {
		return result.AsResult[[]domain.Permission](nil, err)
	}
	return result.Ok(perms)
}

func (r *RBACRepository) UpsertFields(ctx context.Context, permissionID uuid.UUID, fields domain.FieldSet) result.Result[[]domain.PermissionField] {
	var out []domain.PermissionField
	err := resilient(r.cb, func() error {
		for src, names := range fields {
			for name := range names {
				id := uuid.New()
				if _, execErr := r.exec.ExecContext(ctx, `
					INSERT INTO permission_fields (id, permission_id, src, name) VALUES ($1, $2, $3, $4)
					ON CONFLICT (permission_id, src, name) DO NOTHING`,
					id, permissionID, string(src), name); execErr != nil {
					return execErr
				}
				out = append(out, domain.PermissionField{ID: id, PermissionID: permissionID, Src: src, Name: name})
			}
		}
		return nil
	})
	if err != nil {
		return result.AsResult[[]domain.PermissionField](nil, err)
	}
	return result.Ok(out)
}

// GetEffectivePermission reads the single materialized row produced by
// mv_user_permissions for (userID, permissionKey), unioning allow/deny field
// grants that were aggregated across the user's roles when the view was
// last refreshed.
func (r *RBACRepository) GetEffectivePermission(ctx context.Context, userID uuid.UUID, permissionKey string) result.Result[domain.EffectivePermission] {
	var (
		ep          domain.EffectivePermission
		action      string
		scope       string
		allowQuery  []string
		allowJSON   []string
		denyQuery   []string
		denyJSON    []string
	)
	err := resilient(r.cb, func() error {
		row := r.exec.QueryRowContext(ctx, `
			SELECT resource, action, operation, description, scope,
			       allow_query_fields, allow_json_fields, deny_query_fields, deny_json_fields
			FROM mv_user_permissions
			WHERE user_id = $1 AND permission_key = $2`, userID, permissionKey)
		return row.Scan(&ep.Resource, &action, &ep.Operation, &ep.Description, &scope,
			pq.Array(&allowQuery), pq.Array(&allowJSON), pq.Array(&denyQuery), pq.Array(&denyJSON))
	})
	if err != nil {
		return result.AsResult(domain.EffectivePermission{}, err)
	}
	ep.Action = domain.Action(action)
	ep.Scope = domain.Scope(scope)
	ep.AllowFields = buildFieldSet(allowQuery, allowJSON)
	ep.DenyFields = buildFieldSet(denyQuery, denyJSON)
	return result.Ok(ep)
}

func buildFieldSet(query, json []string) domain.FieldSet {
	fs := domain.FieldSet{}
	if len(query) > 0 {
		fs[domain.SourceQuery] = toSet(query)
	}
	if len(json) > 0 {
		fs[domain.SourceJSON] = toSet(json)
	}
	return fs
}

func toSet(names []string) map[string]struct{} {
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		out[strings.ToLower(n)] = struct{}{}
	}
	return out
}

// RefreshEffectivePermissions rebuilds mv_user_permissions. Called
// synchronously after every RBAC-mutating commit (grant/revoke role,
// permission or field) per the concurrency model's resolved refresh
// cadence.
func (r *RBACRepository) RefreshEffectivePermissions(ctx context.Context) result.Result[bool] {
	err := resilient(r.cb, func() error {
		_, execErr := r.exec.ExecContext(ctx, `REFRESH MATERIALIZED VIEW CONCURRENTLY mv_user_permissions`)
		return execErr
	})
	if err != nil {
		return result.AsResult(false, err)
	}
	return result.Ok(true)
}
