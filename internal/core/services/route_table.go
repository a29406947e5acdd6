// route_table.go implements component J: the static RouteRule table plus
// the named FieldResolver/ScopeResolver constructors the Auth Middleware
// composes at request time. No pack repo carries this exact policy shape,
// so the constructors are original, following the result.Result idiom used
// throughout this package.
package services

import (
	"net/url"

	"github.com/IANDYI/authguard/internal/core/domain"
	"github.com/IANDYI/authguard/internal/core/result"
)

// AllowAll never denies a field.
func AllowAll() domain.FieldResolver {
	return func(perm domain.EffectivePermission, rc *domain.RequestContext) *result.AppError {
		return nil
	}
}

// DenyList 403s if any key present in the request's src carries a deny
// grant for this permission.
func DenyList(src domain.Source) domain.FieldResolver {
	return func(perm domain.EffectivePermission, rc *domain.RequestContext) *result.AppError {
		for key := range requestKeys(src, rc) {
			if perm.DenyFields.Has(src, key) {
				return result.Forbidden("field is denied by policy").WithContext("field", key)
			}
		}
		return nil
	}
}

// AllowList 403s if any key present in the request's src is absent from
// this permission's allow grant.
func AllowList(src domain.Source) domain.FieldResolver {
	return func(perm domain.EffectivePermission, rc *domain.RequestContext) *result.AppError {
		for key := range requestKeys(src, rc) {
			if !perm.AllowFields.Has(src, key) {
				return result.Forbidden("field is not allowed by policy").WithContext("field", key)
			}
		}
		return nil
	}
}

// Mixed applies DenyList first, then AllowList, so an explicit deny always
// wins over an allow grant for the same field.
func Mixed(src domain.Source) domain.FieldResolver {
	deny := DenyList(src)
	allow := AllowList(src)
	return func(perm domain.EffectivePermission, rc *domain.RequestContext) *result.AppError {
		if err := deny(perm, rc); err != nil {
			return err
		}
		return allow(perm, rc)
	}
}

func requestKeys(src domain.Source, rc *domain.RequestContext) map[string]struct{} {
	keys := map[string]struct{}{}
	switch src {
	case domain.SourceJSON:
		for k := range rc.JSONParams {
			keys[k] = struct{}{}
		}
	case domain.SourceQuery:
		for k := range rc.QueryParams {
			keys[k] = struct{}{}
		}
	}
	return keys
}

// ByUserID restricts an OWN-scoped grant to the {user_id} path parameter
// matching the caller's own id.
func ByUserID() domain.ScopeResolver {
	return func(rc *domain.RequestContext, scope domain.Scope, manager any) *result.AppError {
		if scope == domain.ScopeAny {
			return nil
		}
		if rc.User == nil {
			return result.Forbidden("scope restricts this action to an authenticated owner")
		}
		if rc.PathParams["user_id"] != rc.User.ID.String() {
			return result.Forbidden("scope restricts this action to your own account")
		}
		return nil
	}
}

// ByUserEmail restricts an OWN-scoped grant to the `email` query parameter
// matching the caller's own email, when present.
func ByUserEmail() domain.ScopeResolver {
	return func(rc *domain.RequestContext, scope domain.Scope, manager any) *result.AppError {
		if scope == domain.ScopeAny {
			return nil
		}
		if rc.User == nil {
			return result.Forbidden("scope restricts this action to an authenticated owner")
		}
		email := domain.NormalizeEmail(url.Values(rc.QueryParams).Get("email"))
		if email != "" && email != rc.User.Email {
			return result.Forbidden("scope restricts this listing to your own email")
		}
		return nil
	}
}

func perm(resource string, action domain.Action, operation, description string, fields ...domain.FieldSet) domain.PermissionSpec {
	spec := domain.PermissionSpec{Resource: resource, Action: action, Operation: operation, Description: description}
	if len(fields) > 0 {
		spec.Fields = fields[0]
	}
	return spec
}

// RouteRules is the authoritative route table (component J): every public
// and permission-guarded HTTP route, its permission requirement (if any) and
// its scope/field policy. GET /private/users/me (authentication only) and
// the health and metrics routes have no rule. The Bootstrapper walks this
// same slice to seed the permission catalog, and main.go builds the
// AuthMiddleware's RouteTable from it; main.go mounts the routes on the
// ServeMux separately.
func RouteRules() []domain.RouteRule {
	return []domain.RouteRule{
		{Method: "POST", Pattern: "/public/users", Public: true},
		{Method: "POST", Pattern: "/public/auth/login", Public: true},
		{Method: "POST", Pattern: "/public/auth/logout", Public: true},
		{Method: "POST", Pattern: "/public/auth/refresh", Public: true},

		{
			Method:      "GET",
			Pattern:     "/private/users/{user_id}",
			Permission:  perm("users", domain.ActionRead, "detail", "read a single user's profile"),
			CheckScope:  ByUserID(),
			CheckFields: AllowAll(),
		},
		{
			Method:      "GET",
			Pattern:     "/private/users",
			Permission:  perm("users", domain.ActionRead, "list", "list users"),
			CheckScope:  ByUserEmail(),
			CheckFields: AllowAll(),
		},
		{
			Method:      "PATCH",
			Pattern:     "/private/users/{user_id}",
			Permission:  perm("users", domain.ActionUpdate, "update", "update a user's own profile fields", domain.NewFieldSet(domain.SourceJSON, "email", "password")),
			CheckScope:  ByUserID(),
			CheckFields: DenyList(domain.SourceJSON),
		},
		{
			Method:      "DELETE",
			Pattern:     "/private/users/{user_id}",
			Permission:  perm("users", domain.ActionDelete, "delete", "delete a user account"),
			CheckScope:  ByUserID(),
			CheckFields: AllowAll(),
		},

		{Method: "POST", Pattern: "/private/rbac/roles", Permission: perm("roles", domain.ActionCreate, "create", "create a role")},
		{Method: "GET", Pattern: "/private/rbac/roles", Permission: perm("roles", domain.ActionRead, "list", "list roles")},
		{Method: "GET", Pattern: "/private/rbac/roles/{role_id}", Permission: perm("roles", domain.ActionRead, "detail", "read a role with its grants")},
		{Method: "PATCH", Pattern: "/private/rbac/roles/{role_id}", Permission: perm("roles", domain.ActionUpdate, "update", "update a role")},
		{Method: "DELETE", Pattern: "/private/rbac/roles/{role_id}", Permission: perm("roles", domain.ActionDelete, "delete", "delete a role")},

		{Method: "POST", Pattern: "/private/rbac/roles/{role_id}/users/{user_id}", Permission: perm("role_assignments", domain.ActionCreate, "assign", "assign a role to a user")},
		{Method: "DELETE", Pattern: "/private/rbac/roles/{role_id}/users/{user_id}", Permission: perm("role_assignments", domain.ActionDelete, "revoke", "revoke a role from a user")},

		{Method: "POST", Pattern: "/private/rbac/roles/{role_id}/permissions/{permission_id}", Permission: perm("role_permissions", domain.ActionCreate, "grant", "grant a permission to a role")},
		{Method: "DELETE", Pattern: "/private/rbac/roles/{role_id}/permissions/{permission_id}", Permission: perm("role_permissions", domain.ActionDelete, "revoke", "revoke a permission from a role")},

		{Method: "POST", Pattern: "/private/rbac/roles/{role_id}/permissions/{permission_id}/fields/{field_id}", Permission: perm("role_permission_fields", domain.ActionCreate, "grant", "grant a field within a role's permission")},
		{Method: "DELETE", Pattern: "/private/rbac/roles/{role_id}/permissions/{permission_id}/fields/{field_id}", Permission: perm("role_permission_fields", domain.ActionDelete, "revoke", "revoke a field within a role's permission")},

		{Method: "GET", Pattern: "/private/rbac/catalog", Permission: perm("permissions", domain.ActionRead, "list", "list the permission catalog")},
	}
}

// RouteTable indexes RouteRules by method+pattern for the Auth Middleware.
func RouteTable() map[string]domain.RouteRule {
	table := make(map[string]domain.RouteRule)
	for _, rule := range RouteRules() {
		table[rule.Method+" "+rule.Pattern] = rule
	}
	return table
}
