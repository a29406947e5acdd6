package domain

import "github.com/IANDYI/authguard/internal/core/result"

// PermissionSpec is the static policy a route declares: which permission it
// requires and which request fields that permission's grant is allowed to
// restrict (component J consumes this to resolve scope/field Resolvers).
type PermissionSpec struct {
	Resource    string
	Action      Action
	Operation   string
	Description string
	Fields      FieldSet
}

// Key is the canonical lookup key matching Permission.Key/EffectivePermission.
func (p PermissionSpec) Key() string {
	return PermissionKey(p.Resource, string(p.Action), p.Operation)
}

// FieldResolver enforces a field-level policy against the permission
// granted for a request (component J's check_fields).
type FieldResolver func(perm EffectivePermission, rc *RequestContext) *result.AppError

// ScopeResolver enforces that an OWN-scoped grant only lets the caller
// touch their own resource (component J's check_scope). Manager is passed
// as `any` here to avoid a domain -> ports import cycle; resolvers that
// need it type-assert to ports.Manager.
type ScopeResolver func(rc *RequestContext, scope Scope, manager any) *result.AppError

// RouteRule binds an HTTP route to the permission it requires and whether an
// unauthenticated (public) caller may reach it at all.
type RouteRule struct {
	Method      string
	Pattern     string
	Permission  PermissionSpec
	Public      bool
	CheckFields FieldResolver
	CheckScope  ScopeResolver
}
