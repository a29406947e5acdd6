package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Action is the CRUD-ish verb a Permission authorizes.
type Action string

const (
	ActionRead   Action = "READ"
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// Scope restricts a granted permission to the caller's own resources (OWN)
// or lifts the restriction entirely (ANY).
type Scope string

const (
	ScopeOwn Scope = "OWN"
	ScopeAny Scope = "ANY"
)

// Source is the request surface a field-level policy reads keys from.
type Source string

const (
	SourceQuery Source = "QUERY"
	SourceJSON  Source = "JSON"
)

// Effect is whether a field grant allows or denies the field.
type Effect string

const (
	EffectAllow Effect = "ALLOW"
	EffectDeny  Effect = "DENY"
)

// Permission is a catalog entry: one row per (resource, action, operation).
type Permission struct {
	ID          uuid.UUID         `json:"id"`
	Resource    string            `json:"resource"`
	Action      Action            `json:"action"`
	Operation   string            `json:"operation"`
	Description string            `json:"description"`
	Fields      []PermissionField `json:"fields,omitempty"`
}

// Key is the canonical lowercase identifier used across the cache and the
// policy view: "resource:action:operation".
func (p Permission) Key() string {
	return PermissionKey(p.Resource, string(p.Action), p.Operation)
}

// PermissionKey builds the canonical key from raw parts without requiring a
// constructed Permission.
func PermissionKey(resource, action, operation string) string {
	return strings.ToLower(fmt.Sprintf("%s:%s:%s", resource, action, operation))
}

// PermissionField is one field-level slot a permission can grant or deny.
type PermissionField struct {
	ID           uuid.UUID `json:"id"`
	PermissionID uuid.UUID `json:"permission_id"`
	Src          Source    `json:"src"`
	Name         string    `json:"name"`
}

// RolePermission grants a Permission to a Role at a given Scope.
type RolePermission struct {
	RoleID       uuid.UUID `json:"role_id"`
	PermissionID uuid.UUID `json:"permission_id"`
	Scope        Scope     `json:"scope"`
}

// RolePermissionField grants or denies one field within a role's permission
// grant.
type RolePermissionField struct {
	RoleID       uuid.UUID `json:"role_id"`
	PermissionID uuid.UUID `json:"permission_id"`
	FieldID      uuid.UUID `json:"field_id"`
	Effect       Effect    `json:"effect"`
}

// RoleDetail is the nested role view: the role plus its permission grants.
type RoleDetail struct {
	Role   Role             `json:"role"`
	Grants []RolePermission `json:"grants"`
}

// UserRole associates a user with a role.
type UserRole struct {
	UserID uuid.UUID `json:"user_id"`
	RoleID uuid.UUID `json:"role_id"`
}

// FieldSet is a set of field names read from, or granted against, a given
// request Source.
type FieldSet map[Source]map[string]struct{}

// EffectivePermission is the single authorization row read on the request
// path: materialized per (user_id, permission_key) from the user's highest
// level role that grants the permission, with field grants unioned across
// whichever role(s) contributed.
type EffectivePermission struct {
	Resource    string   `json:"resource"`
	Action      Action   `json:"action"`
	Operation   string   `json:"operation"`
	Description string   `json:"description"`
	Scope       Scope    `json:"scope"`
	AllowFields FieldSet `json:"allow_fields,omitempty"`
	DenyFields  FieldSet `json:"deny_fields,omitempty"`
}

// NewFieldSet builds a FieldSet from a flat list of names under one source,
// lowercased to match Has's lookup.
func NewFieldSet(src Source, names ...string) FieldSet {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[strings.ToLower(n)] = struct{}{}
	}
	return FieldSet{src: set}
}

// Has reports whether a field set contains name under src.
func (fs FieldSet) Has(src Source, name string) bool {
	if fs == nil {
		return false
	}
	names, ok := fs[src]
	if !ok {
		return false
	}
	_, ok = names[strings.ToLower(name)]
	return ok
}
