package services

import (
	"github.com/IANDYI/authguard/internal/core/domain"
	"github.com/IANDYI/authguard/internal/core/ports"
	"github.com/google/uuid"
)

// Commands and queries dispatched through the Bus (M). Each is a plain
// struct whose MessageType is the lookup key the Bus uses to find its
// registered handler factory.

type SignupCommand struct {
	Email    string
	Password string
}

func (SignupCommand) MessageType() string { return "auth.signup" }

type LoginCommand struct {
	Email       string
	Password    string
	Fingerprint string
}

func (LoginCommand) MessageType() string { return "auth.login" }

type RefreshCommand struct {
	Fingerprint  string
	RefreshToken string
}

func (RefreshCommand) MessageType() string { return "auth.refresh" }

type LogoutCommand struct {
	Fingerprint  string
	RefreshToken string
}

func (LogoutCommand) MessageType() string { return "auth.logout" }

type UpdateUserCommand struct {
	UserID   uuid.UUID
	Email    *string
	Password *string
}

func (UpdateUserCommand) MessageType() string { return "user.update" }

type DeleteUserCommand struct {
	UserID uuid.UUID
}

func (DeleteUserCommand) MessageType() string { return "user.delete" }

type CreateRoleCommand struct {
	Name        string
	Level       int
	IsSuperuser bool
}

func (CreateRoleCommand) MessageType() string { return "rbac.role.create" }

type UpdateRoleCommand struct {
	RoleID uuid.UUID
	Name   *string
	Level  *int
}

func (UpdateRoleCommand) MessageType() string { return "rbac.role.update" }

type DeleteRoleCommand struct {
	RoleID uuid.UUID
}

func (DeleteRoleCommand) MessageType() string { return "rbac.role.delete" }

type AssignUserRoleCommand struct {
	UserID uuid.UUID
	RoleID uuid.UUID
}

func (AssignUserRoleCommand) MessageType() string { return "rbac.user_role.assign" }

type RevokeUserRoleCommand struct {
	UserID uuid.UUID
	RoleID uuid.UUID
}

func (RevokeUserRoleCommand) MessageType() string { return "rbac.user_role.revoke" }

type GrantPermissionCommand struct {
	RoleID       uuid.UUID
	PermissionID uuid.UUID
	Scope        domain.Scope
}

func (GrantPermissionCommand) MessageType() string { return "rbac.permission.grant" }

type RevokePermissionCommand struct {
	RoleID       uuid.UUID
	PermissionID uuid.UUID
}

func (RevokePermissionCommand) MessageType() string { return "rbac.permission.revoke" }

type GrantFieldCommand struct {
	RoleID       uuid.UUID
	PermissionID uuid.UUID
	FieldID      uuid.UUID
	Effect       domain.Effect
}

func (GrantFieldCommand) MessageType() string { return "rbac.field.grant" }

type RevokeFieldCommand struct {
	RoleID       uuid.UUID
	PermissionID uuid.UUID
	FieldID      uuid.UUID
}

func (RevokeFieldCommand) MessageType() string { return "rbac.field.revoke" }

// Queries

type GetUserQuery struct {
	UserID uuid.UUID
}

func (GetUserQuery) MessageType() string { return "user.get" }

type ListUsersQuery struct {
	Filter ports.UserFilter
}

func (ListUsersQuery) MessageType() string { return "user.list" }

type ListRolesQuery struct{}

func (ListRolesQuery) MessageType() string { return "rbac.role.list" }

type GetRoleQuery struct {
	RoleID uuid.UUID
}

func (GetRoleQuery) MessageType() string { return "rbac.role.get" }

type ListPermissionsQuery struct{}

func (ListPermissionsQuery) MessageType() string { return "rbac.permission.list" }
