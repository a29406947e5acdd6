package ports

import (
	"context"

	"github.com/IANDYI/authguard/internal/core/domain"
	"github.com/IANDYI/authguard/internal/core/result"
	"github.com/google/uuid"
)

// UserFilter narrows the paginated user listing.
type UserFilter struct {
	Email    string
	FromDate *string
	ToDate   *string
	Page     int
	Limit    int
	OrderBy  string // "ASC" or "DESC"
}

// Page is a generic paginated result envelope.
type Page[T any] struct {
	Items  []T `json:"items"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// UserRepository is the user-facing half of the RepositoryGateway (G).
// Every method returns a Result instead of a bare error.
type UserRepository interface {
	Create(ctx context.Context, email, passwordHash string) result.Result[domain.User]
	GetByID(ctx context.Context, id uuid.UUID) result.Result[domain.User]
	GetByEmail(ctx context.Context, email string) result.Result[domain.User]
	List(ctx context.Context, f UserFilter) result.Result[Page[domain.User]]
	Update(ctx context.Context, id uuid.UUID, email, passwordHash *string) result.Result[domain.User]
	Delete(ctx context.Context, id uuid.UUID) result.Result[bool]
}

// RBACRepository is the RBAC-catalog half of the RepositoryGateway (G).
type RBACRepository interface {
	// CreateRole inserts a role; returns Conflict if a role with exactly the
	// same name exists (names are compared case-sensitively).
	CreateRole(ctx context.Context, name string, level int, isSuperuser bool) result.Result[domain.Role]
	GetRole(ctx context.Context, id uuid.UUID) result.Result[domain.Role]
	ListRoles(ctx context.Context) result.Result[[]domain.Role]
	UpdateRole(ctx context.Context, id uuid.UUID, name *string, level *int) result.Result[domain.Role]
	DeleteRole(ctx context.Context, id uuid.UUID) result.Result[bool]

	AssignUserRole(ctx context.Context, userID, roleID uuid.UUID) result.Result[bool]
	RevokeUserRole(ctx context.Context, userID, roleID uuid.UUID) result.Result[bool]

	GrantPermission(ctx context.Context, roleID, permissionID uuid.UUID, scope domain.Scope) result.Result[domain.RolePermission]
	RevokePermission(ctx context.Context, roleID, permissionID uuid.UUID) result.Result[bool]
	// ListRolePermissions returns every permission grant for a role, used to
	// compose the role-detail view.
	ListRolePermissions(ctx context.Context, roleID uuid.UUID) result.Result[[]domain.RolePermission]

	GrantField(ctx context.Context, roleID, permissionID, fieldID uuid.UUID, effect domain.Effect) result.Result[domain.RolePermissionField]
	RevokeField(ctx context.Context, roleID, permissionID, fieldID uuid.UUID) result.Result[bool]

	// UpsertPermission inserts the catalog row by natural key if absent
	// (insert-or-ignore) and returns it, fetched by key either way.
	UpsertPermission(ctx context.Context, resource string, action domain.Action, operation, description string) result.Result[domain.Permission]
	GetPermissionByKey(ctx context.Context, key string) result.Result[domain.Permission]
	ListPermissions(ctx context.Context) result.Result[[]domain.Permission]

	// UpsertFields batch insert-or-ignores the declared {src -> names} set
	// for a permission.
	UpsertFields(ctx context.Context, permissionID uuid.UUID, fields domain.FieldSet) result.Result[[]domain.PermissionField]

	// GetEffectivePermission reads the single materialized row for
	// (userID, permissionKey); the view is refreshed out-of-band by
	// RefreshEffectivePermissions.
	GetEffectivePermission(ctx context.Context, userID uuid.UUID, permissionKey string) result.Result[domain.EffectivePermission]
	RefreshEffectivePermissions(ctx context.Context) result.Result[bool]
}

// Gateway is the per-request set of typed domain repositories over a
// Manager (component G); the repositories are built with the Gateway.
type Gateway interface {
	User() UserRepository
	RBAC() RBACRepository
	Manager() Manager
}

// GatewayFactory builds a Gateway bound to either the master or the replica
// connection pool; each handler picks ForCommand or ForQuery itself.
type GatewayFactory interface {
	ForCommand(ctx context.Context) (Gateway, error)
	ForQuery(ctx context.Context) (Gateway, error)
}
