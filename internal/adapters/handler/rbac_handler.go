package handler

import (
	"net/http"

	"github.com/IANDYI/authguard/internal/adapters/middleware"
	"github.com/IANDYI/authguard/internal/core/domain"
	"github.com/IANDYI/authguard/internal/core/ports"
	"github.com/IANDYI/authguard/internal/core/result"
	"github.com/IANDYI/authguard/internal/core/services"
	"github.com/google/uuid"
)

// RBACHandler exposes role and permission catalog administration. Reads go
// through the query bus (cache-through); every mutation goes through the
// command bus (cache-invalidate).
type RBACHandler struct {
	commands ports.Bus
	queries  ports.Bus
}

func NewRBACHandler(commands, queries ports.Bus) *RBACHandler {
	return &RBACHandler{commands: commands, queries: queries}
}

func (h *RBACHandler) CreateRole(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(r)
	if !ok {
		writeMissingContext(w, r)
		return
	}
	name, _ := stringField(rc.JSONParams, "name")
	level, _ := intField(rc.JSONParams, "level")
	isSuperuser, _ := boolField(rc.JSONParams, "is_superuser")

	out := h.commands.Send(r.Context(), rc, services.CreateRoleCommand{Name: name, Level: level, IsSuperuser: isSuperuser})
	if out.IsErr() {
		middleware.WriteAppError(w, r, out.Error())
		return
	}
	writeJSON(w, http.StatusCreated, out.Unwrap().(domain.Role))
}

func (h *RBACHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(r)
	if !ok {
		writeMissingContext(w, r)
		return
	}
	out := h.queries.Send(r.Context(), rc, services.ListRolesQuery{})
	if out.IsErr() {
		middleware.WriteAppError(w, r, out.Error())
		return
	}
	writeJSON(w, http.StatusOK, out.Unwrap().([]domain.Role))
}

func (h *RBACHandler) GetRole(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(r)
	if !ok {
		writeMissingContext(w, r)
		return
	}
	roleID, err := uuid.Parse(r.PathValue("role_id"))
	if err != nil {
		middleware.WriteAppError(w, r, result.BadRequest("malformed role id"))
		return
	}
	out := h.queries.Send(r.Context(), rc, services.GetRoleQuery{RoleID: roleID})
	if out.IsErr() {
		middleware.WriteAppError(w, r, out.Error())
		return
	}
	writeJSON(w, http.StatusOK, out.Unwrap().(domain.RoleDetail))
}

func (h *RBACHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(r)
	if !ok {
		writeMissingContext(w, r)
		return
	}
	roleID, err := uuid.Parse(r.PathValue("role_id"))
	if err != nil {
		middleware.WriteAppError(w, r, result.BadRequest("malformed role id"))
		return
	}

	var namePtr *string
	var levelPtr *int
	if n, present := stringField(rc.JSONParams, "name"); present {
		namePtr = &n
	}
	if l, present := intField(rc.JSONParams, "level"); present {
		levelPtr = &l
	}

	out := h.commands.Send(r.Context(), rc, services.UpdateRoleCommand{RoleID: roleID, Name: namePtr, Level: levelPtr})
	if out.IsErr() {
		middleware.WriteAppError(w, r, out.Error())
		return
	}
	writeJSON(w, http.StatusOK, out.Unwrap().(domain.Role))
}

func (h *RBACHandler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(r)
	if !ok {
		writeMissingContext(w, r)
		return
	}
	roleID, err := uuid.Parse(r.PathValue("role_id"))
	if err != nil {
		middleware.WriteAppError(w, r, result.BadRequest("malformed role id"))
		return
	}
	out := h.commands.Send(r.Context(), rc, services.DeleteRoleCommand{RoleID: roleID})
	if out.IsErr() {
		middleware.WriteAppError(w, r, out.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RBACHandler) AssignUserRole(w http.ResponseWriter, r *http.Request) {
	rc, roleID, userID, ok := h.roleUserParams(w, r)
	if !ok {
		return
	}
	out := h.commands.Send(r.Context(), rc, services.AssignUserRoleCommand{UserID: userID, RoleID: roleID})
	if out.IsErr() {
		middleware.WriteAppError(w, r, out.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"assigned": out.Unwrap().(bool)})
}

func (h *RBACHandler) RevokeUserRole(w http.ResponseWriter, r *http.Request) {
	rc, roleID, userID, ok := h.roleUserParams(w, r)
	if !ok {
		return
	}
	out := h.commands.Send(r.Context(), rc, services.RevokeUserRoleCommand{UserID: userID, RoleID: roleID})
	if out.IsErr() {
		middleware.WriteAppError(w, r, out.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RBACHandler) roleUserParams(w http.ResponseWriter, r *http.Request) (*domain.RequestContext, uuid.UUID, uuid.UUID, bool) {
	rc, ok := requestContext(r)
	if !ok {
		writeMissingContext(w, r)
		return nil, uuid.Nil, uuid.Nil, false
	}
	roleID, err := uuid.Parse(r.PathValue("role_id"))
	if err != nil {
		middleware.WriteAppError(w, r, result.BadRequest("malformed role id"))
		return nil, uuid.Nil, uuid.Nil, false
	}
	userID, err := uuid.Parse(r.PathValue("user_id"))
	if err != nil {
		middleware.WriteAppError(w, r, result.BadRequest("malformed user id"))
		return nil, uuid.Nil, uuid.Nil, false
	}
	return rc, roleID, userID, true
}

func (h *RBACHandler) GrantPermission(w http.ResponseWriter, r *http.Request) {
	rc, roleID, permissionID, ok := h.rolePermissionParams(w, r)
	if !ok {
		return
	}
	scope, _ := stringField(rc.JSONParams, "scope")
	if scope != string(domain.ScopeOwn) && scope != string(domain.ScopeAny) {
		middleware.WriteAppError(w, r, result.BadRequest("scope must be OWN or ANY"))
		return
	}
	out := h.commands.Send(r.Context(), rc, services.GrantPermissionCommand{RoleID: roleID, PermissionID: permissionID, Scope: domain.Scope(scope)})
	if out.IsErr() {
		middleware.WriteAppError(w, r, out.Error())
		return
	}
	writeJSON(w, http.StatusCreated, out.Unwrap().(domain.RolePermission))
}

func (h *RBACHandler) RevokePermission(w http.ResponseWriter, r *http.Request) {
	rc, roleID, permissionID, ok := h.rolePermissionParams(w, r)
	if !ok {
		return
	}
	out := h.commands.Send(r.Context(), rc, services.RevokePermissionCommand{RoleID: roleID, PermissionID: permissionID})
	if out.IsErr() {
		middleware.WriteAppError(w, r, out.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RBACHandler) rolePermissionParams(w http.ResponseWriter, r *http.Request) (*domain.RequestContext, uuid.UUID, uuid.UUID, bool) {
	rc, ok := requestContext(r)
	if !ok {
		writeMissingContext(w, r)
		return nil, uuid.Nil, uuid.Nil, false
	}
	roleID, err := uuid.Parse(r.PathValue("role_id"))
	if err != nil {
		middleware.WriteAppError(w, r, result.BadRequest("malformed role id"))
		return nil, uuid.Nil, uuid.Nil, false
	}
	permissionID, err := uuid.Parse(r.PathValue("permission_id"))
	if err != nil {
		middleware.WriteAppError(w, r, result.BadRequest("malformed permission id"))
		return nil, uuid.Nil, uuid.Nil, false
	}
	return rc, roleID, permissionID, true
}

func (h *RBACHandler) GrantField(w http.ResponseWriter, r *http.Request) {
	rc, roleID, permissionID, fieldID, ok := h.fieldParams(w, r)
	if !ok {
		return
	}
	effect, _ := stringField(rc.JSONParams, "effect")
	if effect != string(domain.EffectAllow) && effect != string(domain.EffectDeny) {
		middleware.WriteAppError(w, r, result.BadRequest("effect must be ALLOW or DENY"))
		return
	}
	out := h.commands.Send(r.Context(), rc, services.GrantFieldCommand{RoleID: roleID, PermissionID: permissionID, FieldID: fieldID, Effect: domain.Effect(effect)})
	if out.IsErr() {
		middleware.WriteAppError(w, r, out.Error())
		return
	}
	writeJSON(w, http.StatusCreated, out.Unwrap().(domain.RolePermissionField))
}

func (h *RBACHandler) RevokeField(w http.ResponseWriter, r *http.Request) {
	rc, roleID, permissionID, fieldID, ok := h.fieldParams(w, r)
	if !ok {
		return
	}
	out := h.commands.Send(r.Context(), rc, services.RevokeFieldCommand{RoleID: roleID, PermissionID: permissionID, FieldID: fieldID})
	if out.IsErr() {
		middleware.WriteAppError(w, r, out.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RBACHandler) fieldParams(w http.ResponseWriter, r *http.Request) (*domain.RequestContext, uuid.UUID, uuid.UUID, uuid.UUID, bool) {
	rc, roleID, permissionID, ok := h.rolePermissionParams(w, r)
	if !ok {
		return nil, uuid.Nil, uuid.Nil, uuid.Nil, false
	}
	fieldID, err := uuid.Parse(r.PathValue("field_id"))
	if err != nil {
		middleware.WriteAppError(w, r, result.BadRequest("malformed field id"))
		return nil, uuid.Nil, uuid.Nil, uuid.Nil, false
	}
	return rc, roleID, permissionID, fieldID, true
}

func (h *RBACHandler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(r)
	if !ok {
		writeMissingContext(w, r)
		return
	}
	out := h.queries.Send(r.Context(), rc, services.ListPermissionsQuery{})
	if out.IsErr() {
		middleware.WriteAppError(w, r, out.Error())
		return
	}
	writeJSON(w, http.StatusOK, out.Unwrap().([]domain.Permission))
}
