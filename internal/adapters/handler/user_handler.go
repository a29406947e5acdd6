package handler

import (
	"net/http"
	"strconv"

	"github.com/IANDYI/authguard/internal/adapters/middleware"
	"github.com/IANDYI/authguard/internal/core/domain"
	"github.com/IANDYI/authguard/internal/core/ports"
	"github.com/IANDYI/authguard/internal/core/result"
	"github.com/IANDYI/authguard/internal/core/services"
	"github.com/google/uuid"
)

// UserHandler exposes account lookup, listing, update and delete. Lookups
// go through the query bus (cache-through); update/delete go through the
// command bus (cache-invalidate).
type UserHandler struct {
	commands ports.Bus
	queries  ports.Bus
}

func NewUserHandler(commands, queries ports.Bus) *UserHandler {
	return &UserHandler{commands: commands, queries: queries}
}

// Me returns the caller's own account, as authenticated by AuthMiddleware.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(r)
	if !ok {
		writeMissingContext(w, r)
		return
	}
	if rc.User == nil {
		middleware.WriteAppError(w, r, result.Unauthorized("not authenticated"))
		return
	}
	writeJSON(w, http.StatusOK, *rc.User)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(r)
	if !ok {
		writeMissingContext(w, r)
		return
	}
	id, err := uuid.Parse(r.PathValue("user_id"))
	if err != nil {
		middleware.WriteAppError(w, r, result.BadRequest("malformed user id"))
		return
	}

	out := h.queries.Send(r.Context(), rc, services.GetUserQuery{UserID: id})
	if out.IsErr() {
		middleware.WriteAppError(w, r, out.Error())
		return
	}
	writeJSON(w, http.StatusOK, out.Unwrap().(domain.User))
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(r)
	if !ok {
		writeMissingContext(w, r)
		return
	}

	filter := ports.UserFilter{
		Email:   queryGet(rc, "email"),
		OrderBy: "ASC",
		Page:    1,
		Limit:   20,
	}
	if ob := queryGet(rc, "order_by"); ob == "DESC" {
		filter.OrderBy = "DESC"
	}
	if page, err := strconv.Atoi(queryGet(rc, "page")); err == nil && page > 0 {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(queryGet(rc, "limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}
	if v := queryGet(rc, "from_date"); v != "" {
		filter.FromDate = &v
	}
	if v := queryGet(rc, "to_date"); v != "" {
		filter.ToDate = &v
	}

	out := h.queries.Send(r.Context(), rc, services.ListUsersQuery{Filter: filter})
	if out.IsErr() {
		middleware.WriteAppError(w, r, out.Error())
		return
	}
	writeJSON(w, http.StatusOK, out.Unwrap().(ports.Page[domain.User]))
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(r)
	if !ok {
		writeMissingContext(w, r)
		return
	}
	id, err := uuid.Parse(r.PathValue("user_id"))
	if err != nil {
		middleware.WriteAppError(w, r, result.BadRequest("malformed user id"))
		return
	}

	var emailPtr, passwordPtr *string
	if e, present := stringField(rc.JSONParams, "email"); present {
		emailPtr = &e
	}
	if p, present := stringField(rc.JSONParams, "password"); present {
		passwordPtr = &p
	}

	out := h.commands.Send(r.Context(), rc, services.UpdateUserCommand{UserID: id, Email: emailPtr, Password: passwordPtr})
	if out.IsErr() {
		middleware.WriteAppError(w, r, out.Error())
		return
	}
	writeJSON(w, http.StatusOK, out.Unwrap().(domain.User))
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(r)
	if !ok {
		writeMissingContext(w, r)
		return
	}
	id, err := uuid.Parse(r.PathValue("user_id"))
	if err != nil {
		middleware.WriteAppError(w, r, result.BadRequest("malformed user id"))
		return
	}

	out := h.commands.Send(r.Context(), rc, services.DeleteUserCommand{UserID: id})
	if out.IsErr() {
		middleware.WriteAppError(w, r, out.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
