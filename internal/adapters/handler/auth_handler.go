package handler

import (
	"net/http"
	"strings"

	"github.com/IANDYI/authguard/internal/adapters/middleware"
	"github.com/IANDYI/authguard/internal/core/domain"
	"github.com/IANDYI/authguard/internal/core/ports"
	"github.com/IANDYI/authguard/internal/core/result"
	"github.com/IANDYI/authguard/internal/core/services"
)

// AuthHandler exposes signup, login, refresh and logout. All four are
// commands (they mutate session or account state).
type AuthHandler struct {
	commands ports.Bus
}

func NewAuthHandler(commands ports.Bus) *AuthHandler {
	return &AuthHandler{commands: commands}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(r)
	if !ok {
		writeMissingContext(w, r)
		return
	}
	email, _ := stringField(rc.JSONParams, "email")
	password, _ := stringField(rc.JSONParams, "password")

	out := h.commands.Send(r.Context(), rc, services.SignupCommand{Email: email, Password: password})
	if out.IsErr() {
		middleware.WriteAppError(w, r, out.Error())
		return
	}
	u := out.Unwrap().(domain.User)
	writeJSON(w, http.StatusCreated, map[string]any{"id": u.ID})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(r)
	if !ok {
		writeMissingContext(w, r)
		return
	}
	email, _ := stringField(rc.JSONParams, "email")
	password, _ := stringField(rc.JSONParams, "password")
	fingerprint, _ := stringField(rc.JSONParams, "fingerprint")

	out := h.commands.Send(r.Context(), rc, services.LoginCommand{Email: email, Password: password, Fingerprint: fingerprint})
	if out.IsErr() {
		middleware.WriteAppError(w, r, out.Error())
		return
	}
	pair := out.Unwrap().(domain.TokenPair)
	setRefreshCookie(w, pair)
	writeJSON(w, http.StatusOK, pair)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(r)
	if !ok {
		writeMissingContext(w, r)
		return
	}
	fingerprint, _ := stringField(rc.JSONParams, "fingerprint")
	token, appErr := refreshTokenFrom(r)
	if appErr != nil {
		middleware.WriteAppError(w, r, appErr)
		return
	}

	out := h.commands.Send(r.Context(), rc, services.RefreshCommand{Fingerprint: fingerprint, RefreshToken: token})
	if out.IsErr() {
		middleware.WriteAppError(w, r, out.Error())
		return
	}
	pair := out.Unwrap().(domain.TokenPair)
	setRefreshCookie(w, pair)
	writeJSON(w, http.StatusOK, pair)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(r)
	if !ok {
		writeMissingContext(w, r)
		return
	}
	fingerprint, _ := stringField(rc.JSONParams, "fingerprint")
	token, appErr := refreshTokenFrom(r)
	if appErr != nil {
		middleware.WriteAppError(w, r, appErr)
		return
	}

	out := h.commands.Send(r.Context(), rc, services.LogoutCommand{Fingerprint: fingerprint, RefreshToken: token})
	clearRefreshCookie(w)
	if out.IsErr() {
		middleware.WriteAppError(w, r, out.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"revoked": out.Unwrap().(bool)})
}

// refreshTokenFrom resolves the refresh token from the `refresh` cookie,
// falling back to a Bearer-prefixed Authorization header.
func refreshTokenFrom(r *http.Request) (string, *result.AppError) {
	if c, err := r.Cookie("refresh"); err == nil && c.Value != "" {
		return c.Value, nil
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", result.Unauthorized("missing refresh token")
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) || len(header) <= len(prefix) {
		return "", result.Unauthorized("authorization header must be Bearer-prefixed")
	}
	return strings.TrimPrefix(header, prefix), nil
}

func setRefreshCookie(w http.ResponseWriter, pair domain.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     "refresh",
		Value:    pair.Refresh,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
		MaxAge:   int(pair.ExpiresIn),
	})
}

func clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "refresh",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
		MaxAge:   -1,
	})
}
