package middleware

import (
	"net/http"
	"strings"

	"github.com/IANDYI/authguard/internal/core/domain"
	"github.com/IANDYI/authguard/internal/core/ports"
	"github.com/IANDYI/authguard/internal/core/result"
	"github.com/IANDYI/authguard/internal/core/services"
	"github.com/google/uuid"
)

// RouteTable resolves the RouteRule attached to a method+pattern at
// registration time (component J's static table, looked up by K step 5).
type RouteTable map[string]domain.RouteRule

func RouteKey(method, pattern string) string {
	return method + " " + pattern
}

// AuthMiddleware implements component K: verify the bearer token, load the
// principal, and enforce the RouteRule registered for the matched pattern.
type AuthMiddleware struct {
	tokens        ports.TokenIssuer
	authenticator *services.Authenticator
	routes        RouteTable
}

func NewAuthMiddleware(tokens ports.TokenIssuer, authenticator *services.Authenticator, routes RouteTable) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, authenticator: authenticator, routes: routes}
}

// Wrap binds method and pattern (the net/http ServeMux pattern this handler
// was registered under, without its method, e.g. "/users/{id}") so Wrap can
// look up the right
// RouteRule for the matched route rather than the raw request path.
func (m *AuthMiddleware) Wrap(method, pattern string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc := RequestContextFrom(r.Context())
		if rc == nil {
			writeAppError(w, r, result.Internal("request context missing"))
			return
		}

		rule, hasRule := m.routes[RouteKey(method, pattern)]
		if hasRule && rule.Public {
			next.ServeHTTP(w, r)
			return
		}

		user, appErr := m.authenticate(r)
		if appErr != nil {
			writeAppError(w, r, appErr)
			return
		}
		if len(user.Roles) == 0 {
			writeAppError(w, r, result.Forbidden("user has no assigned roles"))
			return
		}
		rc.User = user

		if user.IsSuperuser() {
			next.ServeHTTP(w, r)
			return
		}

		if !hasRule {
			next.ServeHTTP(w, r)
			return
		}

		permResult := m.authenticator.GetPermissionFor(r.Context(), *user, rule.Permission)
		if permResult.IsErr() {
			writeAppError(w, r, result.Forbidden("no permission granted for this operation"))
			return
		}
		perm := permResult.Unwrap()

		if rule.CheckScope != nil {
			if err := rule.CheckScope(rc, perm.Scope, nil); err != nil {
				writeAppError(w, r, err)
				return
			}
		}
		if rule.CheckFields != nil {
			if err := rule.CheckFields(perm, rc); err != nil {
				writeAppError(w, r, err)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func (m *AuthMiddleware) authenticate(r *http.Request) (*domain.User, *result.AppError) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) || len(header) <= len(prefix) {
		return nil, result.Unauthorized("missing or malformed authorization header")
	}
	token := strings.TrimPrefix(header, prefix)

	claims, err := m.tokens.Verify(token)
	if err != nil {
		return nil, result.Unauthorized("invalid or expired token")
	}
	if claims.Type != domain.TokenAccess {
		return nil, result.Unauthorized("token is not an access token")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, result.Unauthorized("malformed token subject")
	}

	userResult := m.authenticator.AuthenticateByID(r.Context(), userID)
	if userResult.IsErr() {
		return nil, result.Unauthorized("user not found")
	}
	u := userResult.Unwrap()
	return &u, nil
}
