// Package middleware implements the Context Middleware (N), Auth Middleware
// (K) and the rate limiter/metrics middlewares sitting in front of the
// command/query bus. Context construction follows erauner12-toolbridge-api's
// correlation-id attachment idiom; the JSON body key extraction is original
// (no pack repo needs it).
package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/IANDYI/authguard/internal/core/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type ctxKey string

const requestContextKey ctxKey = "authguard.request_context"

const maxJSONDepth = 15

// BuildRequestContext parses the request's query string and (for write
// methods) JSON object body into a domain.RequestContext. At most 1 MiB of
// the body is read, and encoding/json decodes it in full; nested values are
// kept as decoded.
func BuildRequestContext(r *http.Request, pathParams map[string]string) (*domain.RequestContext, error) {
	rc := &domain.RequestContext{
		RequestID:   requestIDFrom(r),
		Method:      r.Method,
		Path:        r.URL.Path,
		PathParams:  pathParams,
		QueryParams: map[string][]string(r.URL.Query()),
		URL:         r.URL.String(),
	}

	if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			return nil, err
		}
		r.Body.Close()
		if len(body) > 0 {
			var parsed map[string]any
			if err := json.Unmarshal(body, &parsed); err != nil {
				return nil, err
			}
			rc.JSONParams = boundDepth(parsed, maxJSONDepth)
		}
	}
	return rc, nil
}

// boundDepth returns v's top-level map as decoded, an empty map when
// maxDepth <= 0, or nil when v is not a map. Nested maps and slices are not
// truncated.
func boundDepth(v any, maxDepth int) map[string]any {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	if maxDepth <= 0 {
		return map[string]any{}
	}
	return m
}

func requestIDFrom(r *http.Request) string {
	if id := r.Header.Get("X-Request-Id"); id != "" {
		return id
	}
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

// WithRequestContext attaches rc to ctx and also attaches a zerolog logger
// pre-populated with the request id, mirroring erauner12's correlation-id
// middleware.
func WithRequestContext(ctx context.Context, rc *domain.RequestContext) context.Context {
	logger := log.With().Str("request_id", rc.RequestID).Str("method", rc.Method).Str("path", rc.Path).Logger()
	ctx = logger.WithContext(ctx)
	return context.WithValue(ctx, requestContextKey, rc)
}

func RequestContextFrom(ctx context.Context) *domain.RequestContext {
	rc, _ := ctx.Value(requestContextKey).(*domain.RequestContext)
	return rc
}

// LoggerFrom returns the request-scoped zerolog logger, or the global
// logger if none was attached.
func LoggerFrom(ctx context.Context) *zerolog.Logger {
	return log.Ctx(ctx)
}

// ContextMiddleware builds and attaches the RequestContext for every
// request before handing off to the route's handler.
func ContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc, err := BuildRequestContext(r, pathParamsFromPattern(r))
		if err != nil {
			http.Error(w, "malformed request body", http.StatusBadRequest)
			return
		}
		ctx := WithRequestContext(r.Context(), rc)
		w.Header().Set("X-Request-Id", rc.RequestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// pathParamsFromPattern extracts Go 1.22+ net/http pattern wildcards
// (mux.HandleFunc("GET /users/{id}", ...)) into a plain map.
func pathParamsFromPattern(r *http.Request) map[string]string {
	params := map[string]string{}
	for _, key := range []string{"id", "user_id", "role_id", "permission_id", "field_id"} {
		if v := r.PathValue(key); v != "" {
			params[key] = v
		}
	}
	return params
}
