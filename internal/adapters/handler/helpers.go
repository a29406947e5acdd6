// helpers.go mirrors IANDYI-care-service's handler/helpers.go slot for
// small per-request utilities. The teacher's generateRequestID/logStructured
// pair is superseded here by middleware/context.go's request-id propagation
// and the zerolog logger it attaches to every request's context.
package handler

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/IANDYI/authguard/internal/adapters/middleware"
	"github.com/IANDYI/authguard/internal/core/domain"
	"github.com/IANDYI/authguard/internal/core/result"
)

func requestContext(r *http.Request) (*domain.RequestContext, bool) {
	rc := middleware.RequestContextFrom(r.Context())
	return rc, rc != nil
}

func writeMissingContext(w http.ResponseWriter, r *http.Request) {
	middleware.WriteAppError(w, r, result.Internal("request context missing"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func stringField(m map[string]any, key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func intField(m map[string]any, key string) (int, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func boolField(m map[string]any, key string) (bool, bool) {
	v, ok := m[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

func queryGet(rc *domain.RequestContext, key string) string {
	return url.Values(rc.QueryParams).Get(key)
}
