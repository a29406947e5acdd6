package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/IANDYI/authguard/internal/core/result"
)

var kindStatus = map[result.Kind]int{
	result.KindUnauthorized:       http.StatusUnauthorized,
	result.KindForbidden:          http.StatusForbidden,
	result.KindNotFound:           http.StatusNotFound,
	result.KindConflict:           http.StatusConflict,
	result.KindBadRequest:         http.StatusBadRequest,
	result.KindTooManyRequests:    http.StatusTooManyRequests,
	result.KindRequestTimeout:     http.StatusRequestTimeout,
	result.KindUnprocessableEntity: http.StatusUnprocessableEntity,
	result.KindServiceUnavailable: http.StatusServiceUnavailable,
	result.KindNotImplemented:     http.StatusNotImplemented,
	result.KindInternal:           http.StatusInternalServerError,
}

type errorBody struct {
	Content errorContent `json:"content"`
}

type errorContent struct {
	Message string         `json:"message"`
	Code    string         `json:"code,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// writeAppError renders an AppError as the fixed `{content: {...}}` envelope
// with its taxonomy-mapped status, logging the full cause chain server-side
// only — it never reaches the response body.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *result.AppError
	if !errors.As(err, &appErr) {
		appErr = result.Internal(err.Error())
	}

	status, ok := kindStatus[appErr.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	logger := LoggerFrom(r.Context())
	ev := logger.Error()
	if cause := appErr.Unwrap(); cause != nil {
		ev = ev.Err(cause)
	}
	ev.Str("kind", string(appErr.Kind)).Int("status", status).Msg(appErr.Message)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-Id", w.Header().Get("X-Request-Id"))
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Content: errorContent{
		Message: appErr.Message,
		Code:    appErr.Code,
		Context: appErr.Context,
	}})
}

// WriteAppError is the exported entry point handlers use to render any
// Result error at the HTTP boundary.
func WriteAppError(w http.ResponseWriter, r *http.Request, err error) {
	writeAppError(w, r, err)
}
