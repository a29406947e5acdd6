package result

import "fmt"

// Kind is the domain error taxonomy from spec.md §7, mapped 1:1 to HTTP
// status codes at the edge (internal/adapters/middleware/errors.go).
type Kind string

const (
	KindUnauthorized        Kind = "unauthorized"
	KindForbidden            Kind = "forbidden"
	KindNotFound             Kind = "not_found"
	KindConflict             Kind = "conflict"
	KindBadRequest           Kind = "bad_request"
	KindTooManyRequests      Kind = "too_many_requests"
	KindRequestTimeout       Kind = "request_timeout"
	KindUnprocessableEntity  Kind = "unprocessable_entity"
	KindServiceUnavailable   Kind = "service_unavailable"
	KindNotImplemented       Kind = "not_implemented"
	KindInternal             Kind = "internal"
)

// AppError is the normalized domain error every Result carries. Context
// carries extra fields the handler layer may surface in the response body
// (e.g. the denied field names for a Forbidden field-check failure).
type AppError struct {
	Kind    Kind
	Message string
	Code    string
	Context map[string]any
	cause   error
}

func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *AppError {
	return &AppError{Kind: kind, Message: message, cause: cause}
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// WithContext returns a copy of e with an extra context field set.
func (e *AppError) WithContext(key string, value any) *AppError {
	cp := *e
	ctx := make(map[string]any, len(e.Context)+1)
	for k, v := range e.Context {
		ctx[k] = v
	}
	ctx[key] = value
	cp.Context = ctx
	return &cp
}

// WithCode returns a copy of e carrying a machine-readable code.
func (e *AppError) WithCode(code string) *AppError {
	cp := *e
	cp.Code = code
	return &cp
}

func Unauthorized(msg string) *AppError       { return New(KindUnauthorized, msg) }
func Forbidden(msg string) *AppError          { return New(KindForbidden, msg) }
func NotFound(msg string) *AppError           { return New(KindNotFound, msg) }
func Conflict(msg string) *AppError           { return New(KindConflict, msg) }
func BadRequest(msg string) *AppError         { return New(KindBadRequest, msg) }
func TooManyRequests(msg string) *AppError    { return New(KindTooManyRequests, msg) }
func RequestTimeout(msg string) *AppError     { return New(KindRequestTimeout, msg) }
func Unprocessable(msg string) *AppError      { return New(KindUnprocessableEntity, msg) }
func ServiceUnavailable(msg string) *AppError { return New(KindServiceUnavailable, msg) }
func NotImplemented(msg string) *AppError     { return New(KindNotImplemented, msg) }
func Internal(msg string) *AppError           { return New(KindInternal, msg) }
