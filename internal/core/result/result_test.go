package result_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/IANDYI/authguard/internal/core/result"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult_OkErr(t *testing.T) {
	ok := result.Ok(42)
	assert.True(t, ok.IsOk())
	assert.False(t, ok.IsErr())
	assert.Equal(t, 42, ok.Unwrap())

	errVal := result.Err[int](result.NotFound("no such thing"))
	assert.False(t, errVal.IsOk())
	assert.True(t, errVal.IsErr())
	assert.Equal(t, result.KindNotFound, errVal.Error().Kind)
}

func TestResult_UnwrapPanicsOnErr(t *testing.T) {
	r := result.Err[int](result.BadRequest("bad"))
	assert.Panics(t, func() { r.Unwrap() })
}

func TestResult_UnwrapOr(t *testing.T) {
	r := result.Err[int](result.Internal("boom"))
	assert.Equal(t, 7, r.UnwrapOr(7))
	assert.Equal(t, 42, result.Ok(42).UnwrapOr(7))
}

func TestResult_UnwrapOrRaise(t *testing.T) {
	v, err := result.Ok("hi").UnwrapOrRaise()
	require.NoError(t, err)
	assert.Equal(t, "hi", v)

	_, err = result.Err[string](result.Conflict("dup")).UnwrapOrRaise()
	require.Error(t, err)
	var appErr *result.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, result.KindConflict, appErr.Kind)
}

func TestMap(t *testing.T) {
	r := result.Map(result.Ok(2), func(n int) int { return n * 10 })
	assert.Equal(t, 20, r.Unwrap())

	errIn := result.Err[int](result.Forbidden("no"))
	out := result.Map(errIn, func(n int) int { return n * 10 })
	assert.True(t, out.IsErr())
	assert.Equal(t, result.KindForbidden, out.Error().Kind)
}

func TestAndThen_ShortCircuitsOnErr(t *testing.T) {
	calls := 0
	chain := func(n int) result.Result[string] {
		calls++
		return result.Ok(fmt.Sprintf("n=%d", n))
	}

	out := result.AndThen(result.Err[int](result.Unauthorized("nope")), chain)
	assert.True(t, out.IsErr())
	assert.Equal(t, 0, calls)

	out2 := result.AndThen(result.Ok(5), chain)
	assert.Equal(t, "n=5", out2.Unwrap())
	assert.Equal(t, 1, calls)
}

func TestAsResult_NormalizesSQLNoRows(t *testing.T) {
	r := result.AsResult(0, sql.ErrNoRows)
	require.True(t, r.IsErr())
	assert.Equal(t, result.KindNotFound, r.Error().Kind)
}

func TestAsResult_PassesThroughAppError(t *testing.T) {
	original := result.Conflict("email already registered")
	r := result.AsResult(0, original)
	require.True(t, r.IsErr())
	assert.Same(t, original, r.Error())
}

func TestAsResult_WrapsDriverErrorToShortMessage(t *testing.T) {
	err := errors.New("pq: duplicate key value violates unique constraint: users_email_key")
	r := result.AsResult(0, err)
	require.True(t, r.IsErr())
	assert.Equal(t, result.KindInternal, r.Error().Kind)
	assert.Equal(t, "users_email_key", r.Error().Message)
}

func TestAppError_WithContextIsImmutable(t *testing.T) {
	base := result.Forbidden("field denied")
	derived := base.WithContext("field", "password")

	assert.Nil(t, base.Context)
	assert.Equal(t, "password", derived.Context["field"])
}
