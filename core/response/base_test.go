package response_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsroute/fsroute/core/response"
)

func render(t *testing.T, resp func(http.ResponseWriter, *http.Request) error) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, resp(rec, req))
	return rec
}

func TestResponses(t *testing.T) {
	t.Parallel()

	t.Run("string", func(t *testing.T) {
		t.Parallel()

		rec := render(t, response.String("hello"))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "hello", rec.Body.String())
		assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	})

	t.Run("string_with_status", func(t *testing.T) {
		t.Parallel()

		rec := render(t, response.StringWithStatus("made", http.StatusCreated))
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		rec := render(t, response.JSON(map[string]any{"ok": true}))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
		assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	})

	t.Run("json_no_content_skips_body", func(t *testing.T) {
		t.Parallel()

		rec := render(t, response.JSONWithStatus(map[string]any{"ignored": true}, http.StatusNoContent))
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.String())
	})

	t.Run("no_content", func(t *testing.T) {
		t.Parallel()

		rec := render(t, response.NoContent())
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestHTTPError(t *testing.T) {
	t.Parallel()

	t.Run("carries_status_and_code", func(t *testing.T) {
		t.Parallel()

		err := response.ErrNotFound
		assert.Equal(t, http.StatusNotFound, err.StatusCode())
		assert.Equal(t, "not_found", err.ErrorCode())
		assert.Equal(t, "Not Found", err.Error())
	})

	t.Run("with_message_and_code_copy", func(t *testing.T) {
		t.Parallel()

		custom := response.ErrConflict.WithMessage("user already exists").WithCode("user_exists")
		assert.Equal(t, "user already exists", custom.Error())
		assert.Equal(t, "user_exists", custom.ErrorCode())

		// Originals are value types and stay untouched.
		assert.Equal(t, "Conflict", response.ErrConflict.Error())
		assert.Equal(t, "conflict", response.ErrConflict.ErrorCode())
	})

	t.Run("error_response_propagates_error", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		err := response.Error(response.ErrForbidden)(rec, req)
		assert.Equal(t, response.ErrForbidden, err)
		assert.Empty(t, rec.Body.String())
	})
}
