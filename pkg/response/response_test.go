package response

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "gigmarket/pkg/errors"
)

func newContext() (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestErrorMapsAppError(t *testing.T) {
	c, rec := newContext()

	require.NoError(t, Error(c, apperrors.Forbidden("Only the buyer can complete this order", nil)))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decode(t, rec)
	assert.False(t, body.Success)
	assert.Equal(t, apperrors.CodeForbidden, body.Error.Code)
	assert.Equal(t, "Only the buyer can complete this order", body.Error.Message)
}

func TestErrorConflictsAreBadRequests(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"duplicate email", apperrors.Conflict("Email is already registered"), apperrors.CodeConflict},
		{"duplicate review", apperrors.Conflict("Order has already been reviewed"), apperrors.CodeConflict},
		{"transition", apperrors.InvalidTransition("pending", "completed", "buyer"), apperrors.CodeInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newContext()

			require.NoError(t, Error(c, tt.err))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.code, decode(t, rec).Error.Code)
		})
	}
}

func TestErrorHidesInternalDetail(t *testing.T) {
	c, rec := newContext()

	require.NoError(t, Error(c, stderrors.New("rpc error: deadline exceeded on users/42")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "users/42")
	assert.Equal(t, "An unexpected error occurred", decode(t, rec).Error.Message)
}

func TestErrorValidationDetails(t *testing.T) {
	type input struct {
		Email  string `validate:"required,email"`
		Rating int    `validate:"min=1,max=5"`
	}
	err := validator.New().Struct(input{Email: "nope", Rating: 9})
	c, rec := newContext()

	require.NoError(t, Error(c, err))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, apperrors.CodeValidation, body.Error.Code)
	assert.Equal(t, "email must be a valid email address", body.Error.Message)
	details, ok := body.Error.Details.([]interface{})
	require.True(t, ok)
	assert.Len(t, details, 2)
}

func TestErrorSetsRetryAfter(t *testing.T) {
	c, rec := newContext()

	require.NoError(t, Error(c, apperrors.TooManyRequests("Rate limit exceeded", 3*time.Second)))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "3", rec.Header().Get("Retry-After"))
}

func TestErrorMapsEchoHTTPError(t *testing.T) {
	c, rec := newContext()

	require.NoError(t, Error(c, echo.ErrNotFound))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apperrors.CodeNotFound, decode(t, rec).Error.Code)
}

func TestPaginated(t *testing.T) {
	c, rec := newContext()

	require.NoError(t, Paginated(c, []string{"a", "b"}, 41, 2, 20))

	var body struct {
		Data PaginatedResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Data.TotalPages)
	assert.Equal(t, int64(41), body.Data.Total)
	assert.Equal(t, 2, body.Data.Page)
}
