package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigmarket/internal/domain/entity"
	"gigmarket/internal/infrastructure/auth"
	"gigmarket/pkg/errors"
	"gigmarket/pkg/response"
)

const testCookie = "gigmarket_token"

type userMap map[string]*entity.User

func (m userMap) GetUserByID(ctx context.Context, id string) (*entity.User, error) {
	if u, ok := m[id]; ok {
		return u, nil
	}
	return nil, errors.NotFound("User", nil)
}

func newAuthServer(t *testing.T) (*echo.Echo, *auth.TokenService) {
	t.Helper()

	tokens := auth.NewTokenService("test-secret", time.Hour)
	users := userMap{
		"client":    {ID: "client", Role: entity.RoleClient, IsActive: true},
		"admin":     {ID: "admin", Role: entity.RoleAdmin, IsActive: true},
		"suspended": {ID: "suspended", Role: entity.RoleClient, IsActive: true, IsSuspended: true},
		"inactive":  {ID: "inactive", Role: entity.RoleClient},
	}
	m := NewAuthMiddleware(tokens, testCookie, users)

	whoami := func(c echo.Context) error {
		uid, _ := c.Get(ContextUID).(string)
		return c.String(http.StatusOK, uid)
	}

	e := echo.New()
	e.HTTPErrorHandler = response.HTTPErrorHandler
	e.GET("/private", whoami, m.Authenticate)
	e.GET("/public", whoami, m.OptionalAuth)
	e.GET("/ws", whoami, m.AuthenticateSocket)
	e.GET("/admin", whoami, m.Authenticate, RequireRoles(entity.RoleAdmin))
	return e, tokens
}

func issue(t *testing.T, tokens *auth.TokenService, userID, role string) string {
	t.Helper()
	token, err := tokens.Issue(userID, role)
	require.NoError(t, err)
	return token
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticateAcceptsBearerAndCookie(t *testing.T) {
	e, tokens := newAuthServer(t)
	token := issue(t, tokens, "client", entity.RoleClient)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := serve(e, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "client", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/private", nil)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: token})
	rec = serve(e, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "client", rec.Body.String())
}

func TestAuthenticateRejects(t *testing.T) {
	e, tokens := newAuthServer(t)
	other := auth.NewTokenService("other-secret", time.Hour)

	tests := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"garbage token", "not-a-jwt"},
		{"wrong signature", issue(t, other, "client", entity.RoleClient)},
		{"unknown user", issue(t, tokens, "ghost", entity.RoleClient)},
		{"suspended user", issue(t, tokens, "suspended", entity.RoleClient)},
		{"inactive user", issue(t, tokens, "inactive", entity.RoleClient)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tt.token != "" {
				req.Header.Set(echo.HeaderAuthorization, "Bearer "+tt.token)
			}
			rec := serve(e, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestQueryTokenOnlyForSockets(t *testing.T) {
	e, tokens := newAuthServer(t)
	token := issue(t, tokens, "client", entity.RoleClient)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/private?token="+token, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalAuth(t *testing.T) {
	e, tokens := newAuthServer(t)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/public", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/public", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer not-a-jwt")
	rec = serve(e, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/public", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+issue(t, tokens, "client", entity.RoleClient))
	rec = serve(e, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "client", rec.Body.String())
}

func TestRequireRoles(t *testing.T) {
	e, tokens := newAuthServer(t)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+issue(t, tokens, "client", entity.RoleClient))
	assert.Equal(t, http.StatusForbidden, serve(e, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+issue(t, tokens, "admin", entity.RoleAdmin))
	assert.Equal(t, http.StatusOK, serve(e, req).Code)
}

// The role comes from the stored user, not the token claim.
func TestRoleIsReadFromStoredUser(t *testing.T) {
	e, tokens := newAuthServer(t)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+issue(t, tokens, "client", entity.RoleAdmin))
	assert.Equal(t, http.StatusForbidden, serve(e, req).Code)
}
