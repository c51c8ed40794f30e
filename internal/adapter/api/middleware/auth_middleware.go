package middleware

import (
	"context"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"gigmarket/internal/domain/entity"
	"gigmarket/internal/infrastructure/auth"
	"gigmarket/pkg/errors"
)

const (
	ContextUID    = "uid"
	ContextRole   = "role"
	ContextUser   = "user"
	contextClaims = "claims"
)

type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*entity.User, error)
}

type AuthMiddleware struct {
	required echo.MiddlewareFunc
	optional echo.MiddlewareFunc
	socket   echo.MiddlewareFunc
	users    UserLookup
}

func NewAuthMiddleware(tokens TokenParser, cookieName string, users UserLookup) *AuthMiddleware {
	lookup := "header:" + echo.HeaderAuthorization + ":Bearer ,cookie:" + cookieName

	build := func(tokenLookup string, optional bool) echo.MiddlewareFunc {
		return echojwt.WithConfig(echojwt.Config{
			ContextKey:  contextClaims,
			TokenLookup: tokenLookup,
			ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
				return tokens.Parse(token)
			},
			ContinueOnIgnoredError: optional,
			ErrorHandler: func(c echo.Context, err error) error {
				if optional {
					return nil
				}
				return errors.Unauthorized("Invalid or missing token", err)
			},
		})
	}

	return &AuthMiddleware{
		required: build(lookup, false),
		optional: build(lookup, true),
		socket:   build(lookup+",query:token", false),
		users:    users,
	}
}

// Authenticate requires a valid token belonging to an active, unsuspended user.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return m.required(m.resolve(next, true))
}

// AuthenticateSocket also accepts the token as a ?token= query parameter.
func (m *AuthMiddleware) AuthenticateSocket(next echo.HandlerFunc) echo.HandlerFunc {
	return m.socket(m.resolve(next, true))
}

// OptionalAuth attaches the caller when a valid token is present and continues anonymously otherwise.
func (m *AuthMiddleware) OptionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.optional(m.resolve(next, false))
}

func (m *AuthMiddleware) resolve(next echo.HandlerFunc, required bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, ok := c.Get(contextClaims).(*auth.Claims)
		if !ok {
			if required {
				return errors.Unauthorized("Invalid or missing token", nil)
			}
			return next(c)
		}

		user, err := m.users.GetUserByID(c.Request().Context(), claims.Subject)
		if err != nil {
			if !required {
				return next(c)
			}
			if errors.Is(err, errors.CodeNotFound) {
				return errors.Unauthorized("Account no longer exists", nil)
			}
			return err
		}
		if !user.CanAuthenticate() {
			if !required {
				return next(c)
			}
			return errors.Unauthorized("Account is not active", nil)
		}

		c.Set(ContextUID, user.ID)
		c.Set(ContextRole, user.Role)
		c.Set(ContextUser, user)
		return next(c)
	}
}

// RequireRoles allows the request through when the caller holds any of roles.
func RequireRoles(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(ContextRole).(string)
			if !ok {
				return errors.Unauthorized("Authentication required", nil)
			}
			for _, r := range roles {
				if r == role {
					return next(c)
				}
			}
			return errors.Forbidden("You do not have permission to perform this action", nil)
		}
	}
}

// CurrentUser returns the authenticated caller, or nil.
func CurrentUser(c echo.Context) *entity.User {
	user, _ := c.Get(ContextUser).(*entity.User)
	return user
}
