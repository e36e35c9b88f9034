package auth

import (
	"context"
	"errors"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/employee_registry/internal/logging"
	"github.com/Skotchmaster/employee_registry/internal/service"
)

// SubjectKey is the echo context key holding the authenticated username.
const SubjectKey = "subject"

type TokenValidator interface {
	ValidateToken(ctx context.Context, raw string) (string, error)
}

// RequireBearer admits requests carrying "Authorization: Bearer <token>" for
// a known identity and answers 401 otherwise.
func RequireBearer(v TokenValidator) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  SubjectKey,
		TokenLookup: "header:Authorization:Bearer ",
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return v.ValidateToken(c.Request().Context(), auth)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			l := logging.FromContext(c.Request().Context()).With("mw", "auth.require_bearer")
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")

			switch {
			case errors.Is(err, service.ErrUnknownSubject):
				l.Warn("auth_error", "status", http.StatusUnauthorized, "reason", "unknown subject", "error", err)
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid user")
			case errors.Is(err, service.ErrInvalidToken):
				l.Warn("auth_error", "status", http.StatusUnauthorized, "reason", "invalid token", "error", err)
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			default:
				l.Warn("auth_error", "status", http.StatusUnauthorized, "reason", "missing token", "error", err)
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
			}
		},
	})
}

// Subject returns the username set by RequireBearer.
func Subject(c echo.Context) string {
	s, _ := c.Get(SubjectKey).(string)
	return s
}
