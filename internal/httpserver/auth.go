package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/employee_registry/internal/logging"
	"github.com/Skotchmaster/employee_registry/internal/service"
	"github.com/Skotchmaster/employee_registry/internal/transport"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

// Login exchanges form fields username and password for a bearer token.
func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	username := c.FormValue("username")
	password := c.FormValue("password")
	if username == "" {
		l.Warn("login_error", "status", 422, "reason", "username missing")
		return missingParam("username")
	}
	if password == "" {
		l.Warn("login_error", "status", 422, "reason", "password missing")
		return missingParam("password")
	}

	res, err := h.Svc.Login(ctx, username, password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredential):
			l.Warn("login_error", "status", 400, "reason", "incorrect username or password")
			return echo.NewHTTPError(http.StatusBadRequest, "Incorrect username or password")
		case errors.Is(err, service.ErrValidation):
			l.Warn("login_error", "status", 422, "reason", "invalid form", "error", err)
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "username and password are required")
		default:
			l.Error("login_error", "status", 500, "reason", "cannot issue token", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot issue token")
		}
	}

	l.Info("login_success", "username", username)
	return c.JSON(http.StatusOK, transport.TokenResponse{AccessToken: res.AccessToken, TokenType: "bearer"})
}
