package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/employee_registry/internal/logging"
	"github.com/Skotchmaster/employee_registry/internal/middleware/auth"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	EmployeeHandler *EmployeeHTTP
	AuthHandler     *AuthHTTP
	Tokens          auth.TokenValidator
	DB              Pinger
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		ctx := c.Request().Context()
		if err := d.DB.Ping(ctx); err != nil {
			logging.FromContext(ctx).Error("readiness_failed", "status", 503, "error", err)
			return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
		}
		return c.NoContent(http.StatusOK)
	})

	e.POST("/token", d.AuthHandler.Login)

	authMW := auth.RequireBearer(d.Tokens)

	employees := e.Group("/employees")
	employees.GET("", d.EmployeeHandler.ListEmployees)
	employees.GET("/avg-salary", d.EmployeeHandler.AverageSalary)
	employees.GET("/search", d.EmployeeHandler.SearchBySkill)
	employees.GET("/lookup", d.EmployeeHandler.Lookup)
	employees.GET("/:id", d.EmployeeHandler.GetEmployee)

	employees.POST("", d.EmployeeHandler.CreateEmployee, authMW)
	employees.PUT("/:id", d.EmployeeHandler.UpdateEmployee, authMW)
	employees.DELETE("/:id", d.EmployeeHandler.DeleteEmployee, authMW)
}
