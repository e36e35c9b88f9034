package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/employee_registry/internal/logging"
	loggingmw "github.com/Skotchmaster/employee_registry/internal/middleware/logging"
	"github.com/Skotchmaster/employee_registry/internal/transport"
)

// NewEcho builds the echo instance with the error renderer, request
// validator and the common middleware chain installed.
func NewEcho(logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler
	e.Validator = NewValidator()

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	return e
}

// ErrorHandler renders every error as {"detail": "..."}.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	detail := "internal server error"

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		switch m := he.Message.(type) {
		case string:
			detail = m
		case error:
			detail = m.Error()
		case nil:
			detail = http.StatusText(code)
		default:
			detail = fmt.Sprint(m)
		}
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, transport.ErrorResponse{Detail: detail})
	}
	if err != nil {
		logging.FromContext(c.Request().Context()).Error("render_error_failed", "error", err)
	}
}

type RequestValidator struct {
	v *validator.Validate
}

// NewValidator reports fields by their json names.
func NewValidator() *RequestValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &RequestValidator{v: v}
}

// Validate returns a 422 naming the first offending field.
func (rv *RequestValidator) Validate(i any) error {
	err := rv.v.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Tag() == "required" {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "field required: "+fe.Field())
		}
		return echo.NewHTTPError(http.StatusUnprocessableEntity, fmt.Sprintf("invalid field: %s (%s)", fe.Field(), fe.Tag()))
	}
	return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
}

func missingParam(name string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusUnprocessableEntity, "field required: "+name)
}
