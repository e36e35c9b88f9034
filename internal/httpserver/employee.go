package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/employee_registry/internal/logging"
	"github.com/Skotchmaster/employee_registry/internal/middleware/auth"
	"github.com/Skotchmaster/employee_registry/internal/models"
	"github.com/Skotchmaster/employee_registry/internal/service"
	"github.com/Skotchmaster/employee_registry/internal/transport"
	"github.com/Skotchmaster/employee_registry/internal/util"
)

type EmployeeHTTP struct {
	Svc *service.EmployeeService
}

func (h *EmployeeHTTP) CreateEmployee(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "employee.create", "subject", auth.Subject(c))

	var req transport.CreateEmployeeRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("employee_create_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		l.Warn("employee_create_error", "status", 422, "reason", "validation failed", "error", err)
		return err
	}

	emp, err := h.Svc.CreateEmployee(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateKey):
			l.Warn("employee_create_error", "status", 400, "reason", "duplicate employee_id", "employee_id", req.EmployeeID)
			return echo.NewHTTPError(http.StatusBadRequest, "Employee ID already exists")
		case errors.Is(err, service.ErrValidation):
			l.Warn("employee_create_error", "status", 422, "reason", "validation failed", "error", err)
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "field required: employee_id")
		default:
			l.Error("employee_create_error", "status", 500, "reason", "cannot store employee", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		}
	}

	l.Info("employee_create_success", "employee_id", emp.EmployeeID)
	return c.JSON(http.StatusOK, transport.EmployeeResponse{Message: "Employee created successfully", Employee: emp})
}

func (h *EmployeeHTTP) GetEmployee(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	l := logging.FromContext(ctx).With("handler", "employee.get", "employee_id", id)

	emp, err := h.Svc.GetEmployee(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("employee_get_error", "status", 404, "reason", "not found")
			return echo.NewHTTPError(http.StatusNotFound, "Employee not found")
		}
		l.Error("employee_get_error", "status", 500, "reason", "cannot load employee", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	return c.JSON(http.StatusOK, emp)
}

func (h *EmployeeHTTP) UpdateEmployee(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	l := logging.FromContext(ctx).With("handler", "employee.update", "employee_id", id, "subject", auth.Subject(c))

	var req transport.PatchEmployeeRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("employee_update_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	emp, err := h.Svc.UpdateEmployee(ctx, id, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoFieldsSupplied):
			l.Warn("employee_update_error", "status", 400, "reason", "no fields")
			return echo.NewHTTPError(http.StatusBadRequest, "No fields to update")
		case errors.Is(err, service.ErrNotFound):
			l.Warn("employee_update_error", "status", 404, "reason", "not found")
			return echo.NewHTTPError(http.StatusNotFound, "Employee not found")
		default:
			l.Error("employee_update_error", "status", 500, "reason", "cannot update employee", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		}
	}

	l.Info("employee_update_success")
	return c.JSON(http.StatusOK, transport.EmployeeResponse{Message: "Employee updated successfully", Employee: emp})
}

func (h *EmployeeHTTP) DeleteEmployee(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	l := logging.FromContext(ctx).With("handler", "employee.delete", "employee_id", id, "subject", auth.Subject(c))

	if err := h.Svc.DeleteEmployee(ctx, id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("employee_delete_error", "status", 404, "reason", "not found")
			return echo.NewHTTPError(http.StatusNotFound, "Employee not found")
		}
		l.Error("employee_delete_error", "status", 500, "reason", "cannot delete employee", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	l.Info("employee_delete_success")
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Employee deleted successfully"})
}

func (h *EmployeeHTTP) ListEmployees(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "employee.list")

	page, err := util.ParseIntParam(c.QueryParam("page"), util.DefaultPage)
	if err != nil {
		l.Warn("employee_list_error", "status", 422, "reason", "page is not an integer", "error", err)
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "page must be an integer")
	}
	limit, err := util.ParseIntParam(c.QueryParam("limit"), util.DefaultPageSize)
	if err != nil {
		l.Warn("employee_list_error", "status", 422, "reason", "limit is not an integer", "error", err)
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "limit must be an integer")
	}

	items, err := h.Svc.ListEmployees(ctx, c.QueryParam("department"), page, limit)
	if err != nil {
		l.Error("employee_list_error", "status", 500, "reason", "cannot list employees", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	return c.JSON(http.StatusOK, nonNil(items))
}

func (h *EmployeeHTTP) AverageSalary(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "employee.avg_salary")

	rows, err := h.Svc.AverageSalaryByDepartment(ctx)
	if err != nil {
		l.Error("employee_avg_salary_error", "status", 500, "reason", "cannot aggregate salaries", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	if rows == nil {
		rows = []models.DepartmentSalary{}
	}

	return c.JSON(http.StatusOK, rows)
}

func (h *EmployeeHTTP) SearchBySkill(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "employee.search")

	skill := c.QueryParam("skill")
	if skill == "" {
		l.Warn("employee_search_error", "status", 422, "reason", "skill missing")
		return missingParam("skill")
	}

	items, err := h.Svc.SearchBySkill(ctx, skill)
	if err != nil {
		l.Error("employee_search_error", "status", 500, "reason", "cannot search employees", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	return c.JSON(http.StatusOK, nonNil(items))
}

// Lookup runs a free-text query against the search index.
func (h *EmployeeHTTP) Lookup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "employee.lookup")

	q := c.QueryParam("q")
	if q == "" {
		l.Warn("employee_lookup_error", "status", 422, "reason", "q missing")
		return missingParam("q")
	}
	page, err := util.ParseIntParam(c.QueryParam("page"), util.DefaultPage)
	if err != nil {
		l.Warn("employee_lookup_error", "status", 422, "reason", "page is not an integer", "error", err)
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "page must be an integer")
	}
	limit, err := util.ParseIntParam(c.QueryParam("limit"), util.DefaultPageSize)
	if err != nil {
		l.Warn("employee_lookup_error", "status", 422, "reason", "limit is not an integer", "error", err)
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "limit must be an integer")
	}

	total, items, err := h.Svc.LookupEmployees(ctx, q, page, limit)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSearchUnavailable):
			l.Warn("employee_lookup_error", "status", 503, "reason", "search index not configured")
			return echo.NewHTTPError(http.StatusServiceUnavailable, "search is not configured")
		case errors.Is(err, service.ErrValidation):
			l.Warn("employee_lookup_error", "status", 422, "reason", "blank q")
			return missingParam("q")
		default:
			l.Error("employee_lookup_error", "status", 500, "reason", "search failed", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		}
	}

	return c.JSON(http.StatusOK, transport.LookupResponse{Total: total, Employees: nonNil(items)})
}

func nonNil(items []models.Employee) []models.Employee {
	if items == nil {
		return []models.Employee{}
	}
	return items
}
