package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/employee_registry/internal/logging"
	"github.com/Skotchmaster/employee_registry/internal/models"
	"github.com/Skotchmaster/employee_registry/internal/repo"
	"github.com/Skotchmaster/employee_registry/internal/transport"
	"github.com/Skotchmaster/employee_registry/internal/util"
)

const (
	EventEmployeeCreated = "employee_created"
	EventEmployeeUpdated = "employee_updated"
	EventEmployeeDeleted = "employee_deleted"
)

type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type SearchIndex interface {
	IndexEmployee(ctx context.Context, emp *models.Employee) error
	DeleteEmployee(ctx context.Context, employeeID string) error
	Search(ctx context.Context, q string, from, size int) (int64, []models.Employee, error)
}

// EmployeeStore is the persistence EmployeeService needs; *repo.GormRepo implements it.
type EmployeeStore interface {
	GetEmployee(ctx context.Context, id string) (*models.Employee, error)
	EmployeeExists(ctx context.Context, id string) (bool, error)
	CreateEmployee(ctx context.Context, emp *models.Employee) error
	UpdateEmployee(ctx context.Context, id string, req transport.PatchEmployeeRequest) (*models.Employee, error)
	DeleteEmployee(ctx context.Context, id string) error
	ListEmployees(ctx context.Context, department string, offset, limit int) ([]models.Employee, error)
	AverageSalaryByDepartment(ctx context.Context) ([]models.DepartmentSalary, error)
	EmployeesWithSkill(ctx context.Context, skill string) ([]models.Employee, error)
}

var _ EmployeeStore = (*repo.GormRepo)(nil)

type EmployeeService struct {
	Repo        EmployeeStore
	Events      EventPublisher
	EventsTopic string
	Index       SearchIndex
}

type EmployeeEvent struct {
	EventID    string           `json:"event_id"`
	Type       string           `json:"type"`
	EmployeeID string           `json:"employee_id"`
	Employee   *models.Employee `json:"employee,omitempty"`
	At         time.Time        `json:"at"`
}

func (s *EmployeeService) CreateEmployee(ctx context.Context, req transport.CreateEmployeeRequest) (*models.Employee, error) {
	if strings.TrimSpace(req.EmployeeID) == "" {
		return nil, fmt.Errorf("%w: employee_id required", ErrValidation)
	}

	// early exit only; the unique index decides
	exists, err := s.Repo.EmployeeExists(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("employee %s: %w", req.EmployeeID, ErrDuplicateKey)
	}

	emp := req.ToModel()
	if err := s.Repo.CreateEmployee(ctx, emp); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("employee %s: %w", req.EmployeeID, ErrDuplicateKey)
		}
		return nil, err
	}

	s.afterWrite(ctx, EventEmployeeCreated, emp.EmployeeID, emp)
	return emp, nil
}

func (s *EmployeeService) GetEmployee(ctx context.Context, id string) (*models.Employee, error) {
	emp, err := s.Repo.GetEmployee(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("employee %s: %w", id, ErrNotFound)
	}
	return emp, err
}

func (s *EmployeeService) UpdateEmployee(ctx context.Context, id string, req transport.PatchEmployeeRequest) (*models.Employee, error) {
	if req.Empty() {
		return nil, ErrNoFieldsSupplied
	}

	emp, err := s.Repo.UpdateEmployee(ctx, id, req)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("employee %s: %w", id, ErrNotFound)
		}
		return nil, err
	}

	s.afterWrite(ctx, EventEmployeeUpdated, id, emp)
	return emp, nil
}

func (s *EmployeeService) DeleteEmployee(ctx context.Context, id string) error {
	if err := s.Repo.DeleteEmployee(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("employee %s: %w", id, ErrNotFound)
		}
		return err
	}

	s.afterWrite(ctx, EventEmployeeDeleted, id, nil)
	return nil
}

func (s *EmployeeService) ListEmployees(ctx context.Context, department string, page, limit int) ([]models.Employee, error) {
	offset, limit, ok := util.Calculate(page, limit)
	if !ok {
		return []models.Employee{}, nil
	}
	return s.Repo.ListEmployees(ctx, department, offset, limit)
}

func (s *EmployeeService) AverageSalaryByDepartment(ctx context.Context) ([]models.DepartmentSalary, error) {
	return s.Repo.AverageSalaryByDepartment(ctx)
}

func (s *EmployeeService) SearchBySkill(ctx context.Context, skill string) ([]models.Employee, error) {
	if skill == "" {
		return nil, fmt.Errorf("%w: skill required", ErrValidation)
	}
	return s.Repo.EmployeesWithSkill(ctx, skill)
}

func (s *EmployeeService) LookupEmployees(ctx context.Context, q string, page, limit int) (int64, []models.Employee, error) {
	if s.Index == nil {
		return 0, nil, ErrSearchUnavailable
	}
	q = strings.TrimSpace(q)
	if q == "" {
		return 0, nil, fmt.Errorf("%w: q required", ErrValidation)
	}

	offset, limit, ok := util.Calculate(page, limit)
	if !ok {
		offset = math.MaxInt
	}
	return s.Index.Search(ctx, q, offset, limit)
}

// afterWrite fans a committed change out to the event stream and the search
// index. Failures are logged and never reach the caller. The change is
// already committed, so caller cancellation does not stop the fan-out.
func (s *EmployeeService) afterWrite(ctx context.Context, typ, id string, emp *models.Employee) {
	ctx = context.WithoutCancel(ctx)
	l := logging.FromContext(ctx).With("svc", "employee.after_write", "type", typ, "employee_id", id)

	if s.Events != nil {
		pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		event := EmployeeEvent{
			EventID:    uuid.NewString(),
			Type:       typ,
			EmployeeID: id,
			Employee:   emp,
			At:         time.Now().UTC(),
		}
		if err := s.Events.PublishEvent(pubCtx, s.EventsTopic, id, event); err != nil {
			l.Error("publish_event_error", "topic", s.EventsTopic, "error", err)
		}
		cancel()
	}

	if s.Index != nil {
		var err error
		if emp == nil {
			err = s.Index.DeleteEmployee(ctx, id)
		} else {
			err = s.Index.IndexEmployee(ctx, emp)
		}
		if err != nil {
			l.Error("search_index_error", "error", err)
		}
	}
}
