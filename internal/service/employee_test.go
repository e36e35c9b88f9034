package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/employee_registry/internal/config"
	"github.com/Skotchmaster/employee_registry/internal/models"
	"github.com/Skotchmaster/employee_registry/internal/repo"
	"github.com/Skotchmaster/employee_registry/internal/transport"
)

type recordedEvent struct {
	topic string
	key   string
	event EmployeeEvent
}

type fakePublisher struct {
	mu      sync.Mutex
	events  []recordedEvent
	ctxErrs []error
	err     error
}

func (p *fakePublisher) PublishEvent(ctx context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{topic: topic, key: key, event: event.(EmployeeEvent)})
	p.ctxErrs = append(p.ctxErrs, ctx.Err())
	return p.err
}

type fakeIndex struct {
	indexed  []string
	deleted  []string
	ctxErrs  []error
	lastFrom int
	err      error
}

func (f *fakeIndex) IndexEmployee(ctx context.Context, emp *models.Employee) error {
	f.indexed = append(f.indexed, emp.EmployeeID)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	return f.err
}

func (f *fakeIndex) DeleteEmployee(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	return f.err
}

func (f *fakeIndex) Search(_ context.Context, q string, from, size int) (int64, []models.Employee, error) {
	f.lastFrom = from
	return 1, []models.Employee{{EmployeeID: q, Skills: []string{}}}, f.err
}

// racingStore reports every key as free, as if a concurrent insert landed
// between the existence check and the insert.
type racingStore struct {
	*repo.GormRepo
}

func (racingStore) EmployeeExists(context.Context, string) (bool, error) { return false, nil }

func newTestEmployeeService(t *testing.T) *EmployeeService {
	t.Helper()

	ctx := context.Background()
	db, err := config.Open(ctx, config.DriverSQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, config.Migrate(ctx, db))
	t.Cleanup(func() { _ = config.Close(db) })

	return &EmployeeService{Repo: &repo.GormRepo{DB: db}, EventsTopic: "employee_events"}
}

func createReq(id, dept string, salary float64, joined models.Date, skills ...string) transport.CreateEmployeeRequest {
	if skills == nil {
		skills = []string{}
	}
	return transport.CreateEmployeeRequest{
		EmployeeID:  id,
		Name:        "name " + id,
		Department:  dept,
		Salary:      &salary,
		JoiningDate: &joined,
		Skills:      skills,
	}
}

func TestEmployeeService_CreateThenGet(t *testing.T) {
	svc := newTestEmployeeService(t)
	ctx := context.Background()

	created, err := svc.CreateEmployee(ctx, createReq("E1", "Eng", 1000, models.NewDate(2021, time.June, 1), "go", "sql"))
	require.NoError(t, err)

	got, err := svc.GetEmployee(ctx, "E1")
	require.NoError(t, err)
	assert.Equal(t, created.EmployeeID, got.EmployeeID)
	assert.Equal(t, created.Name, got.Name)
	assert.Equal(t, created.Department, got.Department)
	assert.Equal(t, created.Salary, got.Salary)
	assert.Equal(t, created.JoiningDate.String(), got.JoiningDate.String())
	assert.Equal(t, created.Skills, got.Skills)
}

func TestEmployeeService_CreateDuplicate(t *testing.T) {
	svc := newTestEmployeeService(t)
	ctx := context.Background()

	_, err := svc.CreateEmployee(ctx, createReq("E1", "Eng", 1000, models.NewDate(2021, 1, 1)))
	require.NoError(t, err)

	_, err = svc.CreateEmployee(ctx, createReq("E1", "Ops", 5, models.NewDate(2022, 1, 1)))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateKey)

	got, err := svc.GetEmployee(ctx, "E1")
	require.NoError(t, err)
	assert.Equal(t, "Eng", got.Department)
	assert.Equal(t, 1000.0, got.Salary)
}

func TestEmployeeService_CreateRequiresKey(t *testing.T) {
	svc := newTestEmployeeService(t)

	_, err := svc.CreateEmployee(context.Background(), createReq("  ", "Eng", 1, models.NewDate(2021, 1, 1)))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestEmployeeService_UpdateNoFields(t *testing.T) {
	svc := newTestEmployeeService(t)
	ctx := context.Background()

	_, err := svc.CreateEmployee(ctx, createReq("E1", "Eng", 1000, models.NewDate(2021, 1, 1), "go"))
	require.NoError(t, err)

	_, err = svc.UpdateEmployee(ctx, "E1", transport.PatchEmployeeRequest{})
	assert.ErrorIs(t, err, ErrNoFieldsSupplied)

	got, err := svc.GetEmployee(ctx, "E1")
	require.NoError(t, err)
	assert.Equal(t, "Eng", got.Department)
	assert.Equal(t, []string{"go"}, got.Skills)
}

func TestEmployeeService_UpdatePartial(t *testing.T) {
	svc := newTestEmployeeService(t)
	ctx := context.Background()

	_, err := svc.CreateEmployee(ctx, createReq("E1", "Eng", 1000, models.NewDate(2021, 1, 1), "go"))
	require.NoError(t, err)

	name := "Grace"
	joined := models.NewDate(2019, time.December, 31)
	got, err := svc.UpdateEmployee(ctx, "E1", transport.PatchEmployeeRequest{Name: &name, JoiningDate: &joined})
	require.NoError(t, err)
	assert.Equal(t, "Grace", got.Name)
	assert.Equal(t, "2019-12-31", got.JoiningDate.String())
	assert.Equal(t, "Eng", got.Department)
	assert.Equal(t, 1000.0, got.Salary)
	assert.Equal(t, []string{"go"}, got.Skills)
}

func TestEmployeeService_UpdateMissing(t *testing.T) {
	svc := newTestEmployeeService(t)

	name := "Grace"
	_, err := svc.UpdateEmployee(context.Background(), "nope", transport.PatchEmployeeRequest{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEmployeeService_DeleteThenGet(t *testing.T) {
	svc := newTestEmployeeService(t)
	ctx := context.Background()

	_, err := svc.CreateEmployee(ctx, createReq("E1", "Eng", 1000, models.NewDate(2021, 1, 1)))
	require.NoError(t, err)
	require.NoError(t, svc.DeleteEmployee(ctx, "E1"))

	_, err = svc.GetEmployee(ctx, "E1")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, svc.DeleteEmployee(ctx, "E1"), ErrNotFound)
}

func TestEmployeeService_ListEmployees(t *testing.T) {
	svc := newTestEmployeeService(t)
	ctx := context.Background()

	for i := 1; i <= 6; i++ {
		_, err := svc.CreateEmployee(ctx, createReq("ENG"+string(rune('0'+i)), "Eng", 1, models.NewDate(2023, time.March, i)))
		require.NoError(t, err)
	}
	_, err := svc.CreateEmployee(ctx, createReq("OPS1", "Ops", 1, models.NewDate(2024, time.March, 1)))
	require.NoError(t, err)

	page, err := svc.ListEmployees(ctx, "Eng", 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "ENG4", page[0].EmployeeID)
	assert.Equal(t, "ENG3", page[1].EmployeeID)

	clamped, err := svc.ListEmployees(ctx, "Eng", -1, 2)
	require.NoError(t, err)
	require.Len(t, clamped, 2)
	assert.Equal(t, "ENG6", clamped[0].EmployeeID)

	defaults, err := svc.ListEmployees(ctx, "", 1, 0)
	require.NoError(t, err)
	assert.Len(t, defaults, 5)
	assert.Equal(t, "OPS1", defaults[0].EmployeeID)
}

func TestEmployeeService_AverageSalary(t *testing.T) {
	svc := newTestEmployeeService(t)
	ctx := context.Background()

	for _, r := range []transport.CreateEmployeeRequest{
		createReq("A1", "A", 100, models.NewDate(2020, 1, 1)),
		createReq("A2", "A", 200, models.NewDate(2020, 1, 2)),
		createReq("B1", "B", 300, models.NewDate(2020, 1, 3)),
	} {
		_, err := svc.CreateEmployee(ctx, r)
		require.NoError(t, err)
	}

	got, err := svc.AverageSalaryByDepartment(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.DepartmentSalary{
		{Department: "A", AvgSalary: 150},
		{Department: "B", AvgSalary: 300},
	}, got)
}

func TestEmployeeService_SearchBySkill(t *testing.T) {
	svc := newTestEmployeeService(t)
	ctx := context.Background()

	_, err := svc.CreateEmployee(ctx, createReq("E1", "Eng", 1, models.NewDate(2020, 1, 1), "python"))
	require.NoError(t, err)
	_, err = svc.CreateEmployee(ctx, createReq("E2", "Eng", 1, models.NewDate(2020, 1, 2), "PYTHON", "pythonista"))
	require.NoError(t, err)

	got, err := svc.SearchBySkill(ctx, "python")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "E1", got[0].EmployeeID)

	_, err = svc.SearchBySkill(ctx, "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestEmployeeService_PublishesEventsAndIndexes(t *testing.T) {
	svc := newTestEmployeeService(t)
	pub := &fakePublisher{}
	idx := &fakeIndex{}
	svc.Events = pub
	svc.Index = idx
	ctx := context.Background()

	_, err := svc.CreateEmployee(ctx, createReq("E1", "Eng", 1, models.NewDate(2020, 1, 1)))
	require.NoError(t, err)
	dept := "Ops"
	_, err = svc.UpdateEmployee(ctx, "E1", transport.PatchEmployeeRequest{Department: &dept})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteEmployee(ctx, "E1"))

	require.Len(t, pub.events, 3)
	types := []string{pub.events[0].event.Type, pub.events[1].event.Type, pub.events[2].event.Type}
	assert.Equal(t, []string{EventEmployeeCreated, EventEmployeeUpdated, EventEmployeeDeleted}, types)
	for _, e := range pub.events {
		assert.Equal(t, "employee_events", e.topic)
		assert.Equal(t, "E1", e.key)
		assert.NotEmpty(t, e.event.EventID)
	}
	assert.Equal(t, "Ops", pub.events[1].event.Employee.Department)
	assert.Nil(t, pub.events[2].event.Employee)

	assert.Equal(t, []string{"E1", "E1"}, idx.indexed)
	assert.Equal(t, []string{"E1"}, idx.deleted)
}

func TestEmployeeService_SideEffectFailuresAreSwallowed(t *testing.T) {
	svc := newTestEmployeeService(t)
	svc.Events = &fakePublisher{err: errors.New("broker down")}
	svc.Index = &fakeIndex{err: errors.New("index down")}

	_, err := svc.CreateEmployee(context.Background(), createReq("E1", "Eng", 1, models.NewDate(2020, 1, 1)))
	require.NoError(t, err)
}

func TestEmployeeService_NoEventsOnFailure(t *testing.T) {
	svc := newTestEmployeeService(t)
	pub := &fakePublisher{}
	svc.Events = pub

	require.ErrorIs(t, svc.DeleteEmployee(context.Background(), "nope"), ErrNotFound)
	assert.Empty(t, pub.events)
}

func TestEmployeeService_Lookup(t *testing.T) {
	svc := newTestEmployeeService(t)
	ctx := context.Background()

	_, _, err := svc.LookupEmployees(ctx, "ada", 1, 5)
	assert.ErrorIs(t, err, ErrSearchUnavailable)

	svc.Index = &fakeIndex{}
	_, _, err = svc.LookupEmployees(ctx, "   ", 1, 5)
	assert.ErrorIs(t, err, ErrValidation)

	total, items, err := svc.LookupEmployees(ctx, "ada", 1, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "ada", items[0].EmployeeID)
}

func TestEmployeeService_CreateDuplicateCaughtByUniqueIndex(t *testing.T) {
	svc := newTestEmployeeService(t)
	pub := &fakePublisher{}
	svc.Events = pub
	svc.Repo = racingStore{GormRepo: svc.Repo.(*repo.GormRepo)}
	ctx := context.Background()

	_, err := svc.CreateEmployee(ctx, createReq("E1", "Eng", 1000, models.NewDate(2021, 1, 1)))
	require.NoError(t, err)

	_, err = svc.CreateEmployee(ctx, createReq("E1", "Ops", 5, models.NewDate(2022, 1, 1)))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.Len(t, pub.events, 1)

	got, err := svc.GetEmployee(ctx, "E1")
	require.NoError(t, err)
	assert.Equal(t, "Eng", got.Department)
}

func TestEmployeeService_ListPageBeyondAnyOffset(t *testing.T) {
	svc := newTestEmployeeService(t)
	ctx := context.Background()

	for _, id := range []string{"E1", "E2"} {
		_, err := svc.CreateEmployee(ctx, createReq(id, "Eng", 1, models.NewDate(2020, 1, 1)))
		require.NoError(t, err)
	}

	got, err := svc.ListEmployees(ctx, "", 4611686018427387905, 2)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got, err = svc.ListEmployees(ctx, "", math.MaxInt, 100)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEmployeeService_LookupPageBeyondAnyOffset(t *testing.T) {
	svc := newTestEmployeeService(t)
	idx := &fakeIndex{}
	svc.Index = idx

	_, _, err := svc.LookupEmployees(context.Background(), "ada", 4611686018427387905, 2)
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt, idx.lastFrom)
}

func TestEmployeeService_SideEffectsSurviveCallerCancel(t *testing.T) {
	svc := newTestEmployeeService(t)
	pub := &fakePublisher{}
	idx := &fakeIndex{}
	svc.Events = pub
	svc.Index = idx

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	emp := &models.Employee{EmployeeID: "E1", Skills: []string{}}
	svc.afterWrite(ctx, EventEmployeeCreated, "E1", emp)
	svc.afterWrite(ctx, EventEmployeeDeleted, "E1", nil)

	require.Len(t, pub.ctxErrs, 2)
	for _, err := range pub.ctxErrs {
		assert.NoError(t, err)
	}
	require.Len(t, idx.ctxErrs, 2)
	for _, err := range idx.ctxErrs {
		assert.NoError(t, err)
	}
	assert.Equal(t, []string{"E1"}, idx.indexed)
	assert.Equal(t, []string{"E1"}, idx.deleted)
}
