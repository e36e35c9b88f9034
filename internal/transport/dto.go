package transport

import "github.com/Skotchmaster/employee_registry/internal/models"

type CreateEmployeeRequest struct {
	EmployeeID  string       `json:"employee_id"  validate:"required"`
	Name        string       `json:"name"         validate:"required"`
	Department  string       `json:"department"   validate:"required"`
	Salary      *float64     `json:"salary"       validate:"required"`
	JoiningDate *models.Date `json:"joining_date" validate:"required"`
	Skills      []string     `json:"skills"       validate:"required"`
}

func (r CreateEmployeeRequest) ToModel() *models.Employee {
	emp := &models.Employee{
		EmployeeID: r.EmployeeID,
		Name:       r.Name,
		Department: r.Department,
		Skills:     append([]string{}, r.Skills...),
	}
	if r.Salary != nil {
		emp.Salary = *r.Salary
	}
	if r.JoiningDate != nil {
		emp.JoiningDate = *r.JoiningDate
	}
	return emp
}

// PatchEmployeeRequest carries a partial update; nil means "leave unchanged".
// employee_id is immutable and therefore not part of the request.
type PatchEmployeeRequest struct {
	Name        *string      `json:"name"`
	Department  *string      `json:"department"`
	Salary      *float64     `json:"salary"`
	JoiningDate *models.Date `json:"joining_date"`
	Skills      *[]string    `json:"skills"`
}

func (r PatchEmployeeRequest) Empty() bool {
	return r.Name == nil &&
		r.Department == nil &&
		r.Salary == nil &&
		r.JoiningDate == nil &&
		r.Skills == nil
}

type EmployeeResponse struct {
	Message  string           `json:"message"`
	Employee *models.Employee `json:"employee"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type LookupResponse struct {
	Total     int64             `json:"total"`
	Employees []models.Employee `json:"employees"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}
