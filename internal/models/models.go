package models

import "time"

type Employee struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"                                  json:"-"`
	EmployeeID  string          `gorm:"uniqueIndex:idx_employees_employee_id;size:64;not null"     json:"employee_id"`
	Name        string          `gorm:"not null"                                                  json:"name"`
	Department  string          `gorm:"index;not null"                                            json:"department"`
	Salary      float64         `gorm:"not null"                                                  json:"salary"`
	JoiningDate Date            `gorm:"index;not null"                                            json:"joining_date"`
	Skills      []string        `gorm:"-"                                                         json:"skills"`
	SkillRows   []EmployeeSkill `gorm:"foreignKey:EmployeeID;references:EmployeeID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time       `json:"-"`
	UpdatedAt   time.Time       `json:"-"`
}

type EmployeeSkill struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	EmployeeID string `gorm:"index;size:64;not null"`
	Position   int    `gorm:"not null"`
	Name       string `gorm:"index;not null"`
}

type DepartmentSalary struct {
	Department string  `json:"department"`
	AvgSalary  float64 `json:"avg_salary"`
}

// SyncSkillRows rebuilds SkillRows from Skills, preserving order.
func (e *Employee) SyncSkillRows() {
	e.SkillRows = SkillRows(e.EmployeeID, e.Skills)
}

// SyncSkills rebuilds Skills from preloaded SkillRows. Skills is never nil.
func (e *Employee) SyncSkills() {
	skills := make([]string, 0, len(e.SkillRows))
	for _, row := range e.SkillRows {
		skills = append(skills, row.Name)
	}
	e.Skills = skills
}

func SkillRows(employeeID string, skills []string) []EmployeeSkill {
	rows := make([]EmployeeSkill, 0, len(skills))
	for i, s := range skills {
		rows = append(rows, EmployeeSkill{EmployeeID: employeeID, Position: i, Name: s})
	}
	return rows
}
