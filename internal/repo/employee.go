package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/employee_registry/internal/models"
	"github.com/Skotchmaster/employee_registry/internal/transport"
)

func withSkills(db *gorm.DB) *gorm.DB {
	return db.Preload("SkillRows", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("position ASC")
	})
}

func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("joining_date DESC").Order("id DESC")
}

func hydrate(items []models.Employee) []models.Employee {
	if items == nil {
		return []models.Employee{}
	}
	for i := range items {
		items[i].SyncSkills()
	}
	return items
}

func (r *GormRepo) GetEmployee(ctx context.Context, id string) (*models.Employee, error) {
	var emp models.Employee
	if err := withSkills(r.DB.WithContext(ctx)).Where("employee_id = ?", id).First(&emp).Error; err != nil {
		return nil, err
	}
	emp.SyncSkills()
	return &emp, nil
}

func (r *GormRepo) EmployeeExists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Employee{}).
		Where("employee_id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepo) CreateEmployee(ctx context.Context, emp *models.Employee) error {
	emp.SyncSkillRows()

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(emp).Error; err != nil {
			return err
		}
		if len(emp.SkillRows) == 0 {
			return nil
		}
		return tx.Create(&emp.SkillRows).Error
	})
	if err != nil {
		return normalizeErr(err)
	}

	emp.SyncSkills()
	return nil
}

func (r *GormRepo) UpdateEmployee(ctx context.Context, id string, req transport.PatchEmployeeRequest) (*models.Employee, error) {
	var updated models.Employee

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var emp models.Employee
		if err := tx.Where("employee_id = ?", id).First(&emp).Error; err != nil {
			return err
		}

		fields := map[string]any{}
		if req.Name != nil {
			fields["name"] = *req.Name
		}
		if req.Department != nil {
			fields["department"] = *req.Department
		}
		if req.Salary != nil {
			fields["salary"] = *req.Salary
		}
		if req.JoiningDate != nil {
			fields["joining_date"] = *req.JoiningDate
		}
		if len(fields) > 0 {
			if err := tx.Model(&emp).Updates(fields).Error; err != nil {
				return err
			}
		}

		if req.Skills != nil {
			if err := tx.Where("employee_id = ?", id).Delete(&models.EmployeeSkill{}).Error; err != nil {
				return err
			}
			rows := models.SkillRows(id, *req.Skills)
			if len(rows) > 0 {
				if err := tx.Create(&rows).Error; err != nil {
					return err
				}
			}
		}

		return withSkills(tx).Where("employee_id = ?", id).First(&updated).Error
	})
	if err != nil {
		return nil, normalizeErr(err)
	}

	updated.SyncSkills()
	return &updated, nil
}

func (r *GormRepo) DeleteEmployee(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("employee_id = ?", id).Delete(&models.Employee{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("employee_id = ?", id).Delete(&models.EmployeeSkill{}).Error
	})
}

func (r *GormRepo) ListEmployees(ctx context.Context, department string, offset, limit int) ([]models.Employee, error) {
	q := r.DB.WithContext(ctx).Model(&models.Employee{})
	if department != "" {
		q = q.Where("department = ?", department)
	}

	var items []models.Employee
	if err := newestFirst(withSkills(q)).Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, err
	}
	return hydrate(items), nil
}

func (r *GormRepo) AverageSalaryByDepartment(ctx context.Context) ([]models.DepartmentSalary, error) {
	rows := []models.DepartmentSalary{}
	if err := r.DB.WithContext(ctx).Model(&models.Employee{}).
		Select("department, AVG(salary) AS avg_salary").
		Group("department").
		Order("department ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// EmployeesWithSkill matches skills exactly; the comparison is case-sensitive.
func (r *GormRepo) EmployeesWithSkill(ctx context.Context, skill string) ([]models.Employee, error) {
	db := r.DB.WithContext(ctx)
	owners := db.Model(&models.EmployeeSkill{}).Select("employee_id").Where("name = ?", skill)

	var items []models.Employee
	if err := newestFirst(withSkills(db)).Where("employee_id IN (?)", owners).Find(&items).Error; err != nil {
		return nil, err
	}
	return hydrate(items), nil
}
