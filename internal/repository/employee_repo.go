package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"atende-agora/backend/internal/model"
)

// EmployeeRepository 员工目录数据访问接口
type EmployeeRepository interface {
	GetByRegistration(ctx context.Context, registration string) (*model.Employee, error)
	// Upsert 按工号插入或覆盖姓名、职位，返回写入行数
	Upsert(ctx context.Context, employees []model.Employee) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type employeeRepo struct {
	db *gorm.DB
}

// NewEmployeeRepo 创建 EmployeeRepository 实例
func NewEmployeeRepo(db *gorm.DB) EmployeeRepository {
	return &employeeRepo{db: db}
}

func (r *employeeRepo) GetByRegistration(ctx context.Context, registration string) (*model.Employee, error) {
	var e model.Employee
	err := r.db.WithContext(ctx).
		Where("registration = ?", registration).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *employeeRepo) Upsert(ctx context.Context, employees []model.Employee) (int64, error) {
	if len(employees) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "registration"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "position", "updated_at", "updated_by"}),
		}).
		CreateInBatches(employees, 200)
	if res.Error != nil {
		return 0, res.Error
	}
	return int64(len(employees)), nil
}

func (r *employeeRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Employee{}).Count(&total).Error
	return total, err
}
