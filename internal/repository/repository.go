package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"atende-agora/backend/internal/model"
)

// ErrSectorNotSeeded sectors 表中缺少该部门行（迁移未执行或数据被改动）
var ErrSectorNotSeeded = errors.New("部门未初始化")

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Attendance  AttendanceRepository
	Sector      SectorRepository
	SectorPhone SectorPhoneRepository
	User        UserRepository
	Employee    EmployeeRepository
}

// NewRepository 创建基于 GORM 的 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Attendance:  NewAttendanceRepo(db),
		Sector:      NewSectorRepo(db),
		SectorPhone: NewSectorPhoneRepo(db),
		User:        NewUserRepo(db),
		Employee:    NewEmployeeRepo(db),
	}
}

// lookupSectorID 在给定事务内按编码查找部门主键
func lookupSectorID(ctx context.Context, tx *gorm.DB, code model.SectorCode) (int, error) {
	var sector model.Sector
	err := tx.WithContext(ctx).
		Select("sector_id").
		Where("code = ?", code).
		First(&sector).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrSectorNotSeeded
		}
		return 0, err
	}
	return sector.SectorID, nil
}
