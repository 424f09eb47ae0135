package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"atende-agora/backend/internal/model"
	pkgerrors "atende-agora/backend/pkg/errors"
)

// AttendanceRepository 接待记录数据访问接口
//
// 约定：
//   - 记录不存在时返回 gorm.ErrRecordNotFound（内存实现保持一致）
//   - MarkAttended 为条件更新，同一记录最多成功一次，重复调用返回 pkgerrors.ErrAlreadyAttended
//   - List 可以把条件下推到存储层，但调用方会再次按 AttendanceFilter 过滤与排序
type AttendanceRepository interface {
	Create(ctx context.Context, a *model.Attendance) error
	GetByID(ctx context.Context, id string) (*model.Attendance, error)
	Update(ctx context.Context, id string, fields *model.AttendanceFields) (*model.Attendance, error)
	MarkAttended(ctx context.Context, id string, attendedAt, hideAfter time.Time) (*model.Attendance, error)
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, filter *model.AttendanceFilter) ([]model.Attendance, error)
	CountByStatus(ctx context.Context) (waiting, attended int64, err error)
}

// attendanceRepo AttendanceRepository 的 GORM 实现
type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo 创建 AttendanceRepository 实例
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

// Create 在同一事务中查找部门主键并插入记录，避免出现引用不存在部门的记录
func (r *attendanceRepo) Create(ctx context.Context, a *model.Attendance) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sectorID, err := lookupSectorID(ctx, tx, a.Sector)
		if err != nil {
			return err
		}
		a.SectorID = sectorID
		return tx.Omit(clause.Associations).Create(a).Error
	})
}

func (r *attendanceRepo) GetByID(ctx context.Context, id string) (*model.Attendance, error) {
	return r.getByID(ctx, r.db, id)
}

func (r *attendanceRepo) getByID(ctx context.Context, db *gorm.DB, id string) (*model.Attendance, error) {
	var a model.Attendance
	err := db.WithContext(ctx).
		Preload("SectorRef").
		Where("attendance_id = ?", id).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	fillSector(&a)
	return &a, nil
}

// Update 只写入可修改列，不使用 Save，避免覆盖并发写入的接待状态
func (r *attendanceRepo) Update(ctx context.Context, id string, fields *model.AttendanceFields) (*model.Attendance, error) {
	var updated *model.Attendance
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := r.getByID(ctx, tx, id)
		if err != nil {
			return err
		}

		updates := make(map[string]interface{})
		if fields.Registration != nil {
			updates["registration"] = *fields.Registration
		}
		if fields.Name != nil {
			updates["name"] = *fields.Name
		}
		if fields.Position != nil {
			updates["position"] = *fields.Position
		}
		if fields.Reason != nil {
			updates["reason"] = *fields.Reason
		}
		if fields.Sector != nil {
			sectorID, err := lookupSectorID(ctx, tx, *fields.Sector)
			if err != nil {
				return err
			}
			updates["sector_id"] = sectorID
		}

		if len(updates) > 0 {
			if err := tx.Model(&model.Attendance{}).
				Where("attendance_id = ?", id).
				Updates(updates).Error; err != nil {
				return err
			}
		}

		fields.ApplyTo(current)
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *attendanceRepo) MarkAttended(ctx context.Context, id string, attendedAt, hideAfter time.Time) (*model.Attendance, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Attendance{}).
		Where("attendance_id = ? AND attended = ?", id, false).
		Updates(map[string]interface{}{
			"attended":    true,
			"attended_at": attendedAt,
			"hide_after":  hideAfter,
		})
	if res.Error != nil {
		return nil, res.Error
	}

	a, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		// 记录存在但条件更新未命中：已被其他请求标记
		return nil, pkgerrors.ErrAlreadyAttended
	}
	return a, nil
}

func (r *attendanceRepo) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("attendance_id = ?", id).
		Delete(&model.Attendance{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// List 将日期、部门、状态条件下推为 SQL；姓名与工号使用 LIKE 粗筛，
// 通配符未转义时结果可能偏多，由调用方的 AttendanceFilter 精确过滤
func (r *attendanceRepo) List(ctx context.Context, filter *model.AttendanceFilter) ([]model.Attendance, error) {
	q := r.db.WithContext(ctx).
		Model(&model.Attendance{}).
		Preload("SectorRef")

	if filter != nil {
		if filter.StartDate != nil {
			q = q.Where("created_at >= ?", *filter.StartDate)
		}
		if filter.EndDate != nil {
			q = q.Where("created_at <= ?", *filter.EndDate)
		}
		if filter.Sector != "" {
			sub := r.db.Model(&model.Sector{}).Select("sector_id").Where("code = ?", filter.Sector)
			q = q.Where("sector_id IN (?)", sub)
		}
		switch filter.Status {
		case model.StatusWaiting:
			q = q.Where("attended = ?", false)
		case model.StatusAttended:
			q = q.Where("attended = ?", true)
		}
		if filter.Name != "" {
			q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.Name)+"%")
		}
		if filter.Registration != "" {
			q = q.Where("LOWER(registration) LIKE ?", "%"+strings.ToLower(filter.Registration)+"%")
		}
	}

	var records []model.Attendance
	if err := q.Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	for i := range records {
		fillSector(&records[i])
	}
	return records, nil
}

func (r *attendanceRepo) CountByStatus(ctx context.Context) (int64, int64, error) {
	var rows []struct {
		Attended bool
		Total    int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.Attendance{}).
		Select("attended, COUNT(*) AS total").
		Group("attended").
		Scan(&rows).Error
	if err != nil {
		return 0, 0, err
	}

	var waiting, attended int64
	for _, row := range rows {
		if row.Attended {
			attended = row.Total
		} else {
			waiting = row.Total
		}
	}
	return waiting, attended, nil
}

func fillSector(a *model.Attendance) {
	if a.SectorRef != nil {
		a.Sector = a.SectorRef.Code
	}
}

// IsNotFound 判断是否为记录不存在
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
