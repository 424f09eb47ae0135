package repository

import (
	"context"

	"gorm.io/gorm"

	"atende-agora/backend/internal/model"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, offset, limit int) ([]model.User, int64, error)
	CountByRole(ctx context.Context, role string) (int64, error)
}

// userRepo UserRepository 的 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update 整行保存；权限列为布尔值，必须用 Select("*") 才能写入 false
// 调用方负责先确认记录存在（MySQL 未变化的行 RowsAffected 为 0）
func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	res := r.db.WithContext(ctx).
		Model(user).
		Select("*").
		Omit("user_id", "created_at", "created_by").
		Updates(user)
	return res.Error
}

func (r *userRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ?", id).
		Delete(&model.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepo) List(ctx context.Context, offset, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	db := r.db.WithContext(ctx).Model(&model.User{})

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepo) CountByRole(ctx context.Context, role string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("role = ?", role).
		Count(&total).Error
	return total, err
}
