package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"atende-agora/backend/internal/model"
)

// SectorRepository 部门字典（只读，数据由迁移写入）
type SectorRepository interface {
	List(ctx context.Context) ([]model.Sector, error)
	GetByCode(ctx context.Context, code model.SectorCode) (*model.Sector, error)
}

type sectorRepo struct {
	db *gorm.DB
}

// NewSectorRepo 创建 SectorRepository 实例
func NewSectorRepo(db *gorm.DB) SectorRepository {
	return &sectorRepo{db: db}
}

func (r *sectorRepo) List(ctx context.Context) ([]model.Sector, error) {
	var sectors []model.Sector
	err := r.db.WithContext(ctx).
		Order("sector_id ASC").
		Find(&sectors).Error
	return sectors, err
}

func (r *sectorRepo) GetByCode(ctx context.Context, code model.SectorCode) (*model.Sector, error) {
	var sector model.Sector
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&sector).Error
	if err != nil {
		return nil, err
	}
	return &sector, nil
}

// ── 部门通知号码 ──

// SectorPhoneRepository 部门 WhatsApp 通知号码数据访问接口
type SectorPhoneRepository interface {
	ListBySector(ctx context.Context, code model.SectorCode) ([]model.SectorPhone, error)
	ListAll(ctx context.Context) ([]model.SectorPhone, error)
	GetByID(ctx context.Context, id string) (*model.SectorPhone, error)
	Create(ctx context.Context, phone *model.SectorPhone) error
	UpdateNumber(ctx context.Context, id, number string, updatedBy *string) error
	Delete(ctx context.Context, id string) error
	ExistsNumber(ctx context.Context, code model.SectorCode, number, excludeID string) (bool, error)
}

type sectorPhoneRepo struct {
	db *gorm.DB
}

// NewSectorPhoneRepo 创建 SectorPhoneRepository 实例
func NewSectorPhoneRepo(db *gorm.DB) SectorPhoneRepository {
	return &sectorPhoneRepo{db: db}
}

func (r *sectorPhoneRepo) ListBySector(ctx context.Context, code model.SectorCode) ([]model.SectorPhone, error) {
	var phones []model.SectorPhone
	err := r.db.WithContext(ctx).
		Preload("SectorRef").
		Joins("JOIN sectors ON sectors.sector_id = sector_phones.sector_id").
		Where("sectors.code = ?", code).
		Order("sector_phones.created_at ASC").
		Find(&phones).Error
	if err != nil {
		return nil, err
	}
	fillPhoneSectors(phones)
	return phones, nil
}

func (r *sectorPhoneRepo) ListAll(ctx context.Context) ([]model.SectorPhone, error) {
	var phones []model.SectorPhone
	err := r.db.WithContext(ctx).
		Preload("SectorRef").
		Order("sector_id ASC, created_at ASC").
		Find(&phones).Error
	if err != nil {
		return nil, err
	}
	fillPhoneSectors(phones)
	return phones, nil
}

func (r *sectorPhoneRepo) GetByID(ctx context.Context, id string) (*model.SectorPhone, error) {
	var phone model.SectorPhone
	err := r.db.WithContext(ctx).
		Preload("SectorRef").
		Where("phone_id = ?", id).
		First(&phone).Error
	if err != nil {
		return nil, err
	}
	if phone.SectorRef != nil {
		phone.Sector = phone.SectorRef.Code
	}
	return &phone, nil
}

func (r *sectorPhoneRepo) Create(ctx context.Context, phone *model.SectorPhone) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sectorID, err := lookupSectorID(ctx, tx, phone.Sector)
		if err != nil {
			return err
		}
		phone.SectorID = sectorID
		return tx.Omit(clause.Associations).Create(phone).Error
	})
}

// UpdateNumber 调用方负责先确认记录存在
func (r *sectorPhoneRepo) UpdateNumber(ctx context.Context, id, number string, updatedBy *string) error {
	res := r.db.WithContext(ctx).
		Model(&model.SectorPhone{}).
		Where("phone_id = ?", id).
		Updates(map[string]interface{}{
			"phone_number": number,
			"updated_by":   updatedBy,
		})
	return res.Error
}

func (r *sectorPhoneRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Where("phone_id = ?", id).
		Delete(&model.SectorPhone{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *sectorPhoneRepo) ExistsNumber(ctx context.Context, code model.SectorCode, number, excludeID string) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).
		Model(&model.SectorPhone{}).
		Joins("JOIN sectors ON sectors.sector_id = sector_phones.sector_id").
		Where("sectors.code = ? AND sector_phones.phone_number = ?", code, number)
	if excludeID != "" {
		q = q.Where("sector_phones.phone_id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func fillPhoneSectors(phones []model.SectorPhone) {
	for i := range phones {
		if phones[i].SectorRef != nil {
			phones[i].Sector = phones[i].SectorRef.Code
		}
	}
}
