package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"atende-agora/backend/internal/dto"
	"atende-agora/backend/internal/model"
	"atende-agora/backend/internal/repository"
	pkgerrors "atende-agora/backend/pkg/errors"
)

// ── 部门号码模块业务错误 ──

var (
	ErrPhoneNotFound = fmt.Errorf("%w: 通知号码", pkgerrors.ErrNotFound)
	ErrPhoneExists   = errors.New("该部门已存在相同号码")
)

// phonePattern 规范化后的号码：可选 + 号加 10-15 位数字
var phonePattern = regexp.MustCompile(`^\+?\d{10,15}$`)

// phoneNoise 规范化时去除的字符
var phoneNoise = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")

// NormalizePhone 去除空格、横线、括号与点号后校验格式
func NormalizePhone(raw string) (string, error) {
	phone := phoneNoise.Replace(strings.TrimSpace(raw))
	if !phonePattern.MatchString(phone) {
		return "", pkgerrors.NewValidationError("phone_number", "número de telefone inválido")
	}
	return phone, nil
}

// SectorPhoneService 部门与通知号码管理
type SectorPhoneService interface {
	ListSectors(ctx context.Context) ([]model.Sector, error)
	ListPhones(ctx context.Context, sector string) ([]dto.SectorPhoneResponse, error)
	ListGrouped(ctx context.Context) ([]dto.SectorPhonesGroup, error)
	AddPhone(ctx context.Context, sector string, req *dto.SectorPhoneRequest, callerID string) (*dto.SectorPhoneResponse, error)
	UpdatePhone(ctx context.Context, id string, req *dto.SectorPhoneRequest, callerID string) (*dto.SectorPhoneResponse, error)
	DeletePhone(ctx context.Context, id string, callerID string) error
}

type sectorPhoneService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSectorPhoneService 创建 SectorPhoneService 实例
func NewSectorPhoneService(repo *repository.Repository, logger *zap.Logger) SectorPhoneService {
	return &sectorPhoneService{repo: repo, logger: logger}
}

func (s *sectorPhoneService) ListSectors(ctx context.Context) ([]model.Sector, error) {
	sectors, err := s.repo.Sector.List(ctx)
	if err != nil {
		s.logger.Error("查询部门失败", zap.Error(err))
		return nil, pkgerrors.Unavailable("查询部门", err)
	}
	return sectors, nil
}

func (s *sectorPhoneService) ListPhones(ctx context.Context, sector string) ([]dto.SectorPhoneResponse, error) {
	code, err := requireSector(sector)
	if err != nil {
		return nil, err
	}

	phones, err := s.repo.SectorPhone.ListBySector(ctx, code)
	if err != nil {
		s.logger.Error("查询部门号码失败", zap.String("sector", string(code)), zap.Error(err))
		return nil, pkgerrors.Unavailable("查询部门号码", err)
	}
	return toPhoneResponses(phones), nil
}

// ListGrouped 按部门顺序分组，没有号码的部门也会出现
func (s *sectorPhoneService) ListGrouped(ctx context.Context) ([]dto.SectorPhonesGroup, error) {
	sectors, err := s.ListSectors(ctx)
	if err != nil {
		return nil, err
	}

	phones, err := s.repo.SectorPhone.ListAll(ctx)
	if err != nil {
		s.logger.Error("查询号码失败", zap.Error(err))
		return nil, pkgerrors.Unavailable("查询号码", err)
	}

	bySector := make(map[model.SectorCode][]model.SectorPhone)
	for _, p := range phones {
		bySector[p.Sector] = append(bySector[p.Sector], p)
	}

	groups := make([]dto.SectorPhonesGroup, 0, len(sectors))
	for _, sec := range sectors {
		groups = append(groups, dto.SectorPhonesGroup{
			Sector: sec.Code,
			Name:   sec.Name,
			Phones: toPhoneResponses(bySector[sec.Code]),
		})
	}
	return groups, nil
}

func (s *sectorPhoneService) AddPhone(ctx context.Context, sector string, req *dto.SectorPhoneRequest, callerID string) (*dto.SectorPhoneResponse, error) {
	code, err := requireSector(sector)
	if err != nil {
		return nil, err
	}
	number, err := NormalizePhone(req.PhoneNumber)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.SectorPhone.ExistsNumber(ctx, code, number, "")
	if err != nil {
		return nil, pkgerrors.Unavailable("检查号码", err)
	}
	if exists {
		return nil, ErrPhoneExists
	}

	phone := &model.SectorPhone{
		PhoneID:     uuid.New().String(),
		Sector:      code,
		PhoneNumber: number,
		BaseModel:   model.BaseModel{CreatedBy: &callerID, UpdatedBy: &callerID},
	}
	if err := s.repo.SectorPhone.Create(ctx, phone); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrPhoneExists
		}
		s.logger.Error("新增号码失败", zap.Error(err))
		return nil, pkgerrors.Unavailable("新增号码", err)
	}

	s.logger.Info("部门号码已新增",
		zap.String("sector", string(code)),
		zap.String("phone_id", phone.PhoneID),
		zap.String("by", callerID),
	)
	resp := toPhoneResponse(phone)
	return &resp, nil
}

func (s *sectorPhoneService) UpdatePhone(ctx context.Context, id string, req *dto.SectorPhoneRequest, callerID string) (*dto.SectorPhoneResponse, error) {
	number, err := NormalizePhone(req.PhoneNumber)
	if err != nil {
		return nil, err
	}

	phone, err := s.getPhone(ctx, id)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.SectorPhone.ExistsNumber(ctx, phone.Sector, number, id)
	if err != nil {
		return nil, pkgerrors.Unavailable("检查号码", err)
	}
	if exists {
		return nil, ErrPhoneExists
	}

	if err := s.repo.SectorPhone.UpdateNumber(ctx, id, number, &callerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPhoneNotFound
		}
		s.logger.Error("修改号码失败", zap.String("id", id), zap.Error(err))
		return nil, pkgerrors.Unavailable("修改号码", err)
	}

	phone.PhoneNumber = number
	resp := toPhoneResponse(phone)
	return &resp, nil
}

func (s *sectorPhoneService) DeletePhone(ctx context.Context, id string, callerID string) error {
	if err := s.repo.SectorPhone.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPhoneNotFound
		}
		s.logger.Error("删除号码失败", zap.String("id", id), zap.Error(err))
		return pkgerrors.Unavailable("删除号码", err)
	}
	s.logger.Info("部门号码已删除", zap.String("phone_id", id), zap.String("by", callerID))
	return nil
}

func (s *sectorPhoneService) getPhone(ctx context.Context, id string) (*model.SectorPhone, error) {
	phone, err := s.repo.SectorPhone.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPhoneNotFound
		}
		return nil, pkgerrors.Unavailable("查询号码", err)
	}
	return phone, nil
}

func toPhoneResponse(p *model.SectorPhone) dto.SectorPhoneResponse {
	return dto.SectorPhoneResponse{
		ID:          p.PhoneID,
		Sector:      p.Sector,
		PhoneNumber: p.PhoneNumber,
	}
}

func toPhoneResponses(phones []model.SectorPhone) []dto.SectorPhoneResponse {
	out := make([]dto.SectorPhoneResponse, 0, len(phones))
	for i := range phones {
		out = append(out, toPhoneResponse(&phones[i]))
	}
	return out
}
