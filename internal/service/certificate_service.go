package service

import (
	"strings"
	"time"

	"atende-agora/backend/internal/dto"
	pkgerrors "atende-agora/backend/pkg/errors"
)

// CertificateDeadline 证明文件需在开具后 72 小时内交付
const CertificateDeadline = 72 * time.Hour

// 未带时区的时间按服务时区解析
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// CertificateService 证明期限计算工具
type CertificateService interface {
	CheckDeliveryWindow(req *dto.CertificateWindowRequest) (*dto.CertificateWindowResponse, error)
}

type certificateService struct {
	loc *time.Location
}

// NewCertificateService 创建 CertificateService 实例
func NewCertificateService(loc *time.Location) CertificateService {
	if loc == nil {
		loc = time.Local
	}
	return &certificateService{loc: loc}
}

// CheckDeliveryWindow 计算开具到交付的间隔；恰好 72 小时仍视为按期
func (s *certificateService) CheckDeliveryWindow(req *dto.CertificateWindowRequest) (*dto.CertificateWindowResponse, error) {
	attested, err := s.parse("attested_at", req.AttestedAt)
	if err != nil {
		return nil, err
	}
	delivered, err := s.parse("delivered_at", req.DeliveredAt)
	if err != nil {
		return nil, err
	}
	if delivered.Before(attested) {
		return nil, pkgerrors.NewValidationError("delivered_at",
			"a data de entrega não pode ser anterior à data do atestado")
	}

	elapsed := delivered.Sub(attested)
	return &dto.CertificateWindowResponse{
		ElapsedHours:   int(elapsed / time.Hour),
		ElapsedMinutes: int((elapsed % time.Hour) / time.Minute),
		WithinLimit:    elapsed <= CertificateDeadline,
		Deadline:       attested.Add(CertificateDeadline).Format(time.RFC3339),
	}, nil
}

func (s *certificateService) parse(field, raw string) (time.Time, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return time.Time{}, pkgerrors.NewValidationError(field, "campo obrigatório")
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, v, s.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, pkgerrors.NewValidationError(field, "data ou hora inválida")
}
