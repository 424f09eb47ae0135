package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"atende-agora/backend/internal/model"
	"atende-agora/backend/internal/repository"
	"atende-agora/backend/pkg/metrics"
	"atende-agora/backend/pkg/whatsapp"
)

// NotificationService 部门通知分发
type NotificationService interface {
	// NotifySector 向部门登记的全部号码发送消息
	// 至少一条发送成功时返回 true；部门无号码或全部失败时返回 false，从不返回错误
	NotifySector(ctx context.Context, sector model.SectorCode, text string) bool
}

type notificationService struct {
	repo    *repository.Repository
	sender  whatsapp.Sender
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例
func NewNotificationService(
	repo *repository.Repository,
	sender whatsapp.Sender,
	m *metrics.Metrics,
	logger *zap.Logger,
) NotificationService {
	return &notificationService{
		repo:    repo,
		sender:  sender,
		metrics: m,
		logger:  logger,
	}
}

func (s *notificationService) NotifySector(ctx context.Context, sector model.SectorCode, text string) bool {
	phones, err := s.repo.SectorPhone.ListBySector(ctx, sector)
	if err != nil {
		s.logger.Error("查询部门号码失败", zap.String("sector", string(sector)), zap.Error(err))
		return false
	}
	if len(phones) == 0 {
		s.logger.Warn("部门未配置通知号码", zap.String("sector", string(sector)))
		return false
	}

	delivered := 0
	for _, p := range phones {
		if err := s.sender.Send(ctx, p.PhoneNumber, text); err != nil {
			s.metrics.ObserveNotification(string(sector), false)
			s.logger.Warn("部门通知发送失败",
				zap.String("sector", string(sector)),
				zap.String("phone", p.PhoneNumber),
				zap.Error(err),
			)
			continue
		}
		s.metrics.ObserveNotification(string(sector), true)
		delivered++
	}

	s.logger.Info("部门通知发送完成",
		zap.String("sector", string(sector)),
		zap.Int("delivered", delivered),
		zap.Int("total", len(phones)),
	)
	return delivered > 0
}

// BuildNotificationMessage 生成新登记记录的 WhatsApp 通知文本
func BuildNotificationMessage(a *model.Attendance) string {
	return fmt.Sprintf(`*NOVO ATENDIMENTO REGISTRADO*

*Nome:* %s
*Matrícula:* %s
*Cargo:* %s
*Motivo do atendimento:* %s

Por favor, verifique o sistema para mais detalhes.`,
		a.Name, a.Registration, a.Position, a.Reason)
}
