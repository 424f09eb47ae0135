package service

import (
	"go.uber.org/zap"

	"atende-agora/backend/config"
	"atende-agora/backend/internal/repository"
	"atende-agora/backend/pkg/jwt"
	"atende-agora/backend/pkg/metrics"
	"atende-agora/backend/pkg/redis"
	"atende-agora/backend/pkg/whatsapp"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Attendance   AttendanceService
	Notification NotificationService
	Auth         AuthService
	User         UserService
	SectorPhone  SectorPhoneService
	Employee     EmployeeService
	Export       ExportService
	Certificate  CertificateService
}

// NewService 创建 Service 聚合
// rdb 为 nil 时不启用 Token 黑名单与员工缓存
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	sender whatsapp.Sender,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	var (
		blacklist TokenBlacklist
		cache     Cache
	)
	if rdb != nil {
		blacklist = rdb
		cache = rdb
	}

	loc := cfg.Attendance.Location()
	notifier := NewNotificationService(repo, sender, m, logger)
	attendance := NewAttendanceService(&cfg.Attendance, repo, notifier, m, logger)

	return &Service{
		Attendance:   attendance,
		Notification: notifier,
		Auth:         NewAuthService(repo, jwtMgr, blacklist, logger),
		User:         NewUserService(repo, logger),
		SectorPhone:  NewSectorPhoneService(repo, logger),
		Employee:     NewEmployeeService(repo, cache, cfg.Redis.CacheTTL, logger),
		Export:       NewExportService(attendance, loc, logger),
		Certificate:  NewCertificateService(loc),
	}
}
