package handler

import (
	"atende-agora/backend/config"
	"atende-agora/backend/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Attendance *AttendanceHandler
	Auth       *AuthHandler
	User       *UserHandler
	Sector     *SectorHandler
	Employee   *EmployeeHandler
	Export     *ExportHandler
	Tools      *ToolsHandler
	Health     *HealthHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, cfg *config.Config, checks ...HealthCheck) *Handler {
	return &Handler{
		Attendance: NewAttendanceHandler(svc.Attendance),
		Auth:       NewAuthHandler(svc.Auth, &cfg.Auth),
		User:       NewUserHandler(svc.User),
		Sector:     NewSectorHandler(svc.SectorPhone),
		Employee:   NewEmployeeHandler(svc.Employee),
		Export:     NewExportHandler(svc.Export),
		Tools:      NewToolsHandler(svc.Certificate),
		Health:     NewHealthHandler(checks...),
	}
}
