package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"atende-agora/backend/config"
	"atende-agora/backend/internal/api/handler"
	"atende-agora/backend/internal/api/middleware"
	"atende-agora/backend/internal/model"
	"atende-agora/backend/pkg/jwt"
	"atende-agora/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时不启用 Token 黑名单与登录限流；gatherer 为 nil 时不暴露指标
func Setup(
	cfg *config.Config,
	h *handler.Handler,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	gatherer prometheus.Gatherer,
	logger *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查与指标 ──
	r.GET("/health", h.Health.Health)
	if cfg.Metrics.Enabled && gatherer != nil {
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	var blacklist middleware.Blacklist
	if rdb != nil {
		blacklist = rdb
	}

	canView := middleware.RequirePermission(model.ActionView)
	canCreate := middleware.RequirePermission(model.ActionCreate)
	canEdit := middleware.RequirePermission(model.ActionEdit)
	canDelete := middleware.RequirePermission(model.ActionDelete)
	adminOnly := middleware.RoleAuth(model.RoleAdmin)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login",
				middleware.RateLimit(rdb, cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateWindow, logger),
				h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, blacklist))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// 接待记录
			attendances := authorized.Group("/attendances")
			{
				attendances.GET("", canView, h.Attendance.List)
				attendances.GET("/visible", canView, h.Attendance.ListVisible)
				attendances.GET("/stats", canView, h.Attendance.Stats)
				attendances.GET("/export", canView, h.Export.ExportAttendances)
				attendances.GET("/:id", canView, h.Attendance.Get)
				attendances.POST("", canCreate, h.Attendance.Register)
				attendances.PUT("/:id", canEdit, h.Attendance.Update)
				attendances.PATCH("/:id/attend", canEdit, h.Attendance.MarkAttended)
				attendances.DELETE("/:id", canDelete, h.Attendance.Remove)
			}

			// 员工目录
			employees := authorized.Group("/employees")
			{
				employees.POST("/import", adminOnly, h.Employee.Import)
				employees.GET("/:registration", canView, h.Employee.Lookup)
			}

			// 部门与通知号码
			sectors := authorized.Group("/sectors")
			{
				sectors.GET("", h.Sector.ListSectors)
				sectors.GET("/:code/phones", adminOnly, h.Sector.ListPhones)
				sectors.POST("/:code/phones", adminOnly, h.Sector.AddPhone)
			}
			phones := authorized.Group("/sector-phones", adminOnly)
			{
				phones.GET("", h.Sector.ListGrouped)
				phones.PUT("/:id", h.Sector.UpdatePhone)
				phones.DELETE("/:id", h.Sector.DeletePhone)
			}

			// 用户管理
			users := authorized.Group("/users", adminOnly)
			{
				users.GET("", h.User.ListUsers)
				users.GET("/:id", h.User.GetUser)
				users.POST("", h.User.CreateUser)
				users.PUT("/:id", h.User.UpdateUser)
				users.DELETE("/:id", h.User.DeleteUser)
				users.POST("/:id/reset-password", h.User.ResetPassword)
			}

			// 工具
			authorized.POST("/tools/certificate-window", h.Tools.CertificateWindow)
		}
	}

	return r
}
