package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"atende-agora/backend/config"
	"atende-agora/backend/internal/api/handler"
	"atende-agora/backend/internal/api/router"
	"atende-agora/backend/internal/repository"
	"atende-agora/backend/internal/repository/memory"
	"atende-agora/backend/internal/service"
	"atende-agora/backend/pkg/database"
	"atende-agora/backend/pkg/jwt"
	applogger "atende-agora/backend/pkg/logger"
	"atende-agora/backend/pkg/metrics"
	"atende-agora/backend/pkg/redis"
	"atende-agora/backend/pkg/whatsapp"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("storage", cfg.Storage.Driver),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 初始化存储
	repo, checks, closeStorage, err := openStorage(cfg, logger)
	if err != nil {
		logger.Fatal("存储初始化失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：未配置或连接失败时降级运行）
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，Token 黑名单、登录限流与员工缓存将不可用", zap.Error(err))
			rdb = nil
		} else {
			checks = append(checks, handler.HealthCheck{Name: "redis", Check: rdb.Ping})
		}
	}

	// 5. 指标
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// 6. 依赖注入: Repository → Service → Handler
	jwtMgr := jwt.NewManager(&cfg.Auth)
	sender := whatsapp.NewSender(&cfg.WhatsApp, logger)
	svc := service.NewService(cfg, repo, jwtMgr, rdb, sender, m, logger)

	if err := svc.User.EnsureBootstrapAdmin(context.Background(), cfg.Auth.BootstrapAdminPassword); err != nil {
		logger.Fatal("初始化管理员失败", zap.Error(err))
	}

	h := handler.NewHandler(svc, cfg, checks...)

	// 7. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, rdb, registry, logger)

	// 8. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 9. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 等待后台通知发送完成
	if err := svc.Attendance.Close(ctx); err != nil {
		logger.Warn("部分部门通知未完成", zap.Error(err))
	}

	closeStorage()

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}

// openStorage 按 storage.driver 选择持久化后端
func openStorage(cfg *config.Config, logger *zap.Logger) (*repository.Repository, []handler.HealthCheck, func(), error) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		logger.Warn("使用内存存储，进程退出后数据丢失")
		return memory.NewRepository(), nil, func() {}, nil
	}

	db, err := database.NewDB(cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	logger.Info("数据库连接成功")

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}

	// 执行数据库迁移
	switch cfg.Storage.Driver {
	case config.StorageDriverMySQL:
		err = database.AutoMigrateMySQL(db, logger)
	default:
		err = database.RunMigrations(sqlDB, logger)
	}
	if err != nil {
		sqlDB.Close()
		return nil, nil, nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	checks := []handler.HealthCheck{{Name: "database", Check: database.Pinger(db)}}
	return repository.NewRepository(db), checks, func() { sqlDB.Close() }, nil
}
