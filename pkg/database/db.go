package database

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"atende-agora/backend/config"
)

// NewDB 按 storage.driver 初始化数据库连接（postgres / mysql）
func NewDB(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	var (
		dialector gorm.Dialector
		fields    []zap.Field
	)
	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		dialector = postgres.Open(cfg.Database.DSN())
		fields = []zap.Field{
			zap.String("host", cfg.Database.Host),
			zap.Int("port", cfg.Database.Port),
			zap.String("dbname", cfg.Database.Name),
		}
	case config.StorageDriverMySQL:
		dialector = mysql.Open(cfg.MySQL.DSN())
		fields = []zap.Field{
			zap.String("host", cfg.MySQL.Host),
			zap.Int("port", cfg.MySQL.Port),
			zap.String("dbname", cfg.MySQL.Name),
		}
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", cfg.Storage.Driver)
	}

	logLevel := gormlogger.Warn
	if cfg.Log.Level == "debug" {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(logLevel),
		TranslateError: true, // 唯一约束冲突统一为 gorm.ErrDuplicatedKey
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}

	// 连接池配置（MySQL 复用同一组参数）
	pool := cfg.Database
	maxOpen := pool.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}
	maxIdle := pool.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 10
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	if pool.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(pool.ConnMaxLifetime) * time.Minute)
	}
	if pool.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(time.Duration(pool.ConnMaxIdleTime) * time.Minute)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库 ping 失败: %w", err)
	}

	logger.Info("数据库连接成功", append(fields, zap.String("driver", cfg.Storage.Driver))...)

	return db, nil
}

// Pinger 返回数据库健康检查函数，供 /health 使用
func Pinger(db *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
