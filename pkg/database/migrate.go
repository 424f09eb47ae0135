package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"atende-agora/backend/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations 执行 PostgreSQL 数据库迁移
// 自动检测当前版本并应用所有未执行的迁移
func RunMigrations(db *sql.DB, logger *zap.Logger) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("加载迁移文件失败: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("创建迁移驱动失败: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("初始化迁移实例失败: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("执行迁移失败: %w", err)
	}

	version, dirty, _ := m.Version()
	if dirty {
		logger.Warn("数据库迁移处于 dirty 状态", zap.Uint("version", version))
	} else {
		logger.Info("数据库迁移完成", zap.Uint("version", version))
	}

	return nil
}

// SeedSectors 固定部门字典，与 000001 迁移中的数据一致
func SeedSectors() []model.Sector {
	return []model.Sector{
		{SectorID: 1, Code: model.SectorRH, Name: "Recursos Humanos"},
		{SectorID: 2, Code: model.SectorDisciplina, Name: "Disciplina"},
		{SectorID: 3, Code: model.SectorDP, Name: "Departamento Pessoal"},
		{SectorID: 4, Code: model.SectorPlanejamento, Name: "Planejamento"},
	}
}

// AutoMigrateMySQL MySQL 下使用 GORM AutoMigrate 建表并写入部门字典
func AutoMigrateMySQL(db *gorm.DB, logger *zap.Logger) error {
	if err := db.AutoMigrate(
		&model.Sector{},
		&model.Attendance{},
		&model.SectorPhone{},
		&model.User{},
		&model.Employee{},
	); err != nil {
		return fmt.Errorf("AutoMigrate 失败: %w", err)
	}

	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(SeedSectors()).Error; err != nil {
		return fmt.Errorf("写入部门字典失败: %w", err)
	}

	logger.Info("MySQL 表结构同步完成")
	return nil
}
