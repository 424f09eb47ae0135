package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"atende-agora/backend/internal/dto"
	"atende-agora/backend/internal/model"
	"atende-agora/backend/internal/repository"
	pkgerrors "atende-agora/backend/pkg/errors"
	"atende-agora/backend/pkg/redis"
)

// ── 员工目录模块业务错误 ──

const (
	maxImportRows       = 5000
	employeeCachePrefix = "employee:"
	defaultEmployeeTTL  = 10 * time.Minute
)

var (
	ErrEmployeeNotFound  = fmt.Errorf("%w: 员工", pkgerrors.ErrNotFound)
	ErrImportNoData      = errors.New("Excel文件无数据行（第一行为表头）")
	ErrImportTooManyRows = fmt.Errorf("数据行数超过上限 %d 行", maxImportRows)
	ErrImportBadHeader   = errors.New("Excel表头缺少必要列（Matrícula/Nome/Cargo）")
)

// Cache 员工目录读缓存，由 Redis 客户端实现
type Cache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) error
	SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// EmployeeService 员工目录业务接口
type EmployeeService interface {
	// FindByRegistration 前台按工号自动填充姓名与职位
	FindByRegistration(ctx context.Context, registration string) (*dto.EmployeeResponse, error)
	ParseImportFile(reader io.Reader) ([]ImportEmployeeRow, error)
	Import(ctx context.Context, rows []ImportEmployeeRow, callerID string) (*dto.ImportEmployeeResponse, error)
}

// ImportEmployeeRow Excel 导入解析后的单行数据
type ImportEmployeeRow struct {
	Row          int
	Registration string
	Name         string
	Position     string
}

type employeeService struct {
	repo   *repository.Repository
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewEmployeeService 创建 EmployeeService 实例，cache 为 nil 时直接查库
func NewEmployeeService(repo *repository.Repository, cache Cache, ttl time.Duration, logger *zap.Logger) EmployeeService {
	if ttl <= 0 {
		ttl = defaultEmployeeTTL
	}
	return &employeeService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// ────────────────────── FindByRegistration ──────────────────────

func (s *employeeService) FindByRegistration(ctx context.Context, registration string) (*dto.EmployeeResponse, error) {
	reg, err := requireText("registration", registration)
	if err != nil {
		return nil, err
	}

	key := employeeCachePrefix + reg
	if s.cache != nil {
		var cached dto.EmployeeResponse
		switch err := s.cache.GetJSON(ctx, key, &cached); {
		case err == nil:
			return &cached, nil
		case !errors.Is(err, redis.ErrCacheMiss):
			// 缓存故障时降级查库
			s.logger.Warn("读取员工缓存失败", zap.String("registration", reg), zap.Error(err))
		}
	}

	emp, err := s.repo.Employee.GetByRegistration(ctx, reg)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		s.logger.Error("查询员工失败", zap.String("registration", reg), zap.Error(err))
		return nil, pkgerrors.Unavailable("查询员工", err)
	}

	resp := &dto.EmployeeResponse{
		Registration: emp.Registration,
		Name:         emp.Name,
		Position:     emp.Position,
	}
	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, resp, s.ttl); err != nil {
			s.logger.Warn("写入员工缓存失败", zap.String("registration", reg), zap.Error(err))
		}
	}
	return resp, nil
}

// ────────────────────── ParseImportFile ──────────────────────

// ParseImportFile 解析员工目录 Excel，表头支持葡语或英文列名，列序不限
func (s *employeeService) ParseImportFile(reader io.Reader) ([]ImportEmployeeRow, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, pkgerrors.NewValidationError("file", fmt.Sprintf("arquivo Excel inválido: %v", err))
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	excelRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("读取工作表失败: %w", err)
	}

	if len(excelRows) < 2 {
		return nil, ErrImportNoData
	}

	colIndex := parseEmployeeHeader(excelRows[0])
	if colIndex["registration"] < 0 || colIndex["name"] < 0 || colIndex["position"] < 0 {
		return nil, ErrImportBadHeader
	}

	cell := func(row []string, col string) string {
		if idx := colIndex[col]; idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	var rows []ImportEmployeeRow
	for i := 1; i < len(excelRows); i++ {
		row := excelRows[i]
		item := ImportEmployeeRow{
			Row:          i + 1,
			Registration: cell(row, "registration"),
			Name:         cell(row, "name"),
			Position:     cell(row, "position"),
		}

		// 跳过全空行
		if item.Registration == "" && item.Name == "" && item.Position == "" {
			continue
		}
		rows = append(rows, item)
	}

	if len(rows) == 0 {
		return nil, ErrImportNoData
	}
	if len(rows) > maxImportRows {
		return nil, ErrImportTooManyRows
	}
	return rows, nil
}

func parseEmployeeHeader(header []string) map[string]int {
	idx := map[string]int{
		"registration": -1,
		"name":         -1,
		"position":     -1,
	}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "matrícula", "matricula", "registration":
			idx["registration"] = i
		case "nome", "name":
			idx["name"] = i
		case "cargo", "position":
			idx["position"] = i
		}
	}
	return idx
}

// ────────────────────── Import ──────────────────────

// Import 校验每行后批量写入，同一文件内重复工号以最后一行为准
func (s *employeeService) Import(ctx context.Context, rows []ImportEmployeeRow, callerID string) (*dto.ImportEmployeeResponse, error) {
	resp := &dto.ImportEmployeeResponse{Total: len(rows)}

	byReg := make(map[string]int)
	var valid []model.Employee
	for _, r := range rows {
		var reason string
		switch {
		case r.Registration == "":
			reason = "Matrícula vazia"
		case r.Name == "":
			reason = "Nome vazio"
		case r.Position == "":
			reason = "Cargo vazio"
		case len(r.Registration) > 50:
			reason = "Matrícula muito longa"
		}
		if reason != "" {
			resp.Failed++
			resp.Errors = append(resp.Errors, dto.ImportEmployeeError{Row: r.Row, Reason: reason})
			continue
		}

		emp := model.Employee{
			Registration: r.Registration,
			Name:         r.Name,
			Position:     r.Position,
			BaseModel:    model.BaseModel{CreatedBy: &callerID, UpdatedBy: &callerID},
		}
		if i, dup := byReg[r.Registration]; dup {
			valid[i] = emp
			resp.Success++
			continue
		}
		byReg[r.Registration] = len(valid)
		valid = append(valid, emp)
		resp.Success++
	}

	if len(valid) == 0 {
		return resp, nil
	}

	if _, err := s.repo.Employee.Upsert(ctx, valid); err != nil {
		s.logger.Error("导入员工失败", zap.Int("rows", len(valid)), zap.Error(err))
		return nil, pkgerrors.Unavailable("导入员工", err)
	}

	if s.cache != nil {
		keys := make([]string, 0, len(valid))
		for _, e := range valid {
			keys = append(keys, employeeCachePrefix+e.Registration)
		}
		if err := s.cache.Delete(ctx, keys...); err != nil {
			s.logger.Warn("清理员工缓存失败", zap.Error(err))
		}
	}

	s.logger.Info("员工目录已导入",
		zap.Int("total", resp.Total),
		zap.Int("success", resp.Success),
		zap.Int("failed", resp.Failed),
		zap.String("by", callerID),
	)
	return resp, nil
}
