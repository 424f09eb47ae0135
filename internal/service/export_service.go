package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"atende-agora/backend/internal/dto"
	"atende-agora/backend/internal/model"
)

// ── 导出模块业务错误 ──

var ErrExportGenerateFail = errors.New("生成 Excel 文件失败")

const exportSheetName = "Registros"

// exportHeaders 导出列，顺序即列顺序
var exportHeaders = []string{
	"ID", "Matrícula", "Nome", "Cargo", "Setor", "Motivo do Atendimento", "Data e Hora", "Status",
}

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportAttendances 按查询条件导出接待记录，返回文件内容与建议文件名
	ExportAttendances(ctx context.Context, q *dto.AttendanceQuery) (*bytes.Buffer, string, error)
}

type exportService struct {
	attendance AttendanceService
	loc        *time.Location
	now        func() time.Time
	logger     *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(attendance AttendanceService, loc *time.Location, logger *zap.Logger) ExportService {
	if loc == nil {
		loc = time.Local
	}
	return &exportService{attendance: attendance, loc: loc, now: time.Now, logger: logger}
}

func (s *exportService) ExportAttendances(ctx context.Context, q *dto.AttendanceQuery) (*bytes.Buffer, string, error) {
	records, err := s.attendance.Query(ctx, q)
	if err != nil {
		return nil, "", err
	}

	buf, err := s.writeWorkbook(records)
	if err != nil {
		s.logger.Error("生成导出文件失败", zap.Int("rows", len(records)), zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("registros_atendimento_%s.xlsx", s.now().In(s.loc).Format("02_01_2006"))
	return buf, filename, nil
}

func (s *exportService) writeWorkbook(records []model.Attendance) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(exportSheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	f.SetColWidth(exportSheetName, "A", "A", 38)
	f.SetColWidth(exportSheetName, "B", "B", 14)
	f.SetColWidth(exportSheetName, "C", "D", 24)
	f.SetColWidth(exportSheetName, "E", "E", 16)
	f.SetColWidth(exportSheetName, "F", "F", 48)
	f.SetColWidth(exportSheetName, "G", "H", 18)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	headerRow := make([]interface{}, len(exportHeaders))
	for i, h := range exportHeaders {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(exportSheetName, "A1", &headerRow); err != nil {
		return nil, err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(exportHeaders))
	f.SetCellStyle(exportSheetName, "A1", lastCol+"1", headerStyle)

	for i := range records {
		r := &records[i]
		status := "Em Espera"
		if r.Attended {
			status = "Atendido"
		}
		row := []interface{}{
			r.AttendanceID,
			r.Registration,
			r.Name,
			r.Position,
			string(r.Sector),
			r.Reason,
			r.CreatedAt.In(s.loc).Format("02/01/2006 15:04"),
			status,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(exportSheetName, cell, &row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf, nil
}
