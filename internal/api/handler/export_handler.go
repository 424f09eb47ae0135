package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"atende-agora/backend/internal/dto"
	"atende-agora/backend/internal/service"
	"atende-agora/backend/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportAttendances 按历史查询条件导出 Excel
// GET /api/v1/attendances/export
func (h *ExportHandler) ExportAttendances(c *gin.Context) {
	var q dto.AttendanceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "Parâmetros inválidos")
		return
	}

	buf, filename, err := h.exportSvc.ExportAttendances(c.Request.Context(), &q)
	if err != nil {
		handleExportError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportGenerateFail):
		_ = c.Error(err)
		response.InternalError(c)
	default:
		handleCommonError(c, err)
	}
}
