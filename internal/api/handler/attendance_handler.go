package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"atende-agora/backend/internal/dto"
	"atende-agora/backend/internal/service"
	pkgerrors "atende-agora/backend/pkg/errors"
	"atende-agora/backend/pkg/response"
)

// AttendanceHandler 接待记录 HTTP 处理器
type AttendanceHandler struct {
	svc service.AttendanceService
}

// NewAttendanceHandler 创建 AttendanceHandler
func NewAttendanceHandler(svc service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{svc: svc}
}

// Register 登记接待
// POST /api/v1/attendances
func (h *AttendanceHandler) Register(c *gin.Context) {
	var req dto.CreateAttendanceRequest
	if !bindJSON(c, &req) {
		return
	}

	record, err := h.svc.Register(c.Request.Context(), &req)
	if err != nil {
		handleAttendanceError(c, err)
		return
	}

	response.Created(c, dto.NewAttendanceResponse(record))
}

// Get 查询单条记录
// GET /api/v1/attendances/:id
func (h *AttendanceHandler) Get(c *gin.Context) {
	record, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleAttendanceError(c, err)
		return
	}
	response.OK(c, dto.NewAttendanceResponse(record))
}

// Update 部分修改
// PUT /api/v1/attendances/:id
func (h *AttendanceHandler) Update(c *gin.Context) {
	var req dto.UpdateAttendanceRequest
	if !bindJSON(c, &req) {
		return
	}

	record, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleAttendanceError(c, err)
		return
	}
	response.OK(c, dto.NewAttendanceResponse(record))
}

// MarkAttended 标记为已接待
// PATCH /api/v1/attendances/:id/attend
func (h *AttendanceHandler) MarkAttended(c *gin.Context) {
	record, err := h.svc.MarkAttended(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleAttendanceError(c, err)
		return
	}
	response.OK(c, dto.NewAttendanceResponse(record))
}

// Remove 删除记录
// DELETE /api/v1/attendances/:id
func (h *AttendanceHandler) Remove(c *gin.Context) {
	if err := h.svc.Remove(c.Request.Context(), c.Param("id")); err != nil {
		handleAttendanceError(c, err)
		return
	}
	response.OK(c, nil)
}

// List 历史记录查询
// GET /api/v1/attendances
func (h *AttendanceHandler) List(c *gin.Context) {
	var q dto.AttendanceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "Parâmetros inválidos")
		return
	}

	records, err := h.svc.Query(c.Request.Context(), &q)
	if err != nil {
		handleAttendanceError(c, err)
		return
	}
	response.OKList(c, dto.NewAttendanceList(records), len(records))
}

// ListVisible 实时看板
// GET /api/v1/attendances/visible
func (h *AttendanceHandler) ListVisible(c *gin.Context) {
	var q dto.AttendanceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "Parâmetros inválidos")
		return
	}

	records, err := h.svc.QueryVisible(c.Request.Context(), &q)
	if err != nil {
		handleAttendanceError(c, err)
		return
	}
	response.OKList(c, dto.NewAttendanceList(records), len(records))
}

// Stats 看板统计
// GET /api/v1/attendances/stats
func (h *AttendanceHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		handleAttendanceError(c, err)
		return
	}
	response.OK(c, stats)
}

func handleAttendanceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAttendanceNotFound), errors.Is(err, pkgerrors.ErrNotFound):
		response.NotFound(c, 20001, "Registro de atendimento não encontrado")
	case errors.Is(err, pkgerrors.ErrAlreadyAttended):
		response.Conflict(c, 20002, "Atendimento já foi registrado como concluído")
	default:
		handleCommonError(c, err)
	}
}
