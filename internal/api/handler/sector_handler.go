package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"atende-agora/backend/internal/dto"
	"atende-agora/backend/internal/service"
	"atende-agora/backend/pkg/response"
)

// SectorHandler 部门与通知号码 HTTP 处理器
type SectorHandler struct {
	svc service.SectorPhoneService
}

// NewSectorHandler 创建 SectorHandler
func NewSectorHandler(svc service.SectorPhoneService) *SectorHandler {
	return &SectorHandler{svc: svc}
}

// ListSectors 部门列表
// GET /api/v1/sectors
func (h *SectorHandler) ListSectors(c *gin.Context) {
	sectors, err := h.svc.ListSectors(c.Request.Context())
	if err != nil {
		handleSectorError(c, err)
		return
	}
	response.OKList(c, sectors, len(sectors))
}

// ListPhones 某部门的通知号码
// GET /api/v1/sectors/:code/phones
func (h *SectorHandler) ListPhones(c *gin.Context) {
	phones, err := h.svc.ListPhones(c.Request.Context(), c.Param("code"))
	if err != nil {
		handleSectorError(c, err)
		return
	}
	response.OKList(c, phones, len(phones))
}

// ListGrouped 按部门分组的全部号码
// GET /api/v1/sector-phones
func (h *SectorHandler) ListGrouped(c *gin.Context) {
	groups, err := h.svc.ListGrouped(c.Request.Context())
	if err != nil {
		handleSectorError(c, err)
		return
	}
	response.OK(c, groups)
}

// AddPhone 新增号码
// POST /api/v1/sectors/:code/phones
func (h *SectorHandler) AddPhone(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.SectorPhoneRequest
	if !bindJSON(c, &req) {
		return
	}

	phone, err := h.svc.AddPhone(c.Request.Context(), c.Param("code"), &req, callerID)
	if err != nil {
		handleSectorError(c, err)
		return
	}
	response.Created(c, phone)
}

// UpdatePhone 修改号码
// PUT /api/v1/sector-phones/:id
func (h *SectorHandler) UpdatePhone(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.SectorPhoneRequest
	if !bindJSON(c, &req) {
		return
	}

	phone, err := h.svc.UpdatePhone(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		handleSectorError(c, err)
		return
	}
	response.OK(c, phone)
}

// DeletePhone 删除号码
// DELETE /api/v1/sector-phones/:id
func (h *SectorHandler) DeletePhone(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.svc.DeletePhone(c.Request.Context(), c.Param("id"), callerID); err != nil {
		handleSectorError(c, err)
		return
	}
	response.OK(c, nil)
}

func handleSectorError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPhoneNotFound):
		response.NotFound(c, 40001, "Telefone não encontrado")
	case errors.Is(err, service.ErrPhoneExists):
		response.Conflict(c, 40002, "Telefone já cadastrado para este setor")
	default:
		handleCommonError(c, err)
	}
}
