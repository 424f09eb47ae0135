package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"atende-agora/backend/internal/dto"
	"atende-agora/backend/internal/service"
	pkgerrors "atende-agora/backend/pkg/errors"
	"atende-agora/backend/pkg/response"
)

// ToolsHandler 前台辅助工具
type ToolsHandler struct {
	certificate service.CertificateService
}

// NewToolsHandler 创建 ToolsHandler
func NewToolsHandler(certificate service.CertificateService) *ToolsHandler {
	return &ToolsHandler{certificate: certificate}
}

// CertificateWindow 计算证明是否在 72 小时内交付
// POST /api/v1/tools/certificate-window
func (h *ToolsHandler) CertificateWindow(c *gin.Context) {
	var req dto.CertificateWindowRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.certificate.CheckDeliveryWindow(&req)
	if err != nil {
		var ve *pkgerrors.ValidationError
		if errors.As(err, &ve) {
			response.ErrorWithDetails(c, http.StatusBadRequest, 42001, "Datas inválidas", ve.Error())
			return
		}
		handleCommonError(c, err)
		return
	}
	response.OK(c, result)
}
