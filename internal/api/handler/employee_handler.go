package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"atende-agora/backend/internal/service"
	"atende-agora/backend/pkg/response"
)

// EmployeeHandler 员工目录 HTTP 处理器
type EmployeeHandler struct {
	svc service.EmployeeService
}

// NewEmployeeHandler 创建 EmployeeHandler
func NewEmployeeHandler(svc service.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{svc: svc}
}

// Lookup 按工号查询员工
// GET /api/v1/employees/:registration
func (h *EmployeeHandler) Lookup(c *gin.Context) {
	employee, err := h.svc.FindByRegistration(c.Request.Context(), c.Param("registration"))
	if err != nil {
		handleEmployeeError(c, err)
		return
	}
	response.OK(c, employee)
}

// Import 上传 Excel 批量导入员工
// POST /api/v1/employees/import  (multipart, 字段名 file)
func (h *EmployeeHandler) Import(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "Arquivo muito grande")
			return
		}
		response.BadRequest(c, 10001, "Envie a planilha no campo \"file\"")
		return
	}
	defer file.Close()

	rows, err := h.svc.ParseImportFile(file)
	if err != nil {
		handleEmployeeError(c, err)
		return
	}

	resp, err := h.svc.Import(c.Request.Context(), rows, callerID)
	if err != nil {
		handleEmployeeError(c, err)
		return
	}
	response.Created(c, resp)
}

func handleEmployeeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEmployeeNotFound):
		response.NotFound(c, 41001, "Funcionário não encontrado")
	case errors.Is(err, service.ErrImportBadHeader):
		response.BadRequest(c, 41002, "Cabeçalho da planilha deve conter Matrícula, Nome e Cargo")
	case errors.Is(err, service.ErrImportNoData):
		response.BadRequest(c, 41003, "Planilha sem linhas de dados")
	case errors.Is(err, service.ErrImportTooManyRows):
		response.BadRequest(c, 41004, "Planilha excede o limite de linhas")
	default:
		handleCommonError(c, err)
	}
}
