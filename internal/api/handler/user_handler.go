package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"atende-agora/backend/internal/dto"
	"atende-agora/backend/internal/service"
	"atende-agora/backend/pkg/response"
)

// UserHandler 用户管理 HTTP 处理器（仅管理员）
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// ListUsers 用户列表
// GET /api/v1/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	var req dto.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "Parâmetros inválidos")
		return
	}

	users, total, err := h.userSvc.List(c.Request.Context(), &req)
	if err != nil {
		handleUserError(c, err)
		return
	}
	response.OKList(c, users, int(total))
}

// GetUser 用户详情
// GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleUserError(c, err)
		return
	}
	response.OK(c, user)
}

// CreateUser 创建用户
// POST /api/v1/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		handleUserError(c, err)
		return
	}
	response.Created(c, user)
}

// UpdateUser 修改角色或权限
// PUT /api/v1/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		handleUserError(c, err)
		return
	}
	response.OK(c, user)
}

// ResetPassword 重置用户密码
// POST /api/v1/users/:id/reset-password
func (h *UserHandler) ResetPassword(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.userSvc.ResetPassword(c.Request.Context(), c.Param("id"), &req, callerID); err != nil {
		handleUserError(c, err)
		return
	}
	response.OK(c, nil)
}

// DeleteUser 删除用户
// DELETE /api/v1/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.userSvc.Delete(c.Request.Context(), c.Param("id"), callerID); err != nil {
		handleUserError(c, err)
		return
	}
	response.OK(c, nil)
}

func handleUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 30001, "Usuário não encontrado")
	case errors.Is(err, service.ErrUsernameExists):
		response.Conflict(c, 30002, "Nome de usuário já existe")
	case errors.Is(err, service.ErrUserSelfRoleChange):
		response.BadRequest(c, 30003, "Não é possível alterar o próprio perfil")
	case errors.Is(err, service.ErrUserSelfDelete):
		response.BadRequest(c, 30004, "Não é possível excluir o próprio usuário")
	case errors.Is(err, service.ErrLastAdmin):
		response.Conflict(c, 30005, "Deve existir pelo menos um administrador")
	default:
		handleCommonError(c, err)
	}
}
