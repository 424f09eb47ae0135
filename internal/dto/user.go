package dto

// ── 用户模块 DTO ──

// PermissionsPayload 权限请求体，字段缺省视为 false
type PermissionsPayload struct {
	View   bool `json:"view"`
	Edit   bool `json:"edit"`
	Delete bool `json:"delete"`
	Create bool `json:"create"`
}

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	PaginationRequest
}

// CreateUserRequest 创建用户请求
// Permissions 为空时使用默认权限（仅查看）
type CreateUserRequest struct {
	Username    string              `json:"username"    binding:"required,min=3,max=50"`
	Password    string              `json:"password"    binding:"required,min=8,max=64"`
	Role        string              `json:"role"        binding:"omitempty,oneof=admin user"`
	Permissions *PermissionsPayload `json:"permissions"`
}

// UpdateUserRequest 更新用户角色或权限
type UpdateUserRequest struct {
	Role        *string             `json:"role"        binding:"omitempty,oneof=admin user"`
	Permissions *PermissionsPayload `json:"permissions"`
}

// ResetPasswordRequest 管理员重置密码
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required,min=8,max=64"`
}
