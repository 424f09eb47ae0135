package model

// 角色
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Action 受权限控制的操作，集合固定
type Action int

const (
	ActionView Action = iota
	ActionEdit
	ActionDelete
	ActionCreate
)

// String 返回操作名称，用于日志
func (a Action) String() string {
	switch a {
	case ActionView:
		return "view"
	case ActionEdit:
		return "edit"
	case ActionDelete:
		return "delete"
	case ActionCreate:
		return "create"
	}
	return "unknown"
}

// Permissions 用户权限（与 users 表内嵌的四个布尔列对应）
// 列上不声明 GORM 默认值：带默认值的布尔列在插入 false 时会被省略
type Permissions struct {
	View   bool `gorm:"column:can_view;not null"   json:"view"`
	Edit   bool `gorm:"column:can_edit;not null"   json:"edit"`
	Delete bool `gorm:"column:can_delete;not null" json:"delete"`
	Create bool `gorm:"column:can_create;not null" json:"create"`
}

// DefaultPermissions 新用户未指定权限时的默认值：仅查看
func DefaultPermissions() Permissions {
	return Permissions{View: true}
}

// FullPermissions 全部权限
func FullPermissions() Permissions {
	return Permissions{View: true, Edit: true, Delete: true, Create: true}
}

// Allows 判断权限集合是否包含指定操作
func (p Permissions) Allows(a Action) bool {
	switch a {
	case ActionView:
		return p.View
	case ActionEdit:
		return p.Edit
	case ActionDelete:
		return p.Delete
	case ActionCreate:
		return p.Create
	}
	return false
}

// User 后台用户表，对应 users
type User struct {
	UserID       string      `gorm:"type:varchar(36);primaryKey"                 json:"id"`
	Username     string      `gorm:"type:varchar(50);not null;uniqueIndex"       json:"username"`
	PasswordHash string      `gorm:"type:varchar(255);not null"                  json:"-"`
	Role         string      `gorm:"type:varchar(20);not null;default:'user'"    json:"role"`
	Permissions  Permissions `gorm:"embedded"                                    json:"permissions"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// CanPerform 权限判定：管理员拥有全部权限，其他用户按权限列判断
func CanPerform(role string, perms Permissions, a Action) bool {
	if role == RoleAdmin {
		return true
	}
	return perms.Allows(a)
}

// Can 判断用户能否执行指定操作
func (u *User) Can(a Action) bool {
	if u == nil {
		return false
	}
	return CanPerform(u.Role, u.Permissions, a)
}
