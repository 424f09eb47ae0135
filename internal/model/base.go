package model

import "time"

// BaseModel 通用审计字段（用户、员工、号码等后台维护的表嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null"             json:"created_at"`
	CreatedBy *string   `gorm:"type:varchar(36)"     json:"created_by,omitempty"`
	UpdatedAt time.Time `gorm:"not null"             json:"updated_at"`
	UpdatedBy *string   `gorm:"type:varchar(36)"     json:"updated_by,omitempty"`
}
