package dto

import (
	"time"

	"atende-agora/backend/internal/model"
)

// ── 接待记录 DTO ──

// CreateAttendanceRequest 登记请求
// 必填校验由业务层完成（去除首尾空白后不能为空），这里只限制长度
type CreateAttendanceRequest struct {
	Registration string `json:"registration" binding:"max=50"`
	Name         string `json:"name"         binding:"max=150"`
	Position     string `json:"position"     binding:"max=100"`
	Sector       string `json:"sector"       binding:"max=20"`
	Reason       string `json:"reason"       binding:"max=2000"`
}

// UpdateAttendanceRequest 部分更新请求，nil 字段不修改
type UpdateAttendanceRequest struct {
	Registration *string `json:"registration" binding:"omitempty,max=50"`
	Name         *string `json:"name"         binding:"omitempty,max=150"`
	Position     *string `json:"position"     binding:"omitempty,max=100"`
	Sector       *string `json:"sector"       binding:"omitempty,max=20"`
	Reason       *string `json:"reason"       binding:"omitempty,max=2000"`
}

// AttendanceQuery 查询参数
// 日期接受 RFC3339 或 YYYY-MM-DD（仅日期时覆盖整天）；sector/status 取 "all" 等同于不限制
type AttendanceQuery struct {
	StartDate    string `form:"start_date"`
	EndDate      string `form:"end_date"`
	Sector       string `form:"sector"`
	Status       string `form:"status"`
	Name         string `form:"name"`
	Registration string `form:"registration"`
}

// AttendanceResponse 接待记录响应
type AttendanceResponse struct {
	ID           string           `json:"id"`
	Registration string           `json:"registration"`
	Name         string           `json:"name"`
	Position     string           `json:"position"`
	Sector       model.SectorCode `json:"sector"`
	Reason       string           `json:"reason"`
	CreatedAt    time.Time        `json:"created_at"`
	Attended     bool             `json:"attended"`
	AttendedAt   *time.Time       `json:"attended_at,omitempty"`
	HideAfter    *time.Time       `json:"hide_after,omitempty"`
	Status       string           `json:"status"`
}

// NewAttendanceResponse 由实体构造响应
func NewAttendanceResponse(a *model.Attendance) AttendanceResponse {
	return AttendanceResponse{
		ID:           a.AttendanceID,
		Registration: a.Registration,
		Name:         a.Name,
		Position:     a.Position,
		Sector:       a.Sector,
		Reason:       a.Reason,
		CreatedAt:    a.CreatedAt,
		Attended:     a.Attended,
		AttendedAt:   a.AttendedAt,
		HideAfter:    a.HideAfter,
		Status:       string(a.Status()),
	}
}

// NewAttendanceList 批量构造响应，保证返回非 nil 切片
func NewAttendanceList(records []model.Attendance) []AttendanceResponse {
	out := make([]AttendanceResponse, 0, len(records))
	for i := range records {
		out = append(out, NewAttendanceResponse(&records[i]))
	}
	return out
}
