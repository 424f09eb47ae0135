package model

import "time"

// Attendance 接待记录表，对应 attendances
//
// 状态约束：
//   - Attended=false 时 AttendedAt、HideAfter 均为空
//   - Attended=true 时两者同时写入且此后不再变化，HideAfter = AttendedAt + 可见窗口
//   - CreatedAt 只在登记时写入一次
type Attendance struct {
	AttendanceID string     `gorm:"type:varchar(36);primaryKey"          json:"id"`
	Registration string     `gorm:"type:varchar(50);not null;index"      json:"registration"`
	Name         string     `gorm:"type:varchar(150);not null"           json:"name"`
	Position     string     `gorm:"type:varchar(100);not null"           json:"position"`
	SectorID     int        `gorm:"not null;index"                       json:"-"`
	Sector       SectorCode `gorm:"-"                                    json:"sector"`
	Reason       string     `gorm:"type:text;not null"                   json:"reason"`
	CreatedAt    time.Time  `gorm:"not null;index;autoCreateTime:false"  json:"created_at"`
	Attended     bool       `gorm:"not null;default:false;index"         json:"attended"`
	AttendedAt   *time.Time `                                            json:"attended_at,omitempty"`
	HideAfter    *time.Time `                                            json:"hide_after,omitempty"`

	SectorRef *Sector `gorm:"foreignKey:SectorID;references:SectorID" json:"-"`
}

// TableName 指定表名
func (Attendance) TableName() string { return "attendances" }

// Status 返回记录当前状态
func (a *Attendance) Status() AttendanceStatus {
	if a.Attended {
		return StatusAttended
	}
	return StatusWaiting
}

// VisibleAt 判断记录在 now 时刻是否仍应出现在实时看板上
// 等待中的记录始终可见；已接待的记录仅在 now < HideAfter 时可见
func (a *Attendance) VisibleAt(now time.Time) bool {
	if !a.Attended {
		return true
	}
	if a.HideAfter == nil {
		return false
	}
	return now.Before(*a.HideAfter)
}

// AttendanceFields 可修改字段，nil 表示不修改
type AttendanceFields struct {
	Registration *string
	Name         *string
	Position     *string
	Sector       *SectorCode
	Reason       *string
}

// Empty 是否没有任何字段需要修改
func (f *AttendanceFields) Empty() bool {
	return f.Registration == nil && f.Name == nil && f.Position == nil && f.Sector == nil && f.Reason == nil
}

// ApplyTo 将字段合并到记录上，不触碰 ID、时间戳与状态
func (f *AttendanceFields) ApplyTo(a *Attendance) {
	if f.Registration != nil {
		a.Registration = *f.Registration
	}
	if f.Name != nil {
		a.Name = *f.Name
	}
	if f.Position != nil {
		a.Position = *f.Position
	}
	if f.Sector != nil {
		a.Sector = *f.Sector
	}
	if f.Reason != nil {
		a.Reason = *f.Reason
	}
}

// AttendanceStats 看板统计
// Remaining 始终等于 Waiting
type AttendanceStats struct {
	Waiting   int64 `json:"waiting"`
	Attended  int64 `json:"attended"`
	Remaining int64 `json:"remaining"`
}
