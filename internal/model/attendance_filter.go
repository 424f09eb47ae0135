package model

import (
	"sort"
	"strings"
	"time"
)

// AttendanceStatus 接待状态筛选值
type AttendanceStatus string

const (
	StatusWaiting  AttendanceStatus = "waiting"
	StatusAttended AttendanceStatus = "attended"
)

// AttendanceFilter 接待记录查询条件，所有条件之间为 AND 关系，零值表示不限制
type AttendanceFilter struct {
	StartDate    *time.Time // CreatedAt >= StartDate
	EndDate      *time.Time // CreatedAt <= EndDate
	Sector       SectorCode
	Status       AttendanceStatus
	Name         string // 不区分大小写的子串匹配
	Registration string // 不区分大小写的子串匹配
}

// Matches 判断单条记录是否满足全部条件
func (f *AttendanceFilter) Matches(a *Attendance) bool {
	if f == nil {
		return true
	}
	if f.StartDate != nil && a.CreatedAt.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && a.CreatedAt.After(*f.EndDate) {
		return false
	}
	if f.Sector != "" && a.Sector != f.Sector {
		return false
	}
	if f.Status != "" && a.Status() != f.Status {
		return false
	}
	if f.Name != "" && !containsFold(a.Name, f.Name) {
		return false
	}
	if f.Registration != "" && !containsFold(a.Registration, f.Registration) {
		return false
	}
	return true
}

// Apply 过滤并按 CreatedAt 倒序排列，结果为新切片，原切片不变
// 无匹配时返回空切片而不是 nil
func (f *AttendanceFilter) Apply(records []Attendance) []Attendance {
	out := make([]Attendance, 0, len(records))
	for i := range records {
		if f.Matches(&records[i]) {
			out = append(out, records[i])
		}
	}
	SortByCreatedDesc(out)
	return out
}

// SortByCreatedDesc 按登记时间倒序排列（最新在前），时间相同时按 ID 保证稳定
func SortByCreatedDesc(records []Attendance) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].AttendanceID > records[j].AttendanceID
	})
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
