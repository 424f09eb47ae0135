package service

import (
	"strings"
	"time"

	"atende-agora/backend/internal/dto"
	"atende-agora/backend/internal/model"
	pkgerrors "atende-agora/backend/pkg/errors"
)

// filterAll sector/status 取该值时等同于不限制
const filterAll = "all"

// 查询日期支持的格式，按顺序尝试
var (
	dateTimeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04"}
	dateOnlyLayout  = "2006-01-02"
)

// ParseAttendanceQuery 将查询参数转换为过滤条件
// 仅含日期的起止值覆盖整天：start 取当天 00:00，end 取当天最后一纳秒
func ParseAttendanceQuery(q *dto.AttendanceQuery, loc *time.Location) (*model.AttendanceFilter, error) {
	filter := &model.AttendanceFilter{}
	if q == nil {
		return filter, nil
	}
	if loc == nil {
		loc = time.Local
	}

	if raw := strings.TrimSpace(q.StartDate); raw != "" {
		t, _, err := parseQueryTime(raw, loc)
		if err != nil {
			return nil, pkgerrors.NewValidationError("start_date", "data inválida")
		}
		filter.StartDate = &t
	}

	if raw := strings.TrimSpace(q.EndDate); raw != "" {
		t, dateOnly, err := parseQueryTime(raw, loc)
		if err != nil {
			return nil, pkgerrors.NewValidationError("end_date", "data inválida")
		}
		if dateOnly {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		filter.EndDate = &t
	}

	if raw := strings.TrimSpace(q.Sector); raw != "" && !strings.EqualFold(raw, filterAll) {
		sector, ok := model.ParseSector(raw)
		if !ok {
			return nil, pkgerrors.NewValidationError("sector", "setor inválido")
		}
		filter.Sector = sector
	}

	if raw := strings.ToLower(strings.TrimSpace(q.Status)); raw != "" && raw != filterAll {
		switch model.AttendanceStatus(raw) {
		case model.StatusWaiting, model.StatusAttended:
			filter.Status = model.AttendanceStatus(raw)
		default:
			return nil, pkgerrors.NewValidationError("status", "status inválido")
		}
	}

	filter.Name = strings.TrimSpace(q.Name)
	filter.Registration = strings.TrimSpace(q.Registration)

	return filter, nil
}

// parseQueryTime 解析时间，第二个返回值表示输入是否只有日期
func parseQueryTime(raw string, loc *time.Location) (time.Time, bool, error) {
	if t, err := time.ParseInLocation(dateOnlyLayout, raw, loc); err == nil {
		return t, true, nil
	}
	var lastErr error
	for _, layout := range dateTimeLayouts {
		t, err := time.ParseInLocation(layout, raw, loc)
		if err == nil {
			return t, false, nil
		}
		lastErr = err
	}
	return time.Time{}, false, lastErr
}
