package service

import (
	"errors"
	"testing"
	"time"

	"atende-agora/backend/internal/dto"
	"atende-agora/backend/internal/model"
	pkgerrors "atende-agora/backend/pkg/errors"
)

func TestParseAttendanceQuery(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)

	f, err := ParseAttendanceQuery(&dto.AttendanceQuery{
		StartDate:    "2026-03-10",
		EndDate:      "2026-03-10",
		Sector:       "rh",
		Status:       "WAITING",
		Name:         "  silva ",
		Registration: "123",
	}, loc)
	if err != nil {
		t.Fatalf("应成功: %v", err)
	}

	wantStart := time.Date(2026, 3, 10, 0, 0, 0, 0, loc)
	wantEnd := time.Date(2026, 3, 11, 0, 0, 0, 0, loc).Add(-time.Nanosecond)
	if !f.StartDate.Equal(wantStart) || !f.EndDate.Equal(wantEnd) {
		t.Errorf("日期范围不正确: %s ~ %s", f.StartDate, f.EndDate)
	}
	if f.Sector != model.SectorRH || f.Status != model.StatusWaiting {
		t.Errorf("部门或状态不正确: %+v", f)
	}
	if f.Name != "silva" || f.Registration != "123" {
		t.Errorf("文本条件不正确: %+v", f)
	}
}

func TestParseAttendanceQuery_AllAndEmpty(t *testing.T) {
	for _, q := range []*dto.AttendanceQuery{nil, {}, {Sector: "all", Status: "ALL"}} {
		f, err := ParseAttendanceQuery(q, time.UTC)
		if err != nil {
			t.Fatalf("应成功: %v", err)
		}
		if f.StartDate != nil || f.EndDate != nil || f.Sector != "" || f.Status != "" {
			t.Errorf("应无任何限制: %+v", f)
		}
	}
}

func TestParseAttendanceQuery_DateTimeKeepsInstant(t *testing.T) {
	f, err := ParseAttendanceQuery(&dto.AttendanceQuery{EndDate: "2026-03-10T15:04:05Z"}, time.UTC)
	if err != nil {
		t.Fatalf("应成功: %v", err)
	}
	if !f.EndDate.Equal(time.Date(2026, 3, 10, 15, 4, 5, 0, time.UTC)) {
		t.Errorf("带时间的结束条件不应扩展到整天: %s", f.EndDate)
	}
}

func TestParseAttendanceQuery_Invalid(t *testing.T) {
	tests := []struct {
		q     dto.AttendanceQuery
		field string
	}{
		{dto.AttendanceQuery{StartDate: "10/03/2026"}, "start_date"},
		{dto.AttendanceQuery{EndDate: "2026-13-01"}, "end_date"},
		{dto.AttendanceQuery{Sector: "TI"}, "sector"},
		{dto.AttendanceQuery{Status: "done"}, "status"},
	}
	for _, tt := range tests {
		q := tt.q
		_, err := ParseAttendanceQuery(&q, time.UTC)
		var ve *pkgerrors.ValidationError
		if !errors.As(err, &ve) || ve.Field != tt.field {
			t.Errorf("%+v 期望字段 %s 校验失败，实际: %v", tt.q, tt.field, err)
		}
	}
}
