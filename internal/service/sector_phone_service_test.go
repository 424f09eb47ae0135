package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"atende-agora/backend/internal/dto"
	"atende-agora/backend/internal/model"
	"atende-agora/backend/internal/repository/memory"
	pkgerrors "atende-agora/backend/pkg/errors"
)

func setupSectorPhoneService() SectorPhoneService {
	return NewSectorPhoneService(memory.NewRepository(), zap.NewNop())
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"+55 (11) 98765-4321", "+5511987654321", true},
		{"11.98765.4321", "11987654321", true},
		{"5511987654321", "5511987654321", true},
		{"12345", "", false},
		{"+55 11 9876A-4321", "", false},
		{"", "", false},
		{"1234567890123456", "", false},
	}
	for _, tt := range tests {
		got, err := NormalizePhone(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("NormalizePhone(%q) err=%v，期望 ok=%v", tt.in, err, tt.ok)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("NormalizePhone(%q) = %q，期望 %q", tt.in, got, tt.want)
		}
		if !tt.ok && !errors.Is(err, pkgerrors.ErrValidation) {
			t.Errorf("NormalizePhone(%q) 应返回 ErrValidation", tt.in)
		}
	}
}

func TestAddPhone(t *testing.T) {
	svc := setupSectorPhoneService()
	ctx := context.Background()

	p, err := svc.AddPhone(ctx, "rh", &dto.SectorPhoneRequest{PhoneNumber: "+55 11 98765-4321"}, "admin-1")
	if err != nil {
		t.Fatalf("AddPhone 应成功: %v", err)
	}
	if p.Sector != model.SectorRH || p.PhoneNumber != "+5511987654321" {
		t.Errorf("号码信息不正确: %+v", p)
	}

	_, err = svc.AddPhone(ctx, "RH", &dto.SectorPhoneRequest{PhoneNumber: "+5511987654321"}, "admin-1")
	if !errors.Is(err, ErrPhoneExists) {
		t.Errorf("同部门重复号码期望 ErrPhoneExists，实际: %v", err)
	}

	// 不同部门允许相同号码
	if _, err := svc.AddPhone(ctx, "DP", &dto.SectorPhoneRequest{PhoneNumber: "+5511987654321"}, "admin-1"); err != nil {
		t.Errorf("不同部门应允许相同号码: %v", err)
	}
}

func TestAddPhone_InvalidSector(t *testing.T) {
	svc := setupSectorPhoneService()
	_, err := svc.AddPhone(context.Background(), "FINANCEIRO", &dto.SectorPhoneRequest{PhoneNumber: "11987654321"}, "admin-1")
	if !errors.Is(err, pkgerrors.ErrValidation) {
		t.Errorf("期望 ErrValidation，实际: %v", err)
	}
}

func TestUpdateAndDeletePhone(t *testing.T) {
	svc := setupSectorPhoneService()
	ctx := context.Background()

	a, _ := svc.AddPhone(ctx, "RH", &dto.SectorPhoneRequest{PhoneNumber: "11987654321"}, "admin-1")
	b, _ := svc.AddPhone(ctx, "RH", &dto.SectorPhoneRequest{PhoneNumber: "11911112222"}, "admin-1")

	if _, err := svc.UpdatePhone(ctx, b.ID, &dto.SectorPhoneRequest{PhoneNumber: "11987654321"}, "admin-1"); !errors.Is(err, ErrPhoneExists) {
		t.Errorf("改成已存在的号码应失败，实际: %v", err)
	}

	// 保持原号码不算重复
	if _, err := svc.UpdatePhone(ctx, a.ID, &dto.SectorPhoneRequest{PhoneNumber: "(11) 98765-4321"}, "admin-1"); err != nil {
		t.Errorf("更新为自身号码应成功: %v", err)
	}

	updated, err := svc.UpdatePhone(ctx, b.ID, &dto.SectorPhoneRequest{PhoneNumber: "11933334444"}, "admin-1")
	if err != nil || updated.PhoneNumber != "11933334444" {
		t.Fatalf("UpdatePhone 应成功: %+v %v", updated, err)
	}

	if err := svc.DeletePhone(ctx, a.ID, "admin-1"); err != nil {
		t.Fatalf("DeletePhone 应成功: %v", err)
	}
	if err := svc.DeletePhone(ctx, a.ID, "admin-1"); !errors.Is(err, ErrPhoneNotFound) {
		t.Errorf("重复删除期望 ErrPhoneNotFound，实际: %v", err)
	}
	if _, err := svc.UpdatePhone(ctx, a.ID, &dto.SectorPhoneRequest{PhoneNumber: "11955556666"}, "admin-1"); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Errorf("更新已删除号码期望 ErrNotFound，实际: %v", err)
	}

	phones, _ := svc.ListPhones(ctx, "RH")
	if len(phones) != 1 || phones[0].ID != b.ID {
		t.Errorf("RH 应只剩一个号码: %+v", phones)
	}
}

func TestListGrouped_IncludesEmptySectors(t *testing.T) {
	svc := setupSectorPhoneService()
	ctx := context.Background()
	svc.AddPhone(ctx, "DP", &dto.SectorPhoneRequest{PhoneNumber: "11987654321"}, "admin-1")

	groups, err := svc.ListGrouped(ctx)
	if err != nil {
		t.Fatalf("ListGrouped 应成功: %v", err)
	}
	if len(groups) != 4 {
		t.Fatalf("期望 4 个部门分组，实际 %d", len(groups))
	}
	for _, g := range groups {
		want := 0
		if g.Sector == model.SectorDP {
			want = 1
		}
		if g.Phones == nil || len(g.Phones) != want {
			t.Errorf("%s 期望 %d 个号码，实际 %v", g.Sector, want, g.Phones)
		}
		if g.Name == "" {
			t.Errorf("%s 缺少部门名称", g.Sector)
		}
	}
}
