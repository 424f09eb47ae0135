package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"atende-agora/backend/config"
	"atende-agora/backend/internal/dto"
	"atende-agora/backend/internal/model"
	"atende-agora/backend/internal/repository"
	pkgerrors "atende-agora/backend/pkg/errors"
)

func validRequest() *dto.CreateAttendanceRequest {
	return &dto.CreateAttendanceRequest{
		Registration: "12345",
		Name:         "João Silva",
		Position:     "Analista",
		Sector:       "RH",
		Reason:       "doc update",
	}
}

func strptr(s string) *string { return &s }

// ── 登记 ──

func TestRegister_Success(t *testing.T) {
	svc, _, clock := setupAttendanceService(nil)
	start := clock.Now()

	rec, err := svc.Register(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Register 应成功: %v", err)
	}
	if rec.AttendanceID == "" {
		t.Error("ID 不应为空")
	}
	if rec.Attended || rec.AttendedAt != nil || rec.HideAfter != nil {
		t.Errorf("新记录应为等待状态: %+v", rec)
	}
	if rec.CreatedAt.Before(start) {
		t.Errorf("CreatedAt 不应早于调用时间: %s < %s", rec.CreatedAt, start)
	}
	if rec.Sector != model.SectorRH {
		t.Errorf("期望 sector=RH，实际=%s", rec.Sector)
	}
}

func TestRegister_TrimsAndNormalizesSector(t *testing.T) {
	svc, _, _ := setupAttendanceService(nil)

	req := validRequest()
	req.Name = "  João Silva  "
	req.Sector = " planejamento "
	rec, err := svc.Register(context.Background(), req)
	if err != nil {
		t.Fatalf("Register 应成功: %v", err)
	}
	if rec.Name != "João Silva" {
		t.Errorf("期望去除首尾空白，实际=%q", rec.Name)
	}
	if rec.Sector != model.SectorPlanejamento {
		t.Errorf("期望 PLANEJAMENTO，实际=%s", rec.Sector)
	}
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(r *dto.CreateAttendanceRequest)
		field string
	}{
		{"工号为空", func(r *dto.CreateAttendanceRequest) { r.Registration = "" }, "registration"},
		{"姓名只有空白", func(r *dto.CreateAttendanceRequest) { r.Name = "   " }, "name"},
		{"职位为空", func(r *dto.CreateAttendanceRequest) { r.Position = "" }, "position"},
		{"事由为空", func(r *dto.CreateAttendanceRequest) { r.Reason = "\t" }, "reason"},
		{"部门非法", func(r *dto.CreateAttendanceRequest) { r.Sector = "INVALID" }, "sector"},
		{"部门为空", func(r *dto.CreateAttendanceRequest) { r.Sector = "" }, "sector"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := setupAttendanceService(nil)
			req := validRequest()
			tt.edit(req)

			_, err := svc.Register(context.Background(), req)
			if !errors.Is(err, pkgerrors.ErrValidation) {
				t.Fatalf("期望 ErrValidation，实际: %v", err)
			}
			var ve *pkgerrors.ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Errorf("期望字段 %s，实际: %v", tt.field, err)
			}

			waiting, attended, _ := repo.Attendance.CountByStatus(context.Background())
			if waiting+attended != 0 {
				t.Error("校验失败时不应写入记录")
			}
		})
	}
}

func TestRegister_DispatchesNotification(t *testing.T) {
	notifier := &mockNotifier{result: true}
	svc, _, _ := setupAttendanceService(notifier)

	ctx, cancel := context.WithCancel(context.Background())
	rec, err := svc.Register(ctx, validRequest())
	if err != nil {
		t.Fatalf("Register 应成功: %v", err)
	}
	// 请求结束后通知仍应完成
	cancel()

	if err := svc.Close(context.Background()); err != nil {
		t.Fatalf("Close 应成功: %v", err)
	}

	calls := notifier.Calls()
	if len(calls) != 1 {
		t.Fatalf("期望 1 次通知，实际 %d 次", len(calls))
	}
	if calls[0].sector != rec.Sector {
		t.Errorf("期望通知部门 %s，实际 %s", rec.Sector, calls[0].sector)
	}
	if !strings.Contains(calls[0].text, "João Silva") || !strings.Contains(calls[0].text, "12345") {
		t.Errorf("通知内容缺少登记信息: %s", calls[0].text)
	}
}

func TestRegister_NotificationFailureDoesNotFail(t *testing.T) {
	notifier := &mockNotifier{result: false}
	svc, repo, _ := setupAttendanceService(notifier)

	rec, err := svc.Register(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("通知失败不应影响登记: %v", err)
	}
	svc.Close(context.Background())

	if _, err := repo.Attendance.GetByID(context.Background(), rec.AttendanceID); err != nil {
		t.Errorf("记录应已保存: %v", err)
	}
}

func TestClose_TimesOutWhileNotifying(t *testing.T) {
	notifier := &mockNotifier{result: true, block: make(chan struct{})}
	svc, _, _ := setupAttendanceService(notifier)

	if _, err := svc.Register(context.Background(), validRequest()); err != nil {
		t.Fatalf("Register 应成功: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := svc.Close(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("期望 DeadlineExceeded，实际: %v", err)
	}

	close(notifier.block)
	if err := svc.Close(context.Background()); err != nil {
		t.Errorf("通知完成后 Close 应成功: %v", err)
	}
}

// ── 修改 ──

func TestUpdate_PartialFields(t *testing.T) {
	svc, _, _ := setupAttendanceService(nil)
	ctx := context.Background()
	rec, _ := svc.Register(ctx, validRequest())

	updated, err := svc.Update(ctx, rec.AttendanceID, &dto.UpdateAttendanceRequest{
		Reason: strptr("  férias  "),
		Sector: strptr("dp"),
	})
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if updated.Reason != "férias" || updated.Sector != model.SectorDP {
		t.Errorf("字段未更新: %+v", updated)
	}
	if updated.Name != rec.Name || !updated.CreatedAt.Equal(rec.CreatedAt) || updated.Attended {
		t.Errorf("未提供的字段不应变化: %+v", updated)
	}
}

func TestUpdate_InvalidSectorLeavesRecordUnchanged(t *testing.T) {
	svc, _, _ := setupAttendanceService(nil)
	ctx := context.Background()
	rec, _ := svc.Register(ctx, validRequest())

	_, err := svc.Update(ctx, rec.AttendanceID, &dto.UpdateAttendanceRequest{
		Name:   strptr("Outro Nome"),
		Sector: strptr("INVALID"),
	})
	if !errors.Is(err, pkgerrors.ErrValidation) {
		t.Fatalf("期望 ErrValidation，实际: %v", err)
	}

	got, _ := svc.Get(ctx, rec.AttendanceID)
	if got.Name != rec.Name || got.Sector != rec.Sector {
		t.Errorf("校验失败后记录不应变化: %+v", got)
	}
}

func TestUpdate_EmptyStringRejected(t *testing.T) {
	svc, _, _ := setupAttendanceService(nil)
	rec, _ := svc.Register(context.Background(), validRequest())

	_, err := svc.Update(context.Background(), rec.AttendanceID, &dto.UpdateAttendanceRequest{Name: strptr(" ")})
	if !errors.Is(err, pkgerrors.ErrValidation) {
		t.Errorf("期望 ErrValidation，实际: %v", err)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	svc, _, _ := setupAttendanceService(nil)

	_, err := svc.Update(context.Background(), "missing", &dto.UpdateAttendanceRequest{Name: strptr("x")})
	if !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Errorf("期望 ErrNotFound，实际: %v", err)
	}

	_, err = svc.Update(context.Background(), "missing", &dto.UpdateAttendanceRequest{})
	if !errors.Is(err, ErrAttendanceNotFound) {
		t.Errorf("空更新也应检查记录存在，实际: %v", err)
	}
}

// ── 标记接待 ──

func TestMarkAttended_SetsWindow(t *testing.T) {
	svc, _, clock := setupAttendanceService(nil)
	ctx := context.Background()
	rec, _ := svc.Register(ctx, validRequest())

	clock.Advance(5 * time.Minute)
	done, err := svc.MarkAttended(ctx, rec.AttendanceID)
	if err != nil {
		t.Fatalf("MarkAttended 应成功: %v", err)
	}
	if !done.Attended || done.AttendedAt == nil || done.HideAfter == nil {
		t.Fatalf("状态未更新: %+v", done)
	}
	if done.AttendedAt.Before(done.CreatedAt) {
		t.Error("AttendedAt 不应早于 CreatedAt")
	}
	if got := done.HideAfter.Sub(*done.AttendedAt); got != 40*time.Second {
		t.Errorf("期望 HideAfter = AttendedAt + 40s，实际差值 %s", got)
	}
}

func TestMarkAttended_Twice(t *testing.T) {
	svc, _, clock := setupAttendanceService(nil)
	ctx := context.Background()
	rec, _ := svc.Register(ctx, validRequest())

	first, _ := svc.MarkAttended(ctx, rec.AttendanceID)
	clock.Advance(time.Minute)

	_, err := svc.MarkAttended(ctx, rec.AttendanceID)
	if !errors.Is(err, pkgerrors.ErrAlreadyAttended) {
		t.Fatalf("期望 ErrAlreadyAttended，实际: %v", err)
	}

	got, _ := svc.Get(ctx, rec.AttendanceID)
	if !got.AttendedAt.Equal(*first.AttendedAt) || !got.HideAfter.Equal(*first.HideAfter) {
		t.Error("第二次调用不应修改 AttendedAt/HideAfter")
	}
}

func TestMarkAttended_Concurrent(t *testing.T) {
	svc, _, _ := setupAttendanceService(nil)
	ctx := context.Background()
	rec, _ := svc.Register(ctx, validRequest())

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.MarkAttended(ctx, rec.AttendanceID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, pkgerrors.ErrAlreadyAttended):
				rejected++
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 || rejected != workers-1 {
		t.Errorf("期望 1 次成功 %d 次拒绝，实际 %d/%d", workers-1, succeeded, rejected)
	}
}

// ── 删除 ──

func TestRemove_ThenAbsent(t *testing.T) {
	svc, _, _ := setupAttendanceService(nil)
	ctx := context.Background()
	rec, _ := svc.Register(ctx, validRequest())

	if err := svc.Remove(ctx, rec.AttendanceID); err != nil {
		t.Fatalf("Remove 应成功: %v", err)
	}
	if _, err := svc.Get(ctx, rec.AttendanceID); !errors.Is(err, ErrAttendanceNotFound) {
		t.Errorf("删除后 Get 应返回 ErrAttendanceNotFound，实际: %v", err)
	}
	all, _ := svc.Query(ctx, &dto.AttendanceQuery{})
	if len(all) != 0 {
		t.Errorf("删除后查询应为空，实际 %d 条", len(all))
	}
	if _, err := svc.MarkAttended(ctx, rec.AttendanceID); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Errorf("删除后 MarkAttended 应返回 ErrNotFound，实际: %v", err)
	}
	if err := svc.Remove(ctx, rec.AttendanceID); !errors.Is(err, ErrAttendanceNotFound) {
		t.Errorf("重复删除应返回 ErrAttendanceNotFound，实际: %v", err)
	}
}

// ── 查询 ──

func seedRecords(t *testing.T, svc *attendanceService, clock *fakeClock) []*model.Attendance {
	t.Helper()
	inputs := []struct {
		reg, name, sector string
		attend            bool
	}{
		{"12345", "João Silva", "RH", false},
		{"54321", "Maria Oliveira", "DP", true},
		{"67890", "Carlos Santos", "RH", true},
		{"11223", "Ana Pereira", "PLANEJAMENTO", false},
		{"33445", "Roberto Lima", "DISCIPLINA", false},
	}

	var out []*model.Attendance
	for _, in := range inputs {
		clock.Advance(time.Hour)
		rec, err := svc.Register(context.Background(), &dto.CreateAttendanceRequest{
			Registration: in.reg, Name: in.name, Position: "Analista", Sector: in.sector, Reason: "consulta",
		})
		if err != nil {
			t.Fatalf("登记失败: %v", err)
		}
		if in.attend {
			if _, err := svc.MarkAttended(context.Background(), rec.AttendanceID); err != nil {
				t.Fatalf("标记失败: %v", err)
			}
		}
		out = append(out, rec)
	}
	return out
}

func TestQuery_OrderedByCreatedDesc(t *testing.T) {
	svc, _, clock := setupAttendanceService(nil)
	seedRecords(t, svc, clock)

	all, err := svc.Query(context.Background(), &dto.AttendanceQuery{})
	if err != nil {
		t.Fatalf("Query 应成功: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("期望 5 条，实际 %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].CreatedAt.Before(all[i].CreatedAt) {
			t.Fatalf("位置 %d 排序错误", i)
		}
	}
}

func TestQuery_StatusPartition(t *testing.T) {
	svc, _, clock := setupAttendanceService(nil)
	seedRecords(t, svc, clock)
	ctx := context.Background()

	all, _ := svc.Query(ctx, &dto.AttendanceQuery{Status: "all"})
	waiting, _ := svc.Query(ctx, &dto.AttendanceQuery{Status: "waiting"})
	attended, _ := svc.Query(ctx, &dto.AttendanceQuery{Status: "attended"})

	if len(waiting) != 3 || len(attended) != 2 {
		t.Fatalf("期望 3 等待 2 已接待，实际 %d/%d", len(waiting), len(attended))
	}
	seen := map[string]bool{}
	for _, r := range waiting {
		if r.Attended {
			t.Error("等待集合中出现已接待记录")
		}
		seen[r.AttendanceID] = true
	}
	for _, r := range attended {
		if !r.Attended {
			t.Error("已接待集合中出现等待记录")
		}
		if seen[r.AttendanceID] {
			t.Error("两个集合不应相交")
		}
		seen[r.AttendanceID] = true
	}
	if len(seen) != len(all) {
		t.Errorf("并集应等于全部记录: %d != %d", len(seen), len(all))
	}
}

func TestQuery_Filters(t *testing.T) {
	svc, _, clock := setupAttendanceService(nil)
	seedRecords(t, svc, clock)
	ctx := context.Background()

	rh, _ := svc.Query(ctx, &dto.AttendanceQuery{Sector: "RH"})
	if len(rh) != 2 {
		t.Errorf("RH 期望 2 条，实际 %d", len(rh))
	}
	for _, r := range rh {
		if r.Sector != model.SectorRH {
			t.Errorf("部门过滤返回了 %s", r.Sector)
		}
	}

	byName, _ := svc.Query(ctx, &dto.AttendanceQuery{Name: "SILVA"})
	if len(byName) != 1 || byName[0].Registration != "12345" {
		t.Errorf("姓名过滤应不区分大小写: %+v", byName)
	}

	byReg, _ := svc.Query(ctx, &dto.AttendanceQuery{Registration: "45"})
	if len(byReg) != 2 {
		t.Errorf("工号子串 45 期望 2 条，实际 %d", len(byReg))
	}

	none, err := svc.Query(ctx, &dto.AttendanceQuery{Name: "ninguém"})
	if err != nil || none == nil || len(none) != 0 {
		t.Errorf("无匹配应返回空切片: %v %v", none, err)
	}
}

func TestQuery_DateRange(t *testing.T) {
	svc, _, clock := setupAttendanceService(nil)
	seedRecords(t, svc, clock) // 10:00 ~ 14:00 UTC
	ctx := context.Background()

	sameDay, _ := svc.Query(ctx, &dto.AttendanceQuery{StartDate: "2026-03-10", EndDate: "2026-03-10"})
	if len(sameDay) != 5 {
		t.Errorf("仅日期的结束条件应覆盖整天，期望 5 条，实际 %d", len(sameDay))
	}

	window, _ := svc.Query(ctx, &dto.AttendanceQuery{
		StartDate: "2026-03-10T11:00:00Z",
		EndDate:   "2026-03-10T13:00:00Z",
	})
	if len(window) != 3 {
		t.Errorf("含边界期望 3 条，实际 %d", len(window))
	}

	nextDay, _ := svc.Query(ctx, &dto.AttendanceQuery{StartDate: "2026-03-11"})
	if len(nextDay) != 0 {
		t.Errorf("次日起应无记录，实际 %d", len(nextDay))
	}
}

func TestQuery_InvalidFilter(t *testing.T) {
	svc, _, _ := setupAttendanceService(nil)
	ctx := context.Background()

	for _, q := range []*dto.AttendanceQuery{
		{Sector: "FINANCEIRO"},
		{Status: "pending"},
		{StartDate: "10/03/2026"},
		{EndDate: "amanhã"},
	} {
		if _, err := svc.Query(ctx, q); !errors.Is(err, pkgerrors.ErrValidation) {
			t.Errorf("%+v 期望 ErrValidation，实际: %v", q, err)
		}
	}
}

// ── 可见窗口 ──

func TestQueryVisible_EndToEnd(t *testing.T) {
	svc, _, clock := setupAttendanceService(nil)
	ctx := context.Background()

	rec, err := svc.Register(ctx, validRequest())
	if err != nil || rec.Attended {
		t.Fatalf("登记结果异常: %+v %v", rec, err)
	}

	done, err := svc.MarkAttended(ctx, rec.AttendanceID)
	if err != nil {
		t.Fatalf("MarkAttended 应成功: %v", err)
	}
	if !done.HideAfter.Equal(done.AttendedAt.Add(svc.window)) {
		t.Fatalf("HideAfter 应等于 AttendedAt + W")
	}

	visible, _ := svc.QueryVisible(ctx, &dto.AttendanceQuery{})
	if len(visible) != 1 {
		t.Fatalf("标记后立即查询应可见")
	}

	clock.Set(done.AttendedAt.Add(svc.window - time.Second))
	visible, _ = svc.QueryVisible(ctx, &dto.AttendanceQuery{})
	if len(visible) != 1 {
		t.Errorf("W-1s 时应可见")
	}

	clock.Set(done.AttendedAt.Add(svc.window + time.Second))
	visible, _ = svc.QueryVisible(ctx, &dto.AttendanceQuery{})
	if len(visible) != 0 {
		t.Errorf("W+1s 时不应可见")
	}
	all, _ := svc.Query(ctx, &dto.AttendanceQuery{})
	if len(all) != 1 {
		t.Errorf("历史查询仍应包含该记录")
	}
}

func TestQueryVisible_WaitingAlwaysVisible(t *testing.T) {
	svc, _, clock := setupAttendanceService(nil)
	seedRecords(t, svc, clock)

	clock.Advance(24 * time.Hour)
	visible, _ := svc.QueryVisible(context.Background(), &dto.AttendanceQuery{Sector: "all"})
	if len(visible) != 3 {
		t.Errorf("只剩 3 条等待记录可见，实际 %d", len(visible))
	}
}

// ── 统计 ──

func TestStats(t *testing.T) {
	svc, _, clock := setupAttendanceService(nil)
	ctx := context.Background()

	empty, err := svc.Stats(ctx)
	if err != nil || empty.Waiting != 0 || empty.Attended != 0 || empty.Remaining != 0 {
		t.Fatalf("空库统计异常: %+v %v", empty, err)
	}

	seedRecords(t, svc, clock)
	stats, _ := svc.Stats(ctx)
	if stats.Waiting != 3 || stats.Attended != 2 {
		t.Errorf("期望 3/2，实际 %d/%d", stats.Waiting, stats.Attended)
	}
	if stats.Remaining != stats.Waiting {
		t.Error("Remaining 应等于 Waiting")
	}
}

// ── 存储故障 ──

func TestBackendUnavailable(t *testing.T) {
	repo := &repository.Repository{Attendance: brokenAttendanceRepo{}}
	cfg := &config.AttendanceConfig{VisibilityWindow: 40 * time.Second}
	svc := NewAttendanceService(cfg, repo, nil, nil, zap.NewNop())
	ctx := context.Background()

	checks := map[string]error{}
	_, checks["Register"] = svc.Register(ctx, validRequest())
	_, checks["Update"] = svc.Update(ctx, "x", &dto.UpdateAttendanceRequest{Name: strptr("n")})
	_, checks["MarkAttended"] = svc.MarkAttended(ctx, "x")
	checks["Remove"] = svc.Remove(ctx, "x")
	_, checks["Query"] = svc.Query(ctx, &dto.AttendanceQuery{})
	_, checks["QueryVisible"] = svc.QueryVisible(ctx, &dto.AttendanceQuery{})
	_, checks["Stats"] = svc.Stats(ctx)

	for op, err := range checks {
		if !errors.Is(err, pkgerrors.ErrBackendUnavailable) {
			t.Errorf("%s 期望 ErrBackendUnavailable，实际: %v", op, err)
		}
		if !errors.Is(err, errStoreDown) {
			t.Errorf("%s 应保留原始错误链", op)
		}
	}
}
