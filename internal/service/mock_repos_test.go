package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"atende-agora/backend/config"
	"atende-agora/backend/internal/model"
	"atende-agora/backend/internal/repository"
	"atende-agora/backend/internal/repository/memory"
	"atende-agora/backend/pkg/redis"
)

var testBase = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

// ── 可控时钟 ──

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// ── Mock NotificationService ──

type mockNotifier struct {
	mu     sync.Mutex
	calls  []notifyCall
	result bool
	block  chan struct{}
}

type notifyCall struct {
	sector model.SectorCode
	text   string
}

func (m *mockNotifier) NotifySector(ctx context.Context, sector model.SectorCode, text string) bool {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// 请求取消不应传递到后台通知
	if ctx.Err() != nil {
		return false
	}
	m.calls = append(m.calls, notifyCall{sector: sector, text: text})
	return m.result
}

func (m *mockNotifier) Calls() []notifyCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notifyCall(nil), m.calls...)
}

// ── Mock whatsapp.Sender ──

type mockSender struct {
	mu   sync.Mutex
	sent []string
	fail map[string]bool
}

func (m *mockSender) Send(_ context.Context, to, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail[to] {
		return errors.New("gateway down")
	}
	m.sent = append(m.sent, to)
	return nil
}

// ── Mock TokenBlacklist ──

type mockBlacklist struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func newMockBlacklist() *mockBlacklist {
	return &mockBlacklist{revoked: make(map[string]bool)}
}

func (m *mockBlacklist) BlacklistToken(_ context.Context, jti string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[jti] = true
	return nil
}

func (m *mockBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.revoked[jti], nil
}

// ── Mock Cache ──

type mockCache struct {
	data   map[string][]byte
	hits   int
	broken bool
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (m *mockCache) GetJSON(_ context.Context, key string, dst interface{}) error {
	if m.broken {
		return errors.New("connection refused")
	}
	raw, ok := m.data[key]
	if !ok {
		return redis.ErrCacheMiss
	}
	m.hits++
	return json.Unmarshal(raw, dst)
}

func (m *mockCache) SetJSON(_ context.Context, key string, v interface{}, _ time.Duration) error {
	if m.broken {
		return errors.New("connection refused")
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func (m *mockCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

// ── 故障存储 ──

var errStoreDown = errors.New("connection reset by peer")

type brokenAttendanceRepo struct{}

func (brokenAttendanceRepo) Create(context.Context, *model.Attendance) error { return errStoreDown }
func (brokenAttendanceRepo) GetByID(context.Context, string) (*model.Attendance, error) {
	return nil, errStoreDown
}
func (brokenAttendanceRepo) Update(context.Context, string, *model.AttendanceFields) (*model.Attendance, error) {
	return nil, errStoreDown
}
func (brokenAttendanceRepo) MarkAttended(context.Context, string, time.Time, time.Time) (*model.Attendance, error) {
	return nil, errStoreDown
}
func (brokenAttendanceRepo) Delete(context.Context, string) (bool, error) { return false, errStoreDown }
func (brokenAttendanceRepo) List(context.Context, *model.AttendanceFilter) ([]model.Attendance, error) {
	return nil, errStoreDown
}
func (brokenAttendanceRepo) CountByStatus(context.Context) (int64, int64, error) {
	return 0, 0, errStoreDown
}

// ── 测试辅助 ──

func setupAttendanceService(notifier NotificationService) (*attendanceService, *repository.Repository, *fakeClock) {
	repo := memory.NewRepository()
	cfg := &config.AttendanceConfig{
		VisibilityWindow: 40 * time.Second,
		NotifyTimeout:    time.Second,
		Timezone:         "UTC",
	}
	svc := NewAttendanceService(cfg, repo, notifier, nil, zap.NewNop()).(*attendanceService)
	clock := newFakeClock(testBase)
	svc.now = clock.Now
	return svc, repo, clock
}
