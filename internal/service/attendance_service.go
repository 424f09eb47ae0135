package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"atende-agora/backend/config"
	"atende-agora/backend/internal/dto"
	"atende-agora/backend/internal/model"
	"atende-agora/backend/internal/repository"
	pkgerrors "atende-agora/backend/pkg/errors"
	"atende-agora/backend/pkg/metrics"
)

// ── 接待模块业务错误 ──

// ErrAttendanceNotFound 接待记录不存在
var ErrAttendanceNotFound = fmt.Errorf("%w: 接待记录", pkgerrors.ErrNotFound)

const (
	defaultVisibilityWindow = 40 * time.Second
	defaultNotifyTimeout    = 10 * time.Second
)

// AttendanceService 接待记录业务接口
//
// 约束：
//   - 登记、修改、标记、删除对并发读者表现为原子操作，由存储层保证
//   - 登记后的部门通知在后台异步执行，失败只记录日志与指标，不影响登记结果
//   - Query 结果始终按登记时间倒序，无匹配时返回空切片
//   - QueryVisible 只在读取时按 now < HideAfter 过滤，不修改任何记录
type AttendanceService interface {
	Register(ctx context.Context, req *dto.CreateAttendanceRequest) (*model.Attendance, error)
	Update(ctx context.Context, id string, req *dto.UpdateAttendanceRequest) (*model.Attendance, error)
	MarkAttended(ctx context.Context, id string) (*model.Attendance, error)
	Remove(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*model.Attendance, error)
	Query(ctx context.Context, q *dto.AttendanceQuery) ([]model.Attendance, error)
	QueryVisible(ctx context.Context, q *dto.AttendanceQuery) ([]model.Attendance, error)
	Stats(ctx context.Context) (*model.AttendanceStats, error)
	// Close 等待仍在进行的通知发送完成，ctx 到期时放弃等待
	Close(ctx context.Context) error
}

type attendanceService struct {
	repo          *repository.Repository
	notifier      NotificationService
	metrics       *metrics.Metrics
	logger        *zap.Logger
	window        time.Duration
	notifyTimeout time.Duration
	loc           *time.Location
	now           func() time.Time
	pending       sync.WaitGroup
}

// NewAttendanceService 创建 AttendanceService 实例
// notifier 为 nil 时不发送通知；m 为 nil 时不记录指标
func NewAttendanceService(
	cfg *config.AttendanceConfig,
	repo *repository.Repository,
	notifier NotificationService,
	m *metrics.Metrics,
	logger *zap.Logger,
) AttendanceService {
	window := cfg.VisibilityWindow
	if window <= 0 {
		window = defaultVisibilityWindow
	}
	notifyTimeout := cfg.NotifyTimeout
	if notifyTimeout <= 0 {
		notifyTimeout = defaultNotifyTimeout
	}
	return &attendanceService{
		repo:          repo,
		notifier:      notifier,
		metrics:       m,
		logger:        logger,
		window:        window,
		notifyTimeout: notifyTimeout,
		loc:           cfg.Location(),
		now:           time.Now,
	}
}

// ────────────────────── Register ──────────────────────

func (s *attendanceService) Register(ctx context.Context, req *dto.CreateAttendanceRequest) (*model.Attendance, error) {
	registration, err := requireText("registration", req.Registration)
	if err != nil {
		return nil, err
	}
	name, err := requireText("name", req.Name)
	if err != nil {
		return nil, err
	}
	position, err := requireText("position", req.Position)
	if err != nil {
		return nil, err
	}
	sector, err := requireSector(req.Sector)
	if err != nil {
		return nil, err
	}
	reason, err := requireText("reason", req.Reason)
	if err != nil {
		return nil, err
	}

	record := &model.Attendance{
		AttendanceID: uuid.New().String(),
		Registration: registration,
		Name:         name,
		Position:     position,
		Sector:       sector,
		Reason:       reason,
		CreatedAt:    s.now(),
	}

	if err := s.repo.Attendance.Create(ctx, record); err != nil {
		return nil, s.storeErr("登记接待记录", err)
	}

	s.metrics.IncRegistered(string(sector))
	s.logger.Info("接待记录已登记",
		zap.String("id", record.AttendanceID),
		zap.String("sector", string(sector)),
	)

	s.dispatchNotification(ctx, record)

	return record, nil
}

// dispatchNotification 后台发送部门通知，使用独立超时，不受请求取消影响
func (s *attendanceService) dispatchNotification(ctx context.Context, record *model.Attendance) {
	if s.notifier == nil {
		return
	}

	sector := record.Sector
	text := BuildNotificationMessage(record)
	id := record.AttendanceID

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("部门通知发送异常", zap.String("id", id), zap.Any("panic", r))
			}
		}()

		notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
		defer cancel()

		if !s.notifier.NotifySector(notifyCtx, sector, text) {
			s.logger.Warn("部门通知未送达",
				zap.String("id", id),
				zap.String("sector", string(sector)),
			)
		}
	}()
}

// ────────────────────── Update ──────────────────────

func (s *attendanceService) Update(ctx context.Context, id string, req *dto.UpdateAttendanceRequest) (*model.Attendance, error) {
	fields, err := toAttendanceFields(req)
	if err != nil {
		return nil, err
	}

	if fields.Empty() {
		return s.Get(ctx, id)
	}

	updated, err := s.repo.Attendance.Update(ctx, id, fields)
	if err != nil {
		return nil, s.storeErr("更新接待记录", err)
	}
	return updated, nil
}

// toAttendanceFields 校验并转换部分更新字段；任一字段非法时整体拒绝
func toAttendanceFields(req *dto.UpdateAttendanceRequest) (*model.AttendanceFields, error) {
	fields := &model.AttendanceFields{}

	optional := []struct {
		field string
		in    *string
		out   **string
	}{
		{"registration", req.Registration, &fields.Registration},
		{"name", req.Name, &fields.Name},
		{"position", req.Position, &fields.Position},
		{"reason", req.Reason, &fields.Reason},
	}
	for _, o := range optional {
		if o.in == nil {
			continue
		}
		v, err := requireText(o.field, *o.in)
		if err != nil {
			return nil, err
		}
		*o.out = &v
	}

	if req.Sector != nil {
		sector, err := requireSector(*req.Sector)
		if err != nil {
			return nil, err
		}
		fields.Sector = &sector
	}

	return fields, nil
}

// ────────────────────── MarkAttended ──────────────────────

func (s *attendanceService) MarkAttended(ctx context.Context, id string) (*model.Attendance, error) {
	attendedAt := s.now()
	hideAfter := attendedAt.Add(s.window)

	updated, err := s.repo.Attendance.MarkAttended(ctx, id, attendedAt, hideAfter)
	if err != nil {
		return nil, s.storeErr("标记接待完成", err)
	}

	s.metrics.IncAttended()
	s.logger.Info("接待记录已完成",
		zap.String("id", id),
		zap.Time("hide_after", hideAfter),
	)
	return updated, nil
}

// ────────────────────── Remove / Get ──────────────────────

func (s *attendanceService) Remove(ctx context.Context, id string) error {
	removed, err := s.repo.Attendance.Delete(ctx, id)
	if err != nil {
		return s.storeErr("删除接待记录", err)
	}
	if !removed {
		return ErrAttendanceNotFound
	}

	s.metrics.IncRemoved()
	s.logger.Info("接待记录已删除", zap.String("id", id))
	return nil
}

func (s *attendanceService) Get(ctx context.Context, id string) (*model.Attendance, error) {
	record, err := s.repo.Attendance.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeErr("查询接待记录", err)
	}
	return record, nil
}

// ────────────────────── Query ──────────────────────

func (s *attendanceService) Query(ctx context.Context, q *dto.AttendanceQuery) ([]model.Attendance, error) {
	filter, err := ParseAttendanceQuery(q, s.loc)
	if err != nil {
		return nil, err
	}
	return s.query(ctx, filter)
}

// query 存储层可能只做了粗筛，这里统一按过滤条件与排序规则再处理一次
func (s *attendanceService) query(ctx context.Context, filter *model.AttendanceFilter) ([]model.Attendance, error) {
	records, err := s.repo.Attendance.List(ctx, filter)
	if err != nil {
		return nil, s.storeErr("查询接待记录", err)
	}
	return filter.Apply(records), nil
}

func (s *attendanceService) QueryVisible(ctx context.Context, q *dto.AttendanceQuery) ([]model.Attendance, error) {
	filter, err := ParseAttendanceQuery(q, s.loc)
	if err != nil {
		return nil, err
	}

	records, err := s.query(ctx, filter)
	if err != nil {
		return nil, err
	}

	now := s.now()
	visible := make([]model.Attendance, 0, len(records))
	for i := range records {
		if records[i].VisibleAt(now) {
			visible = append(visible, records[i])
		}
	}
	return visible, nil
}

// ────────────────────── Stats ──────────────────────

func (s *attendanceService) Stats(ctx context.Context) (*model.AttendanceStats, error) {
	waiting, attended, err := s.repo.Attendance.CountByStatus(ctx)
	if err != nil {
		return nil, s.storeErr("统计接待记录", err)
	}
	return &model.AttendanceStats{
		Waiting:   waiting,
		Attended:  attended,
		Remaining: waiting,
	}, nil
}

// ────────────────────── Close ──────────────────────

func (s *attendanceService) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// storeErr 将存储层错误映射为业务错误，其余错误统一视为后端不可用
func (s *attendanceService) storeErr(op string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrAttendanceNotFound
	case errors.Is(err, pkgerrors.ErrAlreadyAttended):
		return pkgerrors.ErrAlreadyAttended
	}
	s.logger.Error(op+"失败", zap.Error(err))
	return pkgerrors.Unavailable(op, err)
}

// ── 输入校验 ──

func requireText(field, value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", pkgerrors.NewValidationError(field, "campo obrigatório")
	}
	return v, nil
}

func requireSector(raw string) (model.SectorCode, error) {
	sector, ok := model.ParseSector(raw)
	if !ok {
		return "", pkgerrors.NewValidationError("sector", fmt.Sprintf("setor inválido: %q", raw))
	}
	return sector, nil
}
