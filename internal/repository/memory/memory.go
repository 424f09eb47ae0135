// Package memory 提供进程内存储实现，供 storage.driver=memory 与单元测试使用。
// 与 GORM 实现保持相同约定：记录不存在时返回 gorm.ErrRecordNotFound。
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"atende-agora/backend/internal/model"
	"atende-agora/backend/internal/repository"
	pkgerrors "atende-agora/backend/pkg/errors"
)

// Store 所有表共用一把读写锁，单条操作天然原子
type Store struct {
	mu          sync.RWMutex
	attendances map[string]model.Attendance
	phones      map[string]model.SectorPhone
	users       map[string]model.User
	employees   map[string]model.Employee
	sectors     []model.Sector
}

// NewStore 创建空存储，部门字典按固定顺序预置
func NewStore() *Store {
	s := &Store{
		attendances: make(map[string]model.Attendance),
		phones:      make(map[string]model.SectorPhone),
		users:       make(map[string]model.User),
		employees:   make(map[string]model.Employee),
	}
	names := map[model.SectorCode]string{
		model.SectorRH:           "Recursos Humanos",
		model.SectorDisciplina:   "Disciplina",
		model.SectorDP:           "Departamento Pessoal",
		model.SectorPlanejamento: "Planejamento",
	}
	for i, code := range model.AllSectors() {
		s.sectors = append(s.sectors, model.Sector{SectorID: i + 1, Code: code, Name: names[code]})
	}
	return s
}

// NewRepository 创建基于内存的 Repository 聚合
func NewRepository() *repository.Repository {
	return NewStore().Repository()
}

// Repository 以当前存储构造 Repository 聚合
func (s *Store) Repository() *repository.Repository {
	return &repository.Repository{
		Attendance:  &attendanceStore{s},
		Sector:      &sectorStore{s},
		SectorPhone: &phoneStore{s},
		User:        &userStore{s},
		Employee:    &employeeStore{s},
	}
}

func (s *Store) sectorID(code model.SectorCode) (int, bool) {
	for _, sec := range s.sectors {
		if sec.Code == code {
			return sec.SectorID, true
		}
	}
	return 0, false
}

// ── 接待记录 ──

type attendanceStore struct{ s *Store }

func (r *attendanceStore) Create(_ context.Context, a *model.Attendance) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id, ok := r.s.sectorID(a.Sector)
	if !ok {
		return repository.ErrSectorNotSeeded
	}
	if _, exists := r.s.attendances[a.AttendanceID]; exists {
		return gorm.ErrDuplicatedKey
	}
	a.SectorID = id
	r.s.attendances[a.AttendanceID] = cloneAttendance(*a)
	return nil
}

func (r *attendanceStore) GetByID(_ context.Context, id string) (*model.Attendance, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.attendances[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := cloneAttendance(a)
	return &out, nil
}

func (r *attendanceStore) Update(_ context.Context, id string, fields *model.AttendanceFields) (*model.Attendance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.attendances[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if fields.Sector != nil {
		sid, ok := r.s.sectorID(*fields.Sector)
		if !ok {
			return nil, repository.ErrSectorNotSeeded
		}
		a.SectorID = sid
	}
	fields.ApplyTo(&a)
	r.s.attendances[id] = a
	out := cloneAttendance(a)
	return &out, nil
}

func (r *attendanceStore) MarkAttended(_ context.Context, id string, attendedAt, hideAfter time.Time) (*model.Attendance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.attendances[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if a.Attended {
		return nil, pkgerrors.ErrAlreadyAttended
	}
	a.Attended = true
	a.AttendedAt = &attendedAt
	a.HideAfter = &hideAfter
	r.s.attendances[id] = a
	out := cloneAttendance(a)
	return &out, nil
}

func (r *attendanceStore) Delete(_ context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.attendances[id]; !ok {
		return false, nil
	}
	delete(r.s.attendances, id)
	return true, nil
}

func (r *attendanceStore) List(_ context.Context, filter *model.AttendanceFilter) ([]model.Attendance, error) {
	r.s.mu.RLock()
	all := make([]model.Attendance, 0, len(r.s.attendances))
	for _, a := range r.s.attendances {
		all = append(all, cloneAttendance(a))
	}
	r.s.mu.RUnlock()

	return filter.Apply(all), nil
}

func (r *attendanceStore) CountByStatus(_ context.Context) (int64, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var waiting, attended int64
	for _, a := range r.s.attendances {
		if a.Attended {
			attended++
		} else {
			waiting++
		}
	}
	return waiting, attended, nil
}

func cloneAttendance(a model.Attendance) model.Attendance {
	if a.AttendedAt != nil {
		t := *a.AttendedAt
		a.AttendedAt = &t
	}
	if a.HideAfter != nil {
		t := *a.HideAfter
		a.HideAfter = &t
	}
	a.SectorRef = nil
	return a
}

// ── 部门 ──

type sectorStore struct{ s *Store }

func (r *sectorStore) List(_ context.Context) ([]model.Sector, error) {
	out := make([]model.Sector, len(r.s.sectors))
	copy(out, r.s.sectors)
	return out, nil
}

func (r *sectorStore) GetByCode(_ context.Context, code model.SectorCode) (*model.Sector, error) {
	for _, sec := range r.s.sectors {
		if sec.Code == code {
			out := sec
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── 部门通知号码 ──

type phoneStore struct{ s *Store }

func (r *phoneStore) ListBySector(_ context.Context, code model.SectorCode) ([]model.SectorPhone, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]model.SectorPhone, 0)
	for _, p := range r.s.phones {
		if p.Sector == code {
			out = append(out, p)
		}
	}
	sortPhones(out)
	return out, nil
}

func (r *phoneStore) ListAll(_ context.Context) ([]model.SectorPhone, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]model.SectorPhone, 0, len(r.s.phones))
	for _, p := range r.s.phones {
		out = append(out, p)
	}
	sortPhones(out)
	return out, nil
}

func (r *phoneStore) GetByID(_ context.Context, id string) (*model.SectorPhone, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.phones[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r *phoneStore) Create(_ context.Context, phone *model.SectorPhone) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sid, ok := r.s.sectorID(phone.Sector)
	if !ok {
		return repository.ErrSectorNotSeeded
	}
	now := time.Now()
	phone.SectorID = sid
	if phone.CreatedAt.IsZero() {
		phone.CreatedAt = now
	}
	phone.UpdatedAt = now
	r.s.phones[phone.PhoneID] = *phone
	return nil
}

func (r *phoneStore) UpdateNumber(_ context.Context, id, number string, updatedBy *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.phones[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.PhoneNumber = number
	p.UpdatedBy = updatedBy
	p.UpdatedAt = time.Now()
	r.s.phones[id] = p
	return nil
}

func (r *phoneStore) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.phones[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.s.phones, id)
	return nil
}

func (r *phoneStore) ExistsNumber(_ context.Context, code model.SectorCode, number, excludeID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for id, p := range r.s.phones {
		if id != excludeID && p.Sector == code && p.PhoneNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func sortPhones(phones []model.SectorPhone) {
	sort.SliceStable(phones, func(i, j int) bool {
		if phones[i].SectorID != phones[j].SectorID {
			return phones[i].SectorID < phones[j].SectorID
		}
		if !phones[i].CreatedAt.Equal(phones[j].CreatedAt) {
			return phones[i].CreatedAt.Before(phones[j].CreatedAt)
		}
		return phones[i].PhoneID < phones[j].PhoneID
	})
}

// ── 用户 ──

type userStore struct{ s *Store }

func (r *userStore) Create(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Username, user.Username) {
			return gorm.ErrDuplicatedKey
		}
	}
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	r.s.users[user.UserID] = *user
	return nil
}

func (r *userStore) GetByID(_ context.Context, id string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (r *userStore) GetByUsername(_ context.Context, username string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Username == username {
			out := u
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *userStore) Update(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	old, ok := r.s.users[user.UserID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.CreatedAt = old.CreatedAt
	user.CreatedBy = old.CreatedBy
	user.UpdatedAt = time.Now()
	r.s.users[user.UserID] = *user
	return nil
}

func (r *userStore) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.s.users, id)
	return nil
}

func (r *userStore) List(_ context.Context, offset, limit int) ([]model.User, int64, error) {
	r.s.mu.RLock()
	all := make([]model.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		all = append(all, u)
	}
	r.s.mu.RUnlock()

	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].UserID < all[j].UserID
	})

	total := int64(len(all))
	if offset >= len(all) {
		return []model.User{}, total, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], total, nil
}

func (r *userStore) CountByRole(_ context.Context, role string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for _, u := range r.s.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

// ── 员工目录 ──

type employeeStore struct{ s *Store }

func (r *employeeStore) GetByRegistration(_ context.Context, registration string) (*model.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	e, ok := r.s.employees[registration]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &e, nil
}

func (r *employeeStore) Upsert(_ context.Context, employees []model.Employee) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	for _, e := range employees {
		if old, ok := r.s.employees[e.Registration]; ok {
			e.CreatedAt = old.CreatedAt
			e.CreatedBy = old.CreatedBy
		} else if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		e.UpdatedAt = now
		r.s.employees[e.Registration] = e
	}
	return int64(len(employees)), nil
}

func (r *employeeStore) Count(_ context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.employees)), nil
}
