package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AryanManu544/Presenze/config"
	"github.com/AryanManu544/Presenze/internal/model"
	"github.com/AryanManu544/Presenze/internal/repository"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.UserID == "" {
		user.UserID = uuid.NewString()
	}
	user.CreatedAt = time.Now()
	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock AttendanceRepository ──
// 并发安全：SubmitMarks 会并发调用

type mockAttendanceRepo struct {
	mu      sync.Mutex
	records map[string]*model.AttendanceRecord
	seq     map[string]int
	next    int

	// 故障注入
	createErr map[string]error // 按日期 YYYY-MM-DD
	listErr   error
	findHook  func(userID, subject string, date time.Time) ([]model.AttendanceRecord, error)
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{
		records:   make(map[string]*model.AttendanceRecord),
		seq:       make(map[string]int),
		createErr: make(map[string]error),
	}
}

func (m *mockAttendanceRepo) Create(_ context.Context, record *model.AttendanceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.createErr[record.Date.Format("2006-01-02")]; err != nil {
		return err
	}
	if record.AttendanceRecordID == "" {
		record.AttendanceRecordID = uuid.NewString()
	}
	record.Date = model.DateOnly(record.Date)
	record.CreatedAt = time.Now()
	record.UpdatedAt = record.CreatedAt
	cp := *record
	m.records[record.AttendanceRecordID] = &cp
	m.next++
	m.seq[record.AttendanceRecordID] = m.next
	return nil
}

func (m *mockAttendanceRepo) GetByID(_ context.Context, id string) (*model.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.records[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAttendanceRepo) ListByOwner(_ context.Context, userID, subject string) ([]model.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var result []model.AttendanceRecord
	for _, r := range m.sortedLocked() {
		if r.UserID != userID {
			continue
		}
		if subject != "" && r.Subject != subject {
			continue
		}
		result = append(result, r)
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (m *mockAttendanceRepo) FindByKey(_ context.Context, userID, subject string, date time.Time) ([]model.AttendanceRecord, error) {
	if m.findHook != nil {
		if recs, err := m.findHook(userID, subject, date); err != nil || recs != nil {
			return recs, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.AttendanceRecord
	for _, r := range m.sortedLocked() {
		if r.UserID == userID && r.Subject == subject && r.Date.Equal(model.DateOnly(date)) {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *mockAttendanceRepo) Update(_ context.Context, record *model.AttendanceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[record.AttendanceRecordID]; !ok {
		return gorm.ErrRecordNotFound
	}
	record.Date = model.DateOnly(record.Date)
	record.UpdatedAt = time.Now()
	cp := *record
	m.records[record.AttendanceRecordID] = &cp
	return nil
}

func (m *mockAttendanceRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.records, id)
	return nil
}

func (m *mockAttendanceRepo) DeleteByIDs(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.records, id)
	}
	return nil
}

// sortedLocked 按插入顺序返回全部记录（调用方持有锁）
func (m *mockAttendanceRepo) sortedLocked() []model.AttendanceRecord {
	out := make([]model.AttendanceRecord, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		return m.seq[out[i].AttendanceRecordID] < m.seq[out[j].AttendanceRecordID]
	})
	return out
}

func (m *mockAttendanceRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// ── Mock TimetableRepository ──

type mockTimetableRepo struct {
	mu    sync.Mutex
	slots map[string]*model.TimetableSlot
	order []string
}

func newMockTimetableRepo() *mockTimetableRepo {
	return &mockTimetableRepo{slots: make(map[string]*model.TimetableSlot)}
}

func (m *mockTimetableRepo) Create(_ context.Context, slot *model.TimetableSlot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createLocked(slot)
	return nil
}

func (m *mockTimetableRepo) createLocked(slot *model.TimetableSlot) {
	if slot.TimetableSlotID == "" {
		slot.TimetableSlotID = uuid.NewString()
	}
	cp := *slot
	m.slots[slot.TimetableSlotID] = &cp
	m.order = append(m.order, slot.TimetableSlotID)
}

func (m *mockTimetableRepo) CreateBatch(_ context.Context, slots []model.TimetableSlot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range slots {
		m.createLocked(&slots[i])
	}
	return nil
}

func (m *mockTimetableRepo) GetByID(_ context.Context, id string) (*model.TimetableSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.slots[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTimetableRepo) ListByOwner(_ context.Context, userID, subject string) ([]model.TimetableSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.TimetableSlot
	for _, id := range m.order {
		s, ok := m.slots[id]
		if !ok || s.UserID != userID {
			continue
		}
		if subject != "" && s.Subject != subject {
			continue
		}
		result = append(result, *s)
	}
	return result, nil
}

func (m *mockTimetableRepo) Update(_ context.Context, slot *model.TimetableSlot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.slots[slot.TimetableSlotID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *slot
	m.slots[slot.TimetableSlotID] = &cp
	return nil
}

func (m *mockTimetableRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.slots[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.slots, id)
	return nil
}

// ── 测试辅助 ──

type testRepos struct {
	repo       *repository.Repository
	user       *mockUserRepo
	attendance *mockAttendanceRepo
	timetable  *mockTimetableRepo
}

func newTestRepos() *testRepos {
	r := &testRepos{
		user:       newMockUserRepo(),
		attendance: newMockAttendanceRepo(),
		timetable:  newMockTimetableRepo(),
	}
	r.repo = &repository.Repository{
		User:       r.user,
		Attendance: r.attendance,
		Timetable:  r.timetable,
	}
	return r
}

func testAttendanceConfig() *config.AttendanceConfig {
	return &config.AttendanceConfig{Timezone: "UTC", MarkConcurrency: 4}
}

// fixedClock 固定在 2024-05-15 10:00 UTC（五月首日为周三）
func fixedClock() time.Time {
	return time.Date(2024, time.May, 15, 10, 0, 0, 0, time.UTC)
}

func newTestLogger() *zap.Logger { return zap.NewNop() }
