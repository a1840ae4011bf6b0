package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"leave-tracker/internal/model"
	"leave-tracker/internal/repository"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: UserID
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "uid-" + user.Username
	}
	user.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) find(match func(*model.User) bool) (*model.User, error) {
	for _, u := range m.users {
		if match(u) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	return m.find(func(u *model.User) bool { return u.Username == username })
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return m.find(func(u *model.User) bool { return u.Email == email })
}

func (m *mockUserRepo) GetByVerifyToken(_ context.Context, token string) (*model.User, error) {
	return m.find(func(u *model.User) bool { return u.VerifyToken != nil && *u.VerifyToken == token })
}

func (m *mockUserRepo) GetByResetToken(_ context.Context, token string) (*model.User, error) {
	return m.find(func(u *model.User) bool { return u.ResetToken != nil && *u.ResetToken == token })
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) List(_ context.Context, offset, limit int) ([]model.User, int64, error) {
	var all []model.User
	for _, u := range m.users {
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Username < all[j].Username })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

// ── Mock LeaveRepository ──

type mockLeaveRepo struct {
	leaves    []*model.Leave
	nextID    uint
	createErr error
}

func newMockLeaveRepo() *mockLeaveRepo {
	return &mockLeaveRepo{nextID: 1}
}

func (m *mockLeaveRepo) Create(_ context.Context, leave *model.Leave) error {
	if m.createErr != nil {
		return m.createErr
	}
	if leave.StartDate.After(leave.EndDate) {
		return errors.New("violates check constraint ck_leave_date_range")
	}
	leave.ID = m.nextID
	m.nextID++
	leave.Timestamp = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	m.leaves = append(m.leaves, leave)
	return nil
}

func (m *mockLeaveRepo) List(_ context.Context) ([]model.Leave, error) {
	result := make([]model.Leave, 0, len(m.leaves))
	for _, l := range m.leaves {
		result = append(result, *l)
	}
	return result, nil
}

func (m *mockLeaveRepo) ListUnsynced(_ context.Context, limit int) ([]model.Leave, error) {
	var result []model.Leave
	for _, l := range m.leaves {
		if !l.SheetSynced && len(result) < limit {
			result = append(result, *l)
		}
	}
	return result, nil
}

func (m *mockLeaveRepo) byID(id uint) *model.Leave {
	for _, l := range m.leaves {
		if l.ID == id {
			return l
		}
	}
	return nil
}

func (m *mockLeaveRepo) MarkSheetSynced(_ context.Context, id uint) error {
	if l := m.byID(id); l != nil {
		l.SheetSynced = true
	}
	return nil
}

func (m *mockLeaveRepo) MarkNotified(_ context.Context, id uint) error {
	if l := m.byID(id); l != nil {
		l.Notified = true
	}
	return nil
}

// ── Mock LeaveSheetRepository ──

type mockLeaveSheetRepo struct {
	records   []model.LeaveRecord
	appended  []*repository.SheetLeave
	appendErr error
	listErr   error
}

func (m *mockLeaveSheetRepo) Append(_ context.Context, leave *repository.SheetLeave) (model.LeaveRecord, error) {
	if m.appendErr != nil {
		return nil, m.appendErr
	}
	m.appended = append(m.appended, leave)
	rec := model.LeaveRecord{
		model.ColTimestamp: leave.Timestamp,
		model.ColName:      leave.Name,
		model.ColLeaveType: leave.LeaveType,
		model.ColStartDate: leave.StartDate,
		model.ColEndDate:   leave.EndDate,
		model.ColNote:      leave.Note,
		model.ColCode:      leave.Code,
	}
	m.records = append(m.records, rec)
	return rec, nil
}

func (m *mockLeaveSheetRepo) ListAll(_ context.Context) ([]model.LeaveRecord, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.records, nil
}

func (m *mockLeaveSheetRepo) ListByMonth(_ context.Context, month string) ([]model.LeaveRecord, error) {
	var result []model.LeaveRecord
	for _, r := range m.records {
		if strings.HasPrefix(r[model.ColStartDate], month) || strings.HasPrefix(r[model.ColEndDate], month) {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *mockLeaveSheetRepo) Delete(_ context.Context, timestamp, code string) (bool, error) {
	for i, r := range m.records {
		if r[model.ColTimestamp] == timestamp && (code == "" || r[model.ColCode] == "" || r[model.ColCode] == code) {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// ── Mock VisitRepository ──

type mockVisitRepo struct {
	rows  [][]string
	since string
}

func (m *mockVisitRepo) ListSince(_ context.Context, since string) ([][]string, error) {
	m.since = since
	return m.rows, nil
}

// ── 外部组件 ──

type mockNotifier struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (m *mockNotifier) Notify(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, text)
	return m.err
}

type mockBlacklist struct {
	jtis map[string]time.Duration
}

func (m *mockBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	if m.jtis == nil {
		m.jtis = make(map[string]time.Duration)
	}
	m.jtis[jti] = ttl
	return nil
}

type sentMail struct {
	to, subject, body string
}

type mockMailer struct {
	sent []sentMail
	err  error
}

func (m *mockMailer) Send(_ context.Context, to, subject, body string) error {
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return m.err
}
