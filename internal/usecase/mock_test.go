//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-email-bot/internal/domain"
	"telegram-email-bot/internal/domain/model"
	"telegram-email-bot/internal/domain/ports/adapter"
	"telegram-email-bot/internal/domain/ports/repository"
	"telegram-email-bot/internal/infra/sendstats"
)

// -----------------------------
// Utilities: tiny helpers
// -----------------------------

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// newJournal opens a throwaway JSONL journal inside the test tempdir.
func newJournal(t *testing.T) *sendstats.Log {
	t.Helper()
	return sendstats.Open(filepath.Join(t.TempDir(), "send_stats.jsonl"))
}

func tp(ts time.Time) *time.Time { return &ts }

// =============================
// Repositories
// =============================

// ---- Mock BlocklistRepository ----

type MockBlocklistRepo struct {
	AddFunc      func(ctx context.Context, tx repository.Tx, emails []string, reason string) (int, error)
	RemoveFunc   func(ctx context.Context, tx repository.Tx, email string) error
	ContainsFunc func(ctx context.Context, tx repository.Tx, email string) (bool, error)
	ListFunc     func(ctx context.Context, tx repository.Tx, limit, offset int) ([]model.BlocklistEntry, error)
	CountFunc    func(ctx context.Context, tx repository.Tx) (int, error)
	AllFunc      func(ctx context.Context, tx repository.Tx) ([]string, error)
}

var _ repository.BlocklistRepository = (*MockBlocklistRepo)(nil)

func NewMockBlocklistRepo() *MockBlocklistRepo { return &MockBlocklistRepo{} }

func (m *MockBlocklistRepo) Add(ctx context.Context, tx repository.Tx, emails []string, reason string) (int, error) {
	if m.AddFunc != nil {
		return m.AddFunc(ctx, tx, emails, reason)
	}
	return len(emails), nil
}

func (m *MockBlocklistRepo) Remove(ctx context.Context, tx repository.Tx, email string) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, tx, email)
	}
	return nil
}

func (m *MockBlocklistRepo) Contains(ctx context.Context, tx repository.Tx, email string) (bool, error) {
	if m.ContainsFunc != nil {
		return m.ContainsFunc(ctx, tx, email)
	}
	return false, nil
}

func (m *MockBlocklistRepo) List(ctx context.Context, tx repository.Tx, limit, offset int) ([]model.BlocklistEntry, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, tx, limit, offset)
	}
	return nil, nil
}

func (m *MockBlocklistRepo) Count(ctx context.Context, tx repository.Tx) (int, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx, tx)
	}
	return 0, nil
}

func (m *MockBlocklistRepo) All(ctx context.Context, tx repository.Tx) ([]string, error) {
	if m.AllFunc != nil {
		return m.AllFunc(ctx, tx)
	}
	return nil, nil
}

// ---- Mock HistoryRepository ----

type MockHistoryRepo struct {
	mu       sync.Mutex
	Recorded []model.SendRecord // Capture every RecordSend call

	RecordSendFunc       func(ctx context.Context, tx repository.Tx, rec *model.SendRecord) error
	LastSendFunc         func(ctx context.Context, tx repository.Tx, email, groupCode string) (*time.Time, error)
	LastSendAnyGroupFunc func(ctx context.Context, tx repository.Tx, email string) (string, *time.Time, error)
	CountSinceFunc       func(ctx context.Context, tx repository.Tx, since time.Time) (map[string]model.GroupSendStats, error)
	PruneOlderThanFunc   func(ctx context.Context, tx repository.Tx, cutoff time.Time) (int64, error)
}

var _ repository.HistoryRepository = (*MockHistoryRepo)(nil)

func NewMockHistoryRepo() *MockHistoryRepo { return &MockHistoryRepo{} }

func (m *MockHistoryRepo) RecordSend(ctx context.Context, tx repository.Tx, rec *model.SendRecord) error {
	m.mu.Lock()
	m.Recorded = append(m.Recorded, *rec)
	m.mu.Unlock()
	if m.RecordSendFunc != nil {
		return m.RecordSendFunc(ctx, tx, rec)
	}
	return nil
}

func (m *MockHistoryRepo) LastSend(ctx context.Context, tx repository.Tx, email, groupCode string) (*time.Time, error) {
	if m.LastSendFunc != nil {
		return m.LastSendFunc(ctx, tx, email, groupCode)
	}
	return nil, nil
}

func (m *MockHistoryRepo) LastSendAnyGroup(ctx context.Context, tx repository.Tx, email string) (string, *time.Time, error) {
	if m.LastSendAnyGroupFunc != nil {
		return m.LastSendAnyGroupFunc(ctx, tx, email)
	}
	return "", nil, nil
}

func (m *MockHistoryRepo) CountSince(ctx context.Context, tx repository.Tx, since time.Time) (map[string]model.GroupSendStats, error) {
	if m.CountSinceFunc != nil {
		return m.CountSinceFunc(ctx, tx, since)
	}
	return map[string]model.GroupSendStats{}, nil
}

func (m *MockHistoryRepo) PruneOlderThan(ctx context.Context, tx repository.Tx, cutoff time.Time) (int64, error) {
	if m.PruneOlderThanFunc != nil {
		return m.PruneOlderThanFunc(ctx, tx, cutoff)
	}
	return 0, nil
}

// ---- Mock GroupRepository ----

type MockGroupRepo struct {
	mu     sync.RWMutex
	groups map[string]*model.Group

	SaveFunc       func(ctx context.Context, tx repository.Tx, g *model.Group) error
	FindByCodeFunc func(ctx context.Context, tx repository.Tx, code string) (*model.Group, error)
	ListFunc       func(ctx context.Context, tx repository.Tx) ([]*model.Group, error)
	DeleteFunc     func(ctx context.Context, tx repository.Tx, code string) error
}

var _ repository.GroupRepository = (*MockGroupRepo)(nil)

func NewMockGroupRepo() *MockGroupRepo {
	return &MockGroupRepo{groups: make(map[string]*model.Group)}
}

func (m *MockGroupRepo) Save(ctx context.Context, tx repository.Tx, g *model.Group) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, g)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *g
	m.groups[g.Code] = &cp
	return nil
}

func (m *MockGroupRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.Group, error) {
	if m.FindByCodeFunc != nil {
		return m.FindByCodeFunc(ctx, tx, code)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.groups[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (m *MockGroupRepo) List(ctx context.Context, tx repository.Tx) ([]*model.Group, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, tx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Group, 0, len(m.groups))
	for _, g := range m.groups {
		cp := *g
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockGroupRepo) Delete(ctx context.Context, tx repository.Tx, code string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, tx, code)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.groups[code]; !ok {
		return domain.ErrNotFound
	}
	delete(m.groups, code)
	return nil
}

// ---- Mock TemplateRepository ----

type MockTemplateRepo struct {
	mu        sync.RWMutex
	templates map[string]*model.Template

	SaveFunc        func(ctx context.Context, tx repository.Tx, t *model.Template) error
	FindByGroupFunc func(ctx context.Context, tx repository.Tx, groupCode string) (*model.Template, error)
}

var _ repository.TemplateRepository = (*MockTemplateRepo)(nil)

func NewMockTemplateRepo() *MockTemplateRepo {
	return &MockTemplateRepo{templates: make(map[string]*model.Template)}
}

func (m *MockTemplateRepo) Save(ctx context.Context, tx repository.Tx, t *model.Template) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.templates[t.GroupCode] = &cp
	return nil
}

func (m *MockTemplateRepo) FindByGroup(ctx context.Context, tx repository.Tx, groupCode string) (*model.Template, error) {
	if m.FindByGroupFunc != nil {
		return m.FindByGroupFunc(ctx, tx, groupCode)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.templates[groupCode]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

// ---- Mock CampaignRepository ----

type MockCampaignRepo struct {
	mu        sync.RWMutex
	campaigns map[string]*model.Campaign
	SaveCalls int

	SaveFunc              func(ctx context.Context, tx repository.Tx, c *model.Campaign) error
	FindByIDFunc          func(ctx context.Context, tx repository.Tx, id string) (*model.Campaign, error)
	FindRunningByChatFunc func(ctx context.Context, tx repository.Tx, chatID int64) (*model.Campaign, error)
}

var _ repository.CampaignRepository = (*MockCampaignRepo)(nil)

func NewMockCampaignRepo() *MockCampaignRepo {
	return &MockCampaignRepo{campaigns: make(map[string]*model.Campaign)}
}

func (m *MockCampaignRepo) Save(ctx context.Context, tx repository.Tx, c *model.Campaign) error {
	m.mu.Lock()
	m.SaveCalls++
	m.mu.Unlock()
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, c)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.campaigns[c.ID] = &cp
	return nil
}

func (m *MockCampaignRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Campaign, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MockCampaignRepo) FindRunningByChat(ctx context.Context, tx repository.Tx, chatID int64) (*model.Campaign, error) {
	if m.FindRunningByChatFunc != nil {
		return m.FindRunningByChatFunc(ctx, tx, chatID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.campaigns {
		if c.ChatID == chatID && c.State == model.CampaignRunning {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ---- Mock CancelRegistry ----

type MockCancelRegistry struct {
	mu    sync.Mutex
	flags map[int64]bool

	// CancelAfter trips the flag automatically once IsCancelled has been
	// asked that many times; 0 disables the behavior.
	CancelAfter int
	asked       int
}

var _ repository.CancelRegistry = (*MockCancelRegistry)(nil)

func NewMockCancelRegistry() *MockCancelRegistry {
	return &MockCancelRegistry{flags: make(map[int64]bool)}
}

func (m *MockCancelRegistry) RequestCancel(ctx context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flags[chatID] = true
	return nil
}

func (m *MockCancelRegistry) IsCancelled(ctx context.Context, chatID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.asked++
	if m.CancelAfter > 0 && m.asked > m.CancelAfter {
		return true, nil
	}
	return m.flags[chatID], nil
}

func (m *MockCancelRegistry) Reset(ctx context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.flags, chatID)
	return nil
}

// =============================
// Adapters
// =============================

// ---- Mock Mailer ----

type MockMailer struct {
	mu   sync.Mutex
	Sent []adapter.OutgoingMail // Capture every outgoing message

	SendFunc func(ctx context.Context, mail *adapter.OutgoingMail) (*adapter.SendResult, error)
}

var _ adapter.Mailer = (*MockMailer)(nil)

func NewMockMailer() *MockMailer { return &MockMailer{} }

func (m *MockMailer) Send(ctx context.Context, mail *adapter.OutgoingMail) (*adapter.SendResult, error) {
	m.mu.Lock()
	m.Sent = append(m.Sent, *mail)
	m.mu.Unlock()
	if m.SendFunc != nil {
		return m.SendFunc(ctx, mail)
	}
	return &adapter.SendResult{MessageID: "<test@localhost>", SMTPCode: 250}, nil
}

func (m *MockMailer) Close() error { return nil }

// ---- Mock TransactionManager ----

// MockTxManager runs the callback outside any real transaction, passing a
// nil Tx so the repositories fall back to their default executor.
type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, nil)
}
