// Package mocks provides testify mocks of the repository interfaces for
// service, middleware and handler tests.
package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gradconnect/backend/models"
	"github.com/gradconnect/backend/repositories"
	"github.com/stretchr/testify/mock"
)

// UserRepository is a mock implementation of repositories.UserRepository
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	args := m.Called(ctx, limit, offset)
	if u := args.Get(0); u != nil {
		return u.([]*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// AlumniProfileRepository is a mock implementation of repositories.AlumniProfileRepository
type AlumniProfileRepository struct {
	mock.Mock
}

func (m *AlumniProfileRepository) Create(ctx context.Context, p *models.AlumniProfile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *AlumniProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AlumniProfile, error) {
	args := m.Called(ctx, id)
	if p := args.Get(0); p != nil {
		return p.(*models.AlumniProfile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AlumniProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.AlumniProfile, error) {
	args := m.Called(ctx, userID)
	if p := args.Get(0); p != nil {
		return p.(*models.AlumniProfile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AlumniProfileRepository) GetByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*models.AlumniProfile, error) {
	args := m.Called(ctx, userID)
	if p := args.Get(0); p != nil {
		return p.(*models.AlumniProfile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AlumniProfileRepository) ListPublic(ctx context.Context) ([]*models.AlumniProfile, error) {
	args := m.Called(ctx)
	if p := args.Get(0); p != nil {
		return p.([]*models.AlumniProfile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AlumniProfileRepository) Update(ctx context.Context, p *models.AlumniProfile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// StudentProfileRepository is a mock implementation of repositories.StudentProfileRepository
type StudentProfileRepository struct {
	mock.Mock
}

func (m *StudentProfileRepository) Create(ctx context.Context, p *models.StudentProfile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *StudentProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.StudentProfile, error) {
	args := m.Called(ctx, id)
	if p := args.Get(0); p != nil {
		return p.(*models.StudentProfile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StudentProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.StudentProfile, error) {
	args := m.Called(ctx, userID)
	if p := args.Get(0); p != nil {
		return p.(*models.StudentProfile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StudentProfileRepository) GetByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*models.StudentProfile, error) {
	args := m.Called(ctx, userID)
	if p := args.Get(0); p != nil {
		return p.(*models.StudentProfile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StudentProfileRepository) ListPublic(ctx context.Context) ([]*models.StudentProfile, error) {
	args := m.Called(ctx)
	if p := args.Get(0); p != nil {
		return p.([]*models.StudentProfile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StudentProfileRepository) Update(ctx context.Context, p *models.StudentProfile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// TxManager runs transactional callbacks inline and counts their outcome
type TxManager struct {
	mu        sync.Mutex
	BeginErr  error
	Commits   int
	Rollbacks int
}

func (m *TxManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	if m.BeginErr != nil {
		return nil, m.BeginErr
	}
	return &tx{ctx: ctx, mgr: m}, nil
}

func (m *TxManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	t, err := m.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(ctx, t); err != nil {
		_ = t.Rollback()
		return err
	}
	return t.Commit()
}

type tx struct {
	ctx context.Context
	mgr *TxManager
}

func (t *tx) Commit() error {
	t.mgr.mu.Lock()
	defer t.mgr.mu.Unlock()
	t.mgr.Commits++
	return nil
}

func (t *tx) Rollback() error {
	t.mgr.mu.Lock()
	defer t.mgr.mu.Unlock()
	t.mgr.Rollbacks++
	return nil
}

func (t *tx) Context() context.Context {
	return t.ctx
}

// Recorder collects audit entries synchronously
type Recorder struct {
	mu      sync.Mutex
	entries []*models.AuditLog
}

func (r *Recorder) Record(_ context.Context, log *models.AuditLog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, log)
}

// Actions returns the recorded actions in order
func (r *Recorder) Actions() []models.AuditAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.AuditAction, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

// Entries returns the recorded entries
func (r *Recorder) Entries() []*models.AuditLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.AuditLog(nil), r.entries...)
}

var (
	_ repositories.UserRepository           = (*UserRepository)(nil)
	_ repositories.AlumniProfileRepository  = (*AlumniProfileRepository)(nil)
	_ repositories.StudentProfileRepository = (*StudentProfileRepository)(nil)
	_ repositories.TransactionManager       = (*TxManager)(nil)
)
