package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/gradconnect/backend/models"
	"github.com/gradconnect/backend/services/accounts"
	"github.com/gradconnect/backend/services/profiles"
	"github.com/stretchr/testify/mock"
)

// MockAccountService is a mock implementation of AccountService and AccountLister
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Register(ctx context.Context, in accounts.RegisterInput) (*accounts.RegisterResult, error) {
	args := m.Called(ctx, in)
	if r := args.Get(0); r != nil {
		return r.(*accounts.RegisterResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountService) Login(ctx context.Context, email, password string) (*accounts.LoginResult, error) {
	args := m.Called(ctx, email, password)
	if r := args.Get(0); r != nil {
		return r.(*accounts.LoginResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountService) Refresh(ctx context.Context, token string) (*accounts.RefreshResult, error) {
	args := m.Called(ctx, token)
	if r := args.Get(0); r != nil {
		return r.(*accounts.RefreshResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountService) Me(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if r := args.Get(0); r != nil {
		return r.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountService) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	args := m.Called(ctx, limit, offset)
	if r := args.Get(0); r != nil {
		return r.([]*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockProfileService is a mock implementation of ProfileService
type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) GetMine(ctx context.Context, accountID uuid.UUID) (*profiles.Profile, error) {
	args := m.Called(ctx, accountID)
	if r := args.Get(0); r != nil {
		return r.(*profiles.Profile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProfileService) UpsertAlumni(ctx context.Context, accountID uuid.UUID, upd models.AlumniProfileUpdate) (*models.AlumniProfile, error) {
	args := m.Called(ctx, accountID, upd)
	if r := args.Get(0); r != nil {
		return r.(*models.AlumniProfile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProfileService) UpsertStudent(ctx context.Context, accountID uuid.UUID, upd models.StudentProfileUpdate) (*models.StudentProfile, error) {
	args := m.Called(ctx, accountID, upd)
	if r := args.Get(0); r != nil {
		return r.(*models.StudentProfile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProfileService) ListAlumni(ctx context.Context) ([]*models.AlumniProfile, error) {
	args := m.Called(ctx)
	if r := args.Get(0); r != nil {
		return r.([]*models.AlumniProfile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProfileService) ListStudents(ctx context.Context) ([]*models.StudentProfile, error) {
	args := m.Called(ctx)
	if r := args.Get(0); r != nil {
		return r.([]*models.StudentProfile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProfileService) Directory(ctx context.Context) (*profiles.Directory, error) {
	args := m.Called(ctx)
	if r := args.Get(0); r != nil {
		return r.(*profiles.Directory), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProfileService) GetAlumni(ctx context.Context, viewerID, profileID uuid.UUID) (*models.AlumniProfile, error) {
	args := m.Called(ctx, viewerID, profileID)
	if r := args.Get(0); r != nil {
		return r.(*models.AlumniProfile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProfileService) GetStudent(ctx context.Context, viewerID, profileID uuid.UUID) (*models.StudentProfile, error) {
	args := m.Called(ctx, viewerID, profileID)
	if r := args.Get(0); r != nil {
		return r.(*models.StudentProfile), args.Error(1)
	}
	return nil, args.Error(1)
}

var (
	_ AccountService = (*MockAccountService)(nil)
	_ AccountLister  = (*MockAccountService)(nil)
	_ ProfileService = (*MockProfileService)(nil)
)
