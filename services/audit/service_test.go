package audit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gradconnect/backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// MockAuditRepository is a mock implementation of AuditRepository
type MockAuditRepository struct {
	mock.Mock
	mu           sync.Mutex
	insertedLogs []*models.AuditLog
}

func (m *MockAuditRepository) Insert(ctx context.Context, log *models.AuditLog) error {
	args := m.Called(ctx, log)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertedLogs = append(m.insertedLogs, log)
	return args.Error(0)
}

func (m *MockAuditRepository) GetInsertedLogs() []*models.AuditLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.AuditLog, len(m.insertedLogs))
	copy(out, m.insertedLogs)
	return out
}

func startService(t *testing.T, repo *MockAuditRepository, config Config) *AuditService {
	t.Helper()
	service := NewAuditService(repo, zaptest.NewLogger(t), config)
	require.NoError(t, service.Start())
	return service
}

func TestAuditService_StartStop(t *testing.T) {
	mockRepo := new(MockAuditRepository)
	service := NewAuditService(mockRepo, zaptest.NewLogger(t), Config{BufferSize: 10, WorkerCount: 2})

	require.NoError(t, service.Start())

	stats := service.GetStats()
	assert.True(t, stats.Started)
	assert.Equal(t, 2, stats.WorkerCount)
	assert.Equal(t, 10, stats.BufferSize)

	assert.Error(t, service.Start())

	require.NoError(t, service.Stop(5*time.Second))
	assert.False(t, service.GetStats().Started)
	assert.Error(t, service.Stop(time.Second))
}

func TestAuditService_DefaultsForZeroConfig(t *testing.T) {
	service := NewAuditService(new(MockAuditRepository), zaptest.NewLogger(t), Config{})
	stats := service.GetStats()
	assert.Equal(t, DefaultConfig().BufferSize, stats.BufferSize)
	assert.Equal(t, DefaultConfig().WorkerCount, stats.WorkerCount)
}

func TestAuditService_LogEventBeforeStart(t *testing.T) {
	service := NewAuditService(new(MockAuditRepository), zaptest.NewLogger(t), DefaultConfig())
	err := service.LogEvent(&AuditEvent{Log: TokenRefreshed(uuid.New())})
	assert.Error(t, err)
}

func TestAuditService_StopDrainsQueue(t *testing.T) {
	mockRepo := new(MockAuditRepository)
	mockRepo.On("Insert", mock.Anything, mock.Anything).Return(nil)
	service := startService(t, mockRepo, Config{BufferSize: 100, WorkerCount: 3})

	eventCount := 50
	for i := 0; i < eventCount; i++ {
		require.NoError(t, service.LogEvent(&AuditEvent{Log: TokenRefreshed(uuid.New())}))
	}

	require.NoError(t, service.Stop(5*time.Second))
	assert.Len(t, mockRepo.GetInsertedLogs(), eventCount)
}

func TestAuditService_ConcurrentLogging(t *testing.T) {
	mockRepo := new(MockAuditRepository)
	mockRepo.On("Insert", mock.Anything, mock.Anything).Return(nil)
	service := startService(t, mockRepo, Config{BufferSize: 1000, WorkerCount: 5})

	goroutineCount := 10
	eventsPerGoroutine := 10
	var wg sync.WaitGroup

	for i := 0; i < goroutineCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < eventsPerGoroutine; j++ {
				_ = service.LogEvent(&AuditEvent{Log: LoginFailed(nil, "unknown_email")})
			}
		}()
	}

	wg.Wait()
	require.NoError(t, service.Stop(5*time.Second))

	assert.Len(t, mockRepo.GetInsertedLogs(), goroutineCount*eventsPerGoroutine)
}

func TestAuditService_BufferFull(t *testing.T) {
	mockRepo := new(MockAuditRepository)
	release := make(chan struct{})
	mockRepo.On("Insert", mock.Anything, mock.Anything).Return(nil).Run(func(mock.Arguments) {
		<-release
	})
	service := startService(t, mockRepo, Config{BufferSize: 5, WorkerCount: 1})

	successCount := 0
	for i := 0; i < 20; i++ {
		if err := service.LogEvent(&AuditEvent{Log: TokenRefreshed(uuid.New())}); err == nil {
			successCount++
		}
	}

	assert.Less(t, successCount, 20)
	assert.Positive(t, service.GetStats().Dropped)

	close(release)
	require.NoError(t, service.Stop(5*time.Second))
}

func TestAuditService_RecordAttachesRequestMetadata(t *testing.T) {
	mockRepo := new(MockAuditRepository)
	mockRepo.On("Insert", mock.Anything, mock.Anything).Return(nil)
	service := startService(t, mockRepo, DefaultConfig())

	ctx := WithMetadata(context.Background(), Metadata{
		RequestID: "req-1",
		IPAddress: "203.0.113.9",
		UserAgent: "curl/8.0",
	})
	user := models.NewUser("ada@example.com", "hash", models.RoleAlumni)
	service.Record(ctx, LoginSucceeded(user))
	require.NoError(t, service.Stop(5*time.Second))

	logs := mockRepo.GetInsertedLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, models.AuditActionLoginSucceeded, logs[0].Action)
	assert.Equal(t, "req-1", logs[0].RequestID)
	assert.Equal(t, "203.0.113.9", logs[0].IPAddress)
	assert.Equal(t, "curl/8.0", logs[0].UserAgent)
}

func TestEntryConstructors(t *testing.T) {
	user := models.NewUser("ada@example.com", "hash", models.RoleStudent)

	t.Run("account registered", func(t *testing.T) {
		log := AccountRegistered(user)
		assert.Equal(t, models.AuditActionAccountRegistered, log.Action)
		assert.Equal(t, user.ID, *log.ResourceID)
		assert.JSONEq(t, `{"role":"student"}`, string(log.Details))
	})

	t.Run("login failed without account", func(t *testing.T) {
		log := LoginFailed(nil, "unknown_email")
		assert.Nil(t, log.UserID)
		assert.NotContains(t, string(log.Details), "@")
	})

	t.Run("oauth login", func(t *testing.T) {
		log := OAuthLogin(user, "linkedin", true)
		assert.JSONEq(t, `{"provider":"linkedin","created":true,"role":"student"}`, string(log.Details))
	})

	t.Run("profile updated", func(t *testing.T) {
		profileID := uuid.New()
		log := ProfileUpdated(user.ID, profileID, "student_profile", false, []string{"bio"})
		assert.Equal(t, "student_profile", log.ResourceType)
		assert.Equal(t, profileID, *log.ResourceID)
		assert.JSONEq(t, `{"created":false,"fields":["bio"]}`, string(log.Details))
	})
}

func TestNop(t *testing.T) {
	var r Recorder = Nop{}
	assert.NotPanics(t, func() { r.Record(context.Background(), TokenRefreshed(uuid.New())) })
}
