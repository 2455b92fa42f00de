package audit

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gradconnect/backend/models"
	"github.com/gradconnect/backend/repositories"
	"go.uber.org/zap"
)

// Recorder accepts audit entries. Recording never fails the caller's operation.
type Recorder interface {
	Record(ctx context.Context, log *models.AuditLog)
}

// Nop discards every entry. Used when auditing is disabled.
type Nop struct{}

// Record implements Recorder
func (Nop) Record(context.Context, *models.AuditLog) {}

// AuditEvent represents an event to be audited
type AuditEvent struct {
	Log *models.AuditLog
}

// AuditService handles asynchronous audit logging
type AuditService struct {
	auditRepo   repositories.AuditRepository
	logger      *zap.Logger
	eventChan   chan *AuditEvent
	workerCount int
	bufferSize  int
	dropped     atomic.Int64
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	started     bool
	stopped     bool
	mu          sync.RWMutex
}

// Config holds configuration for the AuditService
type Config struct {
	BufferSize  int // Size of the event buffer channel
	WorkerCount int // Number of concurrent workers
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:  1000,
		WorkerCount: 2,
	}
}

// NewAuditService creates a new AuditService instance
func NewAuditService(auditRepo repositories.AuditRepository, logger *zap.Logger, config Config) *AuditService {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultConfig().BufferSize
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = DefaultConfig().WorkerCount
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &AuditService{
		auditRepo:   auditRepo,
		logger:      logger,
		eventChan:   make(chan *AuditEvent, config.BufferSize),
		workerCount: config.WorkerCount,
		bufferSize:  config.BufferSize,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start starts the background workers
func (s *AuditService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("audit service already started")
	}

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.started = true
	s.logger.Info("started audit service",
		zap.Int("worker_count", s.workerCount),
		zap.Int("buffer_size", s.bufferSize))

	return nil
}

// Stop stops accepting events and waits for queued ones to be written
func (s *AuditService) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return fmt.Errorf("audit service not running")
	}
	s.stopped = true
	close(s.eventChan)
	s.mu.Unlock()

	s.logger.Info("stopping audit service", zap.Int("pending_events", len(s.eventChan)))

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("audit service stopped gracefully")
		s.cancel()
		return nil
	case <-time.After(timeout):
		s.cancel()
		return fmt.Errorf("audit service stop timeout after %v", timeout)
	}
}

// LogEvent queues an event without blocking. A full buffer drops the event.
func (s *AuditService) LogEvent(event *AuditEvent) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started || s.stopped {
		return fmt.Errorf("audit service not running")
	}

	select {
	case s.eventChan <- event:
		return nil
	default:
		s.dropped.Add(1)
		s.logger.Warn("audit event channel full, dropping event",
			zap.String("action", string(event.Log.Action)))
		return fmt.Errorf("audit event buffer full")
	}
}

// Record attaches the request metadata carried by ctx and queues the entry
func (s *AuditService) Record(ctx context.Context, log *models.AuditLog) {
	if meta, ok := MetadataFromContext(ctx); ok {
		log.WithRequest(meta.RequestID, meta.IPAddress, meta.UserAgent)
	}
	if err := s.LogEvent(&AuditEvent{Log: log}); err != nil {
		s.logger.Debug("audit entry not recorded",
			zap.String("action", string(log.Action)),
			zap.Error(err))
	}
}

func (s *AuditService) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("audit worker started", zap.Int("worker_id", id))

	for event := range s.eventChan {
		if err := s.processEvent(event); err != nil {
			s.logger.Error("failed to process audit event",
				zap.Int("worker_id", id),
				zap.Error(err),
				zap.String("action", string(event.Log.Action)))
		}
	}

	s.logger.Debug("audit worker stopped", zap.Int("worker_id", id))
}

func (s *AuditService) processEvent(event *AuditEvent) error {
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()

	if err := s.auditRepo.Insert(ctx, event.Log); err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	return nil
}

// GetStats returns statistics about the audit service
func (s *AuditService) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Stats{
		BufferSize:    s.bufferSize,
		PendingEvents: len(s.eventChan),
		WorkerCount:   s.workerCount,
		Dropped:       s.dropped.Load(),
		Started:       s.started && !s.stopped,
	}
}

// Stats represents audit service statistics
type Stats struct {
	BufferSize    int   `json:"buffer_size"`
	PendingEvents int   `json:"pending_events"`
	WorkerCount   int   `json:"worker_count"`
	Dropped       int64 `json:"dropped"`
	Started       bool  `json:"started"`
}

// Entry constructors for the audited actions

// AccountRegistered records a new account created with a password
func AccountRegistered(user *models.User) *models.AuditLog {
	return models.NewAuditLog(models.AuditActionAccountRegistered, "user").
		WithUser(user.ID).
		WithResource(user.ID).
		WithDetails(map[string]interface{}{"role": user.Role})
}

// LoginSucceeded records a password sign-in
func LoginSucceeded(user *models.User) *models.AuditLog {
	return models.NewAuditLog(models.AuditActionLoginSucceeded, "user").
		WithUser(user.ID).
		WithResource(user.ID)
}

// LoginFailed records a rejected sign-in. The attempted email is never stored.
func LoginFailed(userID *uuid.UUID, reason string) *models.AuditLog {
	log := models.NewAuditLog(models.AuditActionLoginFailed, "user").
		WithDetails(map[string]interface{}{"reason": reason})
	if userID != nil {
		log.WithUser(*userID).WithResource(*userID)
	}
	return log
}

// TokenRefreshed records an access token minted from a refresh token
func TokenRefreshed(userID uuid.UUID) *models.AuditLog {
	return models.NewAuditLog(models.AuditActionTokenRefreshed, "user").
		WithUser(userID).
		WithResource(userID)
}

// OAuthLogin records a federated sign-in
func OAuthLogin(user *models.User, provider string, created bool) *models.AuditLog {
	return models.NewAuditLog(models.AuditActionOAuthLogin, "user").
		WithUser(user.ID).
		WithResource(user.ID).
		WithDetails(map[string]interface{}{
			"provider": provider,
			"created":  created,
			"role":     user.Role,
		})
}

// ProfileUpdated records a profile create or update
func ProfileUpdated(userID, profileID uuid.UUID, resourceType string, created bool, fields []string) *models.AuditLog {
	return models.NewAuditLog(models.AuditActionProfileUpdated, resourceType).
		WithUser(userID).
		WithResource(profileID).
		WithDetails(map[string]interface{}{
			"created": created,
			"fields":  fields,
		})
}
