package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gradconnect/backend/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when an insert violates a uniqueness constraint
	ErrDuplicate = errors.New("duplicate record")
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes fn within a transaction. The context passed to
	// fn carries the transaction, so repositories called with it join it.
	// Commits if fn succeeds, rolls back on error.
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// UserRepository handles account data operations
type UserRepository interface {
	// Create inserts a new account. Returns ErrDuplicate if the email is taken.
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves an account by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetByEmail retrieves an account by normalized email
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// List retrieves accounts ordered by creation time
	List(ctx context.Context, limit, offset int) ([]*models.User, error)

	// TouchLastLogin records a successful sign-in
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// AlumniProfileRepository handles alumni profile data operations
type AlumniProfileRepository interface {
	// Create inserts a profile. Returns ErrDuplicate if the account already has one.
	Create(ctx context.Context, profile *models.AlumniProfile) error

	// GetByID retrieves a profile by its own ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.AlumniProfile, error)

	// GetByUserID retrieves the profile owned by an account
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.AlumniProfile, error)

	// GetByUserIDForUpdate retrieves and row-locks the profile owned by an account.
	// Must be called inside a transaction.
	GetByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*models.AlumniProfile, error)

	// ListPublic retrieves all public profiles
	ListPublic(ctx context.Context) ([]*models.AlumniProfile, error)

	// Update overwrites a profile
	Update(ctx context.Context, profile *models.AlumniProfile) error
}

// StudentProfileRepository handles student profile data operations
type StudentProfileRepository interface {
	// Create inserts a profile. Returns ErrDuplicate if the account already has one.
	Create(ctx context.Context, profile *models.StudentProfile) error

	// GetByID retrieves a profile by its own ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.StudentProfile, error)

	// GetByUserID retrieves the profile owned by an account
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.StudentProfile, error)

	// GetByUserIDForUpdate retrieves and row-locks the profile owned by an account.
	// Must be called inside a transaction.
	GetByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*models.StudentProfile, error)

	// ListPublic retrieves all public profiles
	ListPublic(ctx context.Context) ([]*models.StudentProfile, error)

	// Update overwrites a profile
	Update(ctx context.Context, profile *models.StudentProfile) error
}

// AuditRepository handles audit log data operations
type AuditRepository interface {
	// Insert inserts a new audit log entry
	Insert(ctx context.Context, log *models.AuditLog) error
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Users           UserRepository
	AlumniProfiles  AlumniProfileRepository
	StudentProfiles StudentProfileRepository
	AuditLogs       AuditRepository
}
