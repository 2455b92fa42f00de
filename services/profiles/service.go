// Package profiles resolves an account to the profile kind its role owns and
// enforces the owner-or-public read rule.
package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/gradconnect/backend/models"
	"github.com/gradconnect/backend/repositories"
	"github.com/gradconnect/backend/services"
	"github.com/gradconnect/backend/services/audit"
	"go.uber.org/zap"
)

// errCreateRace marks a create that lost to a concurrent create of the same profile
var errCreateRace = errors.New("profile created concurrently")

// Profile is the caller's own profile. Exactly one of Alumni and Student is set.
type Profile struct {
	Kind    models.UserRole
	Alumni  *models.AlumniProfile
	Student *models.StudentProfile
}

// MarshalJSON encodes the profile that is set
func (p *Profile) MarshalJSON() ([]byte, error) {
	if p.Alumni != nil {
		return json.Marshal(p.Alumni)
	}
	return json.Marshal(p.Student)
}

// Directory is the public listing of both profile kinds
type Directory struct {
	Alumni   []*models.AlumniProfile  `json:"alumni"`
	Students []*models.StudentProfile `json:"students"`
}

// Service handles profile operations
type Service struct {
	users     repositories.UserRepository
	alumni    repositories.AlumniProfileRepository
	students  repositories.StudentProfileRepository
	txMgr     repositories.TransactionManager
	sanitizer *Sanitizer
	audit     audit.Recorder
	logger    *zap.Logger
}

// NewService creates a new profile service
func NewService(
	repos *repositories.Repositories,
	txMgr repositories.TransactionManager,
	recorder audit.Recorder,
	logger *zap.Logger,
) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Service{
		users:     repos.Users,
		alumni:    repos.AlumniProfiles,
		students:  repos.StudentProfiles,
		txMgr:     txMgr,
		sanitizer: NewSanitizer(),
		audit:     recorder,
		logger:    logger,
	}
}

func (s *Service) account(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrUserNotFound
		}
		return nil, services.WrapInternal("failed to load account", err)
	}
	return user, nil
}

// GetMine returns the profile matching the account's role
func (s *Service) GetMine(ctx context.Context, accountID uuid.UUID) (*Profile, error) {
	user, err := s.account(ctx, accountID)
	if err != nil {
		return nil, err
	}

	switch user.Role {
	case models.RoleAlumni:
		p, err := s.alumni.GetByUserID(ctx, accountID)
		if err != nil {
			return nil, notFound(err, "failed to load alumni profile")
		}
		return &Profile{Kind: models.RoleAlumni, Alumni: p}, nil
	case models.RoleStudent:
		p, err := s.students.GetByUserID(ctx, accountID)
		if err != nil {
			return nil, notFound(err, "failed to load student profile")
		}
		return &Profile{Kind: models.RoleStudent, Student: p}, nil
	default:
		return nil, services.ErrUnsupportedRole.WithDetail("role", user.Role)
	}
}

// UpsertAlumni creates the caller's alumni profile from the submitted fields,
// or applies only the submitted fields to the existing one.
func (s *Service) UpsertAlumni(ctx context.Context, accountID uuid.UUID, upd models.AlumniProfileUpdate) (*models.AlumniProfile, error) {
	if err := s.requireRole(ctx, accountID, models.RoleAlumni); err != nil {
		return nil, err
	}
	upd, err := s.sanitizer.Alumni(upd)
	if err != nil {
		return nil, err
	}

	var created bool
	attempt := func(ctx context.Context) (*models.AlumniProfile, error) {
		p, err := s.alumni.GetByUserIDForUpdate(ctx, accountID)
		switch {
		case err == nil:
			p.Apply(&upd)
			if err := s.alumni.Update(ctx, p); err != nil {
				return nil, services.WrapInternal("failed to update alumni profile", err)
			}
			created = false
			return p, nil
		case errors.Is(err, repositories.ErrNotFound):
			if missing := upd.MissingForCreate(); len(missing) > 0 {
				return nil, services.ErrMissingRequiredFields.WithDetail("fields", missing)
			}
			p = models.NewAlumniProfile(accountID, &upd)
			if err := s.alumni.Create(ctx, p); err != nil {
				if errors.Is(err, repositories.ErrDuplicate) {
					return nil, errCreateRace
				}
				return nil, services.WrapInternal("failed to create alumni profile", err)
			}
			created = true
			return p, nil
		default:
			return nil, services.WrapInternal("failed to load alumni profile", err)
		}
	}

	p, err := upsert(ctx, s.txMgr, attempt)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.ProfileUpdated(accountID, p.ID, models.AlumniProfile{}.TableName(), created, submittedFields(upd)))
	return p, nil
}

// UpsertStudent creates the caller's student profile from the submitted
// fields, or applies only the submitted fields to the existing one.
func (s *Service) UpsertStudent(ctx context.Context, accountID uuid.UUID, upd models.StudentProfileUpdate) (*models.StudentProfile, error) {
	if err := s.requireRole(ctx, accountID, models.RoleStudent); err != nil {
		return nil, err
	}
	upd, err := s.sanitizer.Student(upd)
	if err != nil {
		return nil, err
	}

	var created bool
	attempt := func(ctx context.Context) (*models.StudentProfile, error) {
		p, err := s.students.GetByUserIDForUpdate(ctx, accountID)
		switch {
		case err == nil:
			p.Apply(&upd)
			if err := s.students.Update(ctx, p); err != nil {
				return nil, services.WrapInternal("failed to update student profile", err)
			}
			created = false
			return p, nil
		case errors.Is(err, repositories.ErrNotFound):
			if missing := upd.MissingForCreate(); len(missing) > 0 {
				return nil, services.ErrMissingRequiredFields.WithDetail("fields", missing)
			}
			p = models.NewStudentProfile(accountID, &upd)
			if err := s.students.Create(ctx, p); err != nil {
				if errors.Is(err, repositories.ErrDuplicate) {
					return nil, errCreateRace
				}
				return nil, services.WrapInternal("failed to create student profile", err)
			}
			created = true
			return p, nil
		default:
			return nil, services.WrapInternal("failed to load student profile", err)
		}
	}

	p, err := upsert(ctx, s.txMgr, attempt)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.ProfileUpdated(accountID, p.ID, models.StudentProfile{}.TableName(), created, submittedFields(upd)))
	return p, nil
}

// upsert runs attempt in a transaction. A create that loses a race aborts
// its transaction, so the retry runs in a fresh one and takes the update path.
func upsert[T any](ctx context.Context, txMgr repositories.TransactionManager, attempt func(ctx context.Context) (T, error)) (T, error) {
	result, err := services.WithTransactionResult(ctx, txMgr, attempt)
	if errors.Is(err, errCreateRace) {
		result, err = services.WithTransactionResult(ctx, txMgr, attempt)
		if errors.Is(err, errCreateRace) {
			err = services.WrapInternal("profile create conflict", err)
		}
	}
	return result, err
}

func (s *Service) requireRole(ctx context.Context, accountID uuid.UUID, role models.UserRole) error {
	user, err := s.account(ctx, accountID)
	if err != nil {
		return err
	}
	if !user.HasRole(role) {
		return services.ErrRoleMismatch.
			WithDetail("role", user.Role).
			WithDetail("required_role", role)
	}
	return nil
}

// ListAlumni returns public alumni profiles
func (s *Service) ListAlumni(ctx context.Context) ([]*models.AlumniProfile, error) {
	profiles, err := s.alumni.ListPublic(ctx)
	if err != nil {
		return nil, services.WrapInternal("failed to list alumni profiles", err)
	}
	return profiles, nil
}

// ListStudents returns public student profiles
func (s *Service) ListStudents(ctx context.Context) ([]*models.StudentProfile, error) {
	profiles, err := s.students.ListPublic(ctx)
	if err != nil {
		return nil, services.WrapInternal("failed to list student profiles", err)
	}
	return profiles, nil
}

// Directory returns public profiles of both kinds
func (s *Service) Directory(ctx context.Context) (*Directory, error) {
	alumni, err := s.ListAlumni(ctx)
	if err != nil {
		return nil, err
	}
	students, err := s.ListStudents(ctx)
	if err != nil {
		return nil, err
	}
	return &Directory{Alumni: alumni, Students: students}, nil
}

// GetAlumni returns an alumni profile if it is public or owned by viewerID
func (s *Service) GetAlumni(ctx context.Context, viewerID, profileID uuid.UUID) (*models.AlumniProfile, error) {
	p, err := s.alumni.GetByID(ctx, profileID)
	if err != nil {
		return nil, notFound(err, "failed to load alumni profile")
	}
	if !p.VisibleTo(viewerID) {
		return nil, services.ErrPrivateProfile
	}
	return p, nil
}

// GetStudent returns a student profile if it is public or owned by viewerID
func (s *Service) GetStudent(ctx context.Context, viewerID, profileID uuid.UUID) (*models.StudentProfile, error) {
	p, err := s.students.GetByID(ctx, profileID)
	if err != nil {
		return nil, notFound(err, "failed to load student profile")
	}
	if !p.VisibleTo(viewerID) {
		return nil, services.ErrPrivateProfile
	}
	return p, nil
}

func notFound(err error, message string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return services.ErrProfileNotFound
	}
	return services.WrapInternal(message, err)
}

// submittedFields lists the JSON names of the fields present in an update
func submittedFields(upd interface{}) []string {
	data, err := json.Marshal(upd)
	if err != nil {
		return nil
	}
	var present map[string]json.RawMessage
	if err := json.Unmarshal(data, &present); err != nil {
		return nil
	}
	fields := make([]string, 0, len(present))
	for k := range present {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}
