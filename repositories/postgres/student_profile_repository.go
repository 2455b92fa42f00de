package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/gradconnect/backend/models"
	"github.com/gradconnect/backend/repositories"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const studentColumns = `id, user_id, name, phone, avatar_url, bio, location, department,
	current_year, enrollment_year, expected_graduation_year, interests, skills, projects,
	social_links, looking_for_mentorship, mentorship_interests, is_public, created_at, updated_at`

// StudentProfileRepository implements the repositories.StudentProfileRepository interface
type StudentProfileRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewStudentProfileRepository creates a new student profile repository
func NewStudentProfileRepository(db *DB, logger *zap.Logger) repositories.StudentProfileRepository {
	return &StudentProfileRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new student profile
func (r *StudentProfileRepository) Create(ctx context.Context, p *models.StudentProfile) error {
	projects, links, err := encodeStudentJSON(p)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO student_profiles (` + studentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	_, err = GetExecutor(ctx, r.db).ExecContext(ctx, query,
		p.ID,
		p.UserID,
		p.Name,
		p.Phone,
		p.AvatarURL,
		p.Bio,
		p.Location,
		p.Department,
		p.CurrentYear,
		p.EnrollmentYear,
		p.ExpectedGraduationYear,
		pq.Array(p.Interests),
		pq.Array(p.Skills),
		projects,
		links,
		p.LookingForMentorship,
		pq.Array(p.MentorshipInterests),
		p.IsPublic,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("student profile for user %s: %w", p.UserID, repositories.ErrDuplicate)
		}
		return fmt.Errorf("failed to create student profile: %w", err)
	}

	r.logger.Debug("student profile created", zap.String("id", p.ID.String()), zap.String("user_id", p.UserID.String()))
	return nil
}

// GetByID retrieves a student profile by its ID
func (r *StudentProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.StudentProfile, error) {
	query := `SELECT ` + studentColumns + ` FROM student_profiles WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByUserID retrieves the student profile owned by a user
func (r *StudentProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.StudentProfile, error) {
	query := `SELECT ` + studentColumns + ` FROM student_profiles WHERE user_id = $1`
	return r.getOne(ctx, query, userID)
}

// GetByUserIDForUpdate retrieves and locks the student profile owned by a user
func (r *StudentProfileRepository) GetByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*models.StudentProfile, error) {
	query := `SELECT ` + studentColumns + ` FROM student_profiles WHERE user_id = $1 FOR UPDATE`
	return r.getOne(ctx, query, userID)
}

func (r *StudentProfileRepository) getOne(ctx context.Context, query string, arg uuid.UUID) (*models.StudentProfile, error) {
	p, err := scanStudent(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("student profile %s: %w", arg, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get student profile: %w", err)
	}
	return p, nil
}

// ListPublic retrieves all public student profiles
func (r *StudentProfileRepository) ListPublic(ctx context.Context) ([]*models.StudentProfile, error) {
	query := `
		SELECT ` + studentColumns + `
		FROM student_profiles
		WHERE is_public = true
		ORDER BY name ASC
	`

	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list student profiles: %w", err)
	}
	defer rows.Close()

	profiles := []*models.StudentProfile{}
	for rows.Next() {
		p, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student profile: %w", err)
		}
		profiles = append(profiles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating student profiles: %w", err)
	}

	return profiles, nil
}

// Update updates a student profile
func (r *StudentProfileRepository) Update(ctx context.Context, p *models.StudentProfile) error {
	projects, links, err := encodeStudentJSON(p)
	if err != nil {
		return err
	}

	query := `
		UPDATE student_profiles
		SET name = $2, phone = $3, avatar_url = $4, bio = $5, location = $6, department = $7,
		    current_year = $8, enrollment_year = $9, expected_graduation_year = $10,
		    interests = $11, skills = $12, projects = $13, social_links = $14,
		    looking_for_mentorship = $15, mentorship_interests = $16, is_public = $17, updated_at = $18
		WHERE id = $1
	`

	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		p.ID,
		p.Name,
		p.Phone,
		p.AvatarURL,
		p.Bio,
		p.Location,
		p.Department,
		p.CurrentYear,
		p.EnrollmentYear,
		p.ExpectedGraduationYear,
		pq.Array(p.Interests),
		pq.Array(p.Skills),
		projects,
		links,
		p.LookingForMentorship,
		pq.Array(p.MentorshipInterests),
		p.IsPublic,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update student profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("student profile %s: %w", p.ID, repositories.ErrNotFound)
	}

	r.logger.Debug("student profile updated", zap.String("id", p.ID.String()))
	return nil
}

func encodeStudentJSON(p *models.StudentProfile) (projects, links []byte, err error) {
	projects, err = jsonb{p.Projects}.value()
	if err != nil {
		return nil, nil, err
	}
	links, err = jsonb{p.SocialLinks}.value()
	if err != nil {
		return nil, nil, err
	}
	return projects, links, nil
}

func scanStudent(row rowScanner) (*models.StudentProfile, error) {
	p := &models.StudentProfile{Projects: []models.Project{}, SocialLinks: models.SocialLinks{}}
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&p.Phone,
		&p.AvatarURL,
		&p.Bio,
		&p.Location,
		&p.Department,
		&p.CurrentYear,
		&p.EnrollmentYear,
		&p.ExpectedGraduationYear,
		pq.Array(&p.Interests),
		pq.Array(&p.Skills),
		jsonb{&p.Projects},
		jsonb{&p.SocialLinks},
		&p.LookingForMentorship,
		pq.Array(&p.MentorshipInterests),
		&p.IsPublic,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	for _, s := range []*[]string{&p.Interests, &p.Skills, &p.MentorshipInterests} {
		if *s == nil {
			*s = []string{}
		}
	}
	return p, nil
}
