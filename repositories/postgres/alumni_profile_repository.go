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

const alumniColumns = `id, user_id, name, phone, avatar_url, bio, location, department,
	graduation_year, current_position, current_company, achievements, social_links,
	is_mentor, mentorship_areas, is_public, created_at, updated_at`

// AlumniProfileRepository implements the repositories.AlumniProfileRepository interface
type AlumniProfileRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAlumniProfileRepository creates a new alumni profile repository
func NewAlumniProfileRepository(db *DB, logger *zap.Logger) repositories.AlumniProfileRepository {
	return &AlumniProfileRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new alumni profile
func (r *AlumniProfileRepository) Create(ctx context.Context, p *models.AlumniProfile) error {
	links, err := jsonb{p.SocialLinks}.value()
	if err != nil {
		return err
	}

	query := `
		INSERT INTO alumni_profiles (` + alumniColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
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
		p.GraduationYear,
		p.CurrentPosition,
		p.CurrentCompany,
		pq.Array(p.Achievements),
		links,
		p.IsMentor,
		pq.Array(p.MentorshipAreas),
		p.IsPublic,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("alumni profile for user %s: %w", p.UserID, repositories.ErrDuplicate)
		}
		return fmt.Errorf("failed to create alumni profile: %w", err)
	}

	r.logger.Debug("alumni profile created", zap.String("id", p.ID.String()), zap.String("user_id", p.UserID.String()))
	return nil
}

// GetByID retrieves an alumni profile by its ID
func (r *AlumniProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AlumniProfile, error) {
	query := `SELECT ` + alumniColumns + ` FROM alumni_profiles WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByUserID retrieves the alumni profile owned by a user
func (r *AlumniProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.AlumniProfile, error) {
	query := `SELECT ` + alumniColumns + ` FROM alumni_profiles WHERE user_id = $1`
	return r.getOne(ctx, query, userID)
}

// GetByUserIDForUpdate retrieves and locks the alumni profile owned by a user
func (r *AlumniProfileRepository) GetByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*models.AlumniProfile, error) {
	query := `SELECT ` + alumniColumns + ` FROM alumni_profiles WHERE user_id = $1 FOR UPDATE`
	return r.getOne(ctx, query, userID)
}

func (r *AlumniProfileRepository) getOne(ctx context.Context, query string, arg uuid.UUID) (*models.AlumniProfile, error) {
	p, err := scanAlumni(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("alumni profile %s: %w", arg, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get alumni profile: %w", err)
	}
	return p, nil
}

// ListPublic retrieves all public alumni profiles
func (r *AlumniProfileRepository) ListPublic(ctx context.Context) ([]*models.AlumniProfile, error) {
	query := `
		SELECT ` + alumniColumns + `
		FROM alumni_profiles
		WHERE is_public = true
		ORDER BY name ASC
	`

	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list alumni profiles: %w", err)
	}
	defer rows.Close()

	profiles := []*models.AlumniProfile{}
	for rows.Next() {
		p, err := scanAlumni(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alumni profile: %w", err)
		}
		profiles = append(profiles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alumni profiles: %w", err)
	}

	return profiles, nil
}

// Update updates an alumni profile
func (r *AlumniProfileRepository) Update(ctx context.Context, p *models.AlumniProfile) error {
	links, err := jsonb{p.SocialLinks}.value()
	if err != nil {
		return err
	}

	query := `
		UPDATE alumni_profiles
		SET name = $2, phone = $3, avatar_url = $4, bio = $5, location = $6, department = $7,
		    graduation_year = $8, current_position = $9, current_company = $10,
		    achievements = $11, social_links = $12, is_mentor = $13, mentorship_areas = $14,
		    is_public = $15, updated_at = $16
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
		p.GraduationYear,
		p.CurrentPosition,
		p.CurrentCompany,
		pq.Array(p.Achievements),
		links,
		p.IsMentor,
		pq.Array(p.MentorshipAreas),
		p.IsPublic,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update alumni profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("alumni profile %s: %w", p.ID, repositories.ErrNotFound)
	}

	r.logger.Debug("alumni profile updated", zap.String("id", p.ID.String()))
	return nil
}

func scanAlumni(row rowScanner) (*models.AlumniProfile, error) {
	p := &models.AlumniProfile{SocialLinks: models.SocialLinks{}}
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&p.Phone,
		&p.AvatarURL,
		&p.Bio,
		&p.Location,
		&p.Department,
		&p.GraduationYear,
		&p.CurrentPosition,
		&p.CurrentCompany,
		pq.Array(&p.Achievements),
		jsonb{&p.SocialLinks},
		&p.IsMentor,
		pq.Array(&p.MentorshipAreas),
		&p.IsPublic,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.Achievements == nil {
		p.Achievements = []string{}
	}
	if p.MentorshipAreas == nil {
		p.MentorshipAreas = []string{}
	}
	return p, nil
}
