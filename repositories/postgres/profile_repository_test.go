package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/gradconnect/backend/models"
	"github.com/gradconnect/backend/repositories"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var alumniCols = []string{"id", "user_id", "name", "phone", "avatar_url", "bio", "location", "department",
	"graduation_year", "current_position", "current_company", "achievements", "social_links",
	"is_mentor", "mentorship_areas", "is_public", "created_at", "updated_at"}

var studentCols = []string{"id", "user_id", "name", "phone", "avatar_url", "bio", "location", "department",
	"current_year", "enrollment_year", "expected_graduation_year", "interests", "skills", "projects",
	"social_links", "looking_for_mentorship", "mentorship_interests", "is_public", "created_at", "updated_at"}

func TestAlumniProfileRepository_GetByUserID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAlumniProfileRepository(db, zap.NewNop())
	id, userID := uuid.New(), uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM alumni_profiles WHERE user_id = \\$1").
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows(alumniCols).AddRow(
			id.String(), userID.String(), "Ada", nil, nil, "Builds engines", "London", "CS",
			2019, "Engineer", "Acme", "{award,speaker}", []byte(`{"github":"https://github.com/ada"}`),
			true, "{career}", false, now, now,
		))

	p, err := repo.GetByUserID(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, id, p.ID)
	assert.Nil(t, p.Phone)
	require.NotNil(t, p.Bio)
	assert.Equal(t, "Builds engines", *p.Bio)
	assert.Equal(t, []string{"award", "speaker"}, p.Achievements)
	assert.Equal(t, "https://github.com/ada", p.SocialLinks["github"])
	assert.Equal(t, []string{"career"}, p.MentorshipAreas)
	assert.False(t, p.IsPublic)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAlumniProfileRepository_GetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAlumniProfileRepository(db, zap.NewNop())

	mock.ExpectQuery("SELECT (.+) FROM alumni_profiles WHERE id = \\$1").
		WillReturnRows(sqlmock.NewRows(alumniCols))

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestAlumniProfileRepository_CreateDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAlumniProfileRepository(db, zap.NewNop())
	name, dept, year := "Ada", "CS", 2019

	mock.ExpectExec("INSERT INTO alumni_profiles").
		WillReturnError(&pq.Error{Code: "23505"})

	p := models.NewAlumniProfile(uuid.New(), &models.AlumniProfileUpdate{Name: &name, Department: &dept, GraduationYear: &year})
	err := repo.Create(context.Background(), p)
	assert.ErrorIs(t, err, repositories.ErrDuplicate)
}

func TestAlumniProfileRepository_Update(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAlumniProfileRepository(db, zap.NewNop())
	p := &models.AlumniProfile{ID: uuid.New(), Name: "Ada", SocialLinks: models.SocialLinks{}}

	mock.ExpectExec("UPDATE alumni_profiles").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), p)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestStudentProfileRepository_ListPublic(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStudentProfileRepository(db, zap.NewNop())
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM student_profiles\\s+WHERE is_public = true").
		WillReturnRows(sqlmock.NewRows(studentCols).AddRow(
			uuid.NewString(), uuid.NewString(), "Lin", nil, nil, nil, nil, "EE",
			2, 2023, 2027, "{robotics}", "{go,c}", []byte(`[{"title":"Rover","url":"https://example.com"}]`),
			[]byte(`{}`), true, nil, true, now, now,
		))

	profiles, err := repo.ListPublic(context.Background())
	require.NoError(t, err)
	require.Len(t, profiles, 1)

	p := profiles[0]
	assert.Equal(t, []string{"go", "c"}, p.Skills)
	require.Len(t, p.Projects, 1)
	assert.Equal(t, "Rover", p.Projects[0].Title)
	assert.Equal(t, []string{}, p.MentorshipInterests)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentProfileRepository_ListPublicEmpty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStudentProfileRepository(db, zap.NewNop())

	mock.ExpectQuery("SELECT (.+) FROM student_profiles").
		WillReturnRows(sqlmock.NewRows(studentCols))

	profiles, err := repo.ListPublic(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, profiles)
	assert.Empty(t, profiles)
}

func TestStudentProfileRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStudentProfileRepository(db, zap.NewNop())
	name, dept := "Lin", "EE"
	cy, ey, gy := 2, 2023, 2027
	p := models.NewStudentProfile(uuid.New(), &models.StudentProfileUpdate{
		Name: &name, Department: &dept, CurrentYear: &cy, EnrollmentYear: &ey, ExpectedGraduationYear: &gy,
	})

	mock.ExpectExec("INSERT INTO student_profiles").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), p))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepository_Insert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuditRepository(db, zap.NewNop())
	log := models.NewAuditLog(models.AuditActionLoginFailed, "user").
		WithDetails(map[string]string{"reason": "bad_password"})

	mock.ExpectExec("INSERT INTO audit_logs").
		WithArgs(log.ID, nil, models.AuditActionLoginFailed, "user", nil, []byte(`{"reason":"bad_password"}`),
			"", "", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Insert(context.Background(), log))
	assert.NoError(t, mock.ExpectationsWereMet())
}
