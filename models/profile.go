package models

import (
	"time"

	"github.com/google/uuid"
)

// SocialLinks maps a network name (linkedin, github, ...) to a URL.
type SocialLinks map[string]string

// Project is a student portfolio entry.
type Project struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description,omitempty" validate:"max=2000"`
	URL         string `json:"url,omitempty" validate:"omitempty,url"`
}

// AlumniProfile is the public-facing profile of an alumni account.
type AlumniProfile struct {
	ID              uuid.UUID   `json:"id" db:"id"`
	UserID          uuid.UUID   `json:"user_id" db:"user_id"`
	Name            string      `json:"name" db:"name"`
	Phone           *string     `json:"phone,omitempty" db:"phone"`
	AvatarURL       *string     `json:"avatar_url,omitempty" db:"avatar_url"`
	Bio             *string     `json:"bio,omitempty" db:"bio"`
	Location        *string     `json:"location,omitempty" db:"location"`
	Department      string      `json:"department" db:"department"`
	GraduationYear  int         `json:"graduation_year" db:"graduation_year"`
	CurrentPosition *string     `json:"current_position,omitempty" db:"current_position"`
	CurrentCompany  *string     `json:"current_company,omitempty" db:"current_company"`
	Achievements    []string    `json:"achievements" db:"achievements"`
	SocialLinks     SocialLinks `json:"social_links" db:"social_links"`
	IsMentor        bool        `json:"is_mentor" db:"is_mentor"`
	MentorshipAreas []string    `json:"mentorship_areas" db:"mentorship_areas"`
	IsPublic        bool        `json:"is_public" db:"is_public"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the AlumniProfile model
func (AlumniProfile) TableName() string {
	return "alumni_profiles"
}

// AlumniProfileUpdate carries the fields a caller submitted. Nil means the
// field was absent and must be left untouched.
type AlumniProfileUpdate struct {
	Name            *string      `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Phone           *string      `json:"phone,omitempty" validate:"omitempty,max=32"`
	AvatarURL       *string      `json:"avatar_url,omitempty" validate:"omitempty,url"`
	Bio             *string      `json:"bio,omitempty" validate:"omitempty,max=5000"`
	Location        *string      `json:"location,omitempty" validate:"omitempty,max=200"`
	Department      *string      `json:"department,omitempty" validate:"omitempty,min=1,max=200"`
	GraduationYear  *int         `json:"graduation_year,omitempty" validate:"omitempty,gte=1900,lte=2100"`
	CurrentPosition *string      `json:"current_position,omitempty" validate:"omitempty,max=200"`
	CurrentCompany  *string      `json:"current_company,omitempty" validate:"omitempty,max=200"`
	Achievements    *[]string    `json:"achievements,omitempty" validate:"omitempty,dive,max=500"`
	SocialLinks     *SocialLinks `json:"social_links,omitempty"`
	IsMentor        *bool        `json:"is_mentor,omitempty"`
	MentorshipAreas *[]string    `json:"mentorship_areas,omitempty" validate:"omitempty,dive,max=200"`
	IsPublic        *bool        `json:"is_public,omitempty"`
}

// MissingForCreate lists the required fields absent from u.
func (u *AlumniProfileUpdate) MissingForCreate() []string {
	var missing []string
	if u.Name == nil {
		missing = append(missing, "name")
	}
	if u.Department == nil {
		missing = append(missing, "department")
	}
	if u.GraduationYear == nil {
		missing = append(missing, "graduation_year")
	}
	return missing
}

// NewAlumniProfile seeds a profile for userID from the submitted fields.
// Callers check MissingForCreate first.
func NewAlumniProfile(userID uuid.UUID, u *AlumniProfileUpdate) *AlumniProfile {
	now := time.Now().UTC()
	p := &AlumniProfile{
		ID:              uuid.New(),
		UserID:          userID,
		Achievements:    []string{},
		SocialLinks:     SocialLinks{},
		MentorshipAreas: []string{},
		IsPublic:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	p.Apply(u)
	return p
}

// Apply overwrites only the fields present in u.
func (p *AlumniProfile) Apply(u *AlumniProfileUpdate) {
	setString(&p.Name, u.Name)
	setOptional(&p.Phone, u.Phone)
	setOptional(&p.AvatarURL, u.AvatarURL)
	setOptional(&p.Bio, u.Bio)
	setOptional(&p.Location, u.Location)
	setString(&p.Department, u.Department)
	if u.GraduationYear != nil {
		p.GraduationYear = *u.GraduationYear
	}
	setOptional(&p.CurrentPosition, u.CurrentPosition)
	setOptional(&p.CurrentCompany, u.CurrentCompany)
	setSlice(&p.Achievements, u.Achievements)
	if u.SocialLinks != nil {
		p.SocialLinks = *u.SocialLinks
	}
	if u.IsMentor != nil {
		p.IsMentor = *u.IsMentor
	}
	setSlice(&p.MentorshipAreas, u.MentorshipAreas)
	if u.IsPublic != nil {
		p.IsPublic = *u.IsPublic
	}
	p.UpdatedAt = time.Now().UTC()
}

// StudentProfile is the public-facing profile of a student account.
type StudentProfile struct {
	ID                     uuid.UUID   `json:"id" db:"id"`
	UserID                 uuid.UUID   `json:"user_id" db:"user_id"`
	Name                   string      `json:"name" db:"name"`
	Phone                  *string     `json:"phone,omitempty" db:"phone"`
	AvatarURL              *string     `json:"avatar_url,omitempty" db:"avatar_url"`
	Bio                    *string     `json:"bio,omitempty" db:"bio"`
	Location               *string     `json:"location,omitempty" db:"location"`
	Department             string      `json:"department" db:"department"`
	CurrentYear            int         `json:"current_year" db:"current_year"`
	EnrollmentYear         int         `json:"enrollment_year" db:"enrollment_year"`
	ExpectedGraduationYear int         `json:"expected_graduation_year" db:"expected_graduation_year"`
	Interests              []string    `json:"interests" db:"interests"`
	Skills                 []string    `json:"skills" db:"skills"`
	Projects               []Project   `json:"projects" db:"projects"`
	SocialLinks            SocialLinks `json:"social_links" db:"social_links"`
	LookingForMentorship   bool        `json:"looking_for_mentorship" db:"looking_for_mentorship"`
	MentorshipInterests    []string    `json:"mentorship_interests" db:"mentorship_interests"`
	IsPublic               bool        `json:"is_public" db:"is_public"`
	CreatedAt              time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time   `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the StudentProfile model
func (StudentProfile) TableName() string {
	return "student_profiles"
}

// StudentProfileUpdate carries the fields a caller submitted.
type StudentProfileUpdate struct {
	Name                   *string      `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Phone                  *string      `json:"phone,omitempty" validate:"omitempty,max=32"`
	AvatarURL              *string      `json:"avatar_url,omitempty" validate:"omitempty,url"`
	Bio                    *string      `json:"bio,omitempty" validate:"omitempty,max=5000"`
	Location               *string      `json:"location,omitempty" validate:"omitempty,max=200"`
	Department             *string      `json:"department,omitempty" validate:"omitempty,min=1,max=200"`
	CurrentYear            *int         `json:"current_year,omitempty" validate:"omitempty,gte=1,lte=10"`
	EnrollmentYear         *int         `json:"enrollment_year,omitempty" validate:"omitempty,gte=1900,lte=2100"`
	ExpectedGraduationYear *int         `json:"expected_graduation_year,omitempty" validate:"omitempty,gte=1900,lte=2100"`
	Interests              *[]string    `json:"interests,omitempty" validate:"omitempty,dive,max=200"`
	Skills                 *[]string    `json:"skills,omitempty" validate:"omitempty,dive,max=200"`
	Projects               *[]Project   `json:"projects,omitempty" validate:"omitempty,dive"`
	SocialLinks            *SocialLinks `json:"social_links,omitempty"`
	LookingForMentorship   *bool        `json:"looking_for_mentorship,omitempty"`
	MentorshipInterests    *[]string    `json:"mentorship_interests,omitempty" validate:"omitempty,dive,max=200"`
	IsPublic               *bool        `json:"is_public,omitempty"`
}

// MissingForCreate lists the required fields absent from u.
func (u *StudentProfileUpdate) MissingForCreate() []string {
	var missing []string
	if u.Name == nil {
		missing = append(missing, "name")
	}
	if u.Department == nil {
		missing = append(missing, "department")
	}
	if u.CurrentYear == nil {
		missing = append(missing, "current_year")
	}
	if u.EnrollmentYear == nil {
		missing = append(missing, "enrollment_year")
	}
	if u.ExpectedGraduationYear == nil {
		missing = append(missing, "expected_graduation_year")
	}
	return missing
}

// NewStudentProfile seeds a profile for userID from the submitted fields.
func NewStudentProfile(userID uuid.UUID, u *StudentProfileUpdate) *StudentProfile {
	now := time.Now().UTC()
	p := &StudentProfile{
		ID:                  uuid.New(),
		UserID:              userID,
		Interests:           []string{},
		Skills:              []string{},
		Projects:            []Project{},
		SocialLinks:         SocialLinks{},
		MentorshipInterests: []string{},
		IsPublic:            true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	p.Apply(u)
	return p
}

// Apply overwrites only the fields present in u.
func (p *StudentProfile) Apply(u *StudentProfileUpdate) {
	setString(&p.Name, u.Name)
	setOptional(&p.Phone, u.Phone)
	setOptional(&p.AvatarURL, u.AvatarURL)
	setOptional(&p.Bio, u.Bio)
	setOptional(&p.Location, u.Location)
	setString(&p.Department, u.Department)
	if u.CurrentYear != nil {
		p.CurrentYear = *u.CurrentYear
	}
	if u.EnrollmentYear != nil {
		p.EnrollmentYear = *u.EnrollmentYear
	}
	if u.ExpectedGraduationYear != nil {
		p.ExpectedGraduationYear = *u.ExpectedGraduationYear
	}
	setSlice(&p.Interests, u.Interests)
	setSlice(&p.Skills, u.Skills)
	if u.Projects != nil {
		p.Projects = append([]Project{}, (*u.Projects)...)
	}
	if u.SocialLinks != nil {
		p.SocialLinks = *u.SocialLinks
	}
	if u.LookingForMentorship != nil {
		p.LookingForMentorship = *u.LookingForMentorship
	}
	setSlice(&p.MentorshipInterests, u.MentorshipInterests)
	if u.IsPublic != nil {
		p.IsPublic = *u.IsPublic
	}
	p.UpdatedAt = time.Now().UTC()
}

// VisibleTo reports whether viewer may read the profile.
func (p *AlumniProfile) VisibleTo(viewer uuid.UUID) bool {
	return p.IsPublic || p.UserID == viewer
}

// VisibleTo reports whether viewer may read the profile.
func (p *StudentProfile) VisibleTo(viewer uuid.UUID) bool {
	return p.IsPublic || p.UserID == viewer
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setOptional(dst **string, src *string) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

func setSlice(dst *[]string, src *[]string) {
	if src != nil {
		*dst = append([]string{}, (*src)...)
	}
}
