package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserRole is the closed set of platform roles. Roles are assigned at
// account creation and never change afterwards.
type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleAlumni    UserRole = "alumni"
	RoleStudent   UserRole = "student"
	RoleRecruiter UserRole = "recruiter"
)

// DefaultRole is assigned when registration does not name a role.
const DefaultRole = RoleStudent

// ExternalAuthPassword marks accounts created through an external identity
// provider. It is never a valid bcrypt hash, so password login always fails.
const ExternalAuthPassword = "!oauth"

// ErrUnknownRole is returned by ParseRole for values outside the role set.
var ErrUnknownRole = errors.New("unknown role")

// ParseRole converts boundary input into a UserRole.
func ParseRole(s string) (UserRole, error) {
	r := UserRole(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", ErrUnknownRole
	}
	return r, nil
}

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleAlumni, RoleStudent, RoleRecruiter:
		return true
	}
	return false
}

// SelfAssignable reports whether a caller may choose r for themselves,
// either at registration or as the state of an OAuth login.
func (r UserRole) SelfAssignable() bool {
	return r.Valid() && r != RoleAdmin
}

func (r UserRole) String() string {
	return string(r)
}

// User is a platform account
type User struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	Email         string     `json:"email" db:"email"`
	PasswordHash  string     `json:"-" db:"password_hash"`
	Role          UserRole   `json:"role" db:"role"`
	IsActive      bool       `json:"is_active" db:"is_active"`
	EmailVerified bool       `json:"email_verified" db:"email_verified"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// NormalizeEmail lower-cases and trims an email address. Stored emails are
// always normalized so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewUser creates an active, unverified account with a password credential.
func NewUser(email, passwordHash string, role UserRole) *User {
	now := time.Now().UTC()
	return &User{
		ID:           uuid.New(),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewExternalUser creates an account for an identity vouched for by an
// external provider. The email is considered verified.
func NewExternalUser(email string, role UserRole) *User {
	u := NewUser(email, ExternalAuthPassword, role)
	u.EmailVerified = true
	return u
}

// HasExternalCredential reports whether the account can only sign in through
// an external identity provider.
func (u *User) HasExternalCredential() bool {
	return u.PasswordHash == ExternalAuthPassword
}

// HasRole reports whether the user holds any of the given roles.
func (u *User) HasRole(roles ...UserRole) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}
