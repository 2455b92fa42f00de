package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDomainError(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeNotFound, "resource not found", baseErr)

	assert.Equal(t, ErrorTypeNotFound, domainErr.Type)
	assert.Equal(t, "resource not found", domainErr.Message)
	assert.Equal(t, baseErr, domainErr.Err)
	assert.NotNil(t, domainErr.Details)
}

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *DomainError
		wantMsg string
	}{
		{
			name: "error with wrapped error",
			err: &DomainError{
				Type:    ErrorTypeNotFound,
				Message: "user not found",
				Err:     errors.New("db error"),
			},
			wantMsg: "not_found: user not found (db error)",
		},
		{
			name: "error without wrapped error",
			err: &DomainError{
				Type:    ErrorTypeValidation,
				Message: "invalid input",
			},
			wantMsg: "validation: invalid input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeInternal, "internal error", baseErr)

	assert.Equal(t, baseErr, errors.Unwrap(domainErr))
}

func TestDomainError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{
			name:   "same type and message",
			err:    ErrInvalidCredentials.Wrap(errors.New("bcrypt mismatch")),
			target: ErrInvalidCredentials,
			want:   true,
		},
		{
			name:   "same type different message",
			err:    ErrInvalidToken,
			target: ErrInvalidCredentials,
			want:   false,
		},
		{
			name:   "target without message matches any of the type",
			err:    ErrPrivateProfile,
			target: &DomainError{Type: ErrorTypeForbidden},
			want:   true,
		},
		{
			name:   "different error type",
			err:    NewDomainError(ErrorTypeValidation, "validation", nil),
			target: ErrUserNotFound,
			want:   false,
		},
		{
			name:   "not a domain error",
			err:    NewDomainError(ErrorTypeNotFound, "not found", nil),
			target: errors.New("regular error"),
			want:   false,
		},
		{
			name:   "wrapped with fmt",
			err:    fmt.Errorf("register: %w", ErrEmailAlreadyRegistered),
			target: ErrEmailAlreadyRegistered,
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestDomainError_WithDetailDoesNotMutateReceiver(t *testing.T) {
	withField := ErrInvalidInput.WithDetail("field", "email").WithDetail("value", "invalid-email")

	assert.Equal(t, "email", withField.Details["field"])
	assert.Equal(t, "invalid-email", withField.Details["value"])
	assert.Empty(t, ErrInvalidInput.Details)
	assert.True(t, errors.Is(withField, ErrInvalidInput))
}

func TestDomainError_Wrap(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := ErrFederationFailed.Wrap(cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrFederationFailed)
	assert.Nil(t, ErrFederationFailed.Err)
}

func TestErrorTypeHelpers(t *testing.T) {
	tests := []struct {
		name  string
		check func(error) bool
		yes   []error
		no    []error
	}{
		{"not found", IsNotFoundError, []error{ErrUserNotFound, fmt.Errorf("x: %w", ErrProfileNotFound)}, []error{ErrInvalidInput, errors.New("regular"), nil}},
		{"validation", IsValidationError, []error{ErrInvalidInput, ErrUnsupportedRole, ErrInvalidTokenType}, []error{ErrUserNotFound}},
		{"unauthorized", IsUnauthorizedError, []error{ErrUnauthorized, ErrInvalidCredentials, ErrTokenExpired}, []error{ErrInsufficientRole}},
		{"forbidden", IsForbiddenError, []error{ErrInsufficientRole, ErrRoleMismatch, ErrPrivateProfile}, []error{ErrUnauthorized}},
		{"rate limit", IsRateLimitError, []error{ErrRateLimitExceeded}, []error{ErrInternal}},
		{"conflict", IsConflictError, []error{ErrEmailAlreadyRegistered}, []error{ErrInvalidInput}},
		{"internal", IsInternalError, []error{ErrInternal, WrapInternal("db", errors.New("x"))}, []error{ErrFederationFailed}},
		{"external", IsExternalError, []error{ErrFederationFailed, ErrFederationFailed.Wrap(errors.New("x"))}, []error{ErrInternal}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, err := range tt.yes {
				assert.True(t, tt.check(err), "%v", err)
			}
			for _, err := range tt.no {
				assert.False(t, tt.check(err), "%v", err)
			}
		})
	}
}

func TestGetErrorType(t *testing.T) {
	assert.Equal(t, ErrorTypeNotFound, GetErrorType(ErrUserNotFound))
	assert.Equal(t, ErrorTypeConflict, GetErrorType(fmt.Errorf("w: %w", ErrEmailAlreadyRegistered)))
	assert.Equal(t, ErrorType(""), GetErrorType(errors.New("regular")))
}

func TestGetErrorMessage(t *testing.T) {
	err := ErrFederationFailed.Wrap(errors.New("provider said: secret-body"))
	assert.Equal(t, "identity provider request failed", GetErrorMessage(err))
	assert.Empty(t, GetErrorMessage(errors.New("x")))
}

func TestGetErrorDetails(t *testing.T) {
	err := ErrMissingRequiredFields.WithDetail("fields", []string{"name"})

	details := GetErrorDetails(err)
	require.NotNil(t, details)
	assert.Equal(t, []string{"name"}, details["fields"])

	assert.Nil(t, GetErrorDetails(errors.New("regular error")))
}
