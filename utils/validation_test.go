package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	Role     string  `json:"role,omitempty" validate:"omitempty,oneof=student alumni recruiter"`
	Website  *string `json:"website,omitempty" validate:"omitempty,url"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid struct", func(t *testing.T) {
		s := signupRequest{Email: "ada@example.com", Password: "correct-horse"}
		assert.NoError(t, ValidateStruct(&s))
	})

	t.Run("fields are reported by json name", func(t *testing.T) {
		s := signupRequest{Password: "short"}

		err := ValidateStruct(&s)
		require.Error(t, err)

		fields := GetValidationFields(err)
		assert.Equal(t, "email is required", fields["email"])
		assert.Equal(t, "password must be at least 8", fields["password"])
	})

	t.Run("invalid email", func(t *testing.T) {
		s := signupRequest{Email: "not-an-email", Password: "correct-horse"}

		fields := GetValidationFields(ValidateStruct(&s))
		assert.Equal(t, "email must be a valid email", fields["email"])
	})

	t.Run("oneof", func(t *testing.T) {
		s := signupRequest{Email: "ada@example.com", Password: "correct-horse", Role: "admin"}

		fields := GetValidationFields(ValidateStruct(&s))
		assert.Equal(t, "role must be one of: student alumni recruiter", fields["role"])
	})

	t.Run("url", func(t *testing.T) {
		site := "not a url"
		s := signupRequest{Email: "ada@example.com", Password: "correct-horse", Website: &site}

		fields := GetValidationFields(ValidateStruct(&s))
		assert.Equal(t, "website must be a valid URL", fields["website"])
	})
}

func TestGetValidationFields_OtherError(t *testing.T) {
	assert.Nil(t, GetValidationFields(assert.AnError))
	assert.Equal(t, "Validation failed", (&ValidationError{Message: "Validation failed"}).Error())
}

func TestParseUUID(t *testing.T) {
	id := uuid.New()

	got, err := ParseUUID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseUUID("not-a-uuid")
	assert.Error(t, err)
}
