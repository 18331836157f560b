package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type cardInput struct {
	Name  string `json:"name" validate:"required,notblank,max=100"`
	Grade string `json:"grade" validate:"required,grade"`
	Genre string `json:"genre" validate:"required,genre"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

func TestValidateAcceptsKnownValues(t *testing.T) {
	errs := Validate(cardInput{Name: "Winter", Grade: "epic", Genre: "앨범"})
	assert.Nil(t, errs)
}

func TestValidateReportsJSONFieldNames(t *testing.T) {
	errs := Validate(cardInput{Name: "  ", Grade: "mythic", Genre: "unknown", Email: "nope"})

	assert.Equal(t, "This field is required", errs["name"])
	assert.Contains(t, errs["grade"], "Invalid grade")
	assert.Contains(t, errs["genre"], "Invalid genre")
	assert.Equal(t, "Invalid email format", errs["email"])
}

func TestIsGrade(t *testing.T) {
	assert.True(t, IsGrade("legendary"))
	assert.False(t, IsGrade("Legendary"))
	assert.True(t, IsGenre("MD"))
}
