// internal/apperrors/errors_test.go
package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "work not found", NotFound("work not found").Error())

	wrapped := Persistence("failed to load work", errors.New("connection reset"))
	assert.Equal(t, "failed to load work: connection reset", wrapped.Error())
	assert.Equal(t, "connection reset", errors.Unwrap(wrapped).Error())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(Validation("bad input")))
	assert.Equal(t, KindAuthentication, KindOf(Authentication("who are you")))
	assert.Equal(t, KindForbidden, KindOf(Forbidden("not yours")))
	assert.Equal(t, KindNotFound, KindOf(NotFound("gone")))
	assert.Equal(t, KindMinting, KindOf(Minting("chain down", nil)))

	// Untyped errors default to the 500 bucket
	assert.Equal(t, KindPersistence, KindOf(errors.New("plain")))
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("mint work: %w", Forbidden("only the creator can mint this work"))
	assert.True(t, Is(err, KindForbidden))
	assert.False(t, Is(err, KindNotFound))
}
