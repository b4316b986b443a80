// internal/apperrors/errors_test.go
package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryOf(t *testing.T) {
	category, ok := CategoryOf(ErrNotEntitled)
	assert.True(t, ok)
	assert.Equal(t, CategoryAuthorization, category)

	_, ok = CategoryOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestWrapKeepsSentinelReachable(t *testing.T) {
	err := Wrap(ErrAlreadyListed, "listing recipe %s", "abc")

	assert.ErrorIs(t, err, ErrAlreadyListed)
	assert.Equal(t, "ALREADY_LISTED", CodeOf(err))

	category, ok := CategoryOf(err)
	assert.True(t, ok)
	assert.Equal(t, CategoryStateConflict, category)
}

func TestCodeOfFallsBack(t *testing.T) {
	assert.Equal(t, "INTERNAL_ERROR", CodeOf(fmt.Errorf("boom")))
}
