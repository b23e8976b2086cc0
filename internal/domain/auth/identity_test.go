package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentity_RequireAdmin(t *testing.T) {
	assert.NoError(t, Identity{UserID: "a", IsAdmin: true}.RequireAdmin())
	assert.ErrorIs(t, Identity{UserID: "a"}.RequireAdmin(), ErrForbidden)
	assert.ErrorIs(t, Identity{}.RequireAdmin(), ErrForbidden)
}
