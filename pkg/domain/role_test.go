package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "attestry/pkg/domain-errors"
)

func TestParseRole(t *testing.T) {
	t.Run("accepts grantable roles", func(t *testing.T) {
		for _, name := range []string{"admin", "issuer", "earner"} {
			role, err := ParseRole(name)
			require.NoError(t, err)
			assert.Equal(t, name, role.String())
			assert.True(t, role.IsValid())
		}
	})

	t.Run("rejects empty and unknown roles", func(t *testing.T) {
		_, err := ParseRole("")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

		_, err = ParseRole("superuser")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("none is never grantable", func(t *testing.T) {
		_, err := ParseRole("none")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		assert.False(t, RoleNone.IsValid())
	})
}

func TestRoleExclusive(t *testing.T) {
	assert.True(t, RoleIssuer.Exclusive())
	assert.True(t, RoleEarner.Exclusive())
	assert.False(t, RoleAdmin.Exclusive())
	assert.False(t, RoleNone.Exclusive())
}
