package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "territorial/pkg/domain-errors"
)

func TestParseID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseUserID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseTerritoryID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseCongregationID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("normalizes to canonical form", func(t *testing.T) {
		raw := uuid.New()
		parsed, err := ParseQuadraID(raw.String())
		require.NoError(t, err)
		assert.Equal(t, QuadraID(raw.String()), parsed)
	})
}

func TestRoles(t *testing.T) {
	r, err := ParseRole("territory_servant")
	require.NoError(t, err)
	assert.Equal(t, RoleTerritoryServant, r)

	_, err = ParseRole("owner")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	assert.True(t, UserStatusPending.IsValid())
	assert.False(t, UserStatus("deleted").IsValid())
}
