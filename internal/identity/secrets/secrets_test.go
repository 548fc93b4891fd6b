package secrets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "territorial/pkg/domain-errors"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	require.NoError(t, Verify("correct horse", hash))

	err = Verify("wrong horse", hash)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestHashRejectsBadPasswords(t *testing.T) {
	_, err := Hash("short")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = Hash(strings.Repeat("x", 80))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}
