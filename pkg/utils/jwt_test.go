package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	SetSecret("test-secret")

	token, err := GenerateToken("ops", []string{"operator"}, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
	assert.True(t, claims.HasRole("admin", "operator"))
	assert.False(t, claims.HasRole("admin"))
}

func TestValidateTokenRejectsExpiredAndForeign(t *testing.T) {
	SetSecret("test-secret")

	expired, err := GenerateToken("ops", nil, -time.Minute)
	require.NoError(t, err)
	_, err = ValidateToken(expired)
	assert.Error(t, err)

	SetSecret("other-secret")
	foreign, err := GenerateToken("ops", nil, time.Hour)
	require.NoError(t, err)

	SetSecret("test-secret")
	_, err = ValidateToken(foreign)
	assert.Error(t, err)
}
