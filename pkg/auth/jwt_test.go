package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	now := time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)
	svc := newJWTService(Config{Secret: "s3cret", Issuer: "booking-api", TTL: time.Hour}, func() time.Time { return now })

	token, expires, err := svc.GenerateAccessToken("ann@example.com", "login")
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), expires)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", claims.Subject)
	assert.Equal(t, "login", claims.Purpose)
}

func TestValidateRejectsExpiredAndForeignTokens(t *testing.T) {
	now := time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)
	clock := now
	svc := newJWTService(Config{Secret: "s3cret", TTL: time.Minute}, func() time.Time { return clock })

	token, _, err := svc.GenerateAccessToken("ann@example.com", "register")
	require.NoError(t, err)

	clock = now.Add(2 * time.Minute)
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := newJWTService(Config{Secret: "other", TTL: time.Minute}, func() time.Time { return now })
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
