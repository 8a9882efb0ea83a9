package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ridecover/internal/shared/config"
)

func TestGenerateAndValidate(t *testing.T) {
	s := NewJWTService(config.JWTConfig{Secret: "s3cret", ExpiryMinutes: 5})

	token, err := s.GenerateToken("d-1", RoleDriver)
	require.NoError(t, err)

	claims, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "d-1", claims.UserID)
	assert.Equal(t, RoleDriver, claims.Role)

	uid, role, err := s.ExtractUserID(token)
	require.NoError(t, err)
	assert.Equal(t, "d-1", uid)
	assert.Equal(t, RoleDriver, role)
}

func TestValidateRejectsWrongSecretAndExpired(t *testing.T) {
	s := NewJWTService(config.JWTConfig{Secret: "a", ExpiryMinutes: 1})
	other := NewJWTService(config.JWTConfig{Secret: "b", ExpiryMinutes: 1})

	token, err := s.GenerateToken("d-1", RoleDriver)
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	s.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = s.ValidateToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestCanActFor(t *testing.T) {
	driver := &Claims{UserID: "d-1", Role: RoleDriver}
	assert.NoError(t, driver.CanActFor("d-1"))
	assert.ErrorIs(t, driver.CanActFor("d-2"), ErrForbidden)

	svc := &Claims{UserID: "dispatch", Role: RoleService}
	assert.NoError(t, svc.CanActFor("d-2"))

	assert.ErrorIs(t, (&Claims{UserID: "x", Role: "PASSENGER"}).CanActFor("x"), ErrForbidden)
}
