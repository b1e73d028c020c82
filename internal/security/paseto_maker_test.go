package security

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSymmetricKey = "12345678901234567890123456789012"

func TestNewPasetoMaker_KeySize(t *testing.T) {
	_, err := NewPasetoMaker("too-short")
	assert.Error(t, err)

	_, err = NewPasetoMaker(testSymmetricKey)
	assert.NoError(t, err)
}

func TestPasetoMaker_RoundTrip(t *testing.T) {
	maker, err := NewPasetoMaker(testSymmetricKey)
	require.NoError(t, err)

	principalID := uuid.New()
	token, payload, err := maker.CreateToken(principalID, time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, principalID, payload.PrincipalID)

	verified, err := maker.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, payload.ID, verified.ID)
	assert.Equal(t, principalID, verified.PrincipalID)
}

func TestPasetoMaker_ExpiredToken(t *testing.T) {
	maker, err := NewPasetoMaker(testSymmetricKey)
	require.NoError(t, err)

	token, _, err := maker.CreateToken(uuid.New(), -time.Minute)
	require.NoError(t, err)

	_, err = maker.VerifyToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestPasetoMaker_TamperedToken(t *testing.T) {
	maker, err := NewPasetoMaker(testSymmetricKey)
	require.NoError(t, err)

	token, _, err := maker.CreateToken(uuid.New(), time.Minute)
	require.NoError(t, err)

	_, err = maker.VerifyToken(token + "aaaa")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
