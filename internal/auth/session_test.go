package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndAuthenticate(t *testing.T) {
	require.NoError(t, Init(0))
	id := uuid.New()

	token, err := CreateJWT(id)
	require.NoError(t, err)

	got, err := AuthenticateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestExpiredTokenRejected(t *testing.T) {
	require.NoError(t, Init(time.Hour))
	claims := jwt.MapClaims{"sub": uuid.NewString(), "exp": time.Now().Add(-time.Minute).Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(privateKey)
	require.NoError(t, err)

	_, err = AuthenticateJWT(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenFromOtherKeyRejected(t *testing.T) {
	require.NoError(t, Init(0))
	_, otherKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, jwt.MapClaims{"sub": uuid.NewString()}).SignedString(otherKey)
	require.NoError(t, err)

	_, err = AuthenticateJWT(token)
	assert.Error(t, err)
}

func TestSubjectMustBeUUID(t *testing.T) {
	require.NoError(t, Init(0))
	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, jwt.MapClaims{"sub": "alice"}).SignedString(privateKey)
	require.NoError(t, err)

	_, err = AuthenticateJWT(token)
	assert.ErrorContains(t, err, "invalid sub")
}

func TestGarbageToken(t *testing.T) {
	require.NoError(t, Init(0))
	_, err := AuthenticateJWT("not.a.jwt")
	assert.ErrorContains(t, err, "jwt parse error")
}
