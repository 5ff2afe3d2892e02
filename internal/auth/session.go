// internal/auth/session.go
package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// privateKey and publicKey are used for signing and verifying guest tokens.
var (
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	// tokenExpire is the token lifetime; 0 means tokens carry no exp claim.
	tokenExpire time.Duration
)

// ErrNotInitialized is returned when tokens are used before Init.
var ErrNotInitialized = errors.New("auth keys not initialized")

// Init generates a fresh ed25519 key pair at runtime and sets the token expiration.
// Tokens issued before a restart stop verifying.
func Init(expire time.Duration) error {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}
	publicKey, privateKey = pub, priv
	tokenExpire = expire
	return nil
}

// CreateJWT creates a signed token with "sub" = the guest's player id.
func CreateJWT(playerID uuid.UUID) (string, error) {
	if privateKey == nil {
		return "", ErrNotInitialized
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": playerID.String(),
		"iat": now.Unix(),
	}
	if tokenExpire > 0 {
		claims["exp"] = now.Add(tokenExpire).Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(privateKey)
}

// AuthenticateJWT verifies a token string and returns the player id in its "sub" claim.
func AuthenticateJWT(tokenString string) (uuid.UUID, error) {
	if publicKey == nil {
		return uuid.Nil, ErrNotInitialized
	}
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("jwt parse error: %w", err)
	}
	if !t.Valid {
		return uuid.Nil, fmt.Errorf("invalid token")
	}

	sub, err := t.Claims.GetSubject()
	if err != nil || sub == "" {
		return uuid.Nil, fmt.Errorf("missing sub in jwt")
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid sub in jwt: %w", err)
	}
	return id, nil
}
