package handlers

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/zheric/setgame/internal/auth"
)

// AuthCookieName holds the guest token.
const AuthCookieName = "auth_token"

// EnsureGuest returns the player id carried by the auth cookie. A missing or
// invalid token mints a new guest id and sets a fresh cookie, so it must run
// before anything is written to w.
func EnsureGuest(w http.ResponseWriter, r *http.Request) (uuid.UUID, error) {
	if c, err := r.Cookie(AuthCookieName); err == nil && c.Value != "" {
		if id, err := auth.AuthenticateJWT(c.Value); err == nil {
			return id, nil
		}
	}

	id := uuid.New()
	token, err := auth.CreateJWT(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create guest JWT: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    token,
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
	return id, nil
}
