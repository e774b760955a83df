package models

import (
	"slices"
	"time"

	"golang.org/x/oauth2"
)

// CachedToken is a persisted OAuth token together with the scopes it was
// granted for.
type CachedToken struct {
	Key       string        `json:"key"`
	Token     *oauth2.Token `json:"token"`
	Scopes    []string      `json:"scopes"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Covers reports whether every requested scope was granted to the token.
func (c *CachedToken) Covers(scopes []string) bool {
	for _, s := range scopes {
		if !slices.Contains(c.Scopes, s) {
			return false
		}
	}
	return true
}

// Usable reports whether the token can authorize requests, either directly or
// after a refresh.
func (c *CachedToken) Usable() bool {
	if c.Token == nil {
		return false
	}
	return c.Token.Valid() || c.Token.RefreshToken != ""
}
