package token

import (
	"encoding/json"
	"time"
)

const accessTokenType = "access"

// Claims is what a verified token says about its bearer.
type Claims struct {
	UserID    string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// MarshalJSON renders the claims as {id, role, iat, exp} with unix-second timestamps.
func (c Claims) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID   string `json:"id"`
		Role string `json:"role,omitempty"`
		Iat  int64  `json:"iat"`
		Exp  int64  `json:"exp"`
	}{
		ID:   c.UserID,
		Role: c.Role,
		Iat:  c.IssuedAt.Unix(),
		Exp:  c.ExpiresAt.Unix(),
	})
}

// IsExpired reports whether the claims are past their expiry at now.
func (c Claims) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
