package auth

import "time"

// AccessClaims represents the claims stored in a PASETO access token.
type AccessClaims struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"sid"`
	Email     string `json:"email"`
	IsAdmin   bool   `json:"is_admin"`

	Issuer     string    `json:"iss"`
	Subject    string    `json:"sub"`
	Audience   string    `json:"aud"`
	Expiration time.Time `json:"exp"`
	NotBefore  time.Time `json:"nbf"`
	IssuedAt   time.Time `json:"iat"`
	TokenID    string    `json:"jti"`
}
