package api

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fragmede/ativo/internal/auth"
)

// AccessClaims are the fields the client reads from an access token.
type AccessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// ParseAccessClaims decodes an access token without verifying its signature.
// The backend verifies every request; the client only needs expiry and
// subject to schedule refreshes.
func ParseAccessClaims(raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("parsing access token: %w", err)
	}
	return claims, nil
}

type userBody struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// tokenBody is the auth API's token grant response. The signup endpoint
// returns the bare user object instead when confirmation is required.
type tokenBody struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"`
	ExpiresAt    int64     `json:"expires_at"`
	RefreshToken string    `json:"refresh_token"`
	User         *userBody `json:"user"`

	ID    string `json:"id"`
	Email string `json:"email"`
}

// session converts a grant response. It returns nil when no token was issued.
func (b *tokenBody) session(now time.Time) *auth.RemoteSession {
	if b.AccessToken == "" {
		return nil
	}
	s := &auth.RemoteSession{
		AccessToken:  b.AccessToken,
		RefreshToken: b.RefreshToken,
	}

	claims, _ := ParseAccessClaims(b.AccessToken)

	switch {
	case b.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(b.ExpiresAt, 0)
	case b.ExpiresIn > 0:
		s.ExpiresAt = now.Add(time.Duration(b.ExpiresIn) * time.Second)
	case claims != nil && claims.ExpiresAt != nil:
		s.ExpiresAt = claims.ExpiresAt.Time
	}

	if b.User != nil {
		s.User = auth.Identity{ID: b.User.ID, Email: b.User.Email}
	} else if claims != nil {
		s.User = auth.Identity{ID: claims.Subject, Email: claims.Email}
	}
	return s
}
