package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vigilclub/vigil/pkg/domain"
)

// ErrInvalidToken is returned when a bearer token cannot be decoded or
// carries no expiry.
var ErrInvalidToken = errors.New("session: invalid token")

// Claims are the identity fields the backend embeds in the access token.
type Claims struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
	IsStaff  bool   `json:"is_staff"`
	jwt.RegisteredClaims
}

// DecodeClaims reads the claims of token without verifying its signature.
// The client never holds the signing key; the server verifies on every call.
func DecodeClaims(token string) (*Claims, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, &Claims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected claims type", ErrInvalidToken)
	}
	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing exp", ErrInvalidToken)
	}
	return claims, nil
}

// Expired reports whether the token is past its expiry at now.
func (c *Claims) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt.Time)
}

// User projects the claims onto a User. Profile fields are never in the
// token and stay empty.
func (c *Claims) User() domain.User {
	u := domain.User{
		Email:     c.Email,
		Name:      c.Name,
		FullName:  c.FullName,
		AvatarURL: c.Avatar,
		IsStaff:   c.IsStaff,
	}
	u.NormalizeNames()
	return u
}

// loginUser merges the server's user record into the decoded identity.
// Claims own identity and the staff flag; the record only seeds what the
// token does not carry.
func loginUser(c *Claims, server domain.User) domain.User {
	u := c.User()
	if u.Email == "" {
		u.Email = server.Email
	}
	if u.FullName == "" {
		u.Name = server.Name
		u.FullName = server.FullName
		u.NormalizeNames()
	}
	if u.AvatarURL == "" {
		u.AvatarURL = server.AvatarURL
	}
	u.PhoneNumber = server.PhoneNumber
	u.College = server.College
	u.USN = server.USN
	return u
}
