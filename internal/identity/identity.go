// Package identity resolves the signed-in user that remote data is scoped to.
// Sign-in itself happens elsewhere; cyberdeck only verifies the session token
// the identity provider issued.
package identity

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Sentinel errors.
var (
	ErrMissingToken = errors.New("no session token")
	ErrInvalidToken = errors.New("invalid session token")
	ErrExpiredToken = errors.New("session token has expired")
)

// User is the verified identity.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Provider yields the current user.
type Provider interface {
	Current() (User, error)
}

// Claims are the session token claims cyberdeck reads. The user id is the
// standard "sub" claim.
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Verify checks an HMAC-signed session token and returns its user.
func Verify(token, secret string) (User, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return User{}, ErrMissingToken
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return User{}, ErrExpiredToken
		}
		return User{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return User{}, ErrInvalidToken
	}
	return User{ID: claims.Subject, Email: claims.Email, Role: claims.Role}, nil
}

// Session verifies a token taken from an environment variable or a file.
type Session struct {
	Secret string
	Token  string // takes precedence over File
	File   string
}

// Current implements Provider.
func (s Session) Current() (User, error) {
	token := s.Token
	if token == "" && s.File != "" {
		data, err := os.ReadFile(s.File) //nolint:gosec // user-configured session file
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return User{}, fmt.Errorf("reading session file: %w", err)
		}
		token = string(data)
	}
	return Verify(token, s.Secret)
}

// Static always returns the same user.
type Static struct {
	User User
}

// Current implements Provider.
func (s Static) Current() (User, error) {
	if s.User.ID == "" {
		return User{}, ErrMissingToken
	}
	return s.User, nil
}

// Sign issues an HS256 session token for u. Self-hosted backends without an
// identity provider use it through `cyberdeck login --issue`.
func Sign(u User, secret string, claims jwt.RegisteredClaims) (string, error) {
	claims.Subject = u.ID
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email:            u.Email,
		Role:             u.Role,
		RegisteredClaims: claims,
	})
	return token.SignedString([]byte(secret))
}
