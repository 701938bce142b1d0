package identity

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestVerify(t *testing.T) {
	token, err := Sign(User{ID: "user-1", Email: "a@example.com"}, secret, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	require.NoError(t, err)

	u, err := Verify("Bearer "+token, secret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", u.ID)
	assert.Equal(t, "a@example.com", u.Email)

	_, err = Verify(token, "other-secret")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = Verify("", secret)
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestVerifyExpired(t *testing.T) {
	token, err := Sign(User{ID: "user-1"}, secret, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	require.NoError(t, err)

	_, err = Verify(token, secret)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyRequiresSubject(t *testing.T) {
	token, err := Sign(User{}, secret, jwt.RegisteredClaims{})
	require.NoError(t, err)

	_, err = Verify(token, secret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionFile(t *testing.T) {
	token, err := Sign(User{ID: "user-2"}, secret, jwt.RegisteredClaims{})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "session")
	require.NoError(t, os.WriteFile(path, []byte(token+"\n"), 0o600))

	u, err := Session{Secret: secret, File: path}.Current()
	require.NoError(t, err)
	assert.Equal(t, "user-2", u.ID)

	_, err = Session{Secret: secret, File: filepath.Join(t.TempDir(), "missing")}.Current()
	assert.ErrorIs(t, err, ErrMissingToken)

	u, err = Static{User: User{ID: "fixed"}}.Current()
	require.NoError(t, err)
	assert.Equal(t, "fixed", u.ID)
}
