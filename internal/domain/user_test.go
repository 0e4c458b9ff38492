package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingHasher prefixes its input so tests can tell hashes from plaintext.
type countingHasher struct {
	calls int
	err   error
}

func (h *countingHasher) Hash(plaintext string) (string, error) {
	h.calls++
	if h.err != nil {
		return "", h.err
	}
	return "hashed:" + plaintext, nil
}

func (h *countingHasher) Verify(plaintext, digest string) bool {
	return digest == "hashed:"+plaintext
}

func TestIsValidRole(t *testing.T) {
	assert.ElementsMatch(t, []string{RoleUser, RoleAdmin}, ValidRoles())
	assert.True(t, IsValidRole("USER"))
	assert.True(t, IsValidRole("ADMIN"))
	assert.False(t, IsValidRole("user"))
	assert.False(t, IsValidRole(""))
}

func TestLoginType_Valid(t *testing.T) {
	assert.True(t, LoginEmailPassword.Valid())
	assert.True(t, LoginGoogle.Valid())
	assert.True(t, LoginGitHub.Valid())
	assert.False(t, LoginType("FACEBOOK").Valid())
}

func TestUser_HashPassword_OnlyWhenModified(t *testing.T) {
	h := &countingHasher{}
	u := &User{}
	u.SetPassword("pw123")
	require.True(t, u.PasswordModified())

	require.NoError(t, u.HashPassword(h))
	assert.Equal(t, "hashed:pw123", u.PasswordHash)
	assert.False(t, u.PasswordModified())

	// A second save must not hash the hash.
	require.NoError(t, u.HashPassword(h))
	assert.Equal(t, "hashed:pw123", u.PasswordHash)
	assert.Equal(t, 1, h.calls)
}

func TestUser_HashPassword_NothingToHash(t *testing.T) {
	err := (&User{}).HashPassword(&countingHasher{})
	assert.ErrorIs(t, err, ErrPasswordNotSet)
}

func TestUser_HashPassword_HasherError(t *testing.T) {
	u := &User{PasswordHash: "hashed:old"}
	u.SetPassword("new")

	err := u.HashPassword(&countingHasher{err: errors.New("boom")})
	require.Error(t, err)
	assert.Equal(t, "hashed:old", u.PasswordHash)
	assert.True(t, u.PasswordModified())
}

func TestUser_Sanitized(t *testing.T) {
	u := &User{
		ID:               "u-1",
		Username:         "alice",
		Email:            "a@x.com",
		PasswordHash:     "hash",
		Role:             RoleUser,
		LoginType:        LoginEmailPassword,
		SessionTokenHash: "token-hash",
		SessionID:        "jti",
	}

	s := u.Sanitized()
	assert.Empty(t, s.PasswordHash)
	assert.Empty(t, s.SessionTokenHash)
	assert.Empty(t, s.SessionID)
	assert.Equal(t, "alice", s.Username)
	assert.Equal(t, "hash", u.PasswordHash, "original must be untouched")
}

func TestUser_JSONOmitsSecrets(t *testing.T) {
	u := User{ID: "u-1", PasswordHash: "hash", SessionTokenHash: "th", SessionID: "sid"}

	body, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "hash")
	assert.NotContains(t, string(body), "sid")
}

func TestUser_Identity(t *testing.T) {
	u := &User{ID: "u-1", Username: "alice", Email: "a@x.com", Role: RoleAdmin}
	assert.Equal(t, Identity{UserID: "u-1", Username: "alice", Email: "a@x.com", Role: RoleAdmin}, u.Identity())
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "a@x.com", NormalizeEmail("  A@X.Com "))
	assert.Equal(t, "alice", NormalizeUsername("Alice\t"))
}

func TestBooking_OwnedBy(t *testing.T) {
	b := &Booking{UserID: "u-1"}
	assert.True(t, b.OwnedBy("u-1"))
	assert.False(t, b.OwnedBy("u-2"))
}
