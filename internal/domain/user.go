package domain

import (
	"errors"
	"strings"
	"time"
)

// ErrPasswordNotSet is returned by HashPassword when the account carries
// neither a pending password nor an existing hash.
var ErrPasswordNotSet = errors.New("password not set")

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// User represents a registered account. PasswordHash and the session fields
// never leave the service in JSON.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	LoginType    LoginType `json:"loginType"`

	// SessionTokenHash is the SHA-256 of the token currently bound to the
	// account: the combined token in single mode, the refresh token in
	// paired mode. Empty when logged out.
	SessionTokenHash string `json:"-"`
	// SessionID is the jti of the bound token.
	SessionID string `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	pendingPassword  string
	passwordModified bool
}

// SetPassword stages a new plaintext password. It is hashed by HashPassword.
func (u *User) SetPassword(plaintext string) {
	u.pendingPassword = plaintext
	u.passwordModified = true
}

// PasswordModified reports whether a staged password awaits hashing.
func (u *User) PasswordModified() bool {
	return u.passwordModified
}

// HashPassword hashes the staged password, if any, and clears it. An
// unmodified password is left alone so an existing hash is never re-hashed.
func (u *User) HashPassword(h PasswordHasher) error {
	if !u.passwordModified {
		if u.PasswordHash == "" {
			return ErrPasswordNotSet
		}
		return nil
	}

	digest, err := h.Hash(u.pendingPassword)
	if err != nil {
		return err
	}
	u.PasswordHash = digest
	u.pendingPassword = ""
	u.passwordModified = false
	return nil
}

// HasSession reports whether a token is currently bound to the account.
func (u *User) HasSession() bool {
	return u.SessionTokenHash != ""
}

// Sanitized returns a copy without credential or session state.
func (u *User) Sanitized() *User {
	c := *u
	c.PasswordHash = ""
	c.SessionTokenHash = ""
	c.SessionID = ""
	c.pendingPassword = ""
	c.passwordModified = false
	return &c
}

// Identity is the resolved caller attached to an authenticated request.
type Identity struct {
	UserID   string
	Username string
	Email    string
	Role     string
}

// Identity returns the request identity for u.
func (u *User) Identity() Identity {
	return Identity{UserID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeUsername lower-cases and trims a username.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
