package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tusharag6/homestead-api/internal/domain"
)

const issuer = "homestead-api"

// Kind distinguishes the tokens an Issuer can mint. Each kind is signed with
// its own secret so a token of one kind never verifies as another.
type Kind string

const (
	KindSession Kind = "session" // single-token mode
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

var (
	// ErrSecretNotConfigured means no signing secret exists for the kind.
	ErrSecretNotConfigured = errors.New("token secret not configured")
	// ErrTokenExpired means the token verified but is past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid covers malformed tokens, bad signatures and kind mismatches.
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims are the JWT claims carried by every token kind. The password hash
// is never a claim.
type Claims struct {
	UserID   string `json:"_id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	Kind     Kind   `json:"kind"`
	jwt.RegisteredClaims
}

// SessionID returns the jti that binds the token to a stored session.
func (c *Claims) SessionID() string {
	return c.ID
}

// Key is the signing secret and lifetime of one token kind.
type Key struct {
	Secret string
	TTL    time.Duration
}

// Issued is a freshly signed token.
type Issued struct {
	Token     string
	SessionID string
	ExpiresAt time.Time
}

// Issuer signs and verifies HS256 tokens.
type Issuer struct {
	keys map[Kind]Key
	now  func() time.Time
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// NewIssuer creates an issuer for the given kinds. A kind without an entry
// fails with ErrSecretNotConfigured when used.
func NewIssuer(keys map[Kind]Key, opts ...Option) *Issuer {
	i := &Issuer{keys: keys, now: time.Now}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// TTL returns the configured lifetime of kind.
func (i *Issuer) TTL(kind Kind) time.Duration {
	return i.keys[kind].TTL
}

// Issue signs a token of the given kind for id. Access and session tokens
// carry username, email and role; refresh tokens carry only the user id.
// sessionID becomes the jti; an empty value gets a fresh UUID.
func (i *Issuer) Issue(kind Kind, id domain.Identity, sessionID string) (Issued, error) {
	key, err := i.key(kind)
	if err != nil {
		return Issued{}, err
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	now := i.now().UTC()
	expiresAt := now.Add(key.TTL)

	claims := &Claims{
		UserID: id.UserID,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   id.UserID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if kind != KindRefresh {
		claims.Username = id.Username
		claims.Email = id.Email
		claims.Role = id.Role
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key.Secret))
	if err != nil {
		return Issued{}, fmt.Errorf("sign %s token: %w", kind, err)
	}

	return Issued{Token: signed, SessionID: sessionID, ExpiresAt: expiresAt}, nil
}

// Verify checks signature, expiry and kind, returning the claims.
func (i *Issuer) Verify(kind Kind, token string) (*Claims, error) {
	return i.parse(kind, token, jwt.WithExpirationRequired(), jwt.WithTimeFunc(i.now))
}

// VerifySignature checks signature and kind but not expiry. Single-mode
// refresh uses it: the stored hash decides whether the token is still live.
func (i *Issuer) VerifySignature(kind Kind, token string) (*Claims, error) {
	return i.parse(kind, token, jwt.WithoutClaimsValidation())
}

func (i *Issuer) parse(kind Kind, token string, opts ...jwt.ParserOption) (*Claims, error) {
	key, err := i.key(kind)
	if err != nil {
		return nil, err
	}

	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (any, error) {
		return []byte(key.Secret), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Kind != kind {
		return nil, fmt.Errorf("%w: expected %s token, got %q", ErrTokenInvalid, kind, claims.Kind)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing user id", ErrTokenInvalid)
	}

	return claims, nil
}

func (i *Issuer) key(kind Kind) (Key, error) {
	key, ok := i.keys[kind]
	if !ok || key.Secret == "" {
		return Key{}, fmt.Errorf("%w: %s", ErrSecretNotConfigured, kind)
	}
	return key, nil
}

// HashToken returns the SHA256 hex digest of the given token string.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
