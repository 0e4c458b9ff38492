package domain

import "time"

// Tokens holds the credentials issued at login or refresh. Single mode
// fills Token; paired mode fills AccessToken and RefreshToken.
type Tokens struct {
	Token        string `json:"token,omitempty"`
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`

	// Lifetimes, used for cookie Max-Age.
	TokenTTL        time.Duration `json:"-"`
	AccessTokenTTL  time.Duration `json:"-"`
	RefreshTokenTTL time.Duration `json:"-"`
}

// Session is the stored half of an issued token.
type Session struct {
	ID        string
	TokenHash string
}
