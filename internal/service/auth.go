package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tusharag6/homestead-api/internal/auth"
	"github.com/tusharag6/homestead-api/internal/config"
	"github.com/tusharag6/homestead-api/internal/domain"
	"github.com/tusharag6/homestead-api/internal/repository"
	apperrors "github.com/tusharag6/homestead-api/pkg/errors"
)

// Client-facing messages.
const (
	msgEmailTaken     = "An account with this email already exists."
	msgUsernameTaken  = "An account with this username already exists."
	msgNoToken        = "Unauthorized request"
	msgInvalidToken   = "Invalid access token"
	msgInvalidRefresh = "Invalid refresh token"
	msgLoginAgain     = "Login Again!"
)

// AuthOptions selects the token scheme and the account rules.
type AuthOptions struct {
	// Paired issues access/refresh pairs instead of one combined token.
	Paired bool
	// LoginIdentifier is one of config.IdentifierEmail, IdentifierUsername
	// or IdentifierEither.
	LoginIdentifier string
	// UniqueUsername rejects registrations reusing a username.
	UniqueUsername bool
}

// AuthService manages the session lifecycle: registration, login, token
// resolution, refresh rotation and logout.
type AuthService struct {
	users  repository.UserRepository
	hasher domain.PasswordHasher
	issuer *auth.Issuer
	events EventPublisher
	opts   AuthOptions
	logger *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	users repository.UserRepository,
	hasher domain.PasswordHasher,
	issuer *auth.Issuer,
	events EventPublisher,
	opts AuthOptions,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		issuer: issuer,
		events: events,
		opts:   opts,
		logger: logger,
	}
}

// RegisterInput holds the parameters for registering a new account.
type RegisterInput struct {
	Email    string
	Username string
	Password string
	Role     string
}

// LoginInput holds the credentials presented at login. Which identifier is
// consulted depends on AuthOptions.LoginIdentifier.
type LoginInput struct {
	Email    string
	Username string
	Password string
}

// ChangePasswordInput holds the parameters for a password change.
type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
}

// AuthResult is the sanitized account and the credentials issued for it.
type AuthResult struct {
	User   *domain.User
	Tokens domain.Tokens
}

// Paired reports whether access/refresh pairs are issued.
func (s *AuthService) Paired() bool {
	return s.opts.Paired
}

// Register creates a new email/password account and returns it sanitized.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (_ *domain.User, err error) {
	defer func() { recordAuth(eventRegister, err) }()

	email := domain.NormalizeEmail(input.Email)
	username := domain.NormalizeUsername(input.Username)
	if email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if username == "" {
		return nil, apperrors.InvalidInput("username is required")
	}
	if input.Password == "" {
		return nil, apperrors.InvalidInput("password is required")
	}

	role := input.Role
	if role == "" {
		role = domain.RoleUser
	} else if !domain.IsValidRole(role) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("role must be one of %s", strings.Join(domain.ValidRoles(), ", ")))
	}

	if err := s.ensureAvailable(ctx, email, username); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:        uuid.New().String(),
		Username:  username,
		Email:     email,
		Role:      role,
		LoginType: domain.LoginEmailPassword,
		CreatedAt: now,
		UpdatedAt: now,
	}
	user.SetPassword(input.Password)
	if err := user.HashPassword(s.hasher); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			return nil, apperrors.Conflict(msgUsernameTaken)
		}
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, apperrors.Conflict(msgEmailTaken)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.events.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
		slog.String("role", user.Role),
	)

	return user.Sanitized(), nil
}

func (s *AuthService) ensureAvailable(ctx context.Context, email, username string) error {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return apperrors.Conflict(msgEmailTaken)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("check email: %w", err)
	}

	if !s.opts.UniqueUsername {
		return nil
	}
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return apperrors.Conflict(msgUsernameTaken)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("check username: %w", err)
	}
	return nil
}

// Login verifies credentials, binds a new session to the account and
// returns the issued token(s). A previous session is replaced.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (_ *AuthResult, err error) {
	defer func() { recordAuth(eventLogin, err) }()

	if input.Password == "" {
		return nil, apperrors.InvalidInput("password is required")
	}
	user, field, err := s.findForLogin(ctx, input)
	if err != nil {
		return nil, err
	}

	if user.LoginType != domain.LoginEmailPassword {
		method := strings.ToLower(string(user.LoginType))
		return nil, apperrors.WrongLoginMethod(fmt.Sprintf(
			"You have previously registered using %s. Please use the %s login option to access your account.",
			method, method,
		))
	}

	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		return nil, apperrors.InvalidCredentials(fmt.Sprintf("Incorrect %s or password!", field))
	}

	tokens, session, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetSession(ctx, user.ID, session); err != nil {
		return nil, fmt.Errorf("bind session: %w", err)
	}

	if err := s.events.PublishUserLoggedIn(ctx, user, session.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.logged_in event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
		slog.String("identifier", field),
	)

	return &AuthResult{User: user.Sanitized(), Tokens: tokens}, nil
}

// findForLogin looks the account up by the configured identifier. It returns
// the identifier kind used so messages can name it.
func (s *AuthService) findForLogin(ctx context.Context, input LoginInput) (*domain.User, string, error) {
	email := domain.NormalizeEmail(input.Email)
	username := domain.NormalizeUsername(input.Username)

	var (
		user  *domain.User
		field string
		err   error
	)
	switch s.opts.LoginIdentifier {
	case config.IdentifierUsername:
		if username == "" {
			return nil, "", apperrors.InvalidInput("username is required")
		}
		field = "username"
		user, err = s.users.GetByUsername(ctx, username)
	case config.IdentifierEither:
		switch {
		case email != "":
			field = "email"
			user, err = s.users.GetByEmail(ctx, email)
		case username != "":
			field = "username"
			user, err = s.users.GetByUsername(ctx, username)
		default:
			return nil, "", apperrors.InvalidInput("email or username is required")
		}
	default:
		if email == "" {
			return nil, "", apperrors.InvalidInput("Please provide a valid email address.")
		}
		field = "email"
		user, err = s.users.GetByEmail(ctx, email)
	}

	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, field, apperrors.NotFoundMessage(fmt.Sprintf("No account found with this %s. Please register.", field))
		}
		return nil, field, fmt.Errorf("find user by %s: %w", field, err)
	}
	return user, field, nil
}

// ResolveSession turns a presented token into the sanitized account it is
// bound to. It has no side effects.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (_ *domain.User, err error) {
	defer func() { recordAuth(eventResolve, err) }()

	if token == "" {
		return nil, apperrors.Unauthenticated(msgNoToken)
	}

	kind := auth.KindSession
	if s.opts.Paired {
		kind = auth.KindAccess
	}
	claims, err := s.issuer.Verify(kind, token)
	if err != nil {
		return nil, tokenError(err, msgInvalidToken)
	}

	var user *domain.User
	if s.opts.Paired {
		if _, perr := uuid.Parse(claims.UserID); perr != nil {
			return nil, apperrors.InvalidToken(msgInvalidToken)
		}
		user, err = s.users.GetByID(ctx, claims.UserID)
	} else {
		user, err = s.users.GetBySessionHash(ctx, auth.HashToken(token))
	}
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.InvalidToken(msgInvalidToken)
		}
		return nil, fmt.Errorf("resolve session: %w", err)
	}

	// The token must belong to the session currently bound to the account,
	// so logout and rotation revoke it.
	if user.ID != claims.UserID || !user.HasSession() || user.SessionID != claims.SessionID() {
		return nil, apperrors.InvalidToken(msgInvalidToken)
	}

	return user.Sanitized(), nil
}

// Refresh exchanges the bound token for a new one. In paired mode the
// refresh token is verified and rotated; in single mode the combined token
// is accepted past its expiry as long as it is still the bound one. The old
// token is invalidated atomically, so a token can be redeemed only once.
func (s *AuthService) Refresh(ctx context.Context, token string) (_ *AuthResult, err error) {
	defer func() { recordAuth(eventRefresh, err) }()

	if token == "" {
		return nil, apperrors.Unauthenticated(msgNoToken)
	}

	var claims *auth.Claims
	if s.opts.Paired {
		claims, err = s.issuer.Verify(auth.KindRefresh, token)
	} else {
		claims, err = s.issuer.VerifySignature(auth.KindSession, token)
	}
	if err != nil {
		return nil, tokenError(err, msgInvalidRefresh)
	}

	hash := auth.HashToken(token)
	user, err := s.users.GetBySessionHash(ctx, hash)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.InvalidToken(msgInvalidRefresh)
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	if user.ID != claims.UserID {
		return nil, apperrors.InvalidToken(msgInvalidRefresh)
	}

	tokens, session, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	if err := s.users.RotateSession(ctx, user.ID, hash, session); err != nil {
		if errors.Is(err, repository.ErrStaleSession) || errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.InvalidToken(msgInvalidRefresh)
		}
		return nil, fmt.Errorf("rotate session: %w", err)
	}

	s.logger.InfoContext(ctx, "session refreshed", slog.String("user_id", user.ID))

	return &AuthResult{User: user.Sanitized(), Tokens: tokens}, nil
}

// Logout unbinds the caller's session.
func (s *AuthService) Logout(ctx context.Context, userID string) (err error) {
	defer func() { recordAuth(eventLogout, err) }()

	if err := s.users.ClearSession(ctx, userID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.ReauthRequired(msgLoginAgain)
		}
		return fmt.Errorf("clear session: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged out", slog.String("user_id", userID))
	return nil
}

// Profile returns the caller's sanitized account.
func (s *AuthService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ReauthRequired(msgLoginAgain)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user.Sanitized(), nil
}

// ChangePassword replaces the caller's password after checking the current
// one. The session is revoked; the caller must log in again.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, input ChangePasswordInput) (err error) {
	defer func() { recordAuth(eventChangePassword, err) }()

	if input.CurrentPassword == "" || input.NewPassword == "" {
		return apperrors.InvalidInput("current and new password are required")
	}
	if input.CurrentPassword == input.NewPassword {
		return apperrors.InvalidInput("new password must differ from the current password")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.ReauthRequired(msgLoginAgain)
		}
		return fmt.Errorf("get user: %w", err)
	}
	if user.LoginType != domain.LoginEmailPassword {
		return apperrors.WrongLoginMethod("Password login is not enabled for this account.")
	}
	if !s.hasher.Verify(input.CurrentPassword, user.PasswordHash) {
		return apperrors.InvalidCredentials("Incorrect current password!")
	}

	user.SetPassword(input.NewPassword)
	if err := user.HashPassword(s.hasher); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, user.PasswordHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.logger.InfoContext(ctx, "password changed", slog.String("user_id", user.ID))
	return nil
}

// issue mints credentials for user and the session record that binds them.
func (s *AuthService) issue(user *domain.User) (domain.Tokens, domain.Session, error) {
	id := user.Identity()

	if !s.opts.Paired {
		t, err := s.issuer.Issue(auth.KindSession, id, "")
		if err != nil {
			return domain.Tokens{}, domain.Session{}, tokenError(err, msgInvalidToken)
		}
		tokens := domain.Tokens{Token: t.Token, TokenTTL: s.issuer.TTL(auth.KindSession)}
		return tokens, domain.Session{ID: t.SessionID, TokenHash: auth.HashToken(t.Token)}, nil
	}

	sessionID := uuid.New().String()
	access, err := s.issuer.Issue(auth.KindAccess, id, sessionID)
	if err != nil {
		return domain.Tokens{}, domain.Session{}, tokenError(err, msgInvalidToken)
	}
	refresh, err := s.issuer.Issue(auth.KindRefresh, id, sessionID)
	if err != nil {
		return domain.Tokens{}, domain.Session{}, tokenError(err, msgInvalidRefresh)
	}

	tokens := domain.Tokens{
		AccessToken:     access.Token,
		RefreshToken:    refresh.Token,
		AccessTokenTTL:  s.issuer.TTL(auth.KindAccess),
		RefreshTokenTTL: s.issuer.TTL(auth.KindRefresh),
	}
	return tokens, domain.Session{ID: sessionID, TokenHash: auth.HashToken(refresh.Token)}, nil
}

// tokenError maps issuer failures onto the error taxonomy. A missing secret
// is an operator fault, everything else is the client's token.
func tokenError(err error, message string) error {
	switch {
	case errors.Is(err, auth.ErrSecretNotConfigured):
		return apperrors.Misconfigured(err.Error())
	case errors.Is(err, auth.ErrTokenExpired), errors.Is(err, auth.ErrTokenInvalid):
		return apperrors.InvalidToken(message)
	default:
		return apperrors.Internal(err)
	}
}
