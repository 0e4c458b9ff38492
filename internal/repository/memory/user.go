package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tusharag6/homestead-api/internal/domain"
	"github.com/tusharag6/homestead-api/internal/repository"
	apperrors "github.com/tusharag6/homestead-api/pkg/errors"
)

// UserRepository implements repository.UserRepository using in-memory maps.
// Stored users are copied in and out so callers never share state.
type UserRepository struct {
	mu             sync.RWMutex
	users          map[string]domain.User
	uniqueUsername bool
}

// UserOption configures a UserRepository.
type UserOption func(*UserRepository)

// WithUniqueUsername makes Create reject a username that is already in use.
func WithUniqueUsername() UserOption {
	return func(r *UserRepository) { r.uniqueUsername = true }
}

// NewUserRepository creates an empty in-memory user repository.
func NewUserRepository(opts ...UserOption) *UserRepository {
	r := &UserRepository{
		users: make(map[string]domain.User),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ repository.UserRepository = (*UserRepository)(nil)

// Create stores a new user. The email must be unused, and so must the
// username when usernames are unique.
func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return apperrors.AlreadyExists("user", "email", user.Email)
		}
		if r.uniqueUsername && u.Username == user.Username {
			return fmt.Errorf("%w: %w", apperrors.AlreadyExists("user", "username", user.Username), repository.ErrUsernameTaken)
		}
	}

	stored := *user
	stored.SessionTokenHash = ""
	stored.SessionID = ""
	r.users[user.ID] = stored
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &u, nil
}

// GetByEmail retrieves a user by normalized email.
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email })
}

// GetByUsername retrieves the oldest user holding username.
func (r *UserRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Username == username })
}

// GetBySessionHash retrieves the user whose bound token hashes to tokenHash.
func (r *UserRepository) GetBySessionHash(_ context.Context, tokenHash string) (*domain.User, error) {
	if tokenHash == "" {
		return nil, apperrors.ErrNotFound
	}
	return r.find(func(u *domain.User) bool { return u.SessionTokenHash == tokenHash })
}

func (r *UserRepository) find(match func(*domain.User) bool) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *domain.User
	for _, u := range r.users {
		if !match(&u) {
			continue
		}
		if found == nil || u.CreatedAt.Before(found.CreatedAt) {
			c := u
			found = &c
		}
	}
	if found == nil {
		return nil, apperrors.ErrNotFound
	}
	return found, nil
}

// SetSession binds session to the user, replacing any previous one.
func (r *UserRepository) SetSession(_ context.Context, userID string, session domain.Session) error {
	return r.update(userID, func(u *domain.User) error {
		u.SessionTokenHash = session.TokenHash
		u.SessionID = session.ID
		return nil
	})
}

// RotateSession swaps the session only while expectedHash is still bound.
func (r *UserRepository) RotateSession(_ context.Context, userID, expectedHash string, next domain.Session) error {
	return r.update(userID, func(u *domain.User) error {
		if u.SessionTokenHash == "" || u.SessionTokenHash != expectedHash {
			return repository.ErrStaleSession
		}
		u.SessionTokenHash = next.TokenHash
		u.SessionID = next.ID
		return nil
	})
}

// ClearSession unbinds the user's session.
func (r *UserRepository) ClearSession(_ context.Context, userID string) error {
	return r.update(userID, func(u *domain.User) error {
		u.SessionTokenHash = ""
		u.SessionID = ""
		return nil
	})
}

// UpdatePassword stores a new password hash and logs the user out.
func (r *UserRepository) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	return r.update(userID, func(u *domain.User) error {
		u.PasswordHash = passwordHash
		u.SessionTokenHash = ""
		u.SessionID = ""
		return nil
	})
}

func (r *UserRepository) update(userID string, fn func(*domain.User) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return apperrors.NotFound("user", userID)
	}
	if err := fn(&u); err != nil {
		return err
	}
	u.UpdatedAt = time.Now().UTC()
	r.users[userID] = u
	return nil
}
