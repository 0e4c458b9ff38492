package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tusharag6/homestead-api/internal/domain"
	"github.com/tusharag6/homestead-api/internal/repository"
	"github.com/tusharag6/homestead-api/pkg/database"
	apperrors "github.com/tusharag6/homestead-api/pkg/errors"
)

const userColumns = `id, username, email, password_hash, role, login_type, session_token_hash, session_id, created_at, updated_at`

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db             database.DBTX
	uniqueUsername bool
}

// UserOption configures a UserRepository.
type UserOption func(*UserRepository)

// WithUniqueUsername makes Create reject a username that is already in use.
func WithUniqueUsername() UserOption {
	return func(r *UserRepository) { r.uniqueUsername = true }
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(db database.DBTX, opts ...UserOption) *UserRepository {
	r := &UserRepository{db: db}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ repository.UserRepository = (*UserRepository)(nil)

const insertUserQuery = `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// Create inserts a new user into the database. With unique usernames the
// insert runs in a transaction holding an advisory lock on the username, so
// concurrent registrations of the same name are serialized.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (err error) {
	ctx, end := database.TraceQuery(ctx, "CreateUser", insertUserQuery)
	defer func() { end(err) }()

	if !r.uniqueUsername {
		return insertUser(ctx, r.db, u)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, u.Username); err != nil {
		return fmt.Errorf("lock username: %w", err)
	}

	var taken bool
	err = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, u.Username).Scan(&taken)
	if err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if taken {
		return usernameTaken(u.Username)
	}

	if err = insertUser(ctx, tx, u); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertUser(ctx context.Context, db execer, u *domain.User) error {
	_, err := db.Exec(ctx, insertUserQuery,
		u.ID,
		u.Username,
		u.Email,
		u.PasswordHash,
		u.Role,
		string(u.LoginType),
		u.SessionTokenHash,
		u.SessionID,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if _, ok := database.UniqueViolation(err); ok {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func usernameTaken(username string) error {
	return fmt.Errorf("%w: %w", apperrors.AlreadyExists("user", "username", username), repository.ErrUsernameTaken)
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.scanUser(ctx, "GetUserByID", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByEmail retrieves a user by their email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.scanUser(ctx, "GetUserByEmail", `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// GetByUsername retrieves the earliest registered user with the given username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.scanUser(ctx, "GetUserByUsername",
		`SELECT `+userColumns+` FROM users WHERE username = $1 ORDER BY created_at LIMIT 1`, username)
}

// GetBySessionHash retrieves the user currently bound to tokenHash.
func (r *UserRepository) GetBySessionHash(ctx context.Context, tokenHash string) (*domain.User, error) {
	if tokenHash == "" {
		return nil, apperrors.ErrNotFound
	}
	return r.scanUser(ctx, "GetUserBySessionHash",
		`SELECT `+userColumns+` FROM users WHERE session_token_hash = $1`, tokenHash)
}

// SetSession binds a session to the user, replacing any previous one.
func (r *UserRepository) SetSession(ctx context.Context, userID string, s domain.Session) error {
	return r.execUser(ctx, "SetSession",
		`UPDATE users SET session_token_hash = $1, session_id = $2, updated_at = $3 WHERE id = $4`,
		userID, s.TokenHash, s.ID, time.Now().UTC(), userID)
}

// RotateSession swaps the stored session only while it still holds
// expectedHash, so of two concurrent rotations of the same token only one
// updates a row.
func (r *UserRepository) RotateSession(ctx context.Context, userID, expectedHash string, next domain.Session) (err error) {
	query := `
		UPDATE users
		SET session_token_hash = $1, session_id = $2, updated_at = $3
		WHERE id = $4 AND session_token_hash = $5 AND session_token_hash <> ''`

	ctx, end := database.TraceQuery(ctx, "RotateSession", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, next.TokenHash, next.ID, time.Now().UTC(), userID, expectedHash)
	if err != nil {
		return fmt.Errorf("rotate session: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrStaleSession
	}
	return nil
}

// ClearSession unbinds the user's session.
func (r *UserRepository) ClearSession(ctx context.Context, userID string) error {
	return r.execUser(ctx, "ClearSession",
		`UPDATE users SET session_token_hash = '', session_id = '', updated_at = $1 WHERE id = $2`,
		userID, time.Now().UTC(), userID)
}

// UpdatePassword stores a new password hash and clears the session.
func (r *UserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	return r.execUser(ctx, "UpdatePassword",
		`UPDATE users SET password_hash = $1, session_token_hash = '', session_id = '', updated_at = $2 WHERE id = $3`,
		userID, passwordHash, time.Now().UTC(), userID)
}

// execUser runs a single-row update and maps zero affected rows to NOT_FOUND.
func (r *UserRepository) execUser(ctx context.Context, op, query, userID string, args ...any) (err error) {
	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", userID)
	}
	return nil
}

// scanUser is a helper that executes a query expected to return a single user row.
func (r *UserRepository) scanUser(ctx context.Context, op, query string, args ...any) (*domain.User, error) {
	ctx, end := database.TraceQuery(ctx, op, query)

	var (
		u         domain.User
		loginType string
	)
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&loginType,
		&u.SessionTokenHash,
		&u.SessionID,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	end(err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.LoginType = domain.LoginType(loginType)

	return &u, nil
}
