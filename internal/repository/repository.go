package repository

import (
	"context"
	"errors"

	"github.com/tusharag6/homestead-api/internal/domain"
)

// ErrStaleSession is returned by RotateSession when the stored token no
// longer matches the expected value, i.e. it was rotated or cleared by a
// concurrent request.
var ErrStaleSession = errors.New("session token no longer current")

// ErrUsernameTaken is wrapped into the ALREADY_EXISTS error Create returns
// when usernames are unique and the username is in use.
var ErrUsernameTaken = errors.New("username already taken")

// UserRepository defines the interface for credential and session persistence.
type UserRepository interface {
	// Create inserts a new user. It fails with an ALREADY_EXISTS error when
	// the email is taken, or when usernames are unique and the username is
	// taken, in which case the error also wraps ErrUsernameTaken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their normalized email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByUsername retrieves a user by their normalized username.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// GetBySessionHash retrieves the user whose bound token hashes to tokenHash.
	GetBySessionHash(ctx context.Context, tokenHash string) (*domain.User, error)

	// SetSession binds a new session to the user, replacing any previous one.
	SetSession(ctx context.Context, userID string, session domain.Session) error

	// RotateSession replaces the session only if the stored token hash still
	// equals expectedHash. It returns ErrStaleSession otherwise.
	RotateSession(ctx context.Context, userID, expectedHash string, next domain.Session) error

	// ClearSession unbinds the user's session.
	ClearSession(ctx context.Context, userID string) error

	// UpdatePassword stores a new password hash and clears the session.
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// ListingRepository defines read access to listings.
type ListingRepository interface {
	// List returns up to limit listings starting at offset, oldest first.
	List(ctx context.Context, offset, limit int) ([]domain.Listing, error)

	// Count returns the total number of listings.
	Count(ctx context.Context) (int, error)

	// GetByID retrieves a listing by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Listing, error)
}

// BookingRepository defines the interface for booking persistence operations.
type BookingRepository interface {
	// Create inserts a new booking.
	Create(ctx context.Context, booking *domain.Booking) error

	// GetByID retrieves a booking by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Booking, error)

	// ListByUserID returns the user's bookings, newest first, with their
	// listing populated.
	ListByUserID(ctx context.Context, userID string) ([]domain.Booking, error)
}

// ListingPage is one cached page of listings.
type ListingPage struct {
	Listings []domain.Listing `json:"listings"`
	Total    int              `json:"total"`
}

// ListingCache caches listing reads. A miss is reported as found=false with
// a nil error.
type ListingCache interface {
	GetPage(ctx context.Context, offset, limit int) (page *ListingPage, found bool, err error)
	SetPage(ctx context.Context, offset, limit int, page *ListingPage) error
	GetListing(ctx context.Context, id string) (listing *domain.Listing, found bool, err error)
	SetListing(ctx context.Context, listing *domain.Listing) error
}
