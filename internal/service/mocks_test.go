package service

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/tusharag6/homestead-api/internal/auth"
	"github.com/tusharag6/homestead-api/internal/domain"
	"github.com/tusharag6/homestead-api/internal/repository"
)

// --- Mock User Repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetBySessionHash(ctx context.Context, tokenHash string) (*domain.User, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) SetSession(ctx context.Context, userID string, session domain.Session) error {
	args := m.Called(ctx, userID, session)
	return args.Error(0)
}

func (m *mockUserRepository) RotateSession(ctx context.Context, userID, expectedHash string, next domain.Session) error {
	args := m.Called(ctx, userID, expectedHash, next)
	return args.Error(0)
}

func (m *mockUserRepository) ClearSession(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	args := m.Called(ctx, userID, passwordHash)
	return args.Error(0)
}

// --- Mock Listing Repository ---

type mockListingRepository struct {
	mock.Mock
}

func (m *mockListingRepository) List(ctx context.Context, offset, limit int) ([]domain.Listing, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Listing), args.Error(1)
}

func (m *mockListingRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockListingRepository) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}

// --- Mock Listing Cache ---

type mockListingCache struct {
	mock.Mock
}

func (m *mockListingCache) GetPage(ctx context.Context, offset, limit int) (*repository.ListingPage, bool, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*repository.ListingPage), args.Bool(1), args.Error(2)
}

func (m *mockListingCache) SetPage(ctx context.Context, offset, limit int, page *repository.ListingPage) error {
	args := m.Called(ctx, offset, limit, page)
	return args.Error(0)
}

func (m *mockListingCache) GetListing(ctx context.Context, id string) (*domain.Listing, bool, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.Listing), args.Bool(1), args.Error(2)
}

func (m *mockListingCache) SetListing(ctx context.Context, listing *domain.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}

// --- Mock Event Publisher ---

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockPublisher) PublishUserLoggedIn(ctx context.Context, user *domain.User, sessionID string) error {
	args := m.Called(ctx, user, sessionID)
	return args.Error(0)
}

func (m *mockPublisher) PublishBookingCreated(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

// --- Helpers ---

// prefixHasher is a fast reversible stand-in for bcrypt.
type prefixHasher struct{}

func (prefixHasher) Hash(plaintext string) (string, error) { return "hashed:" + plaintext, nil }

func (prefixHasher) Verify(plaintext, digest string) bool {
	return strings.TrimPrefix(digest, "hashed:") == plaintext && strings.HasPrefix(digest, "hashed:")
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testIssuer(opts ...auth.Option) *auth.Issuer {
	return auth.NewIssuer(map[auth.Kind]auth.Key{
		auth.KindSession: {Secret: "session-secret-0123456789abcdefghij", TTL: time.Hour},
		auth.KindAccess:  {Secret: "access-secret-0123456789abcdefghijk", TTL: 15 * time.Minute},
		auth.KindRefresh: {Secret: "refresh-secret-0123456789abcdefghij", TTL: 240 * time.Hour},
	}, opts...)
}
