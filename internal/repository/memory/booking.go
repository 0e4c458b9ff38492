package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/tusharag6/homestead-api/internal/domain"
	"github.com/tusharag6/homestead-api/internal/repository"
	apperrors "github.com/tusharag6/homestead-api/pkg/errors"
)

// BookingRepository implements repository.BookingRepository in memory.
// Listings are resolved through the given listing repository when a user's
// bookings are listed.
type BookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]domain.Booking
	listings repository.ListingRepository
}

// NewBookingRepository creates an empty in-memory booking repository.
func NewBookingRepository(listings repository.ListingRepository) *BookingRepository {
	return &BookingRepository{
		bookings: make(map[string]domain.Booking),
		listings: listings,
	}
}

var _ repository.BookingRepository = (*BookingRepository)(nil)

// Create stores a booking.
func (r *BookingRepository) Create(_ context.Context, b *domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bookings[b.ID]; exists {
		return apperrors.AlreadyExists("booking", "id", b.ID)
	}
	stored := *b
	stored.Listing = nil
	r.bookings[b.ID] = stored
	return nil
}

// GetByID retrieves a booking by ID.
func (r *BookingRepository) GetByID(_ context.Context, id string) (*domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &b, nil
}

// ListByUserID returns the user's bookings, newest first, with listings attached.
func (r *BookingRepository) ListByUserID(ctx context.Context, userID string) ([]domain.Booking, error) {
	r.mu.RLock()
	out := []domain.Booking{}
	for _, b := range r.bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	for i := range out {
		l, err := r.listings.GetByID(ctx, out[i].ListingID)
		if err != nil {
			return nil, err
		}
		out[i].Listing = l
	}
	return out, nil
}
