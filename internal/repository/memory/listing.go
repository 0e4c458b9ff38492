package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tusharag6/homestead-api/internal/domain"
	"github.com/tusharag6/homestead-api/internal/repository"
	apperrors "github.com/tusharag6/homestead-api/pkg/errors"
)

// ListingRepository implements repository.ListingRepository in memory.
// Listings are kept in insertion order.
type ListingRepository struct {
	mu       sync.RWMutex
	listings []domain.Listing
	index    map[string]int
}

// NewListingRepository creates an empty in-memory listing repository.
func NewListingRepository() *ListingRepository {
	return &ListingRepository{
		index: make(map[string]int),
	}
}

var _ repository.ListingRepository = (*ListingRepository)(nil)

// Add stores listings, assigning IDs and timestamps where missing, and
// returns the stored copies.
func (r *ListingRepository) Add(listings ...domain.Listing) []domain.Listing {
	r.mu.Lock()
	defer r.mu.Unlock()

	added := make([]domain.Listing, 0, len(listings))
	for _, l := range listings {
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		if l.CreatedAt.IsZero() {
			l.CreatedAt = time.Now().UTC()
		}
		if l.UpdatedAt.IsZero() {
			l.UpdatedAt = l.CreatedAt
		}
		if l.Amenities == nil {
			l.Amenities = []string{}
		}
		r.index[l.ID] = len(r.listings)
		r.listings = append(r.listings, l)
		added = append(added, l)
	}
	return added
}

// List returns up to limit listings starting at offset.
func (r *ListingRepository) List(_ context.Context, offset, limit int) ([]domain.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []domain.Listing{}
	if offset < 0 || limit < 1 || offset >= len(r.listings) {
		return out, nil
	}
	end := min(offset+limit, len(r.listings))
	return append(out, r.listings[offset:end]...), nil
}

// Count returns the number of stored listings.
func (r *ListingRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listings), nil
}

// GetByID retrieves a listing by ID.
func (r *ListingRepository) GetByID(_ context.Context, id string) (*domain.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	l := r.listings[i]
	return &l, nil
}

// SeedListings is the catalogue loaded into the in-memory store at startup.
// It mirrors the rows inserted by the seed migration.
func SeedListings() []domain.Listing {
	return []domain.Listing{
		{
			Name:               "Harbourside Loft",
			Description:        "Bright loft a short walk from the ferry terminal.",
			Address:            "12 Wharf Street",
			City:               "Sydney",
			State:              "NSW",
			Zipcode:            "2000",
			Country:            "Australia",
			HouseRules:         "No smoking. Quiet hours after 10pm.",
			ImageURL:           "https://images.example.com/listings/harbourside-loft.jpg",
			Amenities:          []string{"Wifi", "Kitchen", "Washer", "Air conditioning"},
			Price:              185,
			ReviewScoresRating: 4.8,
			NumberOfReviews:    126,
			RoomType:           "Entire home/apt",
			PropertyType:       "Loft",
			Accommodates:       3,
		},
		{
			Name:               "Cedar Cabin Retreat",
			Description:        "Wood cabin with a fire pit and mountain views.",
			Address:            "400 Ridge Road",
			City:               "Asheville",
			State:              "NC",
			Zipcode:            "28801",
			Country:            "United States",
			HouseRules:         "Pets allowed with prior approval.",
			ImageURL:           "https://images.example.com/listings/cedar-cabin.jpg",
			Amenities:          []string{"Fireplace", "Free parking", "Hot tub"},
			Price:              140,
			ReviewScoresRating: 4.9,
			NumberOfReviews:    88,
			RoomType:           "Entire home/apt",
			PropertyType:       "Cabin",
			Accommodates:       4,
		},
		{
			Name:               "Old Town Room",
			Description:        "Private room in a restored townhouse near the market square.",
			Address:            "7 Rynek",
			City:               "Krakow",
			Zipcode:            "31-042",
			Country:            "Poland",
			HouseRules:         "Check-in after 3pm.",
			ImageURL:           "https://images.example.com/listings/old-town-room.jpg",
			Amenities:          []string{"Wifi", "Breakfast"},
			Price:              48,
			ReviewScoresRating: 4.6,
			NumberOfReviews:    301,
			RoomType:           "Private room",
			PropertyType:       "Townhouse",
			Accommodates:       2,
		},
		{
			Name:               "Canal View Apartment",
			Description:        "Two-bedroom apartment overlooking the canal.",
			Address:            "88 Prinsengracht",
			City:               "Amsterdam",
			Zipcode:            "1015",
			Country:            "Netherlands",
			HouseRules:         "No parties or events.",
			ImageURL:           "https://images.example.com/listings/canal-view.jpg",
			Amenities:          []string{"Wifi", "Kitchen", "Elevator", "Heating"},
			Price:              210,
			ReviewScoresRating: 4.7,
			NumberOfReviews:    64,
			RoomType:           "Entire home/apt",
			PropertyType:       "Apartment",
			Accommodates:       5,
		},
		{
			Name:               "Desert Casita",
			Description:        "Adobe casita with a private courtyard.",
			Address:            "15 Calle Sol",
			City:               "Santa Fe",
			State:              "NM",
			Zipcode:            "87501",
			Country:            "United States",
			HouseRules:         "No smoking.",
			ImageURL:           "https://images.example.com/listings/desert-casita.jpg",
			Amenities:          []string{"Patio", "Kitchen", "Free parking"},
			Price:              120,
			ReviewScoresRating: 4.85,
			NumberOfReviews:    142,
			RoomType:           "Entire home/apt",
			PropertyType:       "Guesthouse",
			Accommodates:       2,
		},
	}
}
