package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tusharag6/homestead-api/internal/domain"
	"github.com/tusharag6/homestead-api/internal/repository"
	"github.com/tusharag6/homestead-api/pkg/database"
	apperrors "github.com/tusharag6/homestead-api/pkg/errors"
)

const listingColumns = `id, name, description, address, city, state, zipcode, country, house_rules,
	listing_image_url, amenities, price, review_scores_rating, number_of_reviews,
	room_type, property_type, accommodates, created_at, updated_at`

// ListingRepository implements repository.ListingRepository using PostgreSQL.
type ListingRepository struct {
	db database.DBTX
}

// NewListingRepository creates a new PostgreSQL-backed listing repository.
func NewListingRepository(db database.DBTX) *ListingRepository {
	return &ListingRepository{db: db}
}

var _ repository.ListingRepository = (*ListingRepository)(nil)

// List returns up to limit listings starting at offset.
func (r *ListingRepository) List(ctx context.Context, offset, limit int) (_ []domain.Listing, err error) {
	query := `SELECT ` + listingColumns + ` FROM listings ORDER BY created_at, id LIMIT $1 OFFSET $2`

	ctx, end := database.TraceQuery(ctx, "ListListings", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()

	listings := make([]domain.Listing, 0, limit)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listings: %w", err)
	}

	return listings, nil
}

// Count returns the total number of listings.
func (r *ListingRepository) Count(ctx context.Context) (_ int, err error) {
	query := `SELECT COUNT(*) FROM listings`

	ctx, end := database.TraceQuery(ctx, "CountListings", query)
	defer func() { end(err) }()

	var total int
	if err := r.db.QueryRow(ctx, query).Scan(&total); err != nil {
		return 0, fmt.Errorf("count listings: %w", err)
	}
	return total, nil
}

// GetByID retrieves a listing by its ID.
func (r *ListingRepository) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetListingByID", query)

	l, err := scanListing(r.db.QueryRow(ctx, query, id))
	end(err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return l, nil
}

func scanListing(row pgx.Row) (*domain.Listing, error) {
	var l domain.Listing
	if err := row.Scan(listingDest(&l)...); err != nil {
		return nil, fmt.Errorf("scan listing: %w", err)
	}
	return &l, nil
}

func listingDest(l *domain.Listing) []any {
	return []any{
		&l.ID,
		&l.Name,
		&l.Description,
		&l.Address,
		&l.City,
		&l.State,
		&l.Zipcode,
		&l.Country,
		&l.HouseRules,
		&l.ImageURL,
		&l.Amenities,
		&l.Price,
		&l.ReviewScoresRating,
		&l.NumberOfReviews,
		&l.RoomType,
		&l.PropertyType,
		&l.Accommodates,
		&l.CreatedAt,
		&l.UpdatedAt,
	}
}
