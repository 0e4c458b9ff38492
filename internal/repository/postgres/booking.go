package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/tusharag6/homestead-api/internal/domain"
	"github.com/tusharag6/homestead-api/internal/repository"
	"github.com/tusharag6/homestead-api/pkg/database"
	apperrors "github.com/tusharag6/homestead-api/pkg/errors"
)

const bookingColumns = `id, user_id, listing_id, number_of_guests, number_of_days, start_date, end_date, price, created_at, updated_at`

// BookingRepository implements repository.BookingRepository using PostgreSQL.
type BookingRepository struct {
	db database.DBTX
}

// NewBookingRepository creates a new PostgreSQL-backed booking repository.
func NewBookingRepository(db database.DBTX) *BookingRepository {
	return &BookingRepository{db: db}
}

var _ repository.BookingRepository = (*BookingRepository)(nil)

// Create inserts a new booking into the database.
func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) (err error) {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	ctx, end := database.TraceQuery(ctx, "CreateBooking", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query,
		b.ID,
		b.UserID,
		b.ListingID,
		b.NumberOfGuests,
		b.NumberOfDays,
		b.StartDate,
		b.EndDate,
		b.Price,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

// GetByID retrieves a booking by its ID.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetBookingByID", query)

	var b domain.Booking
	err := r.db.QueryRow(ctx, query, id).Scan(bookingDest(&b)...)
	end(err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan booking: %w", err)
	}
	return &b, nil
}

// ListByUserID returns the user's bookings joined with their listing.
func (r *BookingRepository) ListByUserID(ctx context.Context, userID string) (_ []domain.Booking, err error) {
	query := `
		SELECT ` + prefixed("b", bookingColumns) + `, ` + prefixed("l", listingColumns) + `
		FROM bookings b
		JOIN listings l ON l.id = b.listing_id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC`

	ctx, end := database.TraceQuery(ctx, "ListBookingsByUser", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	bookings := []domain.Booking{}
	for rows.Next() {
		var (
			b domain.Booking
			l domain.Listing
		)
		dest := append(bookingDest(&b), listingDest(&l)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		b.Listing = &l
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}

	return bookings, nil
}

func bookingDest(b *domain.Booking) []any {
	return []any{
		&b.ID,
		&b.UserID,
		&b.ListingID,
		&b.NumberOfGuests,
		&b.NumberOfDays,
		&b.StartDate,
		&b.EndDate,
		&b.Price,
		&b.CreatedAt,
		&b.UpdatedAt,
	}
}

// prefixed qualifies each column of a comma-separated list with alias.
func prefixed(alias, columns string) string {
	cols := strings.Split(columns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}
