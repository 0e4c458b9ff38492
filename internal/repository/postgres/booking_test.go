package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tusharag6/homestead-api/internal/domain"
	apperrors "github.com/tusharag6/homestead-api/pkg/errors"
)

var bookingColumnNames = []string{
	"id", "user_id", "listing_id", "number_of_guests", "number_of_days",
	"start_date", "end_date", "price", "created_at", "updated_at",
}

func sampleBooking() *domain.Booking {
	now := time.Now().UTC().Truncate(time.Microsecond)
	start := now.Add(24 * time.Hour)
	end := start.Add(72 * time.Hour)
	return &domain.Booking{
		ID:             "b-1",
		UserID:         "u-1",
		ListingID:      "l-1",
		NumberOfGuests: 2,
		NumberOfDays:   3,
		StartDate:      &start,
		EndDate:        &end,
		Price:          420,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func bookingValues(b *domain.Booking) []any {
	return []any{
		b.ID, b.UserID, b.ListingID, b.NumberOfGuests, b.NumberOfDays,
		b.StartDate, b.EndDate, b.Price, b.CreatedAt, b.UpdatedAt,
	}
}

func TestBookingRepository_Create(t *testing.T) {
	mock := newMockDB(t)
	repo := NewBookingRepository(mock)
	b := sampleBooking()

	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(bookingValues(b)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), b))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_GetByID(t *testing.T) {
	mock := newMockDB(t)
	repo := NewBookingRepository(mock)
	b := sampleBooking()

	mock.ExpectQuery("SELECT .+ FROM bookings WHERE id =").
		WithArgs("b-1").
		WillReturnRows(pgxmock.NewRows(bookingColumnNames).AddRow(bookingValues(b)...))

	got, err := repo.GetByID(context.Background(), "b-1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.UserID)
	assert.Equal(t, 3, got.NumberOfDays)
	require.NotNil(t, got.StartDate)
	assert.True(t, b.StartDate.Equal(*got.StartDate))
	assert.Nil(t, got.Listing)
}

func TestBookingRepository_GetByID_NotFound(t *testing.T) {
	mock := newMockDB(t)
	repo := NewBookingRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM bookings WHERE id =").
		WithArgs("b-404").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "b-404")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestBookingRepository_ListByUserID_PopulatesListing(t *testing.T) {
	mock := newMockDB(t)
	repo := NewBookingRepository(mock)
	b := sampleBooking()
	l := sampleListing("l-1")

	columns := append(append([]string{}, bookingColumnNames...), listingColumnNames...)
	values := append(bookingValues(b), listingValues(l)...)

	mock.ExpectQuery("SELECT b.id, .+ FROM bookings b JOIN listings l ON l.id = b.listing_id WHERE b.user_id =").
		WithArgs("u-1").
		WillReturnRows(pgxmock.NewRows(columns).AddRow(values...))

	got, err := repo.ListByUserID(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Listing)
	assert.Equal(t, "Cedar Cabin", got[0].Listing.Name)
	assert.Equal(t, "b-1", got[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_ListByUserID_None(t *testing.T) {
	mock := newMockDB(t)
	repo := NewBookingRepository(mock)

	columns := append(append([]string{}, bookingColumnNames...), listingColumnNames...)
	mock.ExpectQuery("FROM bookings b").
		WithArgs("u-2").
		WillReturnRows(pgxmock.NewRows(columns))

	got, err := repo.ListByUserID(context.Background(), "u-2")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestPrefixed(t *testing.T) {
	assert.Equal(t, "b.id, b.user_id", prefixed("b", "id,\n\tuser_id"))
}
