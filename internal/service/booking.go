package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tusharag6/homestead-api/internal/domain"
	"github.com/tusharag6/homestead-api/internal/repository"
	apperrors "github.com/tusharag6/homestead-api/pkg/errors"
)

const msgBookingNotFound = "Booking not found"

// BookingService creates and reads reservations. The owner of a booking is
// always the authenticated caller.
type BookingService struct {
	bookings repository.BookingRepository
	listings repository.ListingRepository
	events   EventPublisher
	logger   *slog.Logger
}

// NewBookingService creates a new booking service.
func NewBookingService(
	bookings repository.BookingRepository,
	listings repository.ListingRepository,
	events EventPublisher,
	logger *slog.Logger,
) *BookingService {
	return &BookingService{
		bookings: bookings,
		listings: listings,
		events:   events,
		logger:   logger,
	}
}

// ReserveInput holds the parameters for a reservation. Price defaults to
// the listing's nightly price times the number of days.
type ReserveInput struct {
	ListingID      string
	NumberOfGuests int
	NumberOfDays   int
	StartDate      *time.Time
	EndDate        *time.Time
	Price          *float64
}

func (in ReserveInput) validate() error {
	if in.ListingID == "" {
		return apperrors.InvalidInput("listingId is required")
	}
	if in.NumberOfGuests < 1 {
		return apperrors.InvalidInput("numberOfGuests must be at least 1")
	}
	if in.NumberOfDays < 1 {
		return apperrors.InvalidInput("numberOfDays must be at least 1")
	}
	if in.StartDate != nil && in.EndDate != nil && !in.EndDate.After(*in.StartDate) {
		return apperrors.InvalidInput("endDate must be after startDate")
	}
	if in.Price != nil && *in.Price < 0 {
		return apperrors.InvalidInput("price must not be negative")
	}
	return nil
}

// Reserve books a listing for userID.
func (s *BookingService) Reserve(ctx context.Context, userID string, input ReserveInput) (*domain.Booking, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	listing, err := s.findListing(ctx, input.ListingID)
	if err != nil {
		return nil, err
	}

	price := listing.Price * float64(input.NumberOfDays)
	if input.Price != nil {
		price = *input.Price
	}

	now := time.Now().UTC()
	booking := &domain.Booking{
		ID:             uuid.New().String(),
		UserID:         userID,
		ListingID:      listing.ID,
		NumberOfGuests: input.NumberOfGuests,
		NumberOfDays:   input.NumberOfDays,
		StartDate:      input.StartDate,
		EndDate:        input.EndDate,
		Price:          price,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	if err := s.events.PublishBookingCreated(ctx, booking); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish booking.created event",
			slog.String("booking_id", booking.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "booking created",
		slog.String("booking_id", booking.ID),
		slog.String("listing_id", booking.ListingID),
		slog.String("user_id", userID),
	)

	return booking, nil
}

func (s *BookingService) findListing(ctx context.Context, id string) (*domain.Listing, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NotFoundMessage(msgListingNotFound)
	}
	listing, err := s.listings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFoundMessage(msgListingNotFound)
		}
		return nil, fmt.Errorf("get listing: %w", err)
	}
	return listing, nil
}

// ListForUser returns the caller's bookings, newest first.
func (s *BookingService) ListForUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	bookings, err := s.bookings.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}

// Get returns one of the caller's bookings. Bookings of other users are
// reported as not found.
func (s *BookingService) Get(ctx context.Context, userID, id string) (*domain.Booking, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NotFoundMessage(msgBookingNotFound)
	}

	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFoundMessage(msgBookingNotFound)
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if !booking.OwnedBy(userID) {
		return nil, apperrors.NotFoundMessage(msgBookingNotFound)
	}
	return booking, nil
}
