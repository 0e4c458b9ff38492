package service

import (
	"context"

	"github.com/tusharag6/homestead-api/internal/domain"
)

// EventPublisher publishes domain events. Publishing is best effort: a
// failure is logged and never fails the operation that produced it.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, user *domain.User) error
	PublishUserLoggedIn(ctx context.Context, user *domain.User, sessionID string) error
	PublishBookingCreated(ctx context.Context, booking *domain.Booking) error
}
