package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tusharag6/homestead-api/internal/domain"
	pkgkafka "github.com/tusharag6/homestead-api/pkg/kafka"
	"github.com/tusharag6/homestead-api/pkg/logger"
	"github.com/tusharag6/homestead-api/pkg/middleware"
)

// Kafka topics for homestead domain events.
var (
	TopicUserRegistered = pkgkafka.Topic("user", "registered")
	TopicUserLoggedIn   = pkgkafka.Topic("user", "logged_in")
	TopicBookingCreated = pkgkafka.Topic("booking", "created")
)

// Aggregate type constants.
const (
	AggregateTypeUser    = "user"
	AggregateTypeBooking = "booking"
)

// SourceAPI identifies events originating from this service.
const SourceAPI = "homestead-api"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// UserLoggedInData is the payload for a user.logged_in event.
type UserLoggedInData struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
}

// BookingCreatedData is the payload for a booking.created event.
type BookingCreatedData struct {
	ID             string  `json:"id"`
	UserID         string  `json:"user_id"`
	ListingID      string  `json:"listing_id"`
	NumberOfGuests int     `json:"number_of_guests"`
	NumberOfDays   int     `json:"number_of_days"`
	Price          float64 `json:"price"`
}

// Producer publishes homestead domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	}
	return p.publish(ctx, TopicUserRegistered, user.ID, AggregateTypeUser, data)
}

// PublishUserLoggedIn publishes a user.logged_in event.
func (p *Producer) PublishUserLoggedIn(ctx context.Context, user *domain.User, sessionID string) error {
	data := UserLoggedInData{
		ID:        user.ID,
		SessionID: sessionID,
	}
	return p.publish(ctx, TopicUserLoggedIn, user.ID, AggregateTypeUser, data)
}

// PublishBookingCreated publishes a booking.created event.
func (p *Producer) PublishBookingCreated(ctx context.Context, b *domain.Booking) error {
	data := BookingCreatedData{
		ID:             b.ID,
		UserID:         b.UserID,
		ListingID:      b.ListingID,
		NumberOfGuests: b.NumberOfGuests,
		NumberOfDays:   b.NumberOfDays,
		Price:          b.Price,
	}
	return p.publish(ctx, TopicBookingCreated, b.ID, AggregateTypeBooking, data)
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceAPI, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}
	if actor := middleware.UserIDFromContext(ctx); actor != "" {
		event.WithMetadata("actor_id", actor).WithMetadata("actor_role", middleware.RoleFromContext(ctx))
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published domain event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

// Discard is a publisher that drops every event. It is used when Kafka is
// disabled.
type Discard struct{}

// PublishUserRegistered drops the event.
func (Discard) PublishUserRegistered(context.Context, *domain.User) error { return nil }

// PublishUserLoggedIn drops the event.
func (Discard) PublishUserLoggedIn(context.Context, *domain.User, string) error { return nil }

// PublishBookingCreated drops the event.
func (Discard) PublishBookingCreated(context.Context, *domain.Booking) error { return nil }
