package domain

import "time"

// Booking is a reservation of a listing by a user.
type Booking struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user"`
	ListingID      string     `json:"listingId"`
	NumberOfGuests int        `json:"numberOfGuests"`
	NumberOfDays   int        `json:"numberOfDays"`
	StartDate      *time.Time `json:"startDate"`
	EndDate        *time.Time `json:"endDate"`
	Price          float64    `json:"price"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`

	// Listing is populated when bookings are listed for their owner.
	Listing *Listing `json:"listing,omitempty"`
}

// OwnedBy reports whether userID made the booking.
func (b *Booking) OwnedBy(userID string) bool {
	return b.UserID == userID
}
