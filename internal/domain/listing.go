package domain

import "time"

// Listing is a rentable property. Listings are read-only through the API.
type Listing struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	Address            string    `json:"address"`
	City               string    `json:"city,omitempty"`
	State              string    `json:"state,omitempty"`
	Zipcode            string    `json:"zipcode,omitempty"`
	Country            string    `json:"country,omitempty"`
	HouseRules         string    `json:"house_rules,omitempty"`
	ImageURL           string    `json:"listing_image_url"`
	Amenities          []string  `json:"amenities"`
	Price              float64   `json:"price"`
	ReviewScoresRating float64   `json:"review_scores_rating"`
	NumberOfReviews    int       `json:"number_of_reviews"`
	RoomType           string    `json:"room_type"`
	PropertyType       string    `json:"property_type"`
	Accommodates       int       `json:"accommodates"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}
