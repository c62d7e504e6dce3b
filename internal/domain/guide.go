package domain

import "time"

type RateType string

const (
	RateHourly RateType = "hourly"
	RateDaily  RateType = "daily"
)

// RateEntry is one line of a guide's rate schedule. Immutable once
// fetched; at most one entry per type is meaningful for estimates.
type RateEntry struct {
	Type     RateType `json:"type"`
	Amount   float64  `json:"amount"`
	Currency string   `json:"currency"`
}

// Guide is the canonical internal record produced by boundary
// normalization. Nothing past the boundary inspects raw payload shapes.
type Guide struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	LocationID   string      `json:"location_id"`
	Country      string      `json:"country"`
	Rates        []RateEntry `json:"rates"`
	FallbackRate float64     `json:"fallback_rate"`
	Currency     string      `json:"currency"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Review is a provider review accepted for forwarding to the review API.
type Review struct {
	SubjectType  string `json:"subject_type"`
	SubjectID    string `json:"subject_id"`
	Rating       int    `json:"rating"`
	ReviewText   string `json:"review_text"`
	ReviewerName string `json:"reviewer_name"`
}

// Message is one chat message scoped to a booking.
type Message struct {
	ID        string    `json:"id"`
	BookingID string    `json:"booking_id"`
	SenderID  string    `json:"sender_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
