package domain

import "time"

type BookingStatus string

const (
	BookingStatusInitiated BookingStatus = "initiated"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Terminal reports whether no further status transition is expected.
func (s BookingStatus) Terminal() bool {
	return s == BookingStatusConfirmed || s == BookingStatusCancelled
}

const dateLayout = "2006-01-02"

// StayInterval is a user-supplied, date-only booking range.
type StayInterval struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// Days returns the inclusive stay length in days, or 0 when the
// interval is incomplete or inverted.
func (s StayInterval) Days() int {
	start, err := time.Parse(dateLayout, s.StartDate)
	if err != nil {
		return 0
	}
	end, err := time.Parse(dateLayout, s.EndDate)
	if err != nil {
		return 0
	}
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start)/(24*time.Hour)) + 1
}

func (s StayInterval) Valid() bool {
	return s.Days() > 0
}

type GroupComposition struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
}

func (g GroupComposition) Size() int {
	return g.Adults + g.Children
}

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PickupLocation is either a known-place reference (PlaceID plus
// Coordinate) or a free-form address.
type PickupLocation struct {
	PlaceID    string      `json:"place_id,omitempty"`
	Coordinate *Coordinate `json:"coordinate,omitempty"`
	Address    string      `json:"address,omitempty"`
	Country    string      `json:"country,omitempty"`
}

func (p PickupLocation) Valid() bool {
	if p.PlaceID != "" && p.Coordinate != nil {
		return true
	}
	return p.Address != ""
}

// Schedule carries the canonical UTC bounds of a stay together with
// the zone the civil dates were entered in.
type Schedule struct {
	StartDateTime time.Time `json:"start_date_time"`
	EndDateTime   time.Time `json:"end_date_time"`
	Timezone      string    `json:"timezone"`
}

type Contact struct {
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	CountryCode string `json:"country_code"`
	Phone       string `json:"phone"`
}

// BookingDraft is a locally assembled, not-yet-submitted booking
// request. It is transient: discarded once submission succeeds.
type BookingDraft struct {
	SessionID     string           `json:"session_id"`
	UserID        string           `json:"user_id,omitempty"`
	ResourceID    string           `json:"resource_id"`
	ResourceType  string           `json:"resource_type"`
	Contact       Contact          `json:"contact"`
	Schedule      Schedule         `json:"schedule"`
	Group         GroupComposition `json:"group"`
	Pickup        PickupLocation   `json:"pickup"`
	PaymentAmount float64          `json:"payment_amount"`
	Currency      string           `json:"currency"`
}

// Booking is the server-owned record. This service only reads it and
// requests transitions; it never mutates one locally.
type Booking struct {
	ID        string        `json:"id"`
	Status    BookingStatus `json:"status"`
	Draft     BookingDraft  `json:"draft"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
