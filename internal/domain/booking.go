package domain

import "time"

const DateLayout = "2006-01-02"

type Booking struct {
	ID           int64     `json:"id"`
	ExperienceID int64     `json:"experience_id"`
	UserID       int64     `json:"user_id"`
	Date         time.Time `json:"date"`
	Slot         string    `json:"slot,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (b Booking) Owner() int64 { return b.UserID }

// BookingInput carries only booking-specific fields; experience and user are
// taken from the URL and the caller.
type BookingInput struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Slot string `json:"slot" validate:"max=50"`
}

type BookingView struct {
	Booking    Booking    `json:"booking"`
	Experience Experience `json:"experience"`
}

// BookingCreated is published after a booking is stored.
type BookingCreated struct {
	BookingID    int64  `json:"booking_id"`
	ExperienceID int64  `json:"experience_id"`
	UserID       int64  `json:"user_id"`
	OwnerID      int64  `json:"owner_id"`
	Date         string `json:"date"`
	CreatedAt    string `json:"created_at"`
}
