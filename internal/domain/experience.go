package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Experience struct {
	ID          int64           `json:"id"`
	OwnerID     int64           `json:"owner_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Hours       int             `json:"hours"`
	Minutes     int             `json:"minutes"`
	Language    string          `json:"language"`
	City        string          `json:"city"`
	Address     string          `json:"address"`
	Zipcode     string          `json:"zipcode"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (e Experience) Owner() int64 { return e.OwnerID }

// MaxPrice is the largest value a DECIMAL(10,2) price column holds.
var MaxPrice = decimal.RequireFromString("99999999.99")

// ExperienceInput is the client-writable field set of an Experience. The
// owner is never part of it.
type ExperienceInput struct {
	Title       string           `json:"title" validate:"required,max=100"`
	Description string           `json:"description" validate:"required,max=5000"`
	Price       *decimal.Decimal `json:"price"`
	Hours       int              `json:"hours" validate:"gte=0,lte=1000"`
	Minutes     int              `json:"minutes" validate:"gte=0,lt=60"`
	Language    string           `json:"language" validate:"required,max=50"`
	City        string           `json:"city" validate:"required,max=100"`
	Address     string           `json:"address" validate:"required,max=200"`
	Zipcode     string           `json:"zipcode" validate:"required,max=10"`
}

type ExperienceFilter struct {
	City    string // case-insensitive substring
	OwnerID int64
}

type ExperienceView struct {
	Experience
	Photos []Photo `json:"photos"`
}
