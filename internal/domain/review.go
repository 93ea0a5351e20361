package domain

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID           int64     `json:"id"`
	ExperienceID int64     `json:"experience_id"`
	UserID       int64     `json:"user_id"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	CreatedAt    time.Time `json:"created_at"`
}

type ReviewInput struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required,max=2000"`
}
