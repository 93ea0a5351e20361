package domain

import (
	"context"
	"io"
)

type UserRepository interface {
	// CreateUser stores u and its profile atomically and sets both IDs.
	CreateUser(ctx context.Context, u *User, p *Profile) error
	GetUser(ctx context.Context, id int64) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	GetProfile(ctx context.Context, userID int64) (Profile, error)
	// UpdateAccount writes the user row and the profile row in one transaction.
	UpdateAccount(ctx context.Context, u User, p Profile) error
}

type ExperienceRepository interface {
	CreateExperience(ctx context.Context, e *Experience) error
	GetExperience(ctx context.Context, id int64) (Experience, error)
	ListExperiences(ctx context.Context, f ExperienceFilter) ([]Experience, error)
	UpdateExperience(ctx context.Context, e Experience) error
	DeleteExperience(ctx context.Context, id int64) error
}

type BookingRepository interface {
	CreateBooking(ctx context.Context, b *Booking) error
	GetBooking(ctx context.Context, id int64) (Booking, error)
	ListBookingsByUser(ctx context.Context, userID int64) ([]Booking, error)
	DeleteBooking(ctx context.Context, id int64) error
}

type ReviewRepository interface {
	CreateReview(ctx context.Context, r *Review) error
	ListReviewsByExperience(ctx context.Context, experienceID int64) ([]Review, error)
}

type PhotoRepository interface {
	CreatePhoto(ctx context.Context, p *Photo) error
	ListPhotosByExperience(ctx context.Context, experienceID int64) ([]Photo, error)
}

// Store is the full persistence surface; storage adapters implement it.
type Store interface {
	UserRepository
	ExperienceRepository
	BookingRepository
	ReviewRepository
	PhotoRepository
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// ObjectStore puts a blob under key and returns its public URL.
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

type EventPublisher interface {
	PublishBookingCreated(ctx context.Context, ev BookingCreated) error
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) bool
}

type TokenIssuer interface {
	Issue(p Principal) (Token, error)
}
