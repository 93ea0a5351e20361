// Package memory is a process-local domain.Store used by tests and by
// STORAGE=memory for local runs.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"experiences/internal/domain"
)

type Store struct {
	mu  sync.RWMutex
	seq int64
	now func() time.Time

	users       map[int64]domain.User
	profiles    map[int64]domain.Profile
	experiences map[int64]domain.Experience
	bookings    map[int64]domain.Booking
	reviews     map[int64]domain.Review
	photos      map[int64]domain.Photo
}

func New() *Store {
	return &Store{
		now:         func() time.Time { return time.Now().UTC() },
		users:       map[int64]domain.User{},
		profiles:    map[int64]domain.Profile{},
		experiences: map[int64]domain.Experience{},
		bookings:    map[int64]domain.Booking{},
		reviews:     map[int64]domain.Review{},
		photos:      map[int64]domain.Photo{},
	}
}

// next must be called with mu held.
func (s *Store) next() int64 {
	s.seq++
	return s.seq
}

// ---- users ----

func (s *Store) CreateUser(ctx context.Context, u *domain.User, p *domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, x := range s.users {
		if strings.EqualFold(x.Username, u.Username) {
			return &domain.ValidationError{Fields: map[string]string{"username": "A user with that username already exists."}}
		}
	}
	u.ID = s.next()
	u.DateJoined = s.now()
	p.UserID = u.ID
	s.users[u.ID] = *u
	s.profiles[u.ID] = *p
	return nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (s *Store) GetProfile(ctx context.Context, userID int64) (domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return domain.Profile{}, domain.ErrNotFound
	}
	return p, nil
}

func (s *Store) UpdateAccount(ctx context.Context, u domain.User, p domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return domain.ErrNotFound
	}
	p.UserID = u.ID
	s.users[u.ID] = u
	s.profiles[u.ID] = p
	return nil
}

// ---- experiences ----

func (s *Store) CreateExperience(ctx context.Context, e *domain.Experience) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.next()
	e.CreatedAt = s.now()
	e.UpdatedAt = e.CreatedAt
	s.experiences[e.ID] = *e
	return nil
}

func (s *Store) GetExperience(ctx context.Context, id int64) (domain.Experience, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.experiences[id]
	if !ok {
		return domain.Experience{}, domain.ErrNotFound
	}
	return e, nil
}

func (s *Store) ListExperiences(ctx context.Context, f domain.ExperienceFilter) ([]domain.Experience, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	city := strings.ToLower(f.City)
	out := []domain.Experience{}
	for _, e := range s.experiences {
		if f.OwnerID != 0 && e.OwnerID != f.OwnerID {
			continue
		}
		if city != "" && !strings.Contains(strings.ToLower(e.City), city) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateExperience(ctx context.Context, e domain.Experience) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.experiences[e.ID]
	if !ok {
		return domain.ErrNotFound
	}
	e.OwnerID = old.OwnerID
	e.CreatedAt = old.CreatedAt
	e.UpdatedAt = s.now()
	s.experiences[e.ID] = e
	return nil
}

// DeleteExperience removes the experience with its bookings, reviews and photos.
func (s *Store) DeleteExperience(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.experiences[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.experiences, id)
	for k, b := range s.bookings {
		if b.ExperienceID == id {
			delete(s.bookings, k)
		}
	}
	for k, r := range s.reviews {
		if r.ExperienceID == id {
			delete(s.reviews, k)
		}
	}
	for k, p := range s.photos {
		if p.ExperienceID == id {
			delete(s.photos, k)
		}
	}
	return nil
}

// ---- bookings ----

func (s *Store) CreateBooking(ctx context.Context, b *domain.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.experiences[b.ExperienceID]; !ok {
		return domain.ErrNotFound
	}
	b.ID = s.next()
	b.CreatedAt = s.now()
	s.bookings[b.ID] = *b
	return nil
}

func (s *Store) GetBooking(ctx context.Context, id int64) (domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return domain.Booking{}, domain.ErrNotFound
	}
	return b, nil
}

func (s *Store) ListBookingsByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Booking{}
	for _, b := range s.bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) DeleteBooking(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.bookings, id)
	return nil
}

// ---- reviews ----

func (s *Store) CreateReview(ctx context.Context, r *domain.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.experiences[r.ExperienceID]; !ok {
		return domain.ErrNotFound
	}
	r.ID = s.next()
	r.CreatedAt = s.now()
	s.reviews[r.ID] = *r
	return nil
}

// ListReviewsByExperience returns newest first; ties fall back to id.
func (s *Store) ListReviewsByExperience(ctx context.Context, experienceID int64) ([]domain.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Review{}
	for _, r := range s.reviews {
		if r.ExperienceID == experienceID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// ---- photos ----

func (s *Store) CreatePhoto(ctx context.Context, p *domain.Photo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.experiences[p.ExperienceID]; !ok {
		return domain.ErrNotFound
	}
	p.ID = s.next()
	s.photos[p.ID] = *p
	return nil
}

func (s *Store) ListPhotosByExperience(ctx context.Context, experienceID int64) ([]domain.Photo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Photo{}
	for _, p := range s.photos {
		if p.ExperienceID == experienceID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

var _ domain.Store = (*Store)(nil)
