package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"experiences/internal/domain"
)

type BookingService struct {
	bookings    domain.BookingRepository
	experiences domain.ExperienceRepository
	events      domain.EventPublisher
}

// NewBookingService wires the service. events may be nil.
func NewBookingService(b domain.BookingRepository, e domain.ExperienceRepository, ev domain.EventPublisher) *BookingService {
	return &BookingService{bookings: b, experiences: e, events: ev}
}

// New returns the experience a booking form is being prepared for.
func (s *BookingService) New(ctx context.Context, who domain.Principal, experienceID int64) (domain.Experience, error) {
	if err := requireAuth(who); err != nil {
		return domain.Experience{}, err
	}
	return s.experiences.GetExperience(ctx, experienceID)
}

// Create books experienceID for the caller. The experience and user of the
// booking come from the arguments only.
func (s *BookingService) Create(ctx context.Context, who domain.Principal, experienceID int64, in domain.BookingInput) (domain.Booking, error) {
	if err := requireAuth(who); err != nil {
		return domain.Booking{}, err
	}
	exp, err := s.experiences.GetExperience(ctx, experienceID)
	if err != nil {
		return domain.Booking{}, err
	}
	ve := &domain.ValidationError{}
	checkStruct(ve, in)
	if err := ve.OrNil(); err != nil {
		return domain.Booking{}, err
	}
	date, _ := time.Parse(domain.DateLayout, in.Date) // format checked above

	b := domain.Booking{
		ExperienceID: experienceID,
		UserID:       who.UserID,
		Date:         date,
		Slot:         in.Slot,
	}
	if err := s.bookings.CreateBooking(ctx, &b); err != nil {
		return domain.Booking{}, err
	}
	log.Info().Int64("booking", b.ID).Int64("experience", experienceID).Int64("user", who.UserID).Msg("booking created")
	s.publish(ctx, b, exp)
	return b, nil
}

// publish notifies downstream consumers; a broker failure never fails the booking.
func (s *BookingService) publish(ctx context.Context, b domain.Booking, exp domain.Experience) {
	if s.events == nil {
		return
	}
	ev := domain.BookingCreated{
		BookingID:    b.ID,
		ExperienceID: b.ExperienceID,
		UserID:       b.UserID,
		OwnerID:      exp.OwnerID,
		Date:         b.Date.Format(domain.DateLayout),
		CreatedAt:    b.CreatedAt.UTC().Format(time.RFC3339),
	}
	if err := s.events.PublishBookingCreated(ctx, ev); err != nil {
		log.Warn().Err(err).Int64("booking", b.ID).Msg("booking.created publish failed")
	}
}

func (s *BookingService) Show(ctx context.Context, who domain.Principal, experienceID, bookingID int64) (domain.BookingView, error) {
	if err := requireAuth(who); err != nil {
		return domain.BookingView{}, err
	}
	b, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return domain.BookingView{}, err
	}
	if err := requireOwner(who, b); err != nil {
		return domain.BookingView{}, err
	}
	if b.ExperienceID != experienceID {
		return domain.BookingView{}, domain.ErrNotFound
	}
	exp, err := s.experiences.GetExperience(ctx, experienceID)
	if err != nil {
		return domain.BookingView{}, err
	}
	return domain.BookingView{Booking: b, Experience: exp}, nil
}

// ListMine returns the caller's bookings and nobody else's.
func (s *BookingService) ListMine(ctx context.Context, who domain.Principal) ([]domain.Booking, error) {
	if err := requireAuth(who); err != nil {
		return nil, err
	}
	return s.bookings.ListBookingsByUser(ctx, who.UserID)
}

func (s *BookingService) Delete(ctx context.Context, who domain.Principal, id int64) error {
	if err := requireAuth(who); err != nil {
		return err
	}
	b, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return err
	}
	if err := requireOwner(who, b); err != nil {
		return err
	}
	if err := s.bookings.DeleteBooking(ctx, id); err != nil {
		return err
	}
	log.Info().Int64("booking", id).Int64("by", who.UserID).Msg("booking deleted")
	return nil
}
