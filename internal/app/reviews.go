package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"experiences/internal/domain"
)

type ReviewService struct {
	reviews     domain.ReviewRepository
	experiences domain.ExperienceRepository
	cache       domain.Cache
	cacheTTL    time.Duration
}

func NewReviewService(r domain.ReviewRepository, e domain.ExperienceRepository, c domain.Cache, ttl time.Duration) *ReviewService {
	return &ReviewService{reviews: r, experiences: e, cache: c, cacheTTL: ttl}
}

func (s *ReviewService) Create(ctx context.Context, who domain.Principal, experienceID int64, in domain.ReviewInput) (domain.Review, error) {
	if err := requireAuth(who); err != nil {
		return domain.Review{}, err
	}
	if _, err := s.experiences.GetExperience(ctx, experienceID); err != nil {
		return domain.Review{}, err
	}
	ve := &domain.ValidationError{}
	checkStruct(ve, in)
	if err := ve.OrNil(); err != nil {
		return domain.Review{}, err
	}
	rv := domain.Review{
		ExperienceID: experienceID,
		UserID:       who.UserID,
		Rating:       in.Rating,
		Comment:      in.Comment,
	}
	if err := s.reviews.CreateReview(ctx, &rv); err != nil {
		return domain.Review{}, err
	}
	if s.cache != nil {
		_ = s.cache.Del(ctx, reviewsKey(experienceID))
	}
	log.Info().Int64("review", rv.ID).Int64("experience", experienceID).Int("rating", rv.Rating).Msg("review created")
	return rv, nil
}

// List returns the reviews of one experience, newest first.
func (s *ReviewService) List(ctx context.Context, experienceID int64) ([]domain.Review, error) {
	key := reviewsKey(experienceID)
	var out []domain.Review
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &out); ok {
			return out, nil
		}
	}
	if _, err := s.experiences.GetExperience(ctx, experienceID); err != nil {
		return nil, err
	}
	rs, err := s.reviews.ListReviewsByExperience(ctx, experienceID)
	if err != nil {
		return nil, err
	}
	// copy so the cached value never aliases the repository's slice
	out = make([]domain.Review, len(rs))
	copy(out, rs)
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	}
	return out, nil
}
