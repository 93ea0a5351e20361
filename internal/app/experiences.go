package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"experiences/internal/domain"
)

type ExperienceOptions struct {
	CacheTTL time.Duration
	// DetailRequiresAuth gates Get behind authentication.
	DetailRequiresAuth bool
}

type ExperienceService struct {
	repo   domain.ExperienceRepository
	photos domain.PhotoRepository
	cache  domain.Cache
	opts   ExperienceOptions
	loads  singleflight.Group
}

// NewExperienceService wires the service. cache may be nil.
func NewExperienceService(r domain.ExperienceRepository, p domain.PhotoRepository, c domain.Cache, opts ExperienceOptions) *ExperienceService {
	return &ExperienceService{repo: r, photos: p, cache: c, opts: opts}
}

func (s *ExperienceService) Create(ctx context.Context, who domain.Principal, in domain.ExperienceInput) (domain.Experience, error) {
	if err := requireAuth(who); err != nil {
		return domain.Experience{}, err
	}
	if err := validateExperience(in).OrNil(); err != nil {
		return domain.Experience{}, err
	}
	e := applyExperience(domain.Experience{OwnerID: who.UserID}, in)
	if err := s.repo.CreateExperience(ctx, &e); err != nil {
		return domain.Experience{}, err
	}
	log.Info().Int64("experience", e.ID).Int64("owner", e.OwnerID).Msg("experience created")
	return e, nil
}

func (s *ExperienceService) List(ctx context.Context, f domain.ExperienceFilter) ([]domain.Experience, error) {
	return s.repo.ListExperiences(ctx, f)
}

// Get returns the experience with its photos, served from cache when possible.
func (s *ExperienceService) Get(ctx context.Context, who domain.Principal, id int64) (domain.ExperienceView, error) {
	if s.opts.DetailRequiresAuth {
		if err := requireAuth(who); err != nil {
			return domain.ExperienceView{}, err
		}
	}
	key := experienceKey(id)
	var v domain.ExperienceView
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &v); ok {
			return v, nil
		}
	}
	// waiters share one load; it must outlive a cancelled first caller
	res, err, _ := s.loads.Do(key, func() (any, error) { return s.load(context.WithoutCancel(ctx), id) })
	if err != nil {
		return domain.ExperienceView{}, err
	}
	v = res.(domain.ExperienceView)
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, v, int(s.opts.CacheTTL.Seconds()))
	}
	return v, nil
}

func (s *ExperienceService) load(ctx context.Context, id int64) (domain.ExperienceView, error) {
	e, err := s.repo.GetExperience(ctx, id)
	if err != nil {
		return domain.ExperienceView{}, err
	}
	photos, err := s.photos.ListPhotosByExperience(ctx, id)
	if err != nil {
		return domain.ExperienceView{}, err
	}
	if photos == nil {
		photos = []domain.Photo{}
	}
	return domain.ExperienceView{Experience: e, Photos: photos}, nil
}

func (s *ExperienceService) Update(ctx context.Context, who domain.Principal, id int64, in domain.ExperienceInput) (domain.Experience, error) {
	if err := requireAuth(who); err != nil {
		return domain.Experience{}, err
	}
	e, err := s.repo.GetExperience(ctx, id)
	if err != nil {
		return domain.Experience{}, err
	}
	if err := requireOwner(who, e); err != nil {
		return domain.Experience{}, err
	}
	if err := validateExperience(in).OrNil(); err != nil {
		return domain.Experience{}, err
	}
	e = applyExperience(e, in)
	if err := s.repo.UpdateExperience(ctx, e); err != nil {
		return domain.Experience{}, err
	}
	s.evict(ctx, id)
	log.Info().Int64("experience", id).Int64("by", who.UserID).Msg("experience updated")
	return e, nil
}

func (s *ExperienceService) Delete(ctx context.Context, who domain.Principal, id int64) error {
	if err := requireAuth(who); err != nil {
		return err
	}
	e, err := s.repo.GetExperience(ctx, id)
	if err != nil {
		return err
	}
	if err := requireOwner(who, e); err != nil {
		return err
	}
	if err := s.repo.DeleteExperience(ctx, id); err != nil {
		return err
	}
	s.evict(ctx, id)
	if s.cache != nil {
		_ = s.cache.Del(ctx, reviewsKey(id))
	}
	log.Info().Int64("experience", id).Int64("by", who.UserID).Msg("experience deleted")
	return nil
}

func (s *ExperienceService) evict(ctx context.Context, id int64) {
	if s.cache != nil {
		_ = s.cache.Del(ctx, experienceKey(id))
	}
}

// applyExperience copies the client-writable fields of in onto e.
func applyExperience(e domain.Experience, in domain.ExperienceInput) domain.Experience {
	e.Title = in.Title
	e.Description = in.Description
	e.Price = in.Price.Round(2)
	e.Hours = in.Hours
	e.Minutes = in.Minutes
	e.Language = in.Language
	e.City = in.City
	e.Address = in.Address
	e.Zipcode = in.Zipcode
	return e
}
