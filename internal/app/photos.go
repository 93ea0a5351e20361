package app

import (
	"context"
	"mime"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"experiences/internal/domain"
)

const photoField = "photo-file"

type PhotoService struct {
	photos      domain.PhotoRepository
	experiences domain.ExperienceRepository
	store       domain.ObjectStore
	cache       domain.Cache
}

func NewPhotoService(p domain.PhotoRepository, e domain.ExperienceRepository, store domain.ObjectStore, c domain.Cache) *PhotoService {
	return &PhotoService{photos: p, experiences: e, store: store, cache: c}
}

// Upload stores the file in object storage and links its URL to the
// experience. A storage failure comes back as *domain.ExternalServiceError
// and leaves no Photo behind.
func (s *PhotoService) Upload(ctx context.Context, who domain.Principal, experienceID int64, up domain.Upload) (domain.Photo, error) {
	if err := requireAuth(who); err != nil {
		return domain.Photo{}, err
	}
	exp, err := s.experiences.GetExperience(ctx, experienceID)
	if err != nil {
		return domain.Photo{}, err
	}
	if err := requireOwner(who, exp); err != nil {
		return domain.Photo{}, err
	}
	if up.Body == nil {
		return domain.Photo{}, &domain.ValidationError{Fields: map[string]string{photoField: "No file was submitted."}}
	}

	key := photoKey(up.Filename)
	url, err := s.store.Upload(ctx, key, up.Body, contentType(up))
	if err != nil {
		log.Error().Err(err).Str("key", key).Int64("experience", experienceID).Msg("photo upload failed")
		return domain.Photo{}, &domain.ExternalServiceError{Service: "object-storage", Op: "upload", Err: err}
	}

	p := domain.Photo{URL: url, ExperienceID: experienceID}
	if err := s.photos.CreatePhoto(ctx, &p); err != nil {
		// the blob stays behind; the key makes it findable
		log.Error().Err(err).Str("key", key).Str("url", url).Msg("photo stored but not recorded")
		return domain.Photo{}, err
	}
	if s.cache != nil {
		_ = s.cache.Del(ctx, experienceKey(experienceID))
	}
	log.Info().Int64("photo", p.ID).Int64("experience", experienceID).Str("url", url).Msg("photo added")
	return p, nil
}

func contentType(up domain.Upload) string {
	const generic = "application/octet-stream"
	if up.ContentType != "" && up.ContentType != generic {
		return up.ContentType
	}
	if t := mime.TypeByExtension(filepath.Ext(up.Filename)); t != "" {
		return t
	}
	return generic
}
