package httpserver

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"experiences/internal/adapters/observability"
	"experiences/internal/app"
	"experiences/internal/domain"
)

const uploadWarning = "The photo could not be uploaded. Please try again."

type Handlers struct {
	Experiences *app.ExperienceService
	Bookings    *app.BookingService
	Reviews     *app.ReviewService
	Photos      *app.PhotoService
	Accounts    *app.AccountService

	// MaxUploadBytes caps multipart bodies; 0 means 10 MiB.
	MaxUploadBytes int64
}

func (s *Server) MountHandlers(h *Handlers) {
	m := s.mux
	m.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	m.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/v1/experiences", http.StatusFound)
	})

	m.Post("/v1/auth/signup", h.signup)
	m.Post("/v1/auth/login", h.login)
	m.Get("/v1/profile", h.profile)
	m.Put("/v1/profile", h.updateProfile)
	m.Post("/v1/profile/avatar", h.updateAvatar)

	m.Get("/v1/experiences", h.listExperiences)
	m.Get("/v1/search", h.search)
	m.Post("/v1/experiences", h.createExperience)
	m.Get("/v1/experiences/{id}", h.getExperience)
	m.Put("/v1/experiences/{id}", h.updateExperience)
	m.Delete("/v1/experiences/{id}", h.deleteExperience)

	m.Get("/v1/experiences/{id}/bookings/new", h.newBooking)
	m.Post("/v1/experiences/{id}/bookings", h.createBooking)
	m.Get("/v1/experiences/{id}/bookings/{bookingID}", h.showBooking)
	m.Get("/v1/bookings", h.listBookings)
	m.Delete("/v1/bookings/{id}", h.deleteBooking)

	m.Get("/v1/experiences/{id}/reviews", h.listReviews)
	m.Post("/v1/experiences/{id}/reviews", h.createReview)

	m.Post("/v1/experiences/{id}/photos", h.uploadPhoto)
}

// ---- accounts ----

func (h *Handlers) signup(w http.ResponseWriter, r *http.Request) {
	var in domain.SignupInput
	if !decode(w, r, &in) {
		return
	}
	sess, err := h.Accounts.Signup(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	observability.ObserveDomain("user", "created")
	writeJSON(w, http.StatusCreated, sess)
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var in domain.LoginInput
	if !decode(w, r, &in) {
		return
	}
	sess, err := h.Accounts.Login(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handlers) profile(w http.ResponseWriter, r *http.Request) {
	page, err := h.Accounts.Profile(r.Context(), PrincipalFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, page)
}

// profileForm is the combined user and profile submission.
type profileForm struct {
	domain.UserUpdateInput
	domain.ProfileUpdateInput
}

func (h *Handlers) updateProfile(w http.ResponseWriter, r *http.Request) {
	var in profileForm
	if !decode(w, r, &in) {
		return
	}
	u, p, err := h.Accounts.UpdateProfile(r.Context(), PrincipalFrom(r.Context()), in.UserUpdateInput, in.ProfileUpdateInput)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u, "profile": p})
}

func (h *Handlers) updateAvatar(w http.ResponseWriter, r *http.Request) {
	up, done, ok := h.readUpload(w, r, "image")
	if !ok {
		return
	}
	defer done()
	p, err := h.Accounts.UpdateAvatar(r.Context(), PrincipalFrom(r.Context()), up)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ---- experiences ----

func (h *Handlers) listExperiences(w http.ResponseWriter, r *http.Request) {
	h.writeExperiences(w, r, r.URL.Query().Get("city"))
}

func (h *Handlers) search(w http.ResponseWriter, r *http.Request) {
	h.writeExperiences(w, r, r.URL.Query().Get("searchquery"))
}

func (h *Handlers) writeExperiences(w http.ResponseWriter, r *http.Request, city string) {
	out, err := h.Experiences.List(r.Context(), domain.ExperienceFilter{City: strings.TrimSpace(city)})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, out)
}

func (h *Handlers) createExperience(w http.ResponseWriter, r *http.Request) {
	var in domain.ExperienceInput
	if !decode(w, r, &in) {
		return
	}
	e, err := h.Experiences.Create(r.Context(), PrincipalFrom(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	observability.ObserveDomain("experience", "created")
	w.Header().Set("Location", fmt.Sprintf("/v1/experiences/%d", e.ID))
	writeJSON(w, http.StatusCreated, e)
}

func (h *Handlers) getExperience(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	v, err := h.Experiences.Get(r.Context(), PrincipalFrom(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, v)
}

func (h *Handlers) updateExperience(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in domain.ExperienceInput
	if !decode(w, r, &in) {
		return
	}
	e, err := h.Experiences.Update(r.Context(), PrincipalFrom(r.Context()), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *Handlers) deleteExperience(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Experiences.Delete(r.Context(), PrincipalFrom(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	observability.ObserveDomain("experience", "deleted")
	w.WriteHeader(http.StatusNoContent)
}

// ---- bookings ----

func (h *Handlers) newBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	e, err := h.Bookings.New(r.Context(), PrincipalFrom(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"experience": e})
}

func (h *Handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in domain.BookingInput
	if !decode(w, r, &in) {
		return
	}
	b, err := h.Bookings.Create(r.Context(), PrincipalFrom(r.Context()), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	observability.ObserveDomain("booking", "created")
	w.Header().Set("Location", fmt.Sprintf("/v1/experiences/%d/bookings/%d", id, b.ID))
	writeJSON(w, http.StatusCreated, b)
}

func (h *Handlers) showBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	bid, ok := pathID(w, r, "bookingID")
	if !ok {
		return
	}
	v, err := h.Bookings.Show(r.Context(), PrincipalFrom(r.Context()), id, bid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, v)
}

func (h *Handlers) listBookings(w http.ResponseWriter, r *http.Request) {
	out, err := h.Bookings.ListMine(r.Context(), PrincipalFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, out)
}

func (h *Handlers) deleteBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Bookings.Delete(r.Context(), PrincipalFrom(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	observability.ObserveDomain("booking", "deleted")
	w.WriteHeader(http.StatusNoContent)
}

// ---- reviews ----

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	out, err := h.Reviews.List(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, out)
}

func (h *Handlers) createReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in domain.ReviewInput
	if !decode(w, r, &in) {
		return
	}
	rv, err := h.Reviews.Create(r.Context(), PrincipalFrom(r.Context()), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	observability.ObserveDomain("review", "created")
	writeJSON(w, http.StatusCreated, rv)
}

// ---- photos ----

// uploadPhoto always lands the caller back on the experience page. A storage
// failure is reported as a warning next to the redirect.
func (h *Handlers) uploadPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	up, done, ok := h.readUpload(w, r, "photo-file")
	if !ok {
		return
	}
	defer done()

	detail := fmt.Sprintf("/v1/experiences/%d", id)
	p, err := h.Photos.Upload(r.Context(), PrincipalFrom(r.Context()), id, up)
	var xe *domain.ExternalServiceError
	switch {
	case errors.As(err, &xe):
		w.Header().Set("Location", detail)
		w.Header().Set("X-Upload-Warning", uploadWarning)
		writeJSON(w, http.StatusSeeOther, map[string]string{"warning": uploadWarning})
	case err != nil:
		writeError(w, r, err)
	default:
		observability.ObserveDomain("photo", "created")
		w.Header().Set("Location", detail)
		writeJSON(w, http.StatusSeeOther, map[string]any{"photo": p})
	}
}

// readUpload pulls one file out of a multipart body. A missing file yields
// an Upload with a nil Body and the service decides what that means.
func (h *Handlers) readUpload(w http.ResponseWriter, r *http.Request, field string) (domain.Upload, func(), bool) {
	limit := h.MaxUploadBytes
	if limit <= 0 {
		limit = 10 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	noop := func() {}

	if err := r.ParseMultipartForm(limit); err != nil {
		var mbe *http.MaxBytesError
		switch {
		case errors.As(err, &mbe):
			writeProblem(w, http.StatusRequestEntityTooLarge, "Upload Too Large", fmt.Sprintf("limit is %d bytes", limit))
			return domain.Upload{}, noop, false
		case errors.Is(err, http.ErrNotMultipart):
			return domain.Upload{}, noop, true
		default:
			writeProblem(w, http.StatusBadRequest, "Malformed Upload", err.Error())
			return domain.Upload{}, noop, false
		}
	}
	cleanup := func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}

	file, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return domain.Upload{}, cleanup, true
	}
	if err != nil {
		cleanup()
		writeProblem(w, http.StatusBadRequest, "Malformed Upload", err.Error())
		return domain.Upload{}, noop, false
	}
	return uploadFrom(file, hdr), func() {
		if err := file.Close(); err != nil {
			log.Warn().Err(err).Msg("close upload")
		}
		cleanup()
	}, true
}

func uploadFrom(f multipart.File, hdr *multipart.FileHeader) domain.Upload {
	return domain.Upload{
		Filename:    hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Size:        hdr.Size,
		Body:        f,
	}
}
