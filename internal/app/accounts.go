package app

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"experiences/internal/domain"
)

type AccountService struct {
	users       domain.UserRepository
	experiences domain.ExperienceRepository
	bookings    domain.BookingRepository
	hasher      domain.PasswordHasher
	tokens      domain.TokenIssuer
	store       domain.ObjectStore
}

func NewAccountService(
	u domain.UserRepository,
	e domain.ExperienceRepository,
	b domain.BookingRepository,
	h domain.PasswordHasher,
	t domain.TokenIssuer,
	store domain.ObjectStore,
) *AccountService {
	return &AccountService{users: u, experiences: e, bookings: b, hasher: h, tokens: t, store: store}
}

// Signup creates the user with an empty profile and logs them in.
func (s *AccountService) Signup(ctx context.Context, in domain.SignupInput) (domain.Session, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	ve := &domain.ValidationError{}
	checkStruct(ve, in)
	if _, ok := ve.Fields["username"]; !ok {
		taken, err := s.usernameTaken(ctx, in.Username, 0)
		if err != nil {
			return domain.Session{}, err
		}
		if taken {
			ve.Add("username", "A user with that username already exists.")
		}
	}
	if err := ve.OrNil(); err != nil {
		return domain.Session{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return domain.Session{}, err
	}
	u := domain.User{Username: in.Username, Email: in.Email, PasswordHash: hash}
	p := domain.Profile{Image: domain.DefaultAvatar}
	if err := s.users.CreateUser(ctx, &u, &p); err != nil {
		return domain.Session{}, err
	}
	log.Info().Int64("user", u.ID).Str("username", u.Username).Msg("account created")
	return s.session(u)
}

func (s *AccountService) Login(ctx context.Context, in domain.LoginInput) (domain.Session, error) {
	ve := &domain.ValidationError{}
	checkStruct(ve, in)
	if err := ve.OrNil(); err != nil {
		return domain.Session{}, err
	}
	u, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(in.Username))
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Session{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.Session{}, err
	}
	if !s.hasher.Verify(u.PasswordHash, in.Password) {
		return domain.Session{}, domain.ErrInvalidCredentials
	}
	return s.session(u)
}

func (s *AccountService) session(u domain.User) (domain.Session, error) {
	tok, err := s.tokens.Issue(domain.Principal{UserID: u.ID, Username: u.Username})
	if err != nil {
		return domain.Session{}, err
	}
	return domain.Session{User: u, Token: tok}, nil
}

func (s *AccountService) Profile(ctx context.Context, who domain.Principal) (domain.ProfilePage, error) {
	if err := requireAuth(who); err != nil {
		return domain.ProfilePage{}, err
	}
	u, err := s.users.GetUser(ctx, who.UserID)
	if err != nil {
		return domain.ProfilePage{}, err
	}
	p, err := s.users.GetProfile(ctx, who.UserID)
	if err != nil {
		return domain.ProfilePage{}, err
	}
	exps, err := s.experiences.ListExperiences(ctx, domain.ExperienceFilter{OwnerID: who.UserID})
	if err != nil {
		return domain.ProfilePage{}, err
	}
	bks, err := s.bookings.ListBookingsByUser(ctx, who.UserID)
	if err != nil {
		return domain.ProfilePage{}, err
	}
	return domain.ProfilePage{User: u, Profile: p, Experiences: exps, Bookings: bks}, nil
}

// UpdateProfile validates both sub-forms before writing anything, then
// writes user and profile together.
func (s *AccountService) UpdateProfile(ctx context.Context, who domain.Principal, uin domain.UserUpdateInput, pin domain.ProfileUpdateInput) (domain.User, domain.Profile, error) {
	if err := requireAuth(who); err != nil {
		return domain.User{}, domain.Profile{}, err
	}
	uin.Username = strings.TrimSpace(uin.Username)
	uin.Email = strings.TrimSpace(uin.Email)

	ve := &domain.ValidationError{}
	checkStruct(ve, uin)
	checkStruct(ve, pin)
	if _, ok := ve.Fields["username"]; !ok {
		taken, err := s.usernameTaken(ctx, uin.Username, who.UserID)
		if err != nil {
			return domain.User{}, domain.Profile{}, err
		}
		if taken {
			ve.Add("username", "A user with that username already exists.")
		}
	}
	if err := ve.OrNil(); err != nil {
		return domain.User{}, domain.Profile{}, err
	}

	u, err := s.users.GetUser(ctx, who.UserID)
	if err != nil {
		return domain.User{}, domain.Profile{}, err
	}
	p, err := s.users.GetProfile(ctx, who.UserID)
	if err != nil {
		return domain.User{}, domain.Profile{}, err
	}
	u.Username, u.Email, u.FirstName, u.LastName = uin.Username, uin.Email, uin.FirstName, uin.LastName
	p.Bio = pin.Bio
	if err := s.users.UpdateAccount(ctx, u, p); err != nil {
		return domain.User{}, domain.Profile{}, err
	}
	log.Info().Int64("user", u.ID).Msg("profile updated")
	return u, p, nil
}

// UpdateAvatar uploads a new profile image. Nothing is written when the
// upload fails.
func (s *AccountService) UpdateAvatar(ctx context.Context, who domain.Principal, up domain.Upload) (domain.Profile, error) {
	if err := requireAuth(who); err != nil {
		return domain.Profile{}, err
	}
	if up.Body == nil {
		return domain.Profile{}, &domain.ValidationError{Fields: map[string]string{"image": "No file was submitted."}}
	}
	u, err := s.users.GetUser(ctx, who.UserID)
	if err != nil {
		return domain.Profile{}, err
	}
	p, err := s.users.GetProfile(ctx, who.UserID)
	if err != nil {
		return domain.Profile{}, err
	}
	key := "profile_pics/" + photoKey(up.Filename)
	url, err := s.store.Upload(ctx, key, up.Body, contentType(up))
	if err != nil {
		log.Error().Err(err).Str("key", key).Int64("user", who.UserID).Msg("avatar upload failed")
		return domain.Profile{}, &domain.ExternalServiceError{Service: "object-storage", Op: "upload", Err: err}
	}
	p.Image = url
	if err := s.users.UpdateAccount(ctx, u, p); err != nil {
		return domain.Profile{}, err
	}
	return p, nil
}

// usernameTaken reports whether another user (not exceptID) holds username.
func (s *AccountService) usernameTaken(ctx context.Context, username string, exceptID int64) (bool, error) {
	u, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.ID != exceptID, nil
}
