package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"experiences/internal/domain"
)

type SeedUser struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SeedExperience is an experience listing plus the username that owns it.
type SeedExperience struct {
	Owner string `json:"owner"`
	domain.ExperienceInput
}

type SeedFixture struct {
	Users       []SeedUser       `json:"users"`
	Experiences []SeedExperience `json:"experiences"`
}

type SeedReport struct {
	Users   int
	Created int
	Failed  int
}

func DecodeSeed(r io.Reader) (SeedFixture, error) {
	var fx SeedFixture
	if err := json.NewDecoder(r).Decode(&fx); err != nil {
		return SeedFixture{}, fmt.Errorf("decode seed fixture: %w", err)
	}
	return fx, nil
}

// SeedService imports a fixture through the regular services, so every
// row passes the same validation as an HTTP submission.
type SeedService struct {
	accounts    *AccountService
	experiences *ExperienceService
	workers     int64
}

func NewSeedService(a *AccountService, e *ExperienceService, workers int) *SeedService {
	if workers < 1 {
		workers = 1
	}
	return &SeedService{accounts: a, experiences: e, workers: int64(workers)}
}

func (s *SeedService) Run(ctx context.Context, fx SeedFixture) (SeedReport, error) {
	owners := make(map[string]domain.Principal, len(fx.Users))
	for _, u := range fx.Users {
		who, err := s.ensureUser(ctx, u)
		if err != nil {
			log.Warn().Err(err).Str("username", u.Username).Msg("seed user skipped")
			continue
		}
		owners[u.Username] = who
	}

	var created, failed atomic.Int64
	sem := semaphore.NewWeighted(s.workers)
	var wg sync.WaitGroup

	for i, item := range fx.Experiences {
		who, ok := owners[item.Owner]
		if !ok {
			log.Warn().Int("index", i).Str("owner", item.Owner).Msg("seed experience has unknown owner")
			failed.Add(1)
			continue
		}

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return s.report(len(owners), &created, &failed), err
		}

		wg.Add(1)
		go func(i int, in domain.ExperienceInput) {
			defer wg.Done()
			defer sem.Release(1)

			e, err := s.experiences.Create(ctx, who, in)
			if err != nil {
				log.Warn().Int("index", i).Str("title", in.Title).Err(err).Msg("seed experience failed")
				failed.Add(1)
				return
			}
			created.Add(1)
			log.Debug().Int64("id", e.ID).Str("title", e.Title).Msg("seed experience ok")
		}(i, item.ExperienceInput)
	}

	wg.Wait()
	return s.report(len(owners), &created, &failed), nil
}

func (s *SeedService) report(users int, created, failed *atomic.Int64) SeedReport {
	return SeedReport{Users: users, Created: int(created.Load()), Failed: int(failed.Load())}
}

// ensureUser signs the user up, or logs in when the username already exists.
func (s *SeedService) ensureUser(ctx context.Context, u SeedUser) (domain.Principal, error) {
	sess, err := s.accounts.Signup(ctx, domain.SignupInput{
		Username: u.Username, Email: u.Email, Password: u.Password, Password2: u.Password,
	})
	var ve *domain.ValidationError
	if errors.As(err, &ve) && ve.Fields["username"] != "" {
		sess, err = s.accounts.Login(ctx, domain.LoginInput{Username: u.Username, Password: u.Password})
	}
	if err != nil {
		return domain.Principal{}, err
	}
	return domain.Principal{UserID: sess.User.ID, Username: sess.User.Username}, nil
}
