package app_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"experiences/internal/app"
	"experiences/internal/domain"
	"experiences/internal/storage/memory"
)

const fixture = `{
  "users": [
    {"username": "maria", "email": "maria@example.com", "password": "s3cretpass"},
    {"username": "nico", "email": "nico@example.com", "password": "s3cretpass"}
  ],
  "experiences": [
    {"owner": "maria", "title": "Tapas crawl", "description": "Three bars.", "price": "25.50",
     "hours": 2, "language": "Spanish", "city": "Madrid", "address": "Plaza Mayor 1", "zipcode": "28012"},
    {"owner": "nico", "title": "Canal kayak", "description": "Paddle at dawn.", "price": "40",
     "hours": 1, "minutes": 30, "language": "English", "city": "Amsterdam", "address": "Prinsengracht 2", "zipcode": "1015"},
    {"owner": "nico", "title": "", "description": "missing title", "hours": 1,
     "language": "English", "city": "Amsterdam", "address": "x", "zipcode": "1"},
    {"owner": "ghost", "title": "Nobody's", "description": "unknown owner", "hours": 1,
     "language": "English", "city": "Oslo", "address": "x", "zipcode": "1"}
  ]
}`

func newSeed(st *memory.Store) *app.SeedService {
	accounts := app.NewAccountService(st, st, st, plainHasher{}, fakeTokens{}, &fakeObjects{})
	exps := app.NewExperienceService(st, st, nil, app.ExperienceOptions{})
	return app.NewSeedService(accounts, exps, 3)
}

func TestSeed_ImportsValidRowsAndReportsTheRest(t *testing.T) {
	ctx := context.Background()
	fx, err := app.DecodeSeed(strings.NewReader(fixture))
	require.NoError(t, err)
	require.Len(t, fx.Experiences, 4)
	require.Equal(t, "maria", fx.Experiences[0].Owner)
	require.Equal(t, "Tapas crawl", fx.Experiences[0].Title)

	st := memory.New()
	rep, err := newSeed(st).Run(ctx, fx)
	require.NoError(t, err)
	require.Equal(t, app.SeedReport{Users: 2, Created: 2, Failed: 2}, rep)

	all, err := st.ListExperiences(ctx, domain.ExperienceFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	maria, err := st.GetUserByUsername(ctx, "maria")
	require.NoError(t, err)
	mine, err := st.ListExperiences(ctx, domain.ExperienceFilter{OwnerID: maria.ID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, "25.50", mine[0].Price.StringFixed(2))
}

func TestSeed_RerunReusesExistingUsers(t *testing.T) {
	ctx := context.Background()
	fx, err := app.DecodeSeed(strings.NewReader(fixture))
	require.NoError(t, err)

	st := memory.New()
	svc := newSeed(st)
	_, err = svc.Run(ctx, fx)
	require.NoError(t, err)
	rep, err := svc.Run(ctx, fx)
	require.NoError(t, err)
	require.Equal(t, 2, rep.Users)
	require.Equal(t, 2, rep.Created)

	all, _ := st.ListExperiences(ctx, domain.ExperienceFilter{})
	require.Len(t, all, 4)
}

func TestDecodeSeed_Malformed(t *testing.T) {
	_, err := app.DecodeSeed(strings.NewReader(`{"users": [`))
	require.Error(t, err)
}
