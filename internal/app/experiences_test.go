package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"experiences/internal/app"
	"experiences/internal/domain"
	"experiences/internal/storage/memory"
)

func validExperience() domain.ExperienceInput {
	return domain.ExperienceInput{
		Title:       "Tapas crawl",
		Description: "Three bars, one evening.",
		Price:       ptr(decimal.RequireFromString("25.50")),
		Hours:       2,
		Minutes:     30,
		Language:    "English",
		City:        "Madrid",
		Address:     "Plaza Mayor 1",
		Zipcode:     "28012",
	}
}

func newExperiences(opts app.ExperienceOptions) (*app.ExperienceService, *memory.Store, *fakeCache) {
	st := memory.New()
	c := &fakeCache{}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = time.Minute
	}
	return app.NewExperienceService(st, st, c, opts), st, c
}

func TestCreateExperience_OwnerIsCaller(t *testing.T) {
	svc, _, _ := newExperiences(app.ExperienceOptions{})
	e, err := svc.Create(context.Background(), alice(), validExperience())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if e.OwnerID != alice().UserID {
		t.Fatalf("owner = %d, want %d", e.OwnerID, alice().UserID)
	}
	if !e.Price.Equal(decimal.RequireFromString("25.5")) {
		t.Fatalf("price = %s", e.Price)
	}
}

func TestCreateExperience_Anonymous(t *testing.T) {
	svc, st, _ := newExperiences(app.ExperienceOptions{})
	_, err := svc.Create(context.Background(), domain.Principal{}, validExperience())
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("err = %v, want ErrUnauthenticated", err)
	}
	all, _ := st.ListExperiences(context.Background(), domain.ExperienceFilter{})
	if len(all) != 0 {
		t.Fatalf("nothing should be stored, got %d", len(all))
	}
}

func TestCreateExperience_Validation(t *testing.T) {
	cases := map[string]struct {
		mut   func(*domain.ExperienceInput)
		field string
	}{
		"missing title":     {func(in *domain.ExperienceInput) { in.Title = "" }, "title"},
		"missing price":     {func(in *domain.ExperienceInput) { in.Price = nil }, "price"},
		"negative price":    {func(in *domain.ExperienceInput) { in.Price = ptr(decimal.NewFromInt(-1)) }, "price"},
		"price too large":   {func(in *domain.ExperienceInput) { in.Price = ptr(decimal.RequireFromString("100000000")) }, "price"},
		"three decimals":    {func(in *domain.ExperienceInput) { in.Price = ptr(decimal.RequireFromString("1.005")) }, "price"},
		"zero duration":     {func(in *domain.ExperienceInput) { in.Hours, in.Minutes = 0, 0 }, "duration"},
		"minutes overflow":  {func(in *domain.ExperienceInput) { in.Minutes = 60 }, "minutes"},
		"long zipcode":      {func(in *domain.ExperienceInput) { in.Zipcode = "12345678901" }, "zipcode"},
		"negative hours":    {func(in *domain.ExperienceInput) { in.Hours = -1 }, "hours"},
		"missing language":  {func(in *domain.ExperienceInput) { in.Language = "" }, "language"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc, _, _ := newExperiences(app.ExperienceOptions{})
			in := validExperience()
			tc.mut(&in)
			_, err := svc.Create(context.Background(), alice(), in)
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if _, ok := ve.Fields[tc.field]; !ok {
				t.Fatalf("missing %q in %v", tc.field, ve.Fields)
			}
		})
	}
}

func TestCreateExperience_PriceAtColumnLimit(t *testing.T) {
	svc, _, _ := newExperiences(app.ExperienceOptions{})
	in := validExperience()
	in.Price = ptr(domain.MaxPrice)
	e, err := svc.Create(context.Background(), alice(), in)
	if err != nil {
		t.Fatalf("max price rejected: %v", err)
	}
	if !e.Price.Equal(domain.MaxPrice) {
		t.Fatalf("price = %s", e.Price)
	}
}

func TestUpdateExperience_OnlyOwner(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newExperiences(app.ExperienceOptions{})
	e, _ := svc.Create(ctx, alice(), validExperience())

	in := validExperience()
	in.Title = "Hijacked"
	if _, err := svc.Update(ctx, bob(), e.ID, in); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	got, _ := st.GetExperience(ctx, e.ID)
	if got.Title != "Tapas crawl" {
		t.Fatalf("title changed to %q", got.Title)
	}

	in.Title = "Tapas crawl II"
	upd, err := svc.Update(ctx, alice(), e.ID, in)
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if upd.Title != "Tapas crawl II" || upd.OwnerID != alice().UserID {
		t.Fatalf("unexpected %+v", upd)
	}
}

func TestDeleteExperience_OnlyOwner(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newExperiences(app.ExperienceOptions{})
	e, _ := svc.Create(ctx, alice(), validExperience())

	if err := svc.Delete(ctx, bob(), e.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	if err := svc.Delete(ctx, alice(), e.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, alice(), e.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, alice(), e.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestGetExperience_CacheMissThenHitThenEvict(t *testing.T) {
	ctx := context.Background()
	svc, _, c := newExperiences(app.ExperienceOptions{})
	e, _ := svc.Create(ctx, alice(), validExperience())
	key := "experience:" + itoa(e.ID)

	v, err := svc.Get(ctx, domain.Principal{}, e.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v.Photos == nil || len(v.Photos) != 0 {
		t.Fatalf("photos should be an empty list, got %#v", v.Photos)
	}
	if !c.has(key) {
		t.Fatalf("expected %s cached", key)
	}

	again, err := svc.Get(ctx, domain.Principal{}, e.ID)
	if err != nil || again.Title != v.Title {
		t.Fatalf("cached get = %+v, %v", again, err)
	}

	in := validExperience()
	in.Title = "Changed"
	if _, err := svc.Update(ctx, alice(), e.ID, in); err != nil {
		t.Fatal(err)
	}
	if c.has(key) {
		t.Fatalf("%s should be evicted after update", key)
	}
	fresh, _ := svc.Get(ctx, domain.Principal{}, e.ID)
	if fresh.Title != "Changed" {
		t.Fatalf("stale read: %q", fresh.Title)
	}
}

// ctxRepo fails reads whose context is already done, like a real driver.
type ctxRepo struct{ *memory.Store }

func (r ctxRepo) GetExperience(ctx context.Context, id int64) (domain.Experience, error) {
	if err := ctx.Err(); err != nil {
		return domain.Experience{}, err
	}
	return r.Store.GetExperience(ctx, id)
}

func TestGetExperience_SharedLoadIgnoresCallerCancellation(t *testing.T) {
	st := memory.New()
	e := domain.Experience{OwnerID: alice().UserID, Title: "Kayak", Hours: 1}
	if err := st.CreateExperience(context.Background(), &e); err != nil {
		t.Fatal(err)
	}
	svc := app.NewExperienceService(ctxRepo{st}, st, nil, app.ExperienceOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	v, err := svc.Get(ctx, domain.Principal{}, e.ID)
	if err != nil {
		t.Fatalf("get with cancelled caller: %v", err)
	}
	if v.ID != e.ID {
		t.Fatalf("view = %+v", v)
	}
}

func TestGetExperience_DetailRequiresAuth(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newExperiences(app.ExperienceOptions{DetailRequiresAuth: true})
	e, _ := svc.Create(ctx, alice(), validExperience())
	if _, err := svc.Get(ctx, domain.Principal{}, e.ID); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("err = %v, want ErrUnauthenticated", err)
	}
	if _, err := svc.Get(ctx, bob(), e.ID); err != nil {
		t.Fatalf("authenticated get: %v", err)
	}
}

func TestListExperiences_FilterByCity(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newExperiences(app.ExperienceOptions{})
	in := validExperience()
	_, _ = svc.Create(ctx, alice(), in)
	in.City = "Lisbon"
	_, _ = svc.Create(ctx, bob(), in)

	got, err := svc.List(ctx, domain.ExperienceFilter{City: "lis"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].City != "Lisbon" {
		t.Fatalf("unexpected %+v", got)
	}
}
