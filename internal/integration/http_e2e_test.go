//go:build integration

package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"experiences/internal/adapters/auth"
	httpserver "experiences/internal/adapters/http_server"
	"experiences/internal/adapters/objectstore"
	redisad "experiences/internal/adapters/redis"
	"experiences/internal/app"
	"experiences/internal/domain"
	mysqlrepo "experiences/internal/storage/mysql"
)

// ---------- helpers ----------

func migrationsDir() string {
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	return filepath.Join("..", "..", "migrations")
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := migrationsDir()
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir %s: %v", dir, err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(b)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env:        []string{"MYSQL_ROOT_PASSWORD=root", "MYSQL_DATABASE=experiences"},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/experiences?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		resource.GetPort("3306/tcp"))
	var db *sql.DB
	pool.MaxWait = 2 * time.Minute
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	applyMigrations(t, db)
	return db
}

type okPutter struct{}

func (okPutter) PutObject(context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	return &s3.PutObjectOutput{}, nil
}

func call(t *testing.T, method, url, token string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer res.Body.Close()
	if out != nil && res.StatusCode < 300 {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return res.StatusCode
}

// ---------- the test ----------

func TestHTTP_EndToEnd_BookAndReview(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)

	mr := miniredis.RunT(t)
	cache := redisad.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "e2e:")

	tokens, err := auth.NewTokens("e2e-secret-0123456789", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	objs := objectstore.NewWithAPI(okPutter{}, "bucket", "", 50)

	srv := httpserver.New(tokens)
	srv.MountHandlers(&httpserver.Handlers{
		Experiences: app.NewExperienceService(repo, repo, cache, app.ExperienceOptions{CacheTTL: time.Minute}),
		Bookings:    app.NewBookingService(repo, repo, nil),
		Reviews:     app.NewReviewService(repo, repo, cache, time.Minute),
		Photos:      app.NewPhotoService(repo, repo, objs, cache),
		Accounts:    app.NewAccountService(repo, repo, repo, auth.Bcrypt{Cost: bcrypt.MinCost}, tokens, objs),
	})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	signup := func(name string) domain.Session {
		var s domain.Session
		code := call(t, http.MethodPost, ts.URL+"/v1/auth/signup", "", map[string]string{
			"username": name, "email": name + "@example.com", "password1": "e2e-password", "password2": "e2e-password",
		}, &s)
		if code != http.StatusCreated {
			t.Fatalf("signup %s: %d", name, code)
		}
		return s
	}
	host := signup("host")
	guest := signup("guest")

	var exp domain.Experience
	code := call(t, http.MethodPost, ts.URL+"/v1/experiences", host.Token.Value, map[string]any{
		"title": "Cellar visit", "description": "Port tasting.", "price": "25.00",
		"hours": 1, "minutes": 30, "language": "Portuguese",
		"city": "Porto", "address": "Gaia", "zipcode": "4400",
	}, &exp)
	if code != http.StatusCreated || exp.OwnerID != host.User.ID {
		t.Fatalf("create experience: %d %+v", code, exp)
	}

	var b domain.Booking
	code = call(t, http.MethodPost, fmt.Sprintf("%s/v1/experiences/%d/bookings", ts.URL, exp.ID), guest.Token.Value,
		map[string]any{"date": "2026-09-10", "user_id": host.User.ID}, &b)
	if code != http.StatusCreated || b.UserID != guest.User.ID || b.ExperienceID != exp.ID {
		t.Fatalf("create booking: %d %+v", code, b)
	}

	var mine []domain.Booking
	if code := call(t, http.MethodGet, ts.URL+"/v1/bookings", host.Token.Value, nil, &mine); code != http.StatusOK || len(mine) != 0 {
		t.Fatalf("host sees guest bookings: %d %+v", code, mine)
	}

	if code := call(t, http.MethodPost, fmt.Sprintf("%s/v1/experiences/%d/reviews", ts.URL, exp.ID), guest.Token.Value,
		map[string]any{"rating": 5, "comment": "Superb"}, nil); code != http.StatusCreated {
		t.Fatalf("create review: %d", code)
	}
	var reviews []domain.Review
	if code := call(t, http.MethodGet, fmt.Sprintf("%s/v1/experiences/%d/reviews", ts.URL, exp.ID), "", nil, &reviews); code != http.StatusOK || len(reviews) != 1 {
		t.Fatalf("list reviews: %d %+v", code, reviews)
	}

	var view domain.ExperienceView
	if code := call(t, http.MethodGet, fmt.Sprintf("%s/v1/experiences/%d", ts.URL, exp.ID), "", nil, &view); code != http.StatusOK {
		t.Fatalf("detail: %d", code)
	}
	if !mr.Exists(fmt.Sprintf("e2e:experience:%d", exp.ID)) {
		t.Fatalf("detail not cached in redis")
	}

	if code := call(t, http.MethodDelete, fmt.Sprintf("%s/v1/experiences/%d", ts.URL, exp.ID), guest.Token.Value, nil, nil); code != http.StatusForbidden {
		t.Fatalf("guest delete: %d", code)
	}
	if code := call(t, http.MethodDelete, fmt.Sprintf("%s/v1/experiences/%d", ts.URL, exp.ID), host.Token.Value, nil, nil); code != http.StatusNoContent {
		t.Fatalf("host delete: %d", code)
	}
	if code := call(t, http.MethodGet, fmt.Sprintf("%s/v1/experiences/%d", ts.URL, exp.ID), "", nil, nil); code != http.StatusNotFound {
		t.Fatalf("deleted detail: %d", code)
	}
}
