package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"experiences/internal/domain"
)

// ---- fakes ----

type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	c.dels = append(c.dels, key)
	return nil
}

func (c *fakeCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.store[key]
	return ok
}

type fakeObjects struct {
	fail  bool
	keys  []string
	types []string
}

func (o *fakeObjects) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	if o.fail {
		return "", errors.New("connection refused")
	}
	if _, err := io.ReadAll(body); err != nil {
		return "", err
	}
	o.keys = append(o.keys, key)
	o.types = append(o.types, contentType)
	return "https://objects.test/bucket/" + key, nil
}

type fakeEvents struct {
	fail bool
	got  []domain.BookingCreated
}

func (e *fakeEvents) PublishBookingCreated(ctx context.Context, ev domain.BookingCreated) error {
	if e.fail {
		return errors.New("broker down")
	}
	e.got = append(e.got, ev)
	return nil
}

type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) { return "h:" + p, nil }
func (plainHasher) Verify(h, p string) bool      { return h == "h:"+p }

type fakeTokens struct{}

func (fakeTokens) Issue(p domain.Principal) (domain.Token, error) {
	return domain.Token{Value: fmt.Sprintf("tok-%d", p.UserID), ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func alice() domain.Principal { return domain.Principal{UserID: 1, Username: "alice"} }
func bob() domain.Principal   { return domain.Principal{UserID: 2, Username: "bob"} }

func ptr[T any](v T) *T { return &v }

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
