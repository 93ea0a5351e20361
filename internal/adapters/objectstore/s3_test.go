package objectstore_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"experiences/internal/adapters/objectstore"
)

type captured struct {
	mu          sync.Mutex
	method      string
	path        string
	contentType string
	body        string
}

func fakeS3(t *testing.T, status int) (*httptest.Server, *captured) {
	t.Helper()
	c := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		c.mu.Lock()
		c.method, c.path, c.contentType, c.body = r.Method, r.URL.Path, r.Header.Get("Content-Type"), string(b)
		c.mu.Unlock()
		if status != http.StatusOK {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(status)
			_, _ = io.WriteString(w, `<Error><Code>AccessDenied</Code><Message>no</Message></Error>`)
			return
		}
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, c
}

func s3Client(endpoint string) *s3.Client {
	return s3.New(s3.Options{
		Region:           "us-west-2",
		Credentials:      credentials.NewStaticCredentialsProvider("AKID", "SECRET", ""),
		BaseEndpoint:     aws.String(endpoint),
		UsePathStyle:     true,
		RetryMaxAttempts: 1,
	})
}

func TestUpload_PutsObjectAndReturnsPublicURL(t *testing.T) {
	srv, got := fakeS3(t, http.StatusOK)
	c := objectstore.NewWithAPI(s3Client(srv.URL), "photos", "", 10)

	// a plain io.Reader, not a seeker
	body := io.MultiReader(strings.NewReader("img-"), strings.NewReader("bytes"))
	url, err := c.Upload(context.Background(), "a1b2c3.png", body, "image/png")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if url != "https://s3-us-west-2.amazonaws.com/photos/a1b2c3.png" {
		t.Fatalf("url = %q", url)
	}
	got.mu.Lock()
	defer got.mu.Unlock()
	if got.method != http.MethodPut || got.path != "/photos/a1b2c3.png" {
		t.Fatalf("request = %s %s", got.method, got.path)
	}
	if got.contentType != "image/png" {
		t.Fatalf("content type = %q", got.contentType)
	}
	if !strings.Contains(got.body, "img-bytes") {
		t.Fatalf("body = %q", got.body)
	}
}

func TestUpload_CustomBaseURL(t *testing.T) {
	srv, _ := fakeS3(t, http.StatusOK)
	c := objectstore.NewWithAPI(s3Client(srv.URL), "b", "http://cdn.local", 10)
	url, err := c.Upload(context.Background(), "k.jpg", strings.NewReader("x"), "image/jpeg")
	if err != nil {
		t.Fatal(err)
	}
	if url != "http://cdn.local/b/k.jpg" {
		t.Fatalf("url = %q", url)
	}
}

func TestUpload_RemoteError(t *testing.T) {
	srv, _ := fakeS3(t, http.StatusForbidden)
	c := objectstore.NewWithAPI(s3Client(srv.URL), "photos", "", 10)
	if _, err := c.Upload(context.Background(), "k.jpg", strings.NewReader("x"), "image/jpeg"); err == nil {
		t.Fatal("expected error from 403")
	}
}

func TestUnconfigured(t *testing.T) {
	_, err := objectstore.Unconfigured{}.Upload(context.Background(), "k", strings.NewReader("x"), "")
	if !errors.Is(err, objectstore.ErrNotConfigured) {
		t.Fatalf("err = %v", err)
	}
	if _, err := objectstore.New(context.Background(), objectstore.Config{}); !errors.Is(err, objectstore.ErrNotConfigured) {
		t.Fatalf("New without bucket err = %v", err)
	}
}
