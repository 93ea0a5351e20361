// Package objectstore puts uploaded files into an S3 bucket and hands back
// their public URL.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/time/rate"

	"experiences/internal/adapters/observability"
)

const DefaultBaseURL = "https://s3-us-west-2.amazonaws.com/"

var ErrNotConfigured = errors.New("objectstore: no bucket configured")

type Config struct {
	Region    string
	Bucket    string
	BaseURL   string // public URL prefix; the bucket name is appended
	Endpoint  string // optional, for S3-compatible servers
	AccessKey string
	SecretKey string
	RPS       int
}

type putter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Client struct {
	api     putter
	bucket  string
	baseURL string
	rl      *rate.Limiter
}

// New builds a client from the default AWS chain, overridden by static keys
// and a custom endpoint when those are set.
func New(ctx context.Context, c Config) (*Client, error) {
	if c.Bucket == "" {
		return nil, ErrNotConfigured
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(c.Region)}
	if c.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	api := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewWithAPI(api, c.Bucket, c.BaseURL, c.RPS), nil
}

func NewWithAPI(api putter, bucket, baseURL string, rps int) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		api:     api,
		bucket:  bucket,
		baseURL: baseURL,
		rl:      rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// Upload writes body under key and returns baseURL + bucket + "/" + key.
func (c *Client) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return "", err
	}
	// the signer needs a seekable body over plain http
	rs, ok := body.(io.ReadSeeker)
	if !ok {
		b, err := io.ReadAll(body)
		if err != nil {
			return "", fmt.Errorf("read upload: %w", err)
		}
		rs = bytes.NewReader(b)
	}

	start := time.Now()
	_, err := c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        rs,
		ContentType: aws.String(contentType),
	})
	observability.ObserveExternal("s3", "put_object", err, time.Since(start))
	if err != nil {
		return "", fmt.Errorf("put %s/%s: %w", c.bucket, key, err)
	}
	return c.baseURL + c.bucket + "/" + key, nil
}

// Unconfigured fails every upload; it stands in when no bucket is set so the
// rest of the service still runs.
type Unconfigured struct{}

func (Unconfigured) Upload(context.Context, string, io.Reader, string) (string, error) {
	return "", ErrNotConfigured
}
