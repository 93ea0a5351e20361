package shared

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string

	Storage   string // mysql | memory
	MySQLDSN  string
	RedisAddr string
	RedisDB   int
	RedisPass string
	CacheTTL  time.Duration

	JWTSecret  string
	JWTTTL     time.Duration
	BcryptCost int

	S3Region    string
	S3Bucket    string
	S3BaseURL   string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3RPS       int

	AMQPURL string

	DetailRequiresAuth bool
	MaxUploadBytes     int64

	SeedFile    string
	SeedWorkers int
}

// Load reads the environment, after merging an optional .env file
// (ENV_FILE, default ".env"). Real environment variables win.
func Load() Config {
	file := env("ENV_FILE", ".env")
	if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("file", file).Msg("could not read env file")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    env("LOG_LEVEL", "info"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ""),

		Storage:   strings.ToLower(env("STORAGE", "mysql")),
		MySQLDSN:  env("MYSQL_DSN", "root:root@tcp(localhost:3306)/experiences?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr: env("REDIS_ADDR", "localhost:6379"),
		RedisPass: env("REDIS_PASSWORD", ""),
		RedisDB:   atoi("REDIS_DB", 0),
		CacheTTL:  time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,

		JWTSecret:  env("JWT_SECRET", ""),
		JWTTTL:     time.Duration(atoi("JWT_TTL_MINUTES", 24*60)) * time.Minute,
		BcryptCost: atoi("BCRYPT_COST", 12),

		S3Region:    env("AWS_REGION", "us-west-2"),
		S3Bucket:    env("S3_BUCKET", ""),
		S3BaseURL:   env("S3_BASE_URL", "https://s3-us-west-2.amazonaws.com/"),
		S3Endpoint:  env("S3_ENDPOINT", ""),
		S3AccessKey: env("AWS_ACCESS_KEY_ID", ""),
		S3SecretKey: env("AWS_SECRET_ACCESS_KEY", ""),
		S3RPS:       atoi("S3_RPS", 5),

		AMQPURL: env("AMQP_URL", ""),

		DetailRequiresAuth: boolean("DETAIL_REQUIRES_AUTH", false),
		MaxUploadBytes:     int64(atoi("MAX_UPLOAD_BYTES", 10<<20)),

		SeedFile:    env("SEED_FILE", "seed.json"),
		SeedWorkers: atoi("SEED_WORKERS", 4),
	}
	if c.S3Bucket == "" {
		log.Warn().Msg("S3_BUCKET is empty; photo and avatar uploads will fail")
	}
	if c.AMQPURL == "" {
		log.Info().Msg("AMQP_URL is empty; booking events are not published")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func boolean(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
