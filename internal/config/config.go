package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const devJWTSecret = "dev-only-secret-change-me-0123456789"

type Config struct {
	Env        string
	Port       int
	APIVersion string

	// Storage selects the datastore: "postgres" or "memory".
	Storage       string
	DBURL         string
	DBMaxConns    int32
	RunMigrations bool

	JWTSecret  string
	JWTTTL     time.Duration
	JWTIssuer  string
	BcryptCost int

	AdminEmail       string
	AdminPassword    string
	AdminName        string
	AllowAdminSignup bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimitMax    int
	RateLimitWindow time.Duration
	AuthRatePerMin  int
	AuthRateBurst   int

	CORSOrigins  []string
	MaxBodyBytes int64

	OTELEnabled     bool
	OTELEndpoint    string
	OTELSampleRatio float64
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not read .env file", "err", err)
	}

	env := getEnv("APP_ENV", "dev")

	secret := getEnv("JWT_SECRET", "")
	if secret == "" && env == "dev" {
		secret = devJWTSecret
	}

	return Config{
		Env:        env,
		Port:       getEnvInt("PORT", 8080),
		APIVersion: getEnv("API_VERSION", "v1"),

		Storage:       strings.ToLower(getEnv("STORAGE", "postgres")),
		DBURL:         getEnv("DATABASE_URL", buildDBURL()),
		DBMaxConns:    int32(getEnvInt("DB_MAX_CONNS", 10)),
		RunMigrations: getEnvBool("RUN_MIGRATIONS", true),

		JWTSecret:  secret,
		JWTTTL:     getEnvDuration("JWT_TTL", 24*time.Hour),
		JWTIssuer:  getEnv("JWT_ISSUER", "taskhub"),
		BcryptCost: getEnvInt("BCRYPT_COST", 0),

		AdminEmail:       getEnv("ADMIN_EMAIL", ""),
		AdminPassword:    getEnv("ADMIN_PASSWORD", ""),
		AdminName:        getEnv("ADMIN_NAME", "Administrator"),
		AllowAdminSignup: getEnvBool("ALLOW_ADMIN_SIGNUP", false),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RateLimitMax:    getEnvInt("RATE_LIMIT_MAX", 100),
		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		AuthRatePerMin:  getEnvInt("AUTH_RATE_PER_MIN", 10),
		AuthRateBurst:   getEnvInt("AUTH_RATE_BURST", 5),

		CORSOrigins:  splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		MaxBodyBytes: int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),

		OTELEnabled:     getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELSampleRatio: getEnvFloat("OTEL_SAMPLE_RATIO", 1),
	}
}

// Validate rejects configurations the server must not start with.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Env != "dev" && c.Env != "test" && len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 bytes outside dev")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.JWTTTL)
	}
	switch c.Storage {
	case "postgres", "memory":
	default:
		return fmt.Errorf("STORAGE must be postgres or memory, got %q", c.Storage)
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	return nil
}

func (c Config) APIBasePath() string {
	return "/api/" + c.APIVersion
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "taskhub")
	pass := getEnv("DB_PASSWORD", "taskhub")
	name := getEnv("DB_NAME", "taskhub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

// WithTimeout bounds a datastore call. A nil parent means context.Background.
func WithTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			slog.Warn("invalid integer in env, using default", "key", key, "value", v)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			slog.Warn("invalid boolean in env, using default", "key", key, "value", v)
			return fallback
		}
		return b
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration in env, using default", "key", key, "value", v)
			return fallback
		}
		return d
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			slog.Warn("invalid float in env, using default", "key", key, "value", v)
			return fallback
		}
		return f
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
