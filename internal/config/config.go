// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, the document store, the Gemini classifier, idempotency, web
// protection and observability settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tbourn/campuspulse-backend/internal/sysutil"
)

// Driver selects the persistence backend.
type Driver string

const (
	DriverFirestore Driver = "firestore"
	DriverMongo     Driver = "mongo"
	DriverSQLite    Driver = "sqlite"
)

// IdempotencyBackend selects where Idempotency-Key records are kept.
type IdempotencyBackend string

const (
	IdempotencyGorm  IdempotencyBackend = "gorm"
	IdempotencyRedis IdempotencyBackend = "redis"
	IdempotencyNone  IdempotencyBackend = "none"
)

// StoreConfig defines the complaint store connection.
type StoreConfig struct {
	Driver     Driver // STORE_DRIVER
	Collection string // COMPLAINTS_COLLECTION

	// Firestore
	CredentialsFile   string // FIREBASE_CREDENTIALS or GOOGLE_APPLICATION_CREDENTIALS
	ProjectID         string // FIREBASE_PROJECT_ID; empty means detect from credentials
	FirestoreDatabase string // FIRESTORE_DATABASE; empty means "(default)"

	// MongoDB
	MongoURI      string // MONGODB_URI
	MongoDatabase string // MONGODB_DATABASE

	// SQLite
	DBPath string // DB_PATH
}

// GeminiConfig defines the classifier settings.
type GeminiConfig struct {
	APIKey  string        // GEMINI_API_KEY; empty means every submission gets the fallback
	Model   string        // GEMINI_MODEL
	Timeout time.Duration // GEMINI_TIMEOUT
}

// RedisConfig defines the Redis connection used for idempotency records.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// IdempotencyConfig defines Idempotency-Key handling for POST /api/complaints.
type IdempotencyConfig struct {
	Backend IdempotencyBackend
	TTL     time.Duration
}

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	GinMode           string // debug|release|test

	// Logging / Docs
	LogLevel          string // debug|info|warn|error|fatal|panic
	LogPretty         bool
	SwaggerEnabled    bool
	ExposeErrorDetail bool // include the raw error in 500 responses

	// App
	MaxDescriptionRunes int

	Store       StoreConfig
	Gemini      GeminiConfig
	Redis       RedisConfig
	Idempotency IdempotencyConfig

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// DefaultCORSOrigins are the local frontend dev servers.
var DefaultCORSOrigins = []string{"http://localhost:5173", "http://localhost:3000"}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		Port:              getenv("PORT", "8000"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		LogLevel:          strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:         getbool("LOG_PRETTY", false),
		SwaggerEnabled:    getbool("SWAGGER_ENABLED", false),
		ExposeErrorDetail: getbool("EXPOSE_ERROR_DETAIL", true),

		MaxDescriptionRunes: getint("MAX_DESCRIPTION_RUNES", 0),

		Store: StoreConfig{
			Driver:            Driver(strings.ToLower(getenv("STORE_DRIVER", string(DriverFirestore)))),
			Collection:        getenv("COMPLAINTS_COLLECTION", "complaints"),
			CredentialsFile:   sysutil.FirstNonEmpty(os.Getenv("FIREBASE_CREDENTIALS"), os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")),
			ProjectID:         getenv("FIREBASE_PROJECT_ID", ""),
			FirestoreDatabase: getenv("FIRESTORE_DATABASE", ""),
			MongoURI:          getenv("MONGODB_URI", "mongodb://localhost:27017"),
			MongoDatabase:     getenv("MONGODB_DATABASE", "campuspulse"),
			DBPath:            getenv("DB_PATH", "campuspulse.db"),
		},

		Gemini: GeminiConfig{
			APIKey:  getenv("GEMINI_API_KEY", ""),
			Model:   getenv("GEMINI_MODEL", "gemini-2.5-flash"),
			Timeout: getdur("GEMINI_TIMEOUT", 0),
		},

		Redis: RedisConfig{
			Addr:     getenv("REDIS_ADDR", ""),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       getint("REDIS_DB", 0),
		},

		Idempotency: IdempotencyConfig{
			Backend: IdempotencyBackend(strings.ToLower(getenv("IDEMPOTENCY_BACKEND", ""))),
			TTL:     getdur("IDEMPOTENCY_TTL", 24*time.Hour),
		},

		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "campuspulse-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.Store.Driver == "mongodb" {
		cfg.Store.Driver = DriverMongo
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = append([]string(nil), DefaultCORSOrigins...)
	}
	if cfg.Idempotency.Backend == "" {
		cfg.Idempotency.Backend = defaultIdempotencyBackend(cfg)
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if cfg.MaxDescriptionRunes < 0 {
		return cfg, errors.New("MAX_DESCRIPTION_RUNES must be >= 0")
	}
	if err := cfg.Store.validate(); err != nil {
		return cfg, err
	}
	if cfg.Gemini.Timeout < 0 {
		return cfg, errors.New("GEMINI_TIMEOUT must be >= 0")
	}
	if strings.TrimSpace(cfg.Gemini.Model) == "" {
		return cfg, errors.New("GEMINI_MODEL must not be empty")
	}
	switch cfg.Idempotency.Backend {
	case IdempotencyGorm:
		if cfg.Store.Driver != DriverSQLite {
			return cfg, errors.New("IDEMPOTENCY_BACKEND=gorm requires STORE_DRIVER=sqlite")
		}
	case IdempotencyRedis:
		if strings.TrimSpace(cfg.Redis.Addr) == "" {
			return cfg, errors.New("IDEMPOTENCY_BACKEND=redis requires REDIS_ADDR")
		}
	case IdempotencyNone:
	default:
		return cfg, errors.New("IDEMPOTENCY_BACKEND must be one of: gorm, redis, none")
	}
	if cfg.Idempotency.TTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	for _, o := range cfg.CORS.AllowedOrigins {
		if !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			return cfg, fmt.Errorf("CORS_ALLOWED_ORIGINS entries must start with http:// or https:// (got %q)", o)
		}
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

func (s StoreConfig) validate() error {
	if strings.TrimSpace(s.Collection) == "" {
		return errors.New("COMPLAINTS_COLLECTION must not be empty")
	}
	switch s.Driver {
	case DriverFirestore:
	case DriverMongo:
		if strings.TrimSpace(s.MongoURI) == "" || strings.TrimSpace(s.MongoDatabase) == "" {
			return errors.New("MONGODB_URI and MONGODB_DATABASE must not be empty")
		}
	case DriverSQLite:
		if strings.TrimSpace(s.DBPath) == "" {
			return errors.New("DB_PATH must not be empty")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be one of: firestore, mongo, sqlite (got %q)", s.Driver)
	}
	return nil
}

// defaultIdempotencyBackend shares the SQLite database when there is one,
// falls back to Redis when configured, and otherwise disables replay.
func defaultIdempotencyBackend(cfg Config) IdempotencyBackend {
	switch {
	case cfg.Store.Driver == DriverSQLite:
		return IdempotencyGorm
	case strings.TrimSpace(cfg.Redis.Addr) != "":
		return IdempotencyRedis
	default:
		return IdempotencyNone
	}
}

// ---- helpers ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch {
		case sysutil.IsTruthy(v):
			return true
		case sysutil.IsFalsy(v):
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
