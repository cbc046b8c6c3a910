package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"

	ObjectStoreNone       = "none"
	ObjectStoreSupabase   = "supabase"
	ObjectStoreFilesystem = "filesystem"

	devFormTokenSecret = "default-dev-secret-change-in-production"
)

// Config is the full process configuration.
type Config struct {
	Server      Server
	Storage     Storage
	Throttle    Throttle
	Redis       RedisConfig
	Guard       Guard
	Admin       Admin
	ObjectStore ObjectStore
	Certificate Certificate
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr        string
	Environment string
	// BaseURL is the public origin used in view URLs and QR codes.
	BaseURL         string
	LogLevel        string
	MaxRequestBytes int64
	ShutdownTimeout time.Duration
}

// IsProduction reports whether the process runs in production.
func (s Server) IsProduction() bool {
	return s.Environment == EnvProduction
}

// Storage selects the application/certificate persistence driver.
type Storage struct {
	Driver      string
	DatabaseURL string
	SQLitePath  string
}

// Throttle configures rate limits, cooldowns and the suspicious-activity tracker.
type Throttle struct {
	Backend          string
	SubmitLimit      int
	SubmitWindow     time.Duration
	AdminLimit       int
	AdminWindow      time.Duration
	EmailCooldown    time.Duration
	SuspiciousLimit  int
	SuspiciousWindow time.Duration
	SweepSchedule    string
}

// RedisConfig configures the shared redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Guard configures the form token and CAPTCHA gate.
type Guard struct {
	FormTokenSecret string
	// UsingDevSecret is set when no secret was configured and the development default is in use.
	UsingDevSecret     bool
	FormTokenMaxAge    time.Duration
	MinDwell           time.Duration
	EnforceTokenIP     bool
	TurnstileSecret    string
	TurnstileVerifyURL string
	CaptchaTimeout     time.Duration
}

// Admin holds the admin credential.
type Admin struct {
	Password     string
	PasswordHash string
}

// ObjectStore selects where images and certificate PDFs are written.
type ObjectStore struct {
	Driver              string
	SupabaseURL         string
	SupabaseServiceKey  string
	Bucket              string
	FilesDir            string
	InlineImageFallback bool
	HTTPTimeout         time.Duration
}

// Certificate configures certificate issuance.
type Certificate struct {
	SerialPrefix string
}

// Load reads a .env file when present and builds the configuration from the environment.
func Load() (Config, error) {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	env := getString("ENVIRONMENT", EnvDevelopment)
	submitLimitDefault := 5
	if env != EnvProduction {
		submitLimitDefault = 100
	}

	turnstileSecret := os.Getenv("TURNSTILE_SECRET_KEY")
	formSecret := os.Getenv("FORM_TOKEN_SECRET")
	usingDev := false
	if formSecret == "" {
		formSecret = turnstileSecret
	}
	if formSecret == "" {
		formSecret = devFormTokenSecret
		usingDev = true
	}

	return Config{
		Server: Server{
			Addr:            getString("INTAKE_ADDR", ":8080"),
			Environment:     env,
			BaseURL:         strings.TrimRight(getString("BASE_URL", "http://localhost:8080"), "/"),
			LogLevel:        getString("LOG_LEVEL", "info"),
			MaxRequestBytes: int64(getInt("MAX_REQUEST_BYTES", 500*1024)),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Storage: Storage{
			Driver:      getString("STORAGE_DRIVER", DriverMemory),
			DatabaseURL: os.Getenv("DATABASE_URL"),
			SQLitePath:  getString("SQLITE_PATH", "intake.db"),
		},
		Throttle: Throttle{
			Backend:          getString("THROTTLE_BACKEND", BackendMemory),
			SubmitLimit:      getInt("SUBMIT_RATE_LIMIT", submitLimitDefault),
			SubmitWindow:     getDuration("SUBMIT_RATE_WINDOW", time.Hour),
			AdminLimit:       getInt("ADMIN_RATE_LIMIT", 30),
			AdminWindow:      getDuration("ADMIN_RATE_WINDOW", 15*time.Minute),
			EmailCooldown:    getDuration("EMAIL_COOLDOWN", 30*time.Minute),
			SuspiciousLimit:  getInt("SUSPICIOUS_THRESHOLD", 10),
			SuspiciousWindow: getDuration("SUSPICIOUS_WINDOW", time.Hour),
			SweepSchedule:    getString("THROTTLE_SWEEP_SCHEDULE", "@every 5m"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Guard: Guard{
			FormTokenSecret:    formSecret,
			UsingDevSecret:     usingDev,
			FormTokenMaxAge:    getDuration("FORM_TOKEN_MAX_AGE", time.Hour),
			MinDwell:           getDuration("FORM_MIN_DWELL", 10*time.Second),
			EnforceTokenIP:     getBool("FORM_TOKEN_ENFORCE_IP", false),
			TurnstileSecret:    turnstileSecret,
			TurnstileVerifyURL: getString("TURNSTILE_VERIFY_URL", "https://challenges.cloudflare.com/turnstile/v0/siteverify"),
			CaptchaTimeout:     getDuration("CAPTCHA_TIMEOUT", 10*time.Second),
		},
		Admin: Admin{
			Password:     os.Getenv("ADMIN_PASSWORD"),
			PasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		},
		ObjectStore: ObjectStore{
			Driver:              getString("OBJECT_STORE", ObjectStoreNone),
			SupabaseURL:         strings.TrimRight(os.Getenv("SUPABASE_URL"), "/"),
			SupabaseServiceKey:  os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
			Bucket:              getString("STORAGE_BUCKET", "internship_files"),
			FilesDir:            getString("FILES_DIR", "./data/files"),
			InlineImageFallback: getBool("IMAGE_INLINE_FALLBACK", true),
			HTTPTimeout:         getDuration("OBJECT_STORE_TIMEOUT", 15*time.Second),
		},
		Certificate: Certificate{
			SerialPrefix: getString("CERTIFICATE_SERIAL_PREFIX", "RTS"),
		},
	}
}

// Validate rejects combinations that cannot start.
func (c Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres storage driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver))
	}

	switch c.Throttle.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Storage.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres throttle backend"))
		}
	case BackendRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis throttle backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown THROTTLE_BACKEND %q", c.Throttle.Backend))
	}

	switch c.ObjectStore.Driver {
	case ObjectStoreNone, ObjectStoreFilesystem:
	case ObjectStoreSupabase:
		if c.ObjectStore.SupabaseURL == "" || c.ObjectStore.SupabaseServiceKey == "" {
			errs = append(errs, errors.New("SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY are required for the supabase object store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown OBJECT_STORE %q", c.ObjectStore.Driver))
	}

	if c.Throttle.SubmitLimit <= 0 || c.Throttle.AdminLimit <= 0 || c.Throttle.SuspiciousLimit <= 0 {
		errs = append(errs, errors.New("throttle limits must be positive"))
	}
	if c.Server.MaxRequestBytes <= 0 {
		errs = append(errs, errors.New("MAX_REQUEST_BYTES must be positive"))
	}
	if c.Server.IsProduction() && c.Guard.UsingDevSecret {
		errs = append(errs, errors.New("FORM_TOKEN_SECRET must be set in production"))
	}

	return errors.Join(errs...)
}

func getString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
