package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	minSecretBytes = 32
)

type Config struct {
	Env         string `envconfig:"APP_ENV" default:"dev"`
	Port        int    `envconfig:"PORT" default:"8080"`
	ServiceName string `envconfig:"SERVICE_NAME" default:"userhub"`

	// Store
	StoreDriver string `envconfig:"STORE_DRIVER" default:"postgres"`
	DBURL       string `envconfig:"DATABASE_URL"`
	DBHost      string `envconfig:"DB_HOST" default:"127.0.0.1"`
	DBPort      string `envconfig:"DB_PORT" default:"5432"`
	DBUser      string `envconfig:"DB_USER" default:"userhub"`
	DBPassword  string `envconfig:"DB_PASSWORD" default:"userhub"`
	DBName      string `envconfig:"DB_NAME" default:"userhub"`
	DBSSLMode   string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns  int32  `envconfig:"DB_MAX_CONNS" default:"5"`

	// JWT
	JWTSecret    string        `envconfig:"JWT_SECRET" required:"true"`
	JWTIssuer    string        `envconfig:"JWT_ISSUER" default:"userhub"`
	JWTAccessTTL time.Duration `envconfig:"JWT_ACCESS_TTL" default:"1h"`
	BcryptCost   int           `envconfig:"BCRYPT_COST" default:"10"`

	// Redis is optional; without it the login limiter counts in memory.
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	LoginRateLimit  int           `envconfig:"LOGIN_RATE_LIMIT" default:"10"`
	LoginRateWindow time.Duration `envconfig:"LOGIN_RATE_WINDOW" default:"1m"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS"`
	MaxBodyBytes       int64    `envconfig:"MAX_BODY_BYTES" default:"1048576"`

	OTLPEndpoint     string  `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	TraceSampleRatio float64 `envconfig:"OTEL_TRACES_SAMPLE_RATIO" default:"1"`

	// Bootstrap users
	SeedUsers         bool   `envconfig:"SEED_USERS" default:"true"`
	SeedAdminEmail    string `envconfig:"SEED_ADMIN_EMAIL" default:"admin@example.com"`
	SeedAdminPassword string `envconfig:"SEED_ADMIN_PASSWORD" default:"admin123"`
	SeedAdminName     string `envconfig:"SEED_ADMIN_NAME" default:"Admin User"`
	SeedUserEmail     string `envconfig:"SEED_USER_EMAIL" default:"user@example.com"`
	SeedUserPassword  string `envconfig:"SEED_USER_PASSWORD" default:"user123"`
	SeedUserName      string `envconfig:"SEED_USER_NAME" default:"Regular User"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	if cfg.DBURL == "" {
		cfg.DBURL = cfg.buildDBURL()
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("config: STORE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMemory, c.StoreDriver)
	}

	if len(c.JWTSecret) < minSecretBytes {
		return fmt.Errorf("config: JWT_SECRET must be at least %d bytes", minSecretBytes)
	}

	if c.JWTAccessTTL <= 0 {
		return errors.New("config: JWT_ACCESS_TTL must be positive")
	}

	if c.LoginRateLimit < 1 || c.LoginRateWindow <= 0 {
		return errors.New("config: LOGIN_RATE_LIMIT and LOGIN_RATE_WINDOW must be positive")
	}

	return nil
}

func (c Config) IsDev() bool {
	return c.Env == "dev"
}

func (c Config) buildDBURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}

	return u.String()
}
