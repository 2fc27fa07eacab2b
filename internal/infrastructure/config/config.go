package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"golang.org/x/crypto/bcrypt"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	minProductionSecretLen = 32
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// StoreDriver selects the credential store: mongo, postgres or memory.
	StoreDriver string `env:"STORE_DRIVER, default=mongo"`

	Auth     AuthConfig
	Admin    AdminConfig
	Mongo    MongoConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	AMQP     AMQPConfig
}

type AuthConfig struct {
	JWTSecret      string        `env:"JWT_SECRET, required"`
	Issuer         string        `env:"JWT_ISSUER,        default=identity-service"`
	AccessTTL      time.Duration `env:"ACCESS_TOKEN_TTL,  default=24h"`
	RefreshTTL     time.Duration `env:"REFRESH_TOKEN_TTL, default=168h"`
	BcryptCost     int           `env:"BCRYPT_COST,       default=10"`
	RejectInactive bool          `env:"AUTH_REJECT_INACTIVE, default=true"`
}

// AdminConfig describes the administrator seeded at startup.
// No account is created while Password is empty.
type AdminConfig struct {
	Username string `env:"ADMIN_USERNAME, default=admin"`
	Email    string `env:"ADMIN_EMAIL,    default=admin@localhost"`
	Password string `env:"ADMIN_PASSWORD"`
}

type MongoConfig struct {
	URI         string `env:"MONGO_URI,       default=mongodb://localhost:27017"`
	Database    string `env:"MONGO_DB,        default=identity_service"`
	MaxPoolSize uint64 `env:"MONGO_POOL_SIZE, default=50"`
}

type PostgresConfig struct {
	DSN      string `env:"POSTGRES_DSN"`
	MaxConns int32  `env:"POSTGRES_MAX_CONNS, default=10"`
}

// RedisConfig enables login rate limiting when Addr is set.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`

	LoginBurst          int           `env:"LOGIN_RATE_BURST,    default=10"`
	LoginRefill         int           `env:"LOGIN_RATE_REFILL,   default=1"`
	LoginRefillInterval time.Duration `env:"LOGIN_RATE_INTERVAL, default=6s"`
}

// AMQPConfig enables broker delivery of account events when URL is set.
type AMQPConfig struct {
	URL     string `env:"AMQP_URL"`
	Queue   string `env:"AMQP_QUEUE,    default=identity.account-events"`
	Workers int    `env:"EVENT_WORKERS, default=4"`
}

// Load reads an optional .env file, then the environment, and validates the result.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom processes configuration from an arbitrary lookuper.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Validate checks the invariants envconfig cannot express.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET must not be empty"))
	} else if c.IsProduction() && len(c.Auth.JWTSecret) < minProductionSecretLen {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes in production", minProductionSecretLen))
	}
	if c.Auth.AccessTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL must be positive"))
	}
	if c.Auth.RefreshTTL < c.Auth.AccessTTL {
		errs = append(errs, errors.New("REFRESH_TOKEN_TTL must not be shorter than ACCESS_TOKEN_TTL"))
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}

	switch c.StoreDriver {
	case StoreMongo, StoreMemory:
	case StorePostgres:
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("POSTGRES_DSN is required when STORE_DRIVER=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	if c.Admin.Password != "" && (c.Admin.Username == "" || c.Admin.Email == "") {
		errs = append(errs, errors.New("ADMIN_USERNAME and ADMIN_EMAIL are required with ADMIN_PASSWORD"))
	}

	return errors.Join(errs...)
}
