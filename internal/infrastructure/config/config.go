package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Storage backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendSQLite = "sqlite"
)

type Config struct {
	Port      string        `env:"PORT,      default=8080"`
	Env       string        `env:"ENV,       default=development"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=24h"`

	StoreBackend   string `env:"STORE_BACKEND,   default=sqlite"`
	PasswordHasher string `env:"PASSWORD_HASHER, default=sha256"`
	BcryptCost     int    `env:"BCRYPT_COST,     default=0"`

	Seed   SeedConfig
	Mongo  MongoConfig
	Redis  RedisConfig
	SQLite SQLiteConfig
}

// SeedConfig describes the bootstrap Admin created on an empty store.
type SeedConfig struct {
	Enabled  bool   `env:"SEED_ADMIN,          default=true"`
	Email    string `env:"SEED_ADMIN_EMAIL,    default=admin@example.com"`
	Name     string `env:"SEED_ADMIN_NAME,     default=Administrator"`
	Password string `env:"SEED_ADMIN_PASSWORD, default=Admin@123"`
}

type MongoConfig struct {
	URI                    string        `env:"MONGO_URI,                      default=mongodb://localhost:27017"`
	Database               string        `env:"MONGO_DB,                       default=rbac_accounts"`
	AppName                string        `env:"MONGO_APP_NAME,                 default=rbac-accounts"`
	ConnectTimeout         time.Duration `env:"MONGO_CONNECT_TIMEOUT,          default=10s"`
	ServerSelectionTimeout time.Duration `env:"MONGO_SERVER_SELECTION_TIMEOUT, default=5s"`
	MaxPoolSize            uint64        `env:"MONGO_MAX_POOL_SIZE,            default=20"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type SQLiteConfig struct {
	Path string `env:"SQLITE_PATH, default=rbac.db"`
}

// IsDevelopment reports whether human-friendly logging should be used.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory, BackendRedis, BackendMongo, BackendSQLite:
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.StoreBackend)
	}
	switch c.PasswordHasher {
	case "sha256", "bcrypt":
	default:
		return fmt.Errorf("config: unknown PASSWORD_HASHER %q", c.PasswordHasher)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("config: JWT_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("config: TOKEN_TTL must be positive")
	}
	return nil
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
