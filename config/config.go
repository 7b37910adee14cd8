package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds process-wide settings. It is read once at startup and handed to
// each component; nothing reads the environment after Load returns.
type Config struct {
	Env  string `env:"APP_ENV" env-default:"production"`
	Port string `env:"PORT" env-default:"5000"`

	// Store
	StoreBackend string        `env:"STORE_BACKEND" env-default:"mongo"`
	MongoURI     string        `env:"MONGO_URI" env-default:"mongodb://localhost:27017"`
	MongoDB      string        `env:"MONGO_DB" env-default:"pilgrimage"`
	StoreTimeout time.Duration `env:"STORE_TIMEOUT" env-default:"5s"`
	SeedFile     string        `env:"SEED_FILE"`

	// Tokens
	JWTSecret string        `env:"JWT_SECRET" env-required:"true"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" env-default:"5h"`

	// Redis is optional; an empty address disables the temple cache.
	RedisAddr      string        `env:"REDIS_ADDR"`
	RedisPassword  string        `env:"REDIS_PASSWORD"`
	TempleCacheTTL time.Duration `env:"TEMPLE_CACHE_TTL" env-default:"30s"`
}

const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
	switch c.StoreBackend {
	case BackendMongo, BackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if c.StoreTimeout <= 0 {
		return errors.New("STORE_TIMEOUT must be positive")
	}
	c.Port = strings.TrimPrefix(strings.TrimSpace(c.Port), ":")
	return nil
}

// Addr is the listen address derived from Port.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// IsDev reports whether development logging should be used.
func (c *Config) IsDev() bool {
	return c.Env == "dev" || c.Env == "development" || c.Env == "local"
}
