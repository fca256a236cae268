package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Server      ServerConfig   `yaml:"server"`
	Store       StoreConfig    `yaml:"store"`
	Database    DatabaseConfig `yaml:"database"`
	Mongo       MongoConfig    `yaml:"mongo"`
	Auth        AuthConfig     `yaml:"auth"`
	CORS        CORSConfig     `yaml:"cors"`
	Logging     LoggingConfig  `yaml:"logging"`
	Tracing     TracingConfig  `yaml:"tracing"`
	Environment string         `yaml:"environment"`
}

type ServerConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	MaxBodyBytes int64  `yaml:"max_body_bytes"`
}

type StoreConfig struct {
	Driver  string        `yaml:"driver"`
	Timeout time.Duration `yaml:"timeout"`
}

type DatabaseConfig struct {
	URL            string `yaml:"url"`
	MaxConnections int    `yaml:"max_connections"`
	MigrationsPath string `yaml:"migrations_path"`
	AutoMigrate    bool   `yaml:"auto_migrate"`
}

type MongoConfig struct {
	URL      string `yaml:"url"`
	Database string `yaml:"database"`
}

type AuthConfig struct {
	BcryptCost int `yaml:"bcrypt_cost"`
}

// CORSConfig controls which browser origins may call the API.
type CORSConfig struct {
	AllowAllOrigins bool     `yaml:"allow_all_origins"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TracingConfig configures OpenTelemetry span export.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	ServiceName  string  `yaml:"service_name"`
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate"`
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present; variables already set win.
func Load() (Config, error) {
	cfg := fromEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func fromEnv() Config {
	_ = godotenv.Load()

	env := getEnv("ENVIRONMENT", "development")
	cfg := Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvInt("SERVER_PORT", getEnvInt("PORT", 8080)),
			MaxBodyBytes: int64(getEnvInt("SERVER_MAX_BODY_BYTES", 1<<20)),
		},
		Store: StoreConfig{
			Driver:  strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
			Timeout: time.Duration(getEnvInt("STORE_TIMEOUT_MS", 5000)) * time.Millisecond,
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConnections: getEnvInt("DATABASE_MAX_CONNECTIONS", 25),
			MigrationsPath: getEnv("MIGRATIONS_PATH", ""),
			AutoMigrate:    getEnvBool("AUTO_MIGRATE", false),
		},
		Mongo: MongoConfig{
			URL:      getEnv("MONGO_URL", ""),
			Database: getEnv("MONGO_DATABASE", "meetup"),
		},
		Auth: AuthConfig{
			BcryptCost: getEnvInt("AUTH_BCRYPT_COST", 12),
		},
		CORS: CORSConfig{
			AllowAllOrigins: IsDevelopment(env),
			AllowedOrigins:  splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Tracing: TracingConfig{
			Enabled:      getEnvBool("TRACING_ENABLED", false),
			Exporter:     getEnv("TRACING_EXPORTER", "stdout"),
			ServiceName:  getEnv("TRACING_SERVICE_NAME", "meetup-server"),
			OTLPEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4317"),
			SampleRate:   getEnvFloat("TRACING_SAMPLE_RATE", 1.0),
		},
		Environment: env,
	}
	return cfg
}

// LoadFile overlays a YAML file onto the environment configuration. Keys
// absent from the file keep their environment value.
func LoadFile(path string) (Config, error) {
	if path == "" {
		return Load()
	}
	cfg := fromEnv()
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=%s", StoreDriverPostgres)
		}
	case StoreDriverMongo:
		if c.Mongo.URL == "" {
			return fmt.Errorf("MONGO_URL is required when STORE_DRIVER=%s", StoreDriverMongo)
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.Store.Driver)
	}
	if c.Store.Timeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT_MS must be positive")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("AUTH_BCRYPT_COST must be between 4 and 31, got %d", c.Auth.BcryptCost)
	}
	if c.Environment == "production" && !c.CORS.AllowAllOrigins && len(c.CORS.AllowedOrigins) == 0 {
		return fmt.Errorf("CORS_ALLOWED_ORIGINS is required in production")
	}
	return nil
}

// IsDevelopment reports whether env is a development or test environment,
// where error detail may be returned to clients and any origin is allowed.
func IsDevelopment(env string) bool {
	return env == "development" || env == "test"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
