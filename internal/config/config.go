package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName             string
	AppEnv              string
	AppPort             string
	DatabaseDriver      string
	DatabaseURL         string
	RedisURL            string
	OverviewCacheTTL    time.Duration
	NATSURL             string
	NATSSubject         string
	JWTSecret           string
	JWTTTL              time.Duration
	UploadDir           string
	UploadPublicURL     string
	UploadMaxSizeMB     int
	ImportMaxRows       int
	PasswordCost        int
	ImportRatePerMinute int
	LoginRatePerMinute  int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// UploadMaxBytes returns the upload limit in bytes.
func (c Config) UploadMaxBytes() int64 {
	return int64(c.UploadMaxSizeMB) * 1024 * 1024
}

// IsDevelopment reports whether the service runs in the development environment.
func (c Config) IsDevelopment() bool {
	return c.AppEnv == "" || c.AppEnv == "development"
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CLASSROOM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return FromViper(v)
}

// FromViper builds the configuration from an already prepared viper instance.
func FromViper(v *viper.Viper) (Config, error) {
	v.SetDefault("app.name", "Classroom API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "3000")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("overview.cache_ttl", "5m")
	v.SetDefault("nats.subject", "classroom.events")
	v.SetDefault("jwt.ttl", "24h")
	v.SetDefault("upload.dir", "uploads")
	v.SetDefault("upload.max_size_mb", 20)
	v.SetDefault("import.max_rows", 5000)
	v.SetDefault("password.cost", bcrypt.DefaultCost)
	v.SetDefault("rate_limit.import_per_minute", 10)
	v.SetDefault("rate_limit.login_per_minute", 20)

	cacheTTL, err := parseDuration(v.GetString("overview.cache_ttl"), 5*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid overview cache ttl: %w", err)
	}

	jwtTTL, err := parseDuration(v.GetString("jwt.ttl"), 24*time.Hour)
	if err != nil {
		return Config{}, fmt.Errorf("invalid jwt ttl: %w", err)
	}

	cfg := Config{
		AppName:             v.GetString("app.name"),
		AppEnv:              strings.ToLower(v.GetString("app.env")),
		AppPort:             v.GetString("app.port"),
		DatabaseDriver:      strings.ToLower(strings.TrimSpace(v.GetString("database.driver"))),
		DatabaseURL:         v.GetString("database.url"),
		RedisURL:            v.GetString("redis.url"),
		OverviewCacheTTL:    cacheTTL,
		NATSURL:             v.GetString("nats.url"),
		NATSSubject:         strings.Trim(v.GetString("nats.subject"), "."),
		JWTSecret:           v.GetString("jwt.secret"),
		JWTTTL:              jwtTTL,
		UploadDir:           v.GetString("upload.dir"),
		UploadPublicURL:     strings.TrimRight(v.GetString("upload.public_url"), "/"),
		UploadMaxSizeMB:     v.GetInt("upload.max_size_mb"),
		ImportMaxRows:       v.GetInt("import.max_rows"),
		PasswordCost:        v.GetInt("password.cost"),
		ImportRatePerMinute: v.GetInt("rate_limit.import_per_minute"),
		LoginRatePerMinute:  v.GetInt("rate_limit.login_per_minute"),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}

	switch cfg.DatabaseDriver {
	case "postgres", "mysql", "sqlite":
	default:
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.UploadDir == "" {
		cfg.UploadDir = "uploads"
	}

	if cfg.UploadMaxSizeMB <= 0 {
		cfg.UploadMaxSizeMB = 20
	}

	if cfg.ImportMaxRows <= 0 {
		cfg.ImportMaxRows = 5000
	}

	if cfg.PasswordCost < bcrypt.MinCost || cfg.PasswordCost > bcrypt.MaxCost {
		cfg.PasswordCost = bcrypt.DefaultCost
	}

	return cfg, nil
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	return time.ParseDuration(value)
}
