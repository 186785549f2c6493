package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorageMySQL  = "mysql"
	StorageMemory = "memory"
)

type Config struct {
	Port               string
	Env                string
	Storage            string
	DatabaseDSN        string
	MigrateOnStart     bool
	JWTSecret          string
	JWTExpiry          time.Duration
	CORSAllowedOrigins []string
}

// Load reads the configuration from the environment. All problems are
// reported together. There is no default signing secret.
func Load() (Config, error) {
	var problems []string

	cfg := Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		Storage:            strings.ToLower(getEnv("STORAGE", StorageMySQL)),
		DatabaseDSN:        getEnv("DATABASE_DSN", "root:password@tcp(127.0.0.1:3306)/gatekeep?parseTime=true"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
	}

	if cfg.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET must be set")
	}

	expiry, err := time.ParseDuration(getEnv("JWT_EXPIRES_IN", "1h"))
	switch {
	case err != nil:
		problems = append(problems, fmt.Sprintf("JWT_EXPIRES_IN: %v", err))
	case expiry <= 0:
		problems = append(problems, "JWT_EXPIRES_IN must be positive")
	}
	cfg.JWTExpiry = expiry

	migrate, err := strconv.ParseBool(getEnv("MIGRATE_ON_START", "true"))
	if err != nil {
		problems = append(problems, fmt.Sprintf("MIGRATE_ON_START: %v", err))
	}
	cfg.MigrateOnStart = migrate

	if cfg.Storage != StorageMySQL && cfg.Storage != StorageMemory {
		problems = append(problems, fmt.Sprintf("STORAGE must be %q or %q, got %q", StorageMySQL, StorageMemory, cfg.Storage))
	}
	if cfg.IsProduction() && cfg.Storage == StorageMemory {
		problems = append(problems, "STORAGE=memory is not allowed in production")
	}

	if len(problems) > 0 {
		return Config{}, errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
