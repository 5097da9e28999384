package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type AppConfig struct {
	Port          string
	LogLevel      string
	StoreDriver   string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string
	UploadDir     string
	CORSOrigin    string
	JWTSecret     string
	RequireAuth   bool
	AdminEmail    string
	AdminPassword string
}

func defaults(v *viper.Viper) {
	v.SetDefault("PORT", "5000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_DRIVER", DriverMemory)
	v.SetDefault("MONGO_DATABASE", "EmployeeManagement")
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("CORS_ORIGIN", "http://localhost:3000")
	v.SetDefault("REQUIRE_AUTH", false)
}

// Load reads .env (if present) and the process environment.
func Load() (AppConfig, error) {
	_ = godotenv.Load() // load .env if present
	return FromViper(viper.New())
}

// FromViper resolves configuration from v, binding it to the environment.
// Values already set on v take precedence over env.
func FromViper(v *viper.Viper) (AppConfig, error) {
	v.AutomaticEnv()
	defaults(v)

	cfg := AppConfig{
		Port:          v.GetString("PORT"),
		LogLevel:      v.GetString("LOG_LEVEL"),
		StoreDriver:   strings.ToLower(v.GetString("STORE_DRIVER")),
		DatabaseURL:   v.GetString("DATABASE_URL"),
		MongoURI:      v.GetString("MONGO_URI"),
		MongoDatabase: v.GetString("MONGO_DATABASE"),
		UploadDir:     v.GetString("UPLOAD_DIR"),
		CORSOrigin:    v.GetString("CORS_ORIGIN"),
		JWTSecret:     v.GetString("JWT_SECRET"),
		RequireAuth:   v.GetBool("REQUIRE_AUTH"),
		AdminEmail:    v.GetString("ADMIN_EMAIL"),
		AdminPassword: v.GetString("ADMIN_PASSWORD"),
	}

	switch cfg.StoreDriver {
	case DriverMemory:
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return cfg, fmt.Errorf("missing required env: DATABASE_URL")
		}
	case DriverMongo:
		if cfg.MongoURI == "" {
			return cfg, fmt.Errorf("missing required env: MONGO_URI")
		}
	default:
		return cfg, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	if cfg.RequireAuth && cfg.JWTSecret == "" {
		return cfg, fmt.Errorf("missing required env: JWT_SECRET (REQUIRE_AUTH is set)")
	}

	return cfg, nil
}

// SeedAdmin reports whether an admin credential is configured for seeding.
func (c AppConfig) SeedAdmin() bool {
	return c.AdminEmail != "" && c.AdminPassword != ""
}
