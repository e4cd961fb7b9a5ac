// Package config resolves server settings from flags, LOVENEST_* variables,
// the legacy unprefixed variables and .env files, in that order.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "LOVENEST"

type Config struct {
	DatabaseURL    string        `mapstructure:"database_url"`
	RedisURL       string        `mapstructure:"redis_url"`
	JWTSecret      string        `mapstructure:"jwt_secret"`
	TokenTTL       time.Duration `mapstructure:"token_ttl"`
	Port           int           `mapstructure:"port"`
	UploadDir      string        `mapstructure:"upload_dir"`
	PublicURL      string        `mapstructure:"public_url"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// legacyEnv maps keys to the unprefixed variables older deployments set.
var legacyEnv = map[string]string{
	"database_url": "DATABASE_URL",
	"redis_url":    "REDIS_URL",
	"jwt_secret":   "JWT_SECRET",
	"port":         "PORT",
}

// LoadDotEnv loads .env.local, falling back to .env. Variables already set in
// the environment win.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env.local", ".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err == nil {
			return
		}
	}
	log.Println(".env not found, using environment variables")
}

// New returns a viper instance wired to the LOVENEST_ environment.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		_ = v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(key), legacy)
	}
	return v
}

// RegisterFlags declares one flag per setting and binds each to v.
func RegisterFlags(v *viper.Viper, fs *pflag.FlagSet) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.String("database-url", "", "postgres connection string (env: LOVENEST_DATABASE_URL, DATABASE_URL)")
	fs.String("redis-url", "", "redis URL for the shared change feed and token blacklist (env: LOVENEST_REDIS_URL, REDIS_URL)")
	fs.String("jwt-secret", "", "HMAC secret for session tokens (env: LOVENEST_JWT_SECRET, JWT_SECRET)")
	fs.Duration("token-ttl", 24*time.Hour, "session token lifetime (env: LOVENEST_TOKEN_TTL)")
	fs.IntP("port", "p", 8080, "port to listen on (env: LOVENEST_PORT, PORT)")
	fs.String("upload-dir", "./uploads", "directory uploaded images are stored in (env: LOVENEST_UPLOAD_DIR)")
	fs.String("public-url", "http://localhost:8080", "externally visible base URL (env: LOVENEST_PUBLIC_URL)")
	fs.Int64("max-upload-bytes", 5<<20, "largest accepted upload (env: LOVENEST_MAX_UPLOAD_BYTES)")
	fs.StringSlice("allowed-origins", []string{"*"}, "CORS origins (env: LOVENEST_ALLOWED_ORIGINS)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
}

// Load decodes v into a validated Config.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("database url is required (--database-url or DATABASE_URL)")
	}
	if c.JWTSecret == "" {
		return errors.New("jwt secret is required (--jwt-secret or JWT_SECRET)")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive: %s", c.TokenTTL)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive: %d", c.MaxUploadBytes)
	}
	return nil
}

// Addr is the listen address for Port.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
