package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	v := New()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(v, fs)
	require.NoError(t, fs.Parse(args))
	return Load(v)
}

func TestDefaultsAndFlags(t *testing.T) {
	cfg, err := load(t, "--database-url", "postgres://db", "--jwt_secret", "s3cret")
	require.NoError(t, err)

	assert.Equal(t, "postgres://db", cfg.DatabaseURL)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, int64(5<<20), cfg.MaxUploadBytes)
	assert.Equal(t, "./uploads", cfg.UploadDir)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestEnvironment(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://legacy")
	t.Setenv("LOVENEST_JWT_SECRET", "prefixed")
	t.Setenv("LOVENEST_TOKEN_TTL", "2h")
	t.Setenv("PORT", "9090")

	cfg, err := load(t)
	require.NoError(t, err)
	assert.Equal(t, "postgres://legacy", cfg.DatabaseURL)
	assert.Equal(t, "prefixed", cfg.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 9090, cfg.Port)

	cfg, err = load(t, "--port", "7070")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Port)
}

func TestValidate(t *testing.T) {
	_, err := load(t, "--jwt-secret", "s")
	assert.ErrorContains(t, err, "database url")

	_, err = load(t, "--database-url", "x")
	assert.ErrorContains(t, err, "jwt secret")

	_, err = load(t, "--database-url", "x", "--jwt-secret", "s", "--port", "70000")
	assert.ErrorContains(t, err, "invalid port")
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(file, []byte("LOVENEST_UPLOAD_DIR=/tmp/dotenv-uploads\n"), 0o600))
	t.Setenv("LOVENEST_UPLOAD_DIR", "")
	os.Unsetenv("LOVENEST_UPLOAD_DIR")

	LoadDotEnv(filepath.Join(dir, "missing.env"), file)

	cfg, err := load(t, "--database-url", "x", "--jwt-secret", "s")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/dotenv-uploads", cfg.UploadDir)
}
