package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "STORE_DRIVER", "JWT_SECRET", "JWT_EXPIRY", "DB_NAME", "DB_PORT", "DB_HOST", "DB_USER", "DB_PASS", "CORS_ORIGINS", "STRICT_STATUS", "DATABASE_URL",
		"TRACKIT_URL", "TRACKIT_TIMEOUT", "TRACKIT_TOKEN",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, ":5000", cfg.Addr())
	assert.Equal(t, DriverMongo, cfg.StoreDriver)
	assert.Equal(t, 720*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
	assert.False(t, cfg.StrictStatus)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("CORS_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("STRICT_STATUS", "true")
	t.Setenv("JWT_EXPIRY", "1h")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.True(t, cfg.StrictStatus)
	assert.Equal(t, time.Hour, cfg.JWTExpiry)
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)

	t.Setenv("JWT_SECRET", "  ")
	_, err := Load("")
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "cassandra")
	_, err = Load("")
	assert.Error(t, err)
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"8080\"\nstore_driver: sqlite\njwt_secret: from-file\ndb:\n  name: board\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, "board.db", cfg.DB.DSN(cfg.StoreDriver))
}

func TestLoad_MissingConfigFileFallsBackToEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "5000", cfg.Port)
}

func TestDBConfig_DSN(t *testing.T) {
	c := DBConfig{User: "u", Pass: "p", Host: "db", Port: "3306", Name: "trackit"}
	assert.Equal(t, "u:p@tcp(db:3306)/trackit?parseTime=true", c.DSN(DriverMySQL))
	assert.Equal(t, "postgres://u:p@db:3306/trackit", c.DSN(DriverPostgres))
	assert.Equal(t, "trackit.db", c.DSN(DriverSQLite))

	c.DatabaseURL = "postgres://elsewhere/db"
	assert.Equal(t, "postgres://elsewhere/db", c.DSN(DriverPostgres))
}

func TestLoad_DefaultPortPerDriver(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", DriverPostgres)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.DB.Port)
	assert.Equal(t, "postgres://:@localhost:5432/trackit", cfg.DB.DSN(DriverPostgres))
	assert.Equal(t, ":@tcp(localhost:3306)/trackit?parseTime=true", cfg.DB.DSN(DriverMySQL))

	t.Setenv("DB_PORT", "6543")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://:@localhost:6543/trackit", cfg.DB.DSN(DriverPostgres))
}

func TestLoadClient(t *testing.T) {
	clearEnv(t)
	t.Setenv("TRACKIT_URL", "http://api.test:5000/")
	t.Setenv("TRACKIT_TOKEN", "tok")

	cfg, err := LoadClient("")
	require.NoError(t, err)
	assert.Equal(t, "http://api.test:5000", cfg.ServerURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "tok", cfg.Token)
}
