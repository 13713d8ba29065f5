package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration("7d")
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, d)

	d, err = ParseDuration("90m")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, d)

	_, err = ParseDuration("xd")
	assert.Error(t, err)
}

func TestValidateRejectsMissingSecretAndLowCost(t *testing.T) {
	cfg := Default()
	cfg.BcryptCost = 3
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "bcrypt cost")
}

func TestValidateParsesDurations(t *testing.T) {
	cfg := Default()
	cfg.JWTSecret = "s3cret"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 15*time.Minute, cfg.LoginWindowPeriod)
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlBody := "db_driver: sqlite\ndb_path: /tmp/x.db\njwt_secret: from-file\nbcrypt_cost: 6\ncors_origins:\n  - https://a.example\n"
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("CORS_ORIGINS", "https://b.example, https://c.example")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.Equal(t, 6, cfg.BcryptCost)
	assert.Equal(t, []string{"https://b.example", "https://c.example"}, cfg.CORSOrigins)
	assert.Equal(t, "file:/tmp/x.db?_foreign_keys=on", cfg.DSN())
}

func TestDSNPerDriver(t *testing.T) {
	cfg := Default()
	cfg.DBUser, cfg.DBPassword = "u", "p"

	cfg.DBDriver = DriverMySQL
	cfg.DBPort = "3306"
	assert.Equal(t, "u:p@tcp(localhost:3306)/room_rental?charset=utf8mb4&parseTime=true&loc=UTC", cfg.DSN())

	cfg.DBDriver = DriverPostgres
	cfg.DBPort = "5432"
	assert.Contains(t, cfg.DSN(), "host=localhost user=u password=p dbname=room_rental port=5432")
}

func TestAutoMigrateFileThenEnv(t *testing.T) {
	assert.False(t, Default().AutoMigrate)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("jwt_secret: s\nauto_migrate: true\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.AutoMigrate)

	t.Setenv("AUTO_MIGRATE", "false")
	cfg, err = LoadConfig()
	require.NoError(t, err)
	assert.False(t, cfg.AutoMigrate)
}
