package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Data:   DataConfig{BasePath: "/some/path"},
		Cache:  CacheConfig{SizeMB: 16},
		Auth:   AuthConfig{NonceTick: 12 * time.Hour, PasswordMemoryKB: 64 * 1024, PasswordIterations: 3},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_RejectsShortNonceTick(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.NonceTick = time.Second

	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsWeakPasswordCost(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.PasswordMemoryKB = 1024
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Auth.PasswordIterations = 0
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsEmptyCache(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.SizeMB = 0

	assert.Error(t, cfg.Validate())
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_PATH", dir)

	cfg, err := LoadConfig([]string{"-env-file", filepath.Join(dir, "missing.env")})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenDuration)
	assert.Equal(t, 12*time.Hour, cfg.Auth.NonceTick)
	assert.Equal(t, dir, cfg.Data.BasePath)
	assert.Equal(t, filepath.Join(dir, "meta"), cfg.Data.MetaPath())
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
}

func TestLoadConfig_FlagBeatsEnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("SERVER_PORT=7000\nLOG_LEVEL=debug\nSERVER_NAME=\"From File\"\n"), 0o600))

	t.Setenv("DATA_PATH", dir)
	t.Setenv("SERVER_PORT", "7100")
	// t.Setenv restores the originals; unset so the .env file can fill them.
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("SERVER_NAME", "")
	require.NoError(t, os.Unsetenv("LOG_LEVEL"))
	require.NoError(t, os.Unsetenv("SERVER_NAME"))

	cfg, err := LoadConfig([]string{"-env-file", envFile, "-port", "7200"})
	require.NoError(t, err)

	assert.Equal(t, "7200", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "From File", cfg.Server.Name)
}

func TestLoadConfig_InvalidDuration(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_PATH", dir)

	_, err := LoadConfig([]string{"-env-file", filepath.Join(dir, "none"), "-nonce-tick", "soon"})
	assert.Error(t, err)
}

func TestExpandPath(t *testing.T) {
	got, err := expandPath("", "/default")
	require.NoError(t, err)
	assert.Equal(t, "/default", got)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	got, err = expandPath("~/games", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "games"), got)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b "))
	assert.Nil(t, splitList(""))
}
