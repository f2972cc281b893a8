package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable Load looks at so the host environment
// cannot leak into a test. t.Setenv restores the originals afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"PORT", "DEBUG", "SECRET_KEY", "DB_PATH",
		"STORELINK_SERVER_PORT", "STORELINK_SERVER_DEBUG", "STORELINK_AUTH_SECRET_KEY",
		"STORELINK_DB_PATH", "STORELINK_PREVIEW_TIMEOUT",
		"STORELINK_GITHUB_CLIENT_ID", "STORELINK_GITHUB_CLIENT_SECRET",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
	// keep a stray .env in the package directory out of the picture
	t.Chdir(t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 5001, cfg.Server.Port)
	assert.False(t, cfg.Server.Debug)
	assert.Equal(t, DevSecretKey, cfg.Auth.SecretKey)
	assert.True(t, cfg.UsesDevSecret())
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, "instance/storelink.db", cfg.DB.Path)
	assert.Equal(t, 10*time.Second, cfg.Preview.Timeout)
	assert.Equal(t, int64(5<<20), cfg.Preview.MaxBodyBytes)
	assert.Equal(t, "/static/img/default-preview.svg", cfg.Preview.DefaultImage)
	assert.False(t, cfg.GitHub.Enabled())
	assert.Equal(t, "http://localhost:5001/auth/github/callback", cfg.GitHub.CallbackURL)
}

func TestLoadWithFileOverrides(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "storelink.yaml")
	configYAML := `
server:
  port: 9090
  debug: true
auth:
  secret_key: a-much-longer-secret-key
  session_ttl: 2h
  bcrypt_cost: 10
db:
  path: /tmp/links.db
preview:
  timeout: 3s
github:
  client_id: id
  client_secret: shh
`
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Server.Debug)
	assert.Equal(t, 2*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, "/tmp/links.db", cfg.DB.Path)
	assert.Equal(t, 3*time.Second, cfg.Preview.Timeout)
	assert.True(t, cfg.GitHub.Enabled())
	assert.Equal(t, "http://localhost:9090/auth/github/callback", cfg.GitHub.CallbackURL)
}

func TestLoadEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8000")
	t.Setenv("SECRET_KEY", "short-name-secret-key")
	t.Setenv("STORELINK_DB_PATH", "/data/prefixed.db")
	t.Setenv("DB_PATH", "/data/short.db")
	t.Setenv("STORELINK_PREVIEW_TIMEOUT", "4s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "short-name-secret-key", cfg.Auth.SecretKey)
	assert.Equal(t, "/data/prefixed.db", cfg.DB.Path, "prefixed variable wins")
	assert.Equal(t, 4*time.Second, cfg.Preview.Timeout)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.WriteFile(".env", []byte("PORT=7070\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("PORT") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{
		Server:  ServerConfig{Port: 5001},
		Auth:    AuthConfig{SecretKey: DevSecretKey, SessionTTL: time.Hour, BcryptCost: 12},
		DB:      DBConfig{Path: "x.db"},
		Preview: PreviewConfig{Timeout: time.Second, MaxBodyBytes: 1},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"short secret", func(c *Config) { c.Auth.SecretKey = "tooshort" }, "auth.secret_key"},
		{"ttl", func(c *Config) { c.Auth.SessionTTL = 0 }, "auth.session_ttl"},
		{"cost", func(c *Config) { c.Auth.BcryptCost = 40 }, "auth.bcrypt_cost"},
		{"db path", func(c *Config) { c.DB.Path = "" }, "db.path"},
		{"timeout", func(c *Config) { c.Preview.Timeout = 0 }, "preview.timeout"},
		{"half github", func(c *Config) { c.GitHub.ClientID = "id" }, "github.client_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
