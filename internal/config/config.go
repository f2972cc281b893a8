// Package config loads and validates StoreLink configuration via Viper.
//
// Sources in increasing precedence: built-in defaults, an optional config
// file, then environment variables. Every key can be set as STORELINK_<KEY>
// with dots replaced by underscores (STORELINK_AUTH_SECRET_KEY). The short
// names PORT, SECRET_KEY, DEBUG and DB_PATH are honoured as well.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DevSecretKey signs sessions when no secret is configured. It is fine for
// local use and nothing else.
const DevSecretKey = "dev-secret-key-change-me"

// Config captures every setting the server reads at startup.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Auth    AuthConfig    `mapstructure:"auth"`
	DB      DBConfig      `mapstructure:"db"`
	Preview PreviewConfig `mapstructure:"preview"`
	GitHub  GitHubConfig  `mapstructure:"github"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port          int  `mapstructure:"port"`
	Debug         bool `mapstructure:"debug"`
	SecureCookies bool `mapstructure:"secure_cookies"`
}

// AuthConfig holds session and password settings.
type AuthConfig struct {
	SecretKey  string        `mapstructure:"secret_key"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
	BcryptCost int           `mapstructure:"bcrypt_cost"`
}

// DBConfig points at the SQLite file.
type DBConfig struct {
	Path string `mapstructure:"path"`
}

// PreviewConfig tunes the page metadata fetcher.
type PreviewConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	UserAgent    string        `mapstructure:"user_agent"`
	DefaultImage string        `mapstructure:"default_image"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

// GitHubConfig enables GitHub sign-in when both credentials are set.
type GitHubConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	CallbackURL  string `mapstructure:"callback_url"`
}

// Enabled reports whether GitHub sign-in routes should be mounted.
func (g GitHubConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// Load builds a Config from defaults, the optional file at path and the
// environment. A .env file in the working directory is read first when it
// exists; variables already set in the process win over it.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("STORELINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindShortNames(v); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.GitHub.CallbackURL == "" {
		cfg.GitHub.CallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Server.Port)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5001)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.secure_cookies", false)
	v.SetDefault("auth.secret_key", DevSecretKey)
	v.SetDefault("auth.session_ttl", "24h")
	v.SetDefault("auth.bcrypt_cost", 12)
	v.SetDefault("db.path", "instance/storelink.db")
	v.SetDefault("preview.timeout", "10s")
	v.SetDefault("preview.user_agent", "")
	v.SetDefault("preview.default_image", "/static/img/default-preview.svg")
	v.SetDefault("preview.max_body_bytes", 5<<20)
	v.SetDefault("github.client_id", "")
	v.SetDefault("github.client_secret", "")
	v.SetDefault("github.callback_url", "")
}

// bindShortNames lets the prefixed variable win and falls back to the
// conventional unprefixed one.
func bindShortNames(v *viper.Viper) error {
	short := map[string]string{
		"server.port":     "PORT",
		"server.debug":    "DEBUG",
		"auth.secret_key": "SECRET_KEY",
		"db.path":         "DB_PATH",
	}
	for key, env := range short {
		prefixed := "STORELINK_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return fmt.Errorf("bind %s: %w", env, err)
		}
	}
	return nil
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535"))
	}
	if len(c.Auth.SecretKey) < 16 {
		errs = append(errs, fmt.Errorf("auth.secret_key must be at least 16 characters"))
	}
	if c.Auth.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("auth.session_ttl must be > 0"))
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("auth.bcrypt_cost must be between 4 and 31"))
	}
	if c.DB.Path == "" {
		errs = append(errs, fmt.Errorf("db.path must be set"))
	}
	if c.Preview.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("preview.timeout must be > 0"))
	}
	if c.Preview.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("preview.max_body_bytes must be > 0"))
	}
	if (c.GitHub.ClientID == "") != (c.GitHub.ClientSecret == "") {
		errs = append(errs, fmt.Errorf("github.client_id and github.client_secret must be set together"))
	}
	return errors.Join(errs...)
}

// UsesDevSecret reports whether sessions are signed with DevSecretKey.
func (c Config) UsesDevSecret() bool {
	return c.Auth.SecretKey == DevSecretKey
}
