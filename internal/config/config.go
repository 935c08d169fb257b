package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort       = 4000
	defaultEnv        = "development"
	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBPassword = "password"
	defaultDBName     = "chirp"
	defaultDBCharset  = "utf8mb4"
	defaultDBLoc      = "Local"
	defaultRedisURL   = "redis://localhost:6379/0"
	defaultMongoURL   = "mongodb://localhost:27017"
	defaultMongoName  = "chirp"

	defaultAccessTTL         = 15 * time.Minute
	defaultRefreshTTL        = 100 * 24 * time.Hour
	defaultEmailVerifyTTL    = 7 * 24 * time.Hour
	defaultForgotPasswordTTL = 7 * 24 * time.Hour
)

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int            `yaml:"port"`
	Env            string         `yaml:"env"` // "development" | "production"
	Database       DatabaseConfig `yaml:"database"`
	Mongo          MongoConfig    `yaml:"mongo"`
	RedisURL       string         `yaml:"redis_url"`
	JWT            JWTConfig      `yaml:"jwt"`
	Mail           MailConfig     `yaml:"mail"`
	OAuth          OAuthConfig    `yaml:"oauth"`
	AllowedOrigins []string       `yaml:"allowed_origins"`
	ClientURL      string         `yaml:"client_url"`
}

type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Charset  string `yaml:"charset"`
	Loc      string `yaml:"loc"`
}

type MongoConfig struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

// JWTConfig carries the per-kind secrets and TTLs of the token codec. TTLs
// are Go duration strings ("15m", "168h").
type JWTConfig struct {
	AccessSecret         string   `yaml:"access_secret"`
	RefreshSecret        string   `yaml:"refresh_secret"`
	EmailVerifySecret    string   `yaml:"email_verify_secret"`
	ForgotPasswordSecret string   `yaml:"forgot_password_secret"`
	AccessTTL            Duration `yaml:"access_ttl"`
	RefreshTTL           Duration `yaml:"refresh_ttl"`
	EmailVerifyTTL       Duration `yaml:"email_verify_ttl"`
	ForgotPasswordTTL    Duration `yaml:"forgot_password_ttl"`
}

type MailConfig struct {
	Enable    bool   `yaml:"enable"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	User      string `yaml:"user"`
	Pass      string `yaml:"pass"`
	From      string `yaml:"from"`
	ReplyTo   string `yaml:"reply_to"`
	UseResend bool   `yaml:"use_resend"`
	ResendKey string `yaml:"resend_key"`
}

type OAuthConfig struct {
	Google GoogleOAuthConfig `yaml:"google"`
}

type GoogleOAuthConfig struct {
	ClientID       string `yaml:"client_id"`
	ClientSecret   string `yaml:"client_secret"`
	RedirectURI    string `yaml:"redirect_uri"`
	ClientRedirect string `yaml:"client_redirect"`
}

// Duration is a yaml-decodable time.Duration.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	s := strings.TrimSpace(value.Value)
	if s == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Load reads and validates the YAML config file.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	cfg, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parse config file %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML content with strict field checking and applies defaults.
func Parse(content []byte) (*AppConfig, error) {
	cfg := defaultAppConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d, expected 1-65535", cfg.Port)
	}
	if cfg.Database.Port < 1 || cfg.Database.Port > 65535 {
		return nil, fmt.Errorf("invalid database.port %d, expected 1-65535", cfg.Database.Port)
	}
	if cfg.JWT.AccessTTL <= 0 || cfg.JWT.RefreshTTL <= 0 ||
		cfg.JWT.EmailVerifyTTL <= 0 || cfg.JWT.ForgotPasswordTTL <= 0 {
		return nil, fmt.Errorf("jwt ttls must be positive")
	}

	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Port: defaultPort,
		Env:  defaultEnv,
		Database: DatabaseConfig{
			Host:     defaultDBHost,
			Port:     defaultDBPort,
			User:     defaultDBUser,
			Password: defaultDBPassword,
			Name:     defaultDBName,
			Charset:  defaultDBCharset,
			Loc:      defaultDBLoc,
		},
		Mongo: MongoConfig{
			URL:  defaultMongoURL,
			Name: defaultMongoName,
		},
		RedisURL: defaultRedisURL,
		JWT: JWTConfig{
			AccessTTL:         Duration(defaultAccessTTL),
			RefreshTTL:        Duration(defaultRefreshTTL),
			EmailVerifyTTL:    Duration(defaultEmailVerifyTTL),
			ForgotPasswordTTL: Duration(defaultForgotPasswordTTL),
		},
	}
}

// IsDev reports whether the app runs in development mode.
func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "development")
}
