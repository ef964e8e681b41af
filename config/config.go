package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/andrewpaige1/memocards-api/cards"
)

const (
	AuthModeSession = "session"
	AuthModeAuth0   = "auth0"

	DefaultConfigFile     = "memocards.yaml"
	DefaultLocalStorePath = "flashcards-storage-v1.json"
)

type Config struct {
	Port     string `yaml:"port"`
	AppEnv   string `yaml:"app_env"`
	LogLevel string `yaml:"log_level"`

	Database DatabaseConfig `yaml:"database"`

	AuthMode       string        `yaml:"auth_mode"`
	JWTSecretKey   string        `yaml:"jwt_secret_key"`
	TokenTTL       time.Duration `yaml:"token_ttl"`
	Auth0Domain    string        `yaml:"auth0_domain"`
	Auth0Audience  string        `yaml:"auth0_audience"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	CookieDomain   string        `yaml:"cookie_domain"`

	GeminiAPIKey  string        `yaml:"gemini_api_key"`
	GeminiModel   string        `yaml:"gemini_model"`
	AssistTimeout time.Duration `yaml:"assist_timeout"`

	S3 S3Config `yaml:"s3"`

	LocalStorePath string `yaml:"local_store_path"`
	MaxImportCards int    `yaml:"max_import_cards"`
}

type DatabaseConfig struct {
	Driver      string   `yaml:"driver"`
	URL         string   `yaml:"url"`
	ReplicaURLs []string `yaml:"replica_urls"`
}

type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	PublicURL string `yaml:"public_url"`
}

// Enabled reports whether image uploads can be presigned.
func (s S3Config) Enabled() bool {
	return s.Bucket != ""
}

func Default() Config {
	return Config{
		Port:     "8080",
		AppEnv:   "production",
		LogLevel: "info",
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			URL:    "memocards.db",
		},
		AuthMode: AuthModeSession,
		TokenTTL: 24 * time.Hour,
		AllowedOrigins: []string{
			"http://localhost:3000",
			"http://localhost:5173",
		},
		GeminiModel:    "gemini-2.5-flash",
		AssistTimeout:  20 * time.Second,
		S3:             S3Config{Region: "us-east-1"},
		LocalStorePath: DefaultLocalStorePath,
		MaxImportCards: cards.DefaultMaxImportCards,
	}
}

// Load builds the configuration from the defaults, then the YAML file at path
// (a missing file is ignored), then environment variables, and validates the
// result for the API server.
func Load(path string) (Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Read layers the file and environment over the defaults without validating
// server-only settings. The offline CLI uses it.
func Read(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path == "" {
		path = DefaultConfigFile
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Port, "PORT")
	setString(&c.AppEnv, "APP_ENV")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.URL, "DB_URL")
	setList(&c.Database.ReplicaURLs, "DB_REPLICA_URLS")
	setString(&c.AuthMode, "AUTH_MODE")
	setString(&c.JWTSecretKey, "JWT_SECRET_KEY")
	setString(&c.Auth0Domain, "AUTH0_DOMAIN")
	setString(&c.Auth0Audience, "AUTH0_AUDIENCE")
	setList(&c.AllowedOrigins, "ALLOWED_ORIGINS")
	setString(&c.CookieDomain, "COOKIE_DOMAIN")
	setString(&c.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&c.GeminiModel, "GEMINI_MODEL")
	setString(&c.S3.Bucket, "S3_BUCKET")
	setString(&c.S3.Region, "S3_REGION")
	setString(&c.S3.Endpoint, "S3_ENDPOINT")
	setString(&c.S3.AccessKey, "S3_ACCESS_KEY")
	setString(&c.S3.SecretKey, "S3_SECRET_KEY")
	setString(&c.S3.PublicURL, "S3_PUBLIC_URL")
	setString(&c.LocalStorePath, "LOCAL_STORE_PATH")

	if err := setDuration(&c.TokenTTL, "TOKEN_TTL"); err != nil {
		return err
	}
	if err := setDuration(&c.AssistTimeout, "ASSIST_TIMEOUT"); err != nil {
		return err
	}
	if v := os.Getenv("MAX_IMPORT_CARDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MAX_IMPORT_CARDS %q: %w", v, err)
		}
		c.MaxImportCards = n
	}
	return nil
}

func (c Config) Validate() error {
	switch c.AuthMode {
	case AuthModeSession:
		if c.JWTSecretKey == "" {
			return errors.New("JWT_SECRET_KEY is required in session auth mode")
		}
	case AuthModeAuth0:
		if c.Auth0Domain == "" || c.Auth0Audience == "" {
			return errors.New("AUTH0_DOMAIN and AUTH0_AUDIENCE are required in auth0 mode")
		}
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.AuthMode)
	}
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres, DriverMySQL:
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.Database.Driver)
	}
	if c.MaxImportCards <= 0 {
		return fmt.Errorf("MAX_IMPORT_CARDS must be positive, got %d", c.MaxImportCards)
	}
	return nil
}

func (c Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c Config) Environment() Environment {
	return NewEnvironment(c.CookieDomain)
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setList(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*dst = out
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = d
	return nil
}
