// Package config loads service configuration from an optional YAML file
// and HANDOVER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/custodia-labs/handover-core/internal/core/domain"
)

// EnvPrefix prefixes every environment override, e.g. HANDOVER_DATABASE_URL
const EnvPrefix = "HANDOVER"

// Database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Log formats
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

type Config struct {
	Server   ServerConfig           `mapstructure:"server"`
	Database DatabaseConfig         `mapstructure:"database"`
	Redis    RedisConfig            `mapstructure:"redis"`
	Upstream UpstreamConfig         `mapstructure:"upstream"`
	Links    domain.LinkSettings    `mapstructure:"links"`
	Scoring  domain.ScoringSettings `mapstructure:"scoring"`
	Auth     AuthConfig             `mapstructure:"auth"`
	Logging  LoggingConfig          `mapstructure:"logging"`
}

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	// Driver is postgres or sqlite
	Driver string `mapstructure:"driver"`

	// URL is a postgres connection string or a SQLite file path
	URL string `mapstructure:"url"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

type RedisConfig struct {
	// URL enables the result cache and schema lock when set
	URL      string        `mapstructure:"url"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// Enabled reports whether Redis is configured
func (c RedisConfig) Enabled() bool {
	return strings.TrimSpace(c.URL) != ""
}

type UpstreamConfig struct {
	DocumentsURL      string        `mapstructure:"documents_url"`
	EmailsURL         string        `mapstructure:"emails_url"`
	EntitiesURL       string        `mapstructure:"entities_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	MaxRetries        int           `mapstructure:"max_retries"`
	MaxBackoff        time.Duration `mapstructure:"max_backoff"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// Load reads configuration. An empty configFile searches handover.yaml in
// ., ./config and /etc/handover-core; a missing file is not an error.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("handover")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/handover-core")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.url", "./data/handover.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.conn_max_idle_time", time.Minute)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.cache_ttl", 5*time.Minute)

	v.SetDefault("upstream.documents_url", "http://localhost:8000")
	v.SetDefault("upstream.emails_url", "http://localhost:5000")
	v.SetDefault("upstream.entities_url", "")
	v.SetDefault("upstream.timeout", 10*time.Second)
	v.SetDefault("upstream.requests_per_second", 10.0)
	v.SetDefault("upstream.burst", 20)
	v.SetDefault("upstream.max_retries", 3)
	v.SetDefault("upstream.max_backoff", 30*time.Second)

	links := domain.DefaultLinkSettings()
	v.SetDefault("links.documents_base_url", links.DocumentsBaseURL)
	v.SetDefault("links.emails_base_url", links.EmailsBaseURL)
	v.SetDefault("links.outlook_web_url", links.OutlookWebURL)
	v.SetDefault("links.desktop_scheme", links.DesktopScheme)

	scoring := domain.DefaultScoringSettings()
	v.SetDefault("scoring.document_bm25_divisor", scoring.DocumentBM25Divisor)
	v.SetDefault("scoring.email_bm25_divisor", scoring.EmailBM25Divisor)
	v.SetDefault("scoring.noise_floor", scoring.NoiseFloor)
	v.SetDefault("scoring.preview_length", scoring.PreviewLength)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", FormatJSON)
	v.SetDefault("logging.output_path", "stdout")
}

// Validate checks the settings the serve command cannot run without
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("database.driver must be %s or %s, got %q", DriverPostgres, DriverSQLite, c.Database.Driver))
	}
	if strings.TrimSpace(c.Database.URL) == "" {
		errs = append(errs, errors.New("database.url is required"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Upstream.DocumentsURL == "" && c.Upstream.EmailsURL == "" {
		errs = append(errs, errors.New("at least one of upstream.documents_url and upstream.emails_url is required"))
	}
	if err := c.Scoring.Validate(); err != nil {
		errs = append(errs, err)
	}
	switch c.Logging.Format {
	case FormatJSON, FormatConsole:
	default:
		errs = append(errs, fmt.Errorf("logging.format must be %s or %s, got %q", FormatJSON, FormatConsole, c.Logging.Format))
	}

	return errors.Join(errs...)
}

// ValidateAuth checks that bearer tokens can be verified
func (c *Config) ValidateAuth() error {
	if len(c.Auth.JWTSecret) < 16 {
		return errors.New("auth.jwt_secret must be at least 16 characters")
	}
	return nil
}
