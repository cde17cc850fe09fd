package config

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/opinions/internal/errors"
)

const (
	// ConfigFileName is the JSON configuration file name.
	ConfigFileName = "opinions.json"

	// YAMLFileName is the YAML configuration file name. ".yml" is accepted
	// too.
	YAMLFileName = "opinions.yaml"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "OPINIONS_"

	// DefaultAddr is the default listen address.
	DefaultAddr = ":8080"

	// DefaultRemote is the default server URL for client commands.
	DefaultRemote = "http://localhost:8080"

	// DefaultSQLitePath is the default SQLite database file.
	DefaultSQLitePath = "opinions.db"

	// DefaultS3Key is the default snapshot object key.
	DefaultS3Key = "opinions.json"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendS3     = "s3"
)

// Config is the complete configuration.
type Config struct {
	// Addr is the address the server listens on.
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty" env:"ADDR"`

	// Remote is the server URL client commands talk to.
	Remote string `json:"remote,omitempty" yaml:"remote,omitempty" env:"REMOTE"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `json:"logLevel,omitempty" yaml:"logLevel,omitempty" env:"LOG_LEVEL"`

	// Metrics enables the /metrics endpoint.
	Metrics bool `json:"metrics,omitempty" yaml:"metrics,omitempty" env:"METRICS"`

	// Store selects and configures the storage backend.
	Store StoreConfig `json:"store" yaml:"store"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// StoreConfig configures the storage backend.
type StoreConfig struct {
	// Backend is memory, sqlite or s3.
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty" env:"STORE"`

	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string `json:"sqlitePath,omitempty" yaml:"sqlitePath,omitempty" env:"SQLITE_PATH"`

	// S3 configures the s3 backend.
	S3 S3Config `json:"s3,omitempty" yaml:"s3,omitempty" envPrefix:"S3_"`
}

// S3Config configures the s3 snapshot backend.
type S3Config struct {
	Bucket          string `json:"bucket,omitempty" yaml:"bucket,omitempty" env:"BUCKET"`
	Key             string `json:"key,omitempty" yaml:"key,omitempty" env:"KEY"`
	Region          string `json:"region,omitempty" yaml:"region,omitempty" env:"REGION"`
	Endpoint        string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" env:"ENDPOINT"`
	UsePathStyle    bool   `json:"usePathStyle,omitempty" yaml:"usePathStyle,omitempty" env:"PATH_STYLE"`
	AccessKeyID     string `json:"-" yaml:"-" env:"ACCESS_KEY_ID"`
	SecretAccessKey string `json:"-" yaml:"-" env:"SECRET_ACCESS_KEY"`
}

// New returns a Config with defaults applied.
func New() *Config {
	return &Config{
		Addr:     DefaultAddr,
		Remote:   DefaultRemote,
		LogLevel: "info",
		Store: StoreConfig{
			Backend:    BackendMemory,
			SQLitePath: DefaultSQLitePath,
			S3:         S3Config{Key: DefaultS3Key},
		},
	}
}

// Load reads the configuration file in dir, if there is one, and applies
// environment overrides. A missing file is not an error.
func Load(dir string) (*Config, error) {
	cfg := New()
	for _, name := range []string{ConfigFileName, YAMLFileName, "opinions.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		loaded, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
		break
	}
	if err := cfg.ApplyEnv(nil); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads configuration from path. The format follows the
// extension: .yaml and .yml are YAML, anything else JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E101").Wrap(err).
			WithDetail("Could not read " + path)
	}

	cfg := New()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("E101").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check the file syntax")
	}

	cfg.configPath = path
	cfg.applyDefaults()
	return cfg, nil
}

// ApplyEnv applies OPINIONS_* overrides from environ, or from the process
// environment if environ is nil.
func (c *Config) ApplyEnv(environ map[string]string) error {
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(c, opts); err != nil {
		return errors.New("E102").Wrap(err)
	}
	c.applyDefaults()
	return nil
}

// applyDefaults fills fields a file left empty.
func (c *Config) applyDefaults() {
	defaults := New()
	if c.Addr == "" {
		c.Addr = defaults.Addr
	}
	if c.Remote == "" {
		c.Remote = defaults.Remote
	}
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
	if c.Store.Backend == "" {
		c.Store.Backend = defaults.Store.Backend
	}
	if c.Store.SQLitePath == "" {
		c.Store.SQLitePath = defaults.Store.SQLitePath
	}
	if c.Store.S3.Key == "" {
		c.Store.S3.Key = defaults.Store.S3.Key
	}
}

// SaveTo writes the configuration to path as JSON, or YAML for a .yaml or
// .yml path.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("E101").Wrap(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E101").Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return errors.New("E106").Wrap(err).
			WithDetail("Address " + c.Addr + " is not host:port").
			WithSuggestion(`Use ":8080" or "localhost:8080"`)
	}
	if u, err := url.Parse(c.Remote); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("E100").
			WithDetail("Remote " + c.Remote + " is not an http or https URL")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return errors.New("E105").Wrap(err)
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendSQLite:
		if strings.TrimSpace(c.Store.SQLitePath) == "" {
			return errors.New("E100").WithDetail("The sqlite store needs a database path")
		}
	case BackendS3:
		var missing []string
		if c.Store.S3.Bucket == "" {
			missing = append(missing, "bucket")
		}
		if c.Store.S3.Key == "" {
			missing = append(missing, "key")
		}
		if c.Store.S3.Region == "" {
			missing = append(missing, "region")
		}
		if len(missing) > 0 {
			return errors.New("E104").
				WithMessages(missing...).
				WithSuggestion("Set OPINIONS_S3_BUCKET, OPINIONS_S3_KEY and OPINIONS_S3_REGION")
		}
	default:
		return errors.New("E103").
			WithDetail(`Unknown store "` + c.Store.Backend + `".`).
			WithSuggestion(`Use one of "memory", "sqlite" or "s3".`)
	}
	return nil
}

// Level returns the configured slog level. Call Validate first; an invalid
// level reads as Info.
func (c *Config) Level() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(strings.TrimSpace(s)))
	return level, err
}
