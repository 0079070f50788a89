package config

import (
	"fmt"
	"os"
	"path"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sahaj0/CompilerOrm/internal/crawler"
)

// Config represents the top-level ormc configuration file.
type Config struct {
	Source  SourceConfig  `yaml:"source"`
	Filter  FilterConfig  `yaml:"filter"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// SourceConfig identifies the database to introspect.
type SourceConfig struct {
	Driver         string     `yaml:"driver"`
	DSN            string     `yaml:"dsn"`
	Schema         string     `yaml:"schema"`
	PrivateKeyPath string     `yaml:"private_key_path,omitempty"`
	Pool           PoolConfig `yaml:"pool"`
}

// PoolConfig controls the introspection connection pool. Durations use Go
// duration syntax ("30m", "1h").
type PoolConfig struct {
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime string `yaml:"conn_max_idle_time"`
}

// FilterConfig selects which tables make it into generation. Patterns use
// path.Match syntax; an empty include list means everything.
type FilterConfig struct {
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
}

// OutputConfig controls where generated code lands.
type OutputConfig struct {
	Dir     string `yaml:"dir"`
	Package string `yaml:"package"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses a YAML configuration file. Environment variables
// referenced as ${VAR_NAME} in the file are expanded before parsing, so
// credentials can stay out of the file itself. Unset fields keep their
// defaults. Callers validate after applying any overrides of their own.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Expand environment variables: ${VAR_NAME}
	content := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// Default returns a Config pre-filled with sensible defaults.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			Pool: PoolConfig{
				MaxOpenConns:    4,
				MaxIdleConns:    2,
				ConnMaxLifetime: "30m",
				ConnMaxIdleTime: "5m",
			},
		},
		Output: OutputConfig{
			Dir:     "gen",
			Package: "dao",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks the fields no run can proceed without.
func (c *Config) Validate() error {
	if c.Source.Driver == "" {
		return fmt.Errorf("config: source.driver is required")
	}
	if c.Source.DSN == "" {
		return fmt.Errorf("config: source.dsn is required")
	}
	if c.Output.Package == "" {
		return fmt.Errorf("config: output.package is required")
	}
	for _, pattern := range append(c.Filter.Include, c.Filter.Exclude...) {
		if _, err := path.Match(pattern, "probe"); err != nil {
			return fmt.Errorf("config: bad filter pattern %q: %w", pattern, err)
		}
	}
	if _, err := c.poolDurations(); err != nil {
		return err
	}
	return nil
}

// IncludesTable applies the include/exclude patterns to a table name.
// Exclude wins over include.
func (c *Config) IncludesTable(name string) bool {
	for _, pattern := range c.Filter.Exclude {
		if ok, _ := path.Match(pattern, name); ok {
			return false
		}
	}
	if len(c.Filter.Include) == 0 {
		return true
	}
	for _, pattern := range c.Filter.Include {
		if ok, _ := path.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// ConnectionConfig converts the source settings into the crawler's
// connection form, repairing common DSN mistakes on the way so they never
// reach the driver. Validate must have passed before calling.
func (c *Config) ConnectionConfig() crawler.ConnectionConfig {
	durs, _ := c.poolDurations()
	return crawler.ConnectionConfig{
		Driver:          c.Source.Driver,
		DSN:             crawler.SanitizeDSN(c.Source.Driver, c.Source.DSN),
		SchemaName:      c.Source.Schema,
		PrivateKeyPath:  c.Source.PrivateKeyPath,
		MaxOpenConns:    c.Source.Pool.MaxOpenConns,
		MaxIdleConns:    c.Source.Pool.MaxIdleConns,
		ConnMaxLifetime: durs[0],
		ConnMaxIdleTime: durs[1],
	}
}

func (c *Config) poolDurations() ([2]time.Duration, error) {
	var out [2]time.Duration
	for i, raw := range []string{c.Source.Pool.ConnMaxLifetime, c.Source.Pool.ConnMaxIdleTime} {
		if raw == "" {
			continue
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return out, fmt.Errorf("config: bad pool duration %q: %w", raw, err)
		}
		out[i] = d
	}
	return out, nil
}

// WriteDefault writes the default configuration to a YAML file, as a
// starting point for a new project.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(Default())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
