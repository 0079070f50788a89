package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/sahaj0/CompilerOrm/internal/config"
	"github.com/sahaj0/CompilerOrm/internal/crawler"
	"github.com/sahaj0/CompilerOrm/internal/crawler/mssql"
	"github.com/sahaj0/CompilerOrm/internal/crawler/mysql"
	"github.com/sahaj0/CompilerOrm/internal/crawler/oracle"
	"github.com/sahaj0/CompilerOrm/internal/crawler/postgres"
	"github.com/sahaj0/CompilerOrm/internal/crawler/snowflake"
	"github.com/sahaj0/CompilerOrm/internal/crawler/sqlite"
)

// newRegistry creates a crawler registry with all supported database drivers registered.
func newRegistry() *crawler.Registry {
	registry := crawler.NewRegistry()
	registry.Register("postgres", func() crawler.Crawler { return postgres.New() })
	registry.Register("mysql", func() crawler.Crawler { return mysql.New() })
	registry.Register("mssql", func() crawler.Crawler { return mssql.New() })
	registry.Register("oracle", func() crawler.Crawler { return oracle.New() })
	registry.Register("snowflake", func() crawler.Crawler { return snowflake.New() })
	registry.Register("sqlite", func() crawler.Crawler { return sqlite.New() })
	return registry
}

// loadConfig locates and loads the project configuration, honoring the
// --config flag, then the path viper discovered, then ./ormc.yaml.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = viper.ConfigFileUsed()
	}
	if path == "" {
		path = "ormc.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	applyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyOverrides lets ORMC_* environment variables and viper-bound flags
// win over the file for the connection identity fields.
func applyOverrides(cfg *config.Config) {
	if v := viper.GetString("driver"); v != "" {
		cfg.Source.Driver = v
	}
	if v := viper.GetString("dsn"); v != "" {
		cfg.Source.DSN = v
	}
	if v := viper.GetString("schema"); v != "" {
		cfg.Source.Schema = v
	}
}

// promptPassword reads a password without echo and exports it as
// ORMC_PASSWORD so a ${ORMC_PASSWORD} reference in the config DSN picks it
// up during loading. It must run before loadConfig.
func promptPassword() error {
	fmt.Fprint(os.Stderr, "Password: ")
	pwBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	return os.Setenv("ORMC_PASSWORD", string(pwBytes))
}

// newLogger builds the slog logger the commands share. Logs go to stderr so
// stdout stays clean for machine-readable output.
func newLogger(cfg *config.Config, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose || cfg.Logging.Level == "debug" {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
