package mssql

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/microsoft/go-mssqldb"

	"github.com/sahaj0/CompilerOrm/internal/crawler"
)

// MSSQLCrawler implements crawler.Crawler for Microsoft SQL Server databases.
type MSSQLCrawler struct {
	db         *sqlx.DB
	schemaName string
}

// New creates a new MSSQLCrawler with default settings.
func New() crawler.Crawler {
	return &MSSQLCrawler{schemaName: "dbo"}
}

// Connect establishes a connection to the SQL Server database using the
// provided configuration.
func (c *MSSQLCrawler) Connect(cfg crawler.ConnectionConfig) error {
	db, err := sqlx.Connect("sqlserver", cfg.DSN)
	if err != nil {
		return fmt.Errorf("mssql connect: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if cfg.SchemaName != "" {
		c.schemaName = cfg.SchemaName
	}

	c.db = db
	return nil
}

// Disconnect closes the database connection pool.
func (c *MSSQLCrawler) Disconnect() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Ping verifies the database connection is alive.
func (c *MSSQLCrawler) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// DB returns the underlying sqlx.DB connection pool.
func (c *MSSQLCrawler) DB() *sqlx.DB {
	return c.db
}

// DriverName returns "mssql".
func (c *MSSQLCrawler) DriverName() string {
	return "mssql"
}

// QuoteIdentifier wraps a SQL identifier in brackets, escaping any embedded
// closing brackets.
func (c *MSSQLCrawler) QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}
