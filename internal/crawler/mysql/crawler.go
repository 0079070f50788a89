package mysql

import (
	"context"
	"fmt"
	"strings"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/sahaj0/CompilerOrm/internal/crawler"
)

// MySQLCrawler implements crawler.Crawler for MySQL and MariaDB databases.
type MySQLCrawler struct {
	db         *sqlx.DB
	schemaName string
}

// New creates a new MySQLCrawler with default settings.
func New() crawler.Crawler {
	return &MySQLCrawler{}
}

// Connect establishes a connection to the MySQL database. When no schema is
// configured, the database name from the DSN is used for introspection
// queries.
func (c *MySQLCrawler) Connect(cfg crawler.ConnectionConfig) error {
	db, err := sqlx.Connect("mysql", cfg.DSN)
	if err != nil {
		return fmt.Errorf("mysql connect: %w", err)
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

	c.schemaName = cfg.SchemaName
	if c.schemaName == "" {
		if parsed, perr := mysqldriver.ParseDSN(cfg.DSN); perr == nil {
			c.schemaName = parsed.DBName
		}
	}

	c.db = db
	return nil
}

// Disconnect closes the database connection pool.
func (c *MySQLCrawler) Disconnect() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Ping verifies the database connection is alive.
func (c *MySQLCrawler) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// DB returns the underlying sqlx.DB connection pool.
func (c *MySQLCrawler) DB() *sqlx.DB {
	return c.db
}

// DriverName returns "mysql".
func (c *MySQLCrawler) DriverName() string {
	return "mysql"
}

// QuoteIdentifier wraps a SQL identifier in backticks, escaping any
// embedded backticks.
func (c *MySQLCrawler) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
