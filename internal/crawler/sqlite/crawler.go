package sqlite

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/sahaj0/CompilerOrm/internal/crawler"
)

// SQLiteCrawler implements crawler.Crawler for SQLite databases.
type SQLiteCrawler struct {
	db         *sqlx.DB
	dsn        string
	schemaName string // always "main" for SQLite
}

// New creates a new SQLiteCrawler with default settings.
func New() crawler.Crawler {
	return &SQLiteCrawler{schemaName: "main"}
}

// Connect opens a connection to the SQLite database file specified in the
// DSN. The DSN should be a file path (e.g., "/path/to/db.sqlite") or
// ":memory:" for an in-memory database. Query parameters like
// ?_journal_mode=WAL are supported.
func (c *SQLiteCrawler) Connect(cfg crawler.ConnectionConfig) error {
	db, err := sqlx.Connect("sqlite", cfg.DSN)
	if err != nil {
		return err
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
	c.dsn = cfg.DSN
	return nil
}

// Disconnect closes the database connection.
func (c *SQLiteCrawler) Disconnect() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Ping verifies the database connection is alive.
func (c *SQLiteCrawler) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// DB returns the underlying sqlx.DB connection pool.
func (c *SQLiteCrawler) DB() *sqlx.DB {
	return c.db
}

// DriverName returns "sqlite".
func (c *SQLiteCrawler) DriverName() string {
	return "sqlite"
}

// QuoteIdentifier wraps a SQL identifier in double quotes, escaping any
// embedded double quotes.
func (c *SQLiteCrawler) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// databaseName derives a catalog name from the DSN file path. In-memory
// databases and bare URI forms fall back to the attached schema name.
func (c *SQLiteCrawler) databaseName() string {
	dsn := c.dsn
	if i := strings.IndexByte(dsn, '?'); i >= 0 {
		dsn = dsn[:i]
	}
	dsn = strings.TrimPrefix(dsn, "file:")
	if dsn == "" || dsn == ":memory:" {
		return c.schemaName
	}
	base := filepath.Base(dsn)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
