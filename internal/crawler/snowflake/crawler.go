package snowflake

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	gosnowflake "github.com/snowflakedb/gosnowflake"

	"github.com/sahaj0/CompilerOrm/internal/crawler"
)

// SnowflakeCrawler implements crawler.Crawler for Snowflake databases.
type SnowflakeCrawler struct {
	db         *sqlx.DB
	schemaName string
}

// New creates a new SnowflakeCrawler with default settings.
func New() crawler.Crawler {
	return &SnowflakeCrawler{schemaName: "PUBLIC"}
}

// Connect opens the introspection pool. A set PrivateKeyPath switches the
// crawler to key-pair (JWT) authentication; the key file must be a
// PEM-encoded PKCS#1 or PKCS#8 RSA key.
func (c *SnowflakeCrawler) Connect(cfg crawler.ConnectionConfig) error {
	dsn := cfg.DSN

	if cfg.PrivateKeyPath != "" {
		var err error
		dsn, err = jwtDSN(cfg.DSN, cfg.PrivateKeyPath)
		if err != nil {
			return fmt.Errorf("snowflake jwt auth: %w", err)
		}
	}

	db, err := sqlx.Connect("snowflake", dsn)
	if err != nil {
		return fmt.Errorf("snowflake connect: %w", err)
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
func (c *SnowflakeCrawler) Disconnect() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Ping verifies the database connection is alive.
func (c *SnowflakeCrawler) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// DB returns the underlying sqlx.DB connection pool.
func (c *SnowflakeCrawler) DB() *sqlx.DB {
	return c.db
}

// DriverName returns "snowflake".
func (c *SnowflakeCrawler) DriverName() string {
	return "snowflake"
}

// QuoteIdentifier wraps a SQL identifier in double quotes. Snowflake
// identifiers are case-sensitive when quoted.
func (c *SnowflakeCrawler) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// jwtDSN rewrites a password-less DSN into its key-pair-auth form: the
// private key is loaded from keyPath, the authenticator switched to JWT,
// and the DSN re-serialized for gosnowflake.
func jwtDSN(dsn, keyPath string) (string, error) {
	sfConfig, err := gosnowflake.ParseDSN(dsn)
	if err != nil && strings.Contains(err.Error(), "password is empty") {
		// gosnowflake refuses to parse a user@account/db DSN without a
		// password even though key-pair auth never uses one. A throwaway
		// password satisfies the parser; it is cleared right after.
		sfConfig, err = gosnowflake.ParseDSN(withPlaceholderPassword(dsn))
	}
	if err != nil {
		return "", fmt.Errorf("parse DSN: %w", err)
	}
	sfConfig.Password = ""

	privKey, err := loadPrivateKey(keyPath)
	if err != nil {
		return "", err
	}

	sfConfig.Authenticator = gosnowflake.AuthTypeJwt
	sfConfig.PrivateKey = privKey

	newDSN, err := gosnowflake.DSN(sfConfig)
	if err != nil {
		return "", fmt.Errorf("rebuild DSN: %w", err)
	}
	return newDSN, nil
}

// withPlaceholderPassword inserts a dummy password into a user@account/db
// DSN that carries none. DSNs that already have one come back unchanged.
func withPlaceholderPassword(dsn string) string {
	idx := strings.Index(dsn, "@")
	if idx <= 0 || strings.Contains(dsn[:idx], ":") {
		return dsn
	}
	return dsn[:idx] + ":_" + dsn[idx:]
}

// loadPrivateKey reads an RSA private key from a PEM file. Both PKCS#1
// ("RSA PRIVATE KEY") and PKCS#8 ("PRIVATE KEY") blocks are accepted.
func loadPrivateKey(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read private key file %q: %w", path, err)
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found in %q", path)
	}

	var key interface{}
	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err = x509.ParsePKCS1PrivateKey(block.Bytes)
	case "PRIVATE KEY":
		key, err = x509.ParsePKCS8PrivateKey(block.Bytes)
	default:
		return nil, fmt.Errorf("unsupported PEM block type %q (expected RSA PRIVATE KEY or PRIVATE KEY)", block.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key is not RSA (got %T)", key)
	}
	return rsaKey, nil
}
