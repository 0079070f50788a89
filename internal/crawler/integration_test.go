package crawler_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/sahaj0/CompilerOrm/internal/crawler"
	"github.com/sahaj0/CompilerOrm/internal/crawler/mssql"
	"github.com/sahaj0/CompilerOrm/internal/crawler/mysql"
	"github.com/sahaj0/CompilerOrm/internal/crawler/oracle"
	"github.com/sahaj0/CompilerOrm/internal/crawler/postgres"
)

// ---------------------------------------------------------------------------
// Helper: run a common suite of sub-tests against any crawler
// ---------------------------------------------------------------------------

func runCrawlerSuite(t *testing.T, c crawler.Crawler, cfg crawler.ConnectionConfig) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	t.Run("Connect", func(t *testing.T) {
		if err := c.Connect(cfg); err != nil {
			t.Fatalf("Connect failed: %v", err)
		}
	})

	// All subsequent subtests depend on a successful connection.
	if c.DB() == nil {
		t.Fatal("DB() is nil after Connect; aborting remaining subtests")
	}
	defer c.Disconnect()

	t.Run("Ping", func(t *testing.T) {
		if err := c.Ping(ctx); err != nil {
			t.Fatalf("Ping failed: %v", err)
		}
	})

	var tableNames []string
	t.Run("TableNames", func(t *testing.T) {
		var err error
		tableNames, err = c.TableNames(ctx)
		if err != nil {
			t.Fatalf("TableNames failed: %v", err)
		}
		if len(tableNames) == 0 {
			t.Fatal("TableNames returned no tables")
		}
	})

	t.Run("Crawl", func(t *testing.T) {
		db, err := c.Crawl(ctx)
		if err != nil {
			t.Fatalf("Crawl failed: %v", err)
		}
		if db.Name == "" {
			t.Error("crawled database has no name")
		}
		if db.DriverName != c.DriverName() {
			t.Errorf("DriverName = %q, want %q", db.DriverName, c.DriverName())
		}
		if len(db.Tables) == 0 {
			t.Fatal("crawled database has no tables")
		}
		for _, table := range db.Tables {
			if table.TableName == "" {
				t.Fatal("crawled table has no name")
			}
			if len(table.Columns) == 0 {
				t.Errorf("table %q has no columns", table.TableName)
			}
			// Every derived query must be total over live metadata.
			table.HasPrimaryKey()
			table.HasAutoGeneratedPrimaryKey()
			table.HighestPKIndex()
			table.UniqueConstraintGroupNames()
			table.DistinctColumnTypeNames()
			if got := table.EscapedName(); got == "" {
				t.Errorf("table %q escaped to empty name", table.TableName)
			}
		}
	})
}

// ---------------------------------------------------------------------------
// Per-driver entry points, each gated on its own DSN variable
// ---------------------------------------------------------------------------

func dsnFromEnv(t *testing.T, key string) string {
	t.Helper()
	if os.Getenv("ORMC_INTEGRATION") == "" {
		t.Skip("skipping integration test: set ORMC_INTEGRATION=1 to run")
	}
	dsn := os.Getenv(key)
	if dsn == "" {
		t.Skipf("set %s to run this suite", key)
	}
	return dsn
}

func TestPostgresCrawler(t *testing.T) {
	dsn := dsnFromEnv(t, "ORMC_TEST_POSTGRES_DSN")
	runCrawlerSuite(t, postgres.New(), crawler.ConnectionConfig{
		Driver: "postgres",
		DSN:    dsn,
		SchemaName: os.Getenv("ORMC_TEST_POSTGRES_SCHEMA"),
	})
}

func TestMySQLCrawler(t *testing.T) {
	dsn := dsnFromEnv(t, "ORMC_TEST_MYSQL_DSN")
	runCrawlerSuite(t, mysql.New(), crawler.ConnectionConfig{
		Driver: "mysql",
		DSN:    dsn,
	})
}

func TestMSSQLCrawler(t *testing.T) {
	dsn := dsnFromEnv(t, "ORMC_TEST_MSSQL_DSN")
	runCrawlerSuite(t, mssql.New(), crawler.ConnectionConfig{
		Driver: "mssql",
		DSN:    dsn,
		SchemaName: os.Getenv("ORMC_TEST_MSSQL_SCHEMA"),
	})
}

func TestOracleCrawler(t *testing.T) {
	dsn := dsnFromEnv(t, "ORMC_TEST_ORACLE_DSN")
	runCrawlerSuite(t, oracle.New(), crawler.ConnectionConfig{
		Driver: "oracle",
		DSN:    dsn,
		SchemaName: os.Getenv("ORMC_TEST_ORACLE_SCHEMA"),
	})
}
