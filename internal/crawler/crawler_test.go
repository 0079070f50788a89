package crawler

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/sahaj0/CompilerOrm/internal/model"
)

// stubCrawler is a minimal Crawler used to exercise the registry.
type stubCrawler struct {
	driver string
}

func (s *stubCrawler) Connect(cfg ConnectionConfig) error { return nil }
func (s *stubCrawler) Disconnect() error                  { return nil }
func (s *stubCrawler) Ping(ctx context.Context) error     { return nil }
func (s *stubCrawler) DB() *sqlx.DB                       { return nil }
func (s *stubCrawler) Crawl(ctx context.Context) (*model.Database, error) {
	return model.NewDatabase("stub"), nil
}
func (s *stubCrawler) CrawlTable(ctx context.Context, db *model.Database, tableName string) (*model.Table, error) {
	return model.NewTable(db), nil
}
func (s *stubCrawler) TableNames(ctx context.Context) ([]string, error) { return nil, nil }
func (s *stubCrawler) DriverName() string                               { return s.driver }
func (s *stubCrawler) QuoteIdentifier(name string) string               { return name }

// ---------------------------------------------------------------------------
// Registry tests
// ---------------------------------------------------------------------------

func TestRegistryNew(t *testing.T) {
	r := NewRegistry()
	r.Register("stub", func() Crawler { return &stubCrawler{driver: "stub"} })

	c, err := r.New("stub")
	if err != nil {
		t.Fatalf("New(stub) error: %v", err)
	}
	if c.DriverName() != "stub" {
		t.Errorf("DriverName = %q, want stub", c.DriverName())
	}

	// Each call hands out a fresh instance.
	c2, err := r.New("stub")
	if err != nil {
		t.Fatalf("New(stub) second call error: %v", err)
	}
	if c == c2 {
		t.Error("New returned the same crawler instance twice")
	}
}

func TestRegistryUnknownDriver(t *testing.T) {
	r := NewRegistry()
	r.Register("sqlite", func() Crawler { return &stubCrawler{driver: "sqlite"} })

	_, err := r.New("dbase")
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
	if !strings.Contains(err.Error(), "dbase") || !strings.Contains(err.Error(), "sqlite") {
		t.Errorf("error %q should name the bad driver and the available ones", err)
	}
}

func TestRegistryDriversSorted(t *testing.T) {
	r := NewRegistry()
	for _, d := range []string{"postgres", "mysql", "sqlite"} {
		d := d
		r.Register(d, func() Crawler { return &stubCrawler{driver: d} })
	}

	want := []string{"mysql", "postgres", "sqlite"}
	if got := r.Drivers(); !reflect.DeepEqual(got, want) {
		t.Errorf("Drivers = %v, want %v", got, want)
	}
}

// ---------------------------------------------------------------------------
// DSN sanitizing tests
// ---------------------------------------------------------------------------

func TestSanitizeDSNMySQL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "already correct",
			in:   "user:pass@tcp(localhost:3306)/db",
			want: "user:pass@tcp(localhost:3306)/db",
		},
		{
			name: "bare host and port",
			in:   "user:pass@localhost:3306/db",
			want: "user:pass@tcp(localhost:3306)/db",
		},
		{
			name: "parens without tcp keyword",
			in:   "user:pass@(localhost:3306)/db",
			want: "user:pass@tcp(localhost:3306)/db",
		},
		{
			name: "password containing at sign",
			in:   "user:p@ss@tcp(localhost:3306)/db",
			want: "user:p@ss@tcp(localhost:3306)/db",
		},
		{
			name: "unfixable input returned unchanged",
			in:   "garbage",
			want: "garbage",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeDSN("mysql", tt.in); got != tt.want {
				t.Errorf("SanitizeDSN = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSanitizeDSNPostgres(t *testing.T) {
	// PathEscape leaves '@' alone (the URL parser splits userinfo on the
	// LAST '@') but must escape '#', which would otherwise start a fragment.
	got := SanitizeDSN("postgres", "postgres://user:p@ss#word@localhost:5432/db?sslmode=disable")
	want := "postgres://user:p@ss%23word@localhost:5432/db?sslmode=disable"
	if got != want {
		t.Errorf("SanitizeDSN = %q, want %q", got, want)
	}
}

func TestSanitizeDSNPassthrough(t *testing.T) {
	for _, driver := range []string{"sqlite", "oracle", "snowflake"} {
		dsn := "whatever://opaque@format"
		if got := SanitizeDSN(driver, dsn); got != dsn {
			t.Errorf("SanitizeDSN(%s) = %q, want unchanged %q", driver, got, dsn)
		}
	}
}

func TestSanitizeDSNNoCredentials(t *testing.T) {
	dsn := "postgres://localhost:5432/db"
	if got := SanitizeDSN("postgres", dsn); got != dsn {
		t.Errorf("SanitizeDSN = %q, want unchanged %q", got, dsn)
	}
}
