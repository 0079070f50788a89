package sqlite

import (
	"context"
	"reflect"
	"testing"

	"github.com/sahaj0/CompilerOrm/internal/crawler"
	"github.com/sahaj0/CompilerOrm/internal/model"
)

// newTestDatabase opens an in-memory database and applies the test schema.
// MaxOpenConns is pinned to 1 so every query sees the same in-memory store.
func newTestDatabase(t *testing.T) *SQLiteCrawler {
	t.Helper()

	c := New().(*SQLiteCrawler)
	cfg := crawler.ConnectionConfig{Driver: "sqlite", DSN: ":memory:", MaxOpenConns: 1}
	if err := c.Connect(cfg); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { c.Disconnect() })

	stmts := []string{
		`CREATE TABLE artist (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name VARCHAR(120) NOT NULL,
			email TEXT,
			UNIQUE(name)
		)`,
		`CREATE TABLE album (
			artist_id INTEGER NOT NULL REFERENCES artist(id),
			seq INTEGER NOT NULL,
			title TEXT NOT NULL,
			royalty DECIMAL(10,2),
			PRIMARY KEY (artist_id, seq)
		)`,
		`CREATE INDEX album_title_idx ON album(title)`,
		`CREATE VIEW album_titles AS SELECT title FROM album`,
	}
	for _, stmt := range stmts {
		if _, err := c.DB().Exec(stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
	return c
}

func TestTableNames(t *testing.T) {
	c := newTestDatabase(t)

	got, err := c.TableNames(context.Background())
	if err != nil {
		t.Fatalf("TableNames: %v", err)
	}
	want := []string{"album", "album_titles", "artist"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TableNames = %v, want %v", got, want)
	}
}

func TestCrawl(t *testing.T) {
	c := newTestDatabase(t)

	db, err := c.Crawl(context.Background())
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}

	if db.ProductName != "SQLite" {
		t.Errorf("ProductName = %q, want SQLite", db.ProductName)
	}
	if db.ProductVersion == "" {
		t.Error("ProductVersion is empty")
	}
	if len(db.Tables) != 3 {
		t.Fatalf("got %d tables, want 3", len(db.Tables))
	}

	// The crawler installs its quoting rule as the database escaper.
	if got := db.EscapedName(`weird"name`); got != `"weird""name"` {
		t.Errorf("EscapedName = %q, want quoted identifier", got)
	}

	if view := db.TableByName("album_titles"); view == nil || view.TableType != model.TableTypeView {
		t.Errorf("album_titles should be introspected as a view, got %v", view)
	}
}

func TestCrawlTableArtist(t *testing.T) {
	c := newTestDatabase(t)

	db := model.NewDatabase("test")
	db.SetEscaper(c.QuoteIdentifier)
	table, err := c.CrawlTable(context.Background(), db, "artist")
	if err != nil {
		t.Fatalf("CrawlTable: %v", err)
	}

	if table.String() != "artist::TABLE" {
		t.Errorf("String = %q, want artist::TABLE", table.String())
	}
	if !table.HasPrimaryKey() {
		t.Error("HasPrimaryKey = false, want true")
	}
	if !table.HasAutoGeneratedPrimaryKey() {
		t.Error("HasAutoGeneratedPrimaryKey = false, want true for AUTOINCREMENT")
	}
	if got := table.HighestPKIndex(); got != 0 {
		t.Errorf("HighestPKIndex = %d, want 0 for a single-column key", got)
	}

	want := []string{"INTEGER", "TEXT", "VARCHAR"}
	if got := table.DistinctColumnTypeNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("DistinctColumnTypeNames = %v, want %v", got, want)
	}

	name := table.Columns[1]
	if name.Name != "name" || name.Size != 120 {
		t.Errorf("column 1 = %+v, want name VARCHAR(120)", name)
	}
	if name.UniqueConstraintName == nil {
		t.Fatal("name column should carry its unique-constraint group")
	}
	if groups := table.UniqueConstraintGroupNames(); len(groups) != 1 {
		t.Errorf("UniqueConstraintGroupNames = %v, want one group", groups)
	}
	if len(table.UniqueConstraints) != 1 {
		t.Errorf("UniqueConstraints = %v, want one constraint", table.UniqueConstraints)
	}

	email := table.Columns[2]
	if !email.Nullable {
		t.Error("email should be nullable")
	}
	if email.AutoIncrement != model.FlagNo {
		t.Errorf("email AutoIncrement = %v, want NO", email.AutoIncrement)
	}
}

func TestCrawlTableCompositeKey(t *testing.T) {
	c := newTestDatabase(t)

	db := model.NewDatabase("test")
	table, err := c.CrawlTable(context.Background(), db, "album")
	if err != nil {
		t.Fatalf("CrawlTable: %v", err)
	}

	if !table.HasPrimaryKey() {
		t.Error("HasPrimaryKey = false, want true")
	}
	if table.HasAutoGeneratedPrimaryKey() {
		t.Error("HasAutoGeneratedPrimaryKey = true, want false for a plain composite key")
	}
	// Two key members at 0-based key ordinals 0 and 1.
	if got := table.HighestPKIndex(); got != 1 {
		t.Errorf("HighestPKIndex = %d, want 1", got)
	}

	pk := table.PrimaryKeyColumns()
	if len(pk) != 2 || pk[0].Name != "artist_id" || pk[1].Name != "seq" {
		t.Errorf("PrimaryKeyColumns = %v, want [artist_id seq]", pk)
	}

	var fkCol *model.Column
	for i := range table.Columns {
		if table.Columns[i].Name == "artist_id" {
			fkCol = &table.Columns[i]
		}
	}
	if fkCol == nil || len(fkCol.ForeignKeys) != 1 {
		t.Fatalf("artist_id should carry one foreign key, got %+v", fkCol)
	}
	if fk := fkCol.ForeignKeys[0]; fk.ReferencedTable != "artist" || fk.ReferencedColumn != "id" {
		t.Errorf("foreign key = %+v, want artist(id)", fk)
	}

	royalty := table.Columns[3]
	if royalty.TypeName != "DECIMAL" || royalty.Size != 10 || royalty.DecimalDigits != 2 {
		t.Errorf("royalty = %+v, want DECIMAL(10,2)", royalty)
	}

	if len(table.Indices) != 1 || table.Indices[0].Name != "album_title_idx" {
		t.Errorf("Indices = %v, want [album_title_idx]", table.Indices)
	}
	if !reflect.DeepEqual(table.Indices[0].Columns, []string{"title"}) {
		t.Errorf("index columns = %v, want [title]", table.Indices[0].Columns)
	}
}

func TestCrawlTableNotFound(t *testing.T) {
	c := newTestDatabase(t)

	if _, err := c.CrawlTable(context.Background(), model.NewDatabase("test"), "missing"); err == nil {
		t.Error("expected error for unknown table")
	}
}

func TestSplitTypeName(t *testing.T) {
	tests := []struct {
		in         string
		wantName   string
		wantSize   int64
		wantDigits int
	}{
		{"TEXT", "TEXT", 0, 0},
		{"VARCHAR(255)", "VARCHAR", 255, 0},
		{"varchar (64)", "varchar", 64, 0},
		{"DECIMAL(10,2)", "DECIMAL", 10, 2},
		{"DECIMAL(10, 2)", "DECIMAL", 10, 2},
		{"BROKEN)", "BROKEN)", 0, 0},
	}

	for _, tt := range tests {
		name, size, digits := splitTypeName(tt.in)
		if name != tt.wantName || size != tt.wantSize || digits != tt.wantDigits {
			t.Errorf("splitTypeName(%q) = (%q, %d, %d), want (%q, %d, %d)",
				tt.in, name, size, digits, tt.wantName, tt.wantSize, tt.wantDigits)
		}
	}
}
