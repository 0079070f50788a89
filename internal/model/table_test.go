package model

import (
	"reflect"
	"testing"
)

func strptr(s string) *string { return &s }

// fakeResolver implements TypeTemplateResolver against a fixed catalog of
// lowercased type names.
type fakeResolver struct {
	known map[string]bool
	calls []string
}

func (r *fakeResolver) HasCustomTemplate(typeName string) bool {
	r.calls = append(r.calls, typeName)
	return r.known[typeName]
}

// ---------------------------------------------------------------------------
// Empty-table degenerate cases
// ---------------------------------------------------------------------------

func TestDerivedQueriesOnEmptyTable(t *testing.T) {
	for name, table := range map[string]*Table{
		"nil columns":   NewTable(NewDatabase("empty")),
		"zero columns":  {Columns: []Column{}},
		"detached":      {},
	} {
		t.Run(name, func(t *testing.T) {
			if table.HasPrimaryKey() {
				t.Error("HasPrimaryKey = true, want false")
			}
			if table.HasAutoGeneratedPrimaryKey() {
				t.Error("HasAutoGeneratedPrimaryKey = true, want false")
			}
			if got := table.HighestPKIndex(); got != 0 {
				t.Errorf("HighestPKIndex = %d, want 0", got)
			}
			if got := table.UniqueConstraintGroupNames(); len(got) != 0 {
				t.Errorf("UniqueConstraintGroupNames = %v, want empty", got)
			}
			if got := table.DistinctColumnTypeNames(); len(got) != 0 {
				t.Errorf("DistinctColumnTypeNames = %v, want empty", got)
			}
			res := &fakeResolver{known: map[string]bool{"uuid": true}}
			if got := table.DistinctCustomColumnTypeNames(res); len(got) != 0 {
				t.Errorf("DistinctCustomColumnTypeNames = %v, want empty", got)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Primary-key queries
// ---------------------------------------------------------------------------

func TestHasPrimaryKey(t *testing.T) {
	table := &Table{Columns: []Column{
		{Name: "a", PrimaryKey: false},
		{Name: "b", PrimaryKey: true, PrimaryKeyIndex: 2},
		{Name: "c", PrimaryKey: true, PrimaryKeyIndex: 5},
	}}

	if !table.HasPrimaryKey() {
		t.Error("HasPrimaryKey = false, want true")
	}
	if got := table.HighestPKIndex(); got != 5 {
		t.Errorf("HighestPKIndex = %d, want 5", got)
	}
}

func TestHasAutoGeneratedPrimaryKey(t *testing.T) {
	tests := []struct {
		name    string
		columns []Column
		want    bool
	}{
		{
			name:    "no primary key at all",
			columns: []Column{{Name: "a", AutoIncrement: FlagYes}},
			want:    false,
		},
		{
			name:    "pk without auto increment",
			columns: []Column{{Name: "a", PrimaryKey: true, AutoIncrement: FlagNo}},
			want:    false,
		},
		{
			name:    "pk with unknown auto increment",
			columns: []Column{{Name: "a", PrimaryKey: true, AutoIncrement: FlagUnknown}},
			want:    false,
		},
		{
			name: "composite key with one auto member is existential",
			columns: []Column{
				{Name: "a", PrimaryKey: true, PrimaryKeyIndex: 0, AutoIncrement: FlagYes},
				{Name: "b", PrimaryKey: true, PrimaryKeyIndex: 1, AutoIncrement: FlagNo},
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := &Table{Columns: tt.columns}
			if got := table.HasAutoGeneratedPrimaryKey(); got != tt.want {
				t.Errorf("HasAutoGeneratedPrimaryKey = %v, want %v", got, tt.want)
			}
		})
	}
}

// A single-column key at ordinal 0 answers HighestPKIndex = 0, the same
// value a keyless table answers. That sentinel overlap is longstanding API
// behavior; callers disambiguate with HasPrimaryKey, and this test pins both
// halves down so the overlap stays documented rather than accidental.
func TestHighestPKIndexZeroIsAmbiguous(t *testing.T) {
	keyed := &Table{Columns: []Column{
		{Name: "id", PrimaryKey: true, PrimaryKeyIndex: 0, AutoIncrement: FlagNo},
	}}
	keyless := &Table{Columns: []Column{{Name: "id"}}}

	if got := keyed.HighestPKIndex(); got != 0 {
		t.Errorf("keyed HighestPKIndex = %d, want 0", got)
	}
	if got := keyless.HighestPKIndex(); got != 0 {
		t.Errorf("keyless HighestPKIndex = %d, want 0", got)
	}
	if !keyed.HasPrimaryKey() {
		t.Error("keyed HasPrimaryKey = false, want true")
	}
	if keyed.HasAutoGeneratedPrimaryKey() {
		t.Error("keyed HasAutoGeneratedPrimaryKey = true, want false")
	}
	if keyless.HasPrimaryKey() {
		t.Error("keyless HasPrimaryKey = true, want false")
	}
}

func TestPrimaryKeyColumns(t *testing.T) {
	table := &Table{Columns: []Column{
		{Name: "tenant_id", PrimaryKey: true, PrimaryKeyIndex: 0},
		{Name: "note", PrimaryKey: false},
		{Name: "id", PrimaryKey: true, PrimaryKeyIndex: 1},
	}}

	got := table.PrimaryKeyColumns()
	if len(got) != 2 || got[0].Name != "tenant_id" || got[1].Name != "id" {
		t.Errorf("PrimaryKeyColumns = %v, want [tenant_id id] in column order", got)
	}
}

// ---------------------------------------------------------------------------
// Unique-constraint grouping
// ---------------------------------------------------------------------------

func TestUniqueConstraintGroupNames(t *testing.T) {
	tests := []struct {
		name   string
		groups []*string // one entry per column, nil = no group
		want   []string
	}{
		{
			name:   "no groups",
			groups: []*string{nil, nil, nil},
			want:   nil,
		},
		{
			name:   "contiguous run collapses to one entry",
			groups: []*string{strptr("A"), strptr("A"), strptr("A")},
			want:   []string{"A"},
		},
		{
			name:   "adjacent distinct groups",
			groups: []*string{strptr("A"), strptr("A"), strptr("B")},
			want:   []string{"A", "B"},
		},
		{
			// Adjacency scan, not a global dedup: A reappearing after an
			// interruption is emitted again. Groups are assumed contiguous
			// in column order; this is what non-contiguous input looks like.
			name:   "interrupted group is re-emitted",
			groups: []*string{strptr("A"), strptr("A"), strptr("B"), nil, strptr("A")},
			want:   []string{"A", "B", "A"},
		},
		{
			// A column with no group does not reset the accumulator, so the
			// same group resuming right after a nil gap is not re-emitted.
			name:   "nil gap does not reset the previous group",
			groups: []*string{strptr("A"), nil, strptr("A")},
			want:   []string{"A"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			columns := make([]Column, len(tt.groups))
			for i, g := range tt.groups {
				columns[i] = Column{Name: "c", UniqueConstraintName: g}
			}
			table := &Table{Columns: columns}

			got := table.UniqueConstraintGroupNames()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("UniqueConstraintGroupNames = %v, want %v", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Column-type-name queries
// ---------------------------------------------------------------------------

func TestDistinctColumnTypeNames(t *testing.T) {
	table := &Table{Columns: []Column{
		{Name: "a", TypeName: "varchar"},
		{Name: "b", TypeName: "INT"},
		{Name: "c", TypeName: "varchar"},
		{Name: "d", TypeName: "uuid"},
	}}

	// Natural byte ordering: uppercase sorts before lowercase.
	want := []string{"INT", "uuid", "varchar"}
	if got := table.DistinctColumnTypeNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("DistinctColumnTypeNames = %v, want %v", got, want)
	}
}

func TestDistinctCustomColumnTypeNames(t *testing.T) {
	table := &Table{Columns: []Column{
		{Name: "a", TypeName: "varchar"},
		{Name: "b", TypeName: "INT"},
		{Name: "c", TypeName: "varchar"},
		{Name: "d", TypeName: "uuid"},
	}}

	res := &fakeResolver{known: map[string]bool{"uuid": true}}
	want := []string{"uuid"}
	got := table.DistinctCustomColumnTypeNames(res)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DistinctCustomColumnTypeNames = %v, want %v", got, want)
	}

	// Lookup keys are lowercased, one probe per distinct type.
	for _, call := range res.calls {
		switch call {
		case "varchar", "int", "uuid":
		default:
			t.Errorf("resolver probed with %q, want lowercased type name", call)
		}
	}

	// Always a subset of the distinct type names.
	all := table.DistinctColumnTypeNames()
	for _, name := range got {
		found := false
		for _, a := range all {
			if a == name {
				found = true
			}
		}
		if !found {
			t.Errorf("custom type %q not in DistinctColumnTypeNames %v", name, all)
		}
	}
}

func TestDistinctCustomColumnTypeNamesNilResolver(t *testing.T) {
	table := &Table{Columns: []Column{{Name: "a", TypeName: "uuid"}}}
	if got := table.DistinctCustomColumnTypeNames(nil); len(got) != 0 {
		t.Errorf("DistinctCustomColumnTypeNames(nil) = %v, want empty", got)
	}
}

// ---------------------------------------------------------------------------
// Identity, escaping, rendering
// ---------------------------------------------------------------------------

func TestEscapedNameDelegatesToDatabase(t *testing.T) {
	db := NewDatabase("app")
	db.SetEscaper(func(identifier string) string { return "<<" + identifier + ">>" })

	table := NewTable(db)
	table.TableName = "movie"
	db.AddTable(table)

	if got, want := table.EscapedName(), db.EscapedName("movie"); got != want {
		t.Errorf("EscapedName = %q, want database escape %q", got, want)
	}
	if got := table.EscapedName(); got != "<<movie>>" {
		t.Errorf("EscapedName = %q, want %q", got, "<<movie>>")
	}
}

func TestEscapedNameWithoutEscaper(t *testing.T) {
	db := NewDatabase("app")
	table := NewTable(db)
	table.TableName = "movie"

	if got := table.EscapedName(); got != "movie" {
		t.Errorf("EscapedName = %q, want identity %q", got, "movie")
	}
}

func TestTableString(t *testing.T) {
	table := &Table{TableName: "movie", TableType: TableTypeView}
	if got, want := table.String(), "movie::VIEW"; got != want {
		t.Errorf("String = %q, want %q", got, want)
	}
}

func TestDatabaseTableByName(t *testing.T) {
	db := NewDatabase("app")
	movie := NewTable(db)
	movie.TableName = "movie"
	db.AddTable(movie)
	db.AddTable(nil) // ignored

	if got := db.TableByName("movie"); got != movie {
		t.Errorf("TableByName(movie) = %v, want the movie table", got)
	}
	if got := db.TableByName("absent"); got != nil {
		t.Errorf("TableByName(absent) = %v, want nil", got)
	}
	if len(db.Tables) != 1 {
		t.Errorf("Tables has %d entries, want 1", len(db.Tables))
	}
}

func TestTableBackReference(t *testing.T) {
	db := NewDatabase("app")
	table := NewTable(db)
	if table.Database() != db {
		t.Error("Database() did not return the owning database")
	}
}
