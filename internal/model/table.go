package model

import (
	"sort"
	"strings"
)

// TypeTemplateResolver reports whether a custom code-generation template
// exists for a column type. Lookup keys are lowercased type names; a miss is
// not an error, it simply means the type gets default handling. The host
// generator supplies the implementation.
type TypeTemplateResolver interface {
	HasCustomTemplate(typeName string) bool
}

// Table is a single introspected table. Columns are stored in introspected
// (ordinal) order; the derived queries below depend on that order. A Table
// is built bound to its owning Database, populated field by field by a
// crawler, and treated as an immutable snapshot once generation starts.
type Table struct {
	database *Database

	TableName                 string             `json:"table_name" yaml:"table_name"`
	SequenceName              string             `json:"sequence_name,omitempty" yaml:"sequence_name,omitempty"`
	CategoryName              string             `json:"category_name,omitempty" yaml:"category_name,omitempty"`
	SchemaName                string             `json:"schema_name,omitempty" yaml:"schema_name,omitempty"`
	TableType                 TableType          `json:"table_type" yaml:"table_type"`
	Remarks                   string             `json:"remarks,omitempty" yaml:"remarks,omitempty"`
	CategoryType              string             `json:"category_type,omitempty" yaml:"category_type,omitempty"`
	SchemaType                string             `json:"schema_type,omitempty" yaml:"schema_type,omitempty"`
	NameType                  string             `json:"name_type,omitempty" yaml:"name_type,omitempty"`
	SelfReferencingColumnName string             `json:"self_referencing_column_name,omitempty" yaml:"self_referencing_column_name,omitempty"`
	ReferenceGeneration       string             `json:"reference_generation,omitempty" yaml:"reference_generation,omitempty"`
	Columns                   []Column           `json:"columns" yaml:"columns"`
	Indices                   []Index            `json:"indices,omitempty" yaml:"indices,omitempty"`
	UniqueConstraints         []UniqueConstraint `json:"unique_constraints,omitempty" yaml:"unique_constraints,omitempty"`
}

// NewTable creates a table bound to its owning database. Columns may be
// populated later; every derived query below is total over an empty or
// unset column list.
func NewTable(database *Database) *Table {
	return &Table{database: database}
}

// Database returns the owning database. The reference is non-owning; it
// exists only so the table can delegate identifier escaping.
func (t *Table) Database() *Database {
	return t.database
}

// EscapedName returns the table name quoted by the owning database's
// dialect rule. With no owning database the name is returned unchanged.
func (t *Table) EscapedName() string {
	if t.database == nil {
		return t.TableName
	}
	return t.database.EscapedName(t.TableName)
}

// HasPrimaryKey reports whether at least one column is part of the primary
// key.
func (t *Table) HasPrimaryKey() bool {
	for _, c := range t.Columns {
		if c.PrimaryKey {
			return true
		}
	}
	return false
}

// HasAutoGeneratedPrimaryKey reports whether any primary-key column
// auto-increments. The check is existential: a composite key where a single
// member auto-increments satisfies it.
func (t *Table) HasAutoGeneratedPrimaryKey() bool {
	for _, c := range t.Columns {
		if c.PrimaryKey && c.AutoIncrement == FlagYes {
			return true
		}
	}
	return false
}

// HighestPKIndex returns the largest PrimaryKeyIndex among primary-key
// columns, or 0 when the table has no primary key. 0 is a sentinel, not an
// error; note that a genuine single-column key at ordinal 0 is
// indistinguishable from "no primary key" through this method alone — pair
// it with HasPrimaryKey when that distinction matters.
func (t *Table) HighestPKIndex() int {
	highest := 0
	for _, c := range t.Columns {
		if c.PrimaryKey && c.PrimaryKeyIndex > highest {
			highest = c.PrimaryKeyIndex
		}
	}
	return highest
}

// PrimaryKeyColumns returns the primary-key columns in table column order.
func (t *Table) PrimaryKeyColumns() []Column {
	var pk []Column
	for _, c := range t.Columns {
		if c.PrimaryKey {
			pk = append(pk, c)
		}
	}
	return pk
}

// UniqueConstraintGroupNames returns the unique-constraint group names in
// column order, collapsing adjacent runs of the same name. This is a single
// linear scan, not a global dedup: it assumes columns of the same group are
// contiguous in column order. The remembered name only changes when a name
// is emitted, so a gap of untagged columns does not re-emit the group, but
// a name reappearing after a different group does. Crawlers supplying
// non-contiguous groups will see the duplicate entries.
func (t *Table) UniqueConstraintGroupNames() []string {
	var names []string
	var prev *string
	for i := range t.Columns {
		name := t.Columns[i].UniqueConstraintName
		if name != nil && (prev == nil || *name != *prev) {
			names = append(names, *name)
			prev = name
		}
	}
	return names
}

// DistinctColumnTypeNames returns the distinct column type names in
// lexicographic order.
func (t *Table) DistinctColumnTypeNames() []string {
	return t.distinctTypeNames(nil)
}

// DistinctCustomColumnTypeNames returns the distinct column type names, in
// lexicographic order, for which the resolver has a custom template. Lookups
// use the lowercased type name. The result is always a subset of
// DistinctColumnTypeNames; a nil resolver yields an empty result.
func (t *Table) DistinctCustomColumnTypeNames(resolver TypeTemplateResolver) []string {
	if resolver == nil {
		return nil
	}
	return t.distinctTypeNames(func(typeName string) bool {
		return resolver.HasCustomTemplate(strings.ToLower(typeName))
	})
}

func (t *Table) distinctTypeNames(keep func(string) bool) []string {
	seen := make(map[string]struct{}, len(t.Columns))
	var names []string
	for _, c := range t.Columns {
		if _, ok := seen[c.TypeName]; ok {
			continue
		}
		seen[c.TypeName] = struct{}{}
		if keep == nil || keep(c.TypeName) {
			names = append(names, c.TypeName)
		}
	}
	sort.Strings(names)
	return names
}

// String renders the table as "<tableName>::<tableType>" for logs and
// diagnostics.
func (t *Table) String() string {
	return t.TableName + "::" + string(t.TableType)
}
