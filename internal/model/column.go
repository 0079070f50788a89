package model

// Column describes a single table column as introspected from the catalog.
// OrdinalPosition is the column's position within the table's declared order;
// PrimaryKeyIndex is its 0-based position within the primary key's declared
// key order and is meaningful only when PrimaryKey is true.
type Column struct {
	Name            string  `json:"name" yaml:"name"`
	TypeName        string  `json:"type_name" yaml:"type_name"`
	OrdinalPosition int     `json:"ordinal_position" yaml:"ordinal_position"`
	Size            int64   `json:"size,omitempty" yaml:"size,omitempty"`
	DecimalDigits   int     `json:"decimal_digits,omitempty" yaml:"decimal_digits,omitempty"`
	Nullable        bool    `json:"nullable" yaml:"nullable"`
	DefaultValue    *string `json:"default_value,omitempty" yaml:"default_value,omitempty"`
	Remarks         string  `json:"remarks,omitempty" yaml:"remarks,omitempty"`
	PrimaryKey      bool    `json:"primary_key" yaml:"primary_key"`
	PrimaryKeyIndex int     `json:"primary_key_index,omitempty" yaml:"primary_key_index,omitempty"`
	AutoIncrement   Flag    `json:"auto_increment" yaml:"auto_increment"`

	// UniqueConstraintName tags the column with the unique-constraint group
	// it belongs to, or nil when it is not part of one. Columns of the same
	// group are expected to be contiguous in the table's column order; the
	// grouping scan in Table relies on that.
	UniqueConstraintName *string `json:"unique_constraint_name,omitempty" yaml:"unique_constraint_name,omitempty"`

	ForeignKeys []ForeignKey `json:"foreign_keys,omitempty" yaml:"foreign_keys,omitempty"`
}

// ForeignKey records that a column references a column of another table.
type ForeignKey struct {
	ConstraintName   string `json:"constraint_name,omitempty" yaml:"constraint_name,omitempty"`
	ReferencedTable  string `json:"referenced_table" yaml:"referenced_table"`
	ReferencedColumn string `json:"referenced_column" yaml:"referenced_column"`
}
