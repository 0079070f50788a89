package model

// Index describes a secondary index on one or more columns, in index
// column order.
type Index struct {
	Name     string   `json:"name" yaml:"name"`
	Columns  []string `json:"columns" yaml:"columns"`
	IsUnique bool     `json:"is_unique" yaml:"is_unique"`
}

// UniqueConstraint describes a named unique constraint and the columns it
// spans, in constraint column order.
type UniqueConstraint struct {
	Name    string   `json:"name" yaml:"name"`
	Columns []string `json:"columns" yaml:"columns"`
}
