package model

// EscapeFunc quotes a single SQL identifier for a specific dialect. Each
// crawler injects its dialect's rule when it builds the Database.
type EscapeFunc func(identifier string) string

// Database is the root of the introspected metadata graph. It owns its
// Tables and supplies the identifier-escaping rule they delegate to. The
// graph is populated once by a crawler and is read-only afterwards.
type Database struct {
	Name           string   `json:"name" yaml:"name"`
	ProductName    string   `json:"product_name,omitempty" yaml:"product_name,omitempty"`
	ProductVersion string   `json:"product_version,omitempty" yaml:"product_version,omitempty"`
	DriverName     string   `json:"driver_name,omitempty" yaml:"driver_name,omitempty"`
	Tables         []*Table `json:"tables" yaml:"tables"`

	escape EscapeFunc
}

// NewDatabase creates an empty Database with the given catalog name.
func NewDatabase(name string) *Database {
	return &Database{Name: name}
}

// SetEscaper installs the dialect's identifier-quoting rule. Passing nil
// resets to the identity escape.
func (d *Database) SetEscaper(fn EscapeFunc) {
	d.escape = fn
}

// EscapedName applies the dialect's quoting rule to an identifier. With no
// escaper installed the identifier is returned unchanged.
func (d *Database) EscapedName(identifier string) string {
	if d.escape == nil {
		return identifier
	}
	return d.escape(identifier)
}

// AddTable appends a table to the database.
func (d *Database) AddTable(t *Table) {
	if t == nil {
		return
	}
	d.Tables = append(d.Tables, t)
}

// TableByName returns the table with the given name, or nil if the database
// has no such table.
func (d *Database) TableByName(name string) *Table {
	for _, t := range d.Tables {
		if t.TableName == name {
			return t
		}
	}
	return nil
}
