package model

import "strings"

// TableType classifies a table the way JDBC-style metadata does. Databases
// report free-form strings; ParseTableType folds them onto the closed set
// below so the generator can switch exhaustively, with TableTypeOther as the
// explicit fallback for anything unmapped.
type TableType string

const (
	TableTypeTable           TableType = "TABLE"
	TableTypeView            TableType = "VIEW"
	TableTypeSystemTable     TableType = "SYSTEM TABLE"
	TableTypeGlobalTemporary TableType = "GLOBAL TEMPORARY"
	TableTypeLocalTemporary  TableType = "LOCAL TEMPORARY"
	TableTypeAlias           TableType = "ALIAS"
	TableTypeSynonym         TableType = "SYNONYM"
	TableTypeOther           TableType = "OTHER"
)

// ParseTableType normalizes a database-reported table type string. Matching
// is case-insensitive and tolerant of underscore separators ("BASE TABLE"
// and "SYSTEM_TABLE" both map).
func ParseTableType(s string) TableType {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, "_", " ")
	switch normalized {
	case "TABLE", "BASE TABLE":
		return TableTypeTable
	case "VIEW", "MATERIALIZED VIEW":
		return TableTypeView
	case "SYSTEM TABLE", "SYSTEM VIEW":
		return TableTypeSystemTable
	case "GLOBAL TEMPORARY":
		return TableTypeGlobalTemporary
	case "LOCAL TEMPORARY", "TEMPORARY", "TEMPORARY TABLE":
		return TableTypeLocalTemporary
	case "ALIAS":
		return TableTypeAlias
	case "SYNONYM":
		return TableTypeSynonym
	default:
		return TableTypeOther
	}
}

// String returns the canonical name of the table type.
func (t TableType) String() string {
	return string(t)
}
