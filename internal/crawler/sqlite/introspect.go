package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/sahaj0/CompilerOrm/internal/model"
)

// tableInfoRow holds a row from PRAGMA table_info().
type tableInfoRow struct {
	CID     int     `db:"cid"`
	Name    string  `db:"name"`
	Type    string  `db:"type"`
	NotNull int     `db:"notnull"`
	Default *string `db:"dflt_value"`
	PK      int     `db:"pk"`
}

// indexListRow holds a row from PRAGMA index_list().
type indexListRow struct {
	Seq     int    `db:"seq"`
	Name    string `db:"name"`
	Unique  int    `db:"unique"`
	Origin  string `db:"origin"`
	Partial int    `db:"partial"`
}

// indexInfoRow holds a row from PRAGMA index_info().
type indexInfoRow struct {
	SeqNo int     `db:"seqno"`
	CID   int     `db:"cid"`
	Name  *string `db:"name"`
}

// foreignKeyRow holds a row from PRAGMA foreign_key_list().
type foreignKeyRow struct {
	ID       int    `db:"id"`
	Seq      int    `db:"seq"`
	Table    string `db:"table"`
	From     string `db:"from"`
	To       string `db:"to"`
	OnUpdate string `db:"on_update"`
	OnDelete string `db:"on_delete"`
	Match    string `db:"match"`
}

// TableNames returns the user table and view names in sorted order.
func (c *SQLiteCrawler) TableNames(ctx context.Context) ([]string, error) {
	const query = `SELECT name FROM sqlite_master
		WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%'
		ORDER BY name`

	var names []string
	if err := c.db.SelectContext(ctx, &names, query); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return names, nil
}

// Crawl introspects the whole database and returns the populated metadata
// graph, with this crawler's quoting rule installed as the escaper.
func (c *SQLiteCrawler) Crawl(ctx context.Context) (*model.Database, error) {
	const query = `SELECT name, type FROM sqlite_master
		WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%'
		ORDER BY name`

	type masterRow struct {
		Name string `db:"name"`
		Type string `db:"type"`
	}

	var rows []masterRow
	if err := c.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("crawl schema: %w", err)
	}

	db := model.NewDatabase(c.databaseName())
	db.ProductName = "SQLite"
	db.DriverName = c.DriverName()
	db.SetEscaper(c.QuoteIdentifier)

	if err := c.db.GetContext(ctx, &db.ProductVersion, "SELECT sqlite_version()"); err != nil {
		return nil, fmt.Errorf("sqlite version: %w", err)
	}

	for _, row := range rows {
		table, err := c.CrawlTable(ctx, db, row.Name)
		if err != nil {
			return nil, fmt.Errorf("crawl table %q: %w", row.Name, err)
		}
		if row.Type == "view" {
			table.TableType = model.TableTypeView
		}
		db.AddTable(table)
	}

	return db, nil
}

// CrawlTable introspects a single table or view and returns it bound to db.
func (c *SQLiteCrawler) CrawlTable(ctx context.Context, db *model.Database, tableName string) (*model.Table, error) {
	pragmaQuery := fmt.Sprintf("PRAGMA table_info(%s)", c.QuoteIdentifier(tableName))
	var infoRows []tableInfoRow
	if err := c.db.SelectContext(ctx, &infoRows, pragmaQuery); err != nil {
		return nil, fmt.Errorf("table_info for %q: %w", tableName, err)
	}

	if len(infoRows) == 0 {
		return nil, fmt.Errorf("table %q not found", tableName)
	}

	table := model.NewTable(db)
	table.TableName = tableName
	table.SchemaName = c.schemaName
	table.TableType = model.TableTypeTable

	autoCol := c.autoIncrementColumn(ctx, tableName, infoRows)

	table.Columns = make([]model.Column, 0, len(infoRows))
	for _, row := range infoRows {
		typeName, size, digits := splitTypeName(row.Type)
		isPK := row.PK > 0

		auto := model.FlagNo
		if row.Name == autoCol {
			auto = model.FlagYes
		}

		col := model.Column{
			Name:            row.Name,
			TypeName:        typeName,
			OrdinalPosition: row.CID,
			Size:            size,
			DecimalDigits:   digits,
			Nullable:        row.NotNull == 0 && !isPK,
			DefaultValue:    row.Default,
			PrimaryKey:      isPK,
			AutoIncrement:   auto,
		}
		if isPK {
			// PRAGMA pk is the 1-based position within the key; the model
			// carries 0-based key ordinals.
			col.PrimaryKeyIndex = row.PK - 1
		}
		table.Columns = append(table.Columns, col)
	}

	if err := c.fillIndices(ctx, table); err != nil {
		return nil, err
	}
	if err := c.fillForeignKeys(ctx, table); err != nil {
		return nil, err
	}

	return table, nil
}

// autoIncrementColumn returns the name of the table's AUTOINCREMENT column,
// or "" when there is none. SQLite exposes the keyword only through the
// original CREATE TABLE text in sqlite_master, and permits it on exactly one
// INTEGER PRIMARY KEY column.
func (c *SQLiteCrawler) autoIncrementColumn(ctx context.Context, tableName string, columns []tableInfoRow) string {
	var createSQL string
	err := c.db.GetContext(ctx,
		&createSQL,
		"SELECT COALESCE(sql, '') FROM sqlite_master WHERE type = 'table' AND name = ?",
		tableName,
	)
	if err != nil || !strings.Contains(strings.ToUpper(createSQL), "AUTOINCREMENT") {
		return ""
	}

	for _, col := range columns {
		if col.PK > 0 && strings.EqualFold(col.Type, "INTEGER") {
			return col.Name
		}
	}
	return ""
}

// fillIndices loads index_list/index_info and splits the results into
// secondary indices and unique constraints. Members of a unique constraint
// get their UniqueConstraintName tag here.
func (c *SQLiteCrawler) fillIndices(ctx context.Context, table *model.Table) error {
	listQuery := fmt.Sprintf("PRAGMA index_list(%s)", c.QuoteIdentifier(table.TableName))
	var listRows []indexListRow
	if err := c.db.SelectContext(ctx, &listRows, listQuery); err != nil {
		return fmt.Errorf("index_list for %q: %w", table.TableName, err)
	}

	for _, idx := range listRows {
		infoQuery := fmt.Sprintf("PRAGMA index_info(%s)", c.QuoteIdentifier(idx.Name))
		var infoRows []indexInfoRow
		if err := c.db.SelectContext(ctx, &infoRows, infoQuery); err != nil {
			return fmt.Errorf("index_info for %q: %w", idx.Name, err)
		}

		columns := make([]string, 0, len(infoRows))
		for _, info := range infoRows {
			if info.Name != nil {
				columns = append(columns, *info.Name)
			}
		}

		switch idx.Origin {
		case "pk":
			// Covered by PRAGMA table_info.
		case "u":
			// Index backing a UNIQUE constraint.
			table.UniqueConstraints = append(table.UniqueConstraints, model.UniqueConstraint{
				Name:    idx.Name,
				Columns: columns,
			})
			c.tagUniqueColumns(table, idx.Name, columns)
		default:
			table.Indices = append(table.Indices, model.Index{
				Name:     idx.Name,
				Columns:  columns,
				IsUnique: idx.Unique == 1,
			})
		}
	}
	return nil
}

// tagUniqueColumns stamps the constraint name onto its member columns. A
// column already claimed by another constraint keeps its first group.
func (c *SQLiteCrawler) tagUniqueColumns(table *model.Table, constraintName string, members []string) {
	for _, member := range members {
		for i := range table.Columns {
			if table.Columns[i].Name == member && table.Columns[i].UniqueConstraintName == nil {
				name := constraintName
				table.Columns[i].UniqueConstraintName = &name
			}
		}
	}
}

func (c *SQLiteCrawler) fillForeignKeys(ctx context.Context, table *model.Table) error {
	fkQuery := fmt.Sprintf("PRAGMA foreign_key_list(%s)", c.QuoteIdentifier(table.TableName))
	var fkRows []foreignKeyRow
	if err := c.db.SelectContext(ctx, &fkRows, fkQuery); err != nil {
		return fmt.Errorf("foreign_key_list for %q: %w", table.TableName, err)
	}

	for _, fk := range fkRows {
		for i := range table.Columns {
			if table.Columns[i].Name == fk.From {
				table.Columns[i].ForeignKeys = append(table.Columns[i].ForeignKeys, model.ForeignKey{
					ReferencedTable:  fk.Table,
					ReferencedColumn: fk.To,
				})
			}
		}
	}
	return nil
}

// splitTypeName breaks a declared SQLite type like "VARCHAR(255)" or
// "DECIMAL(10,2)" into the bare type name, size, and decimal digits.
func splitTypeName(declared string) (name string, size int64, digits int) {
	declared = strings.TrimSpace(declared)
	open := strings.IndexByte(declared, '(')
	if open < 0 {
		return declared, 0, 0
	}
	end := strings.IndexByte(declared, ')')
	if end < open {
		return declared, 0, 0
	}

	name = strings.TrimSpace(declared[:open])
	args := strings.Split(declared[open+1:end], ",")
	if len(args) > 0 {
		fmt.Sscanf(strings.TrimSpace(args[0]), "%d", &size)
	}
	if len(args) > 1 {
		fmt.Sscanf(strings.TrimSpace(args[1]), "%d", &digits)
	}
	return name, size, digits
}
