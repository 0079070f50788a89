package mysql

import (
	"context"
	"fmt"
	"strings"

	"github.com/sahaj0/CompilerOrm/internal/model"
)

// columnRow holds a row from information_schema.COLUMNS.
type columnRow struct {
	Name       string  `db:"column_name"`
	DataType   string  `db:"data_type"`
	Ordinal    int     `db:"ordinal_position"`
	Size       int64   `db:"size"`
	Scale      int     `db:"scale"`
	IsNullable string  `db:"is_nullable"`
	Default    *string `db:"column_default"`
	Extra      string  `db:"extra"`
	Comment    string  `db:"column_comment"`
}

// keyColumnRow holds one member of a primary-key or unique constraint.
type keyColumnRow struct {
	ConstraintName string `db:"constraint_name"`
	ColumnName     string `db:"column_name"`
	Ordinal        int    `db:"ordinal_position"`
}

// statisticsRow holds one member of an index from information_schema.STATISTICS.
type statisticsRow struct {
	IndexName  string `db:"index_name"`
	NonUnique  int    `db:"non_unique"`
	ColumnName string `db:"column_name"`
	SeqInIndex int    `db:"seq_in_index"`
}

// foreignKeyRow holds one referencing column from KEY_COLUMN_USAGE.
type foreignKeyRow struct {
	ConstraintName   string `db:"constraint_name"`
	ColumnName       string `db:"column_name"`
	ReferencedTable  string `db:"referenced_table"`
	ReferencedColumn string `db:"referenced_column"`
}

// TableNames returns the table and view names in the configured schema.
func (c *MySQLCrawler) TableNames(ctx context.Context) ([]string, error) {
	const query = `SELECT TABLE_NAME FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = ? AND TABLE_TYPE IN ('BASE TABLE', 'VIEW')
		ORDER BY TABLE_NAME`

	var names []string
	if err := c.db.SelectContext(ctx, &names, query, c.schemaName); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return names, nil
}

// Crawl introspects the configured schema and returns the populated metadata
// graph, with this crawler's quoting rule installed as the escaper.
func (c *MySQLCrawler) Crawl(ctx context.Context) (*model.Database, error) {
	const query = `SELECT TABLE_NAME AS table_name, TABLE_TYPE AS table_type
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = ? AND TABLE_TYPE IN ('BASE TABLE', 'VIEW')
		ORDER BY TABLE_NAME`

	type tableRow struct {
		Name string `db:"table_name"`
		Type string `db:"table_type"`
	}

	var rows []tableRow
	if err := c.db.SelectContext(ctx, &rows, query, c.schemaName); err != nil {
		return nil, fmt.Errorf("crawl schema: %w", err)
	}

	db := model.NewDatabase(c.schemaName)
	db.ProductName = "MySQL"
	db.DriverName = c.DriverName()
	db.SetEscaper(c.QuoteIdentifier)

	if err := c.db.GetContext(ctx, &db.ProductVersion, "SELECT VERSION()"); err != nil {
		return nil, fmt.Errorf("server version: %w", err)
	}

	for _, row := range rows {
		table, err := c.CrawlTable(ctx, db, row.Name)
		if err != nil {
			return nil, fmt.Errorf("crawl table %q: %w", row.Name, err)
		}
		table.TableType = model.ParseTableType(row.Type)
		db.AddTable(table)
	}

	return db, nil
}

// CrawlTable introspects a single table or view and returns it bound to db.
func (c *MySQLCrawler) CrawlTable(ctx context.Context, db *model.Database, tableName string) (*model.Table, error) {
	const query = `SELECT
			COLUMN_NAME AS column_name,
			DATA_TYPE AS data_type,
			ORDINAL_POSITION AS ordinal_position,
			COALESCE(CHARACTER_MAXIMUM_LENGTH, NUMERIC_PRECISION, 0) AS size,
			COALESCE(NUMERIC_SCALE, 0) AS scale,
			IS_NULLABLE AS is_nullable,
			COLUMN_DEFAULT AS column_default,
			EXTRA AS extra,
			COLUMN_COMMENT AS column_comment
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`

	var rows []columnRow
	if err := c.db.SelectContext(ctx, &rows, query, c.schemaName, tableName); err != nil {
		return nil, fmt.Errorf("columns for %q: %w", tableName, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("table %q not found in schema %q", tableName, c.schemaName)
	}

	table := model.NewTable(db)
	table.TableName = tableName
	table.SchemaName = c.schemaName
	table.CategoryName = c.schemaName
	table.TableType = model.TableTypeTable

	table.Columns = make([]model.Column, 0, len(rows))
	for _, row := range rows {
		auto := model.FlagNo
		if strings.Contains(strings.ToLower(row.Extra), "auto_increment") {
			auto = model.FlagYes
		}

		table.Columns = append(table.Columns, model.Column{
			Name:            row.Name,
			TypeName:        row.DataType,
			OrdinalPosition: row.Ordinal - 1,
			Size:            row.Size,
			DecimalDigits:   row.Scale,
			Nullable:        row.IsNullable == "YES",
			DefaultValue:    row.Default,
			Remarks:         row.Comment,
			AutoIncrement:   auto,
		})
	}

	if err := c.fillKeys(ctx, table); err != nil {
		return nil, err
	}
	if err := c.fillIndices(ctx, table); err != nil {
		return nil, err
	}
	if err := c.fillForeignKeys(ctx, table); err != nil {
		return nil, err
	}

	return table, nil
}

// fillKeys loads primary-key and unique-constraint membership in one pass
// over TABLE_CONSTRAINTS + KEY_COLUMN_USAGE. MySQL names every primary key
// constraint "PRIMARY".
func (c *MySQLCrawler) fillKeys(ctx context.Context, table *model.Table) error {
	const query = `SELECT
			tc.CONSTRAINT_NAME AS constraint_name,
			kcu.COLUMN_NAME AS column_name,
			kcu.ORDINAL_POSITION AS ordinal_position
		FROM information_schema.TABLE_CONSTRAINTS tc
		JOIN information_schema.KEY_COLUMN_USAGE kcu
			ON tc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME
			AND tc.TABLE_SCHEMA = kcu.TABLE_SCHEMA
			AND tc.TABLE_NAME = kcu.TABLE_NAME
		WHERE tc.CONSTRAINT_TYPE IN ('PRIMARY KEY', 'UNIQUE')
			AND tc.TABLE_SCHEMA = ?
			AND tc.TABLE_NAME = ?
		ORDER BY tc.CONSTRAINT_NAME, kcu.ORDINAL_POSITION`

	var rows []keyColumnRow
	if err := c.db.SelectContext(ctx, &rows, query, c.schemaName, table.TableName); err != nil {
		return fmt.Errorf("key columns for %q: %w", table.TableName, err)
	}

	byName := make(map[string]*model.UniqueConstraint)
	var order []string
	for _, row := range rows {
		if row.ConstraintName == "PRIMARY" {
			for i := range table.Columns {
				if table.Columns[i].Name == row.ColumnName {
					table.Columns[i].PrimaryKey = true
					table.Columns[i].PrimaryKeyIndex = row.Ordinal - 1
				}
			}
			continue
		}

		uc, ok := byName[row.ConstraintName]
		if !ok {
			uc = &model.UniqueConstraint{Name: row.ConstraintName}
			byName[row.ConstraintName] = uc
			order = append(order, row.ConstraintName)
		}
		uc.Columns = append(uc.Columns, row.ColumnName)

		for i := range table.Columns {
			if table.Columns[i].Name == row.ColumnName && table.Columns[i].UniqueConstraintName == nil {
				name := row.ConstraintName
				table.Columns[i].UniqueConstraintName = &name
			}
		}
	}

	for _, name := range order {
		table.UniqueConstraints = append(table.UniqueConstraints, *byName[name])
	}
	return nil
}

// fillIndices loads secondary indices from STATISTICS, skipping the primary
// key and the indexes that back unique constraints (those are reported as
// UniqueConstraints).
func (c *MySQLCrawler) fillIndices(ctx context.Context, table *model.Table) error {
	const query = `SELECT
			INDEX_NAME AS index_name,
			NON_UNIQUE AS non_unique,
			COLUMN_NAME AS column_name,
			SEQ_IN_INDEX AS seq_in_index
		FROM information_schema.STATISTICS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY INDEX_NAME, SEQ_IN_INDEX`

	var rows []statisticsRow
	if err := c.db.SelectContext(ctx, &rows, query, c.schemaName, table.TableName); err != nil {
		return fmt.Errorf("indices for %q: %w", table.TableName, err)
	}

	constraintBacked := make(map[string]bool, len(table.UniqueConstraints))
	for _, uc := range table.UniqueConstraints {
		constraintBacked[uc.Name] = true
	}

	var current *model.Index
	for _, row := range rows {
		if row.IndexName == "PRIMARY" || constraintBacked[row.IndexName] {
			continue
		}
		if current == nil || current.Name != row.IndexName {
			table.Indices = append(table.Indices, model.Index{
				Name:     row.IndexName,
				IsUnique: row.NonUnique == 0,
			})
			current = &table.Indices[len(table.Indices)-1]
		}
		current.Columns = append(current.Columns, row.ColumnName)
	}
	return nil
}

func (c *MySQLCrawler) fillForeignKeys(ctx context.Context, table *model.Table) error {
	const query = `SELECT
			CONSTRAINT_NAME AS constraint_name,
			COLUMN_NAME AS column_name,
			REFERENCED_TABLE_NAME AS referenced_table,
			REFERENCED_COLUMN_NAME AS referenced_column
		FROM information_schema.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = ?
			AND TABLE_NAME = ?
			AND REFERENCED_TABLE_NAME IS NOT NULL
		ORDER BY CONSTRAINT_NAME, ORDINAL_POSITION`

	var rows []foreignKeyRow
	if err := c.db.SelectContext(ctx, &rows, query, c.schemaName, table.TableName); err != nil {
		return fmt.Errorf("foreign keys for %q: %w", table.TableName, err)
	}

	for _, row := range rows {
		for i := range table.Columns {
			if table.Columns[i].Name == row.ColumnName {
				table.Columns[i].ForeignKeys = append(table.Columns[i].ForeignKeys, model.ForeignKey{
					ConstraintName:   row.ConstraintName,
					ReferencedTable:  row.ReferencedTable,
					ReferencedColumn: row.ReferencedColumn,
				})
			}
		}
	}
	return nil
}
