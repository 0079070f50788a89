package mssql

import (
	"context"
	"fmt"

	"github.com/sahaj0/CompilerOrm/internal/model"
)

// columnRow holds a row from INFORMATION_SCHEMA.COLUMNS plus the identity
// flag from COLUMNPROPERTY.
type columnRow struct {
	Name       string  `db:"column_name"`
	DataType   string  `db:"data_type"`
	Ordinal    int     `db:"ordinal_position"`
	Size       int64   `db:"size"`
	Scale      int     `db:"scale"`
	IsNullable string  `db:"is_nullable"`
	Default    *string `db:"column_default"`
	IsIdentity int     `db:"is_identity"`
}

// keyColumnRow holds one member of a primary-key or unique constraint.
type keyColumnRow struct {
	ConstraintName string `db:"constraint_name"`
	ConstraintType string `db:"constraint_type"`
	ColumnName     string `db:"column_name"`
	Ordinal        int    `db:"ordinal_position"`
}

// indexColumnRow holds one member of a secondary index from sys.indexes.
type indexColumnRow struct {
	IndexName  string `db:"index_name"`
	IsUnique   bool   `db:"is_unique"`
	ColumnName string `db:"column_name"`
}

// foreignKeyRow holds one referencing column from sys.foreign_key_columns.
type foreignKeyRow struct {
	ConstraintName   string `db:"constraint_name"`
	ColumnName       string `db:"column_name"`
	ReferencedTable  string `db:"referenced_table"`
	ReferencedColumn string `db:"referenced_column"`
}

// TableNames returns the table and view names in the configured schema.
func (c *MSSQLCrawler) TableNames(ctx context.Context) ([]string, error) {
	const query = `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = @p1 AND TABLE_TYPE IN ('BASE TABLE', 'VIEW')
		ORDER BY TABLE_NAME`

	var names []string
	if err := c.db.SelectContext(ctx, &names, query, c.schemaName); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return names, nil
}

// Crawl introspects the configured schema and returns the populated metadata
// graph, with this crawler's quoting rule installed as the escaper.
func (c *MSSQLCrawler) Crawl(ctx context.Context) (*model.Database, error) {
	const query = `SELECT TABLE_NAME AS table_name, TABLE_TYPE AS table_type
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = @p1 AND TABLE_TYPE IN ('BASE TABLE', 'VIEW')
		ORDER BY TABLE_NAME`

	type tableRow struct {
		Name string `db:"table_name"`
		Type string `db:"table_type"`
	}

	var rows []tableRow
	if err := c.db.SelectContext(ctx, &rows, query, c.schemaName); err != nil {
		return nil, fmt.Errorf("crawl schema: %w", err)
	}

	db := model.NewDatabase("")
	db.ProductName = "Microsoft SQL Server"
	db.DriverName = c.DriverName()
	db.SetEscaper(c.QuoteIdentifier)

	if err := c.db.GetContext(ctx, &db.Name, "SELECT DB_NAME()"); err != nil {
		return nil, fmt.Errorf("current database: %w", err)
	}
	if err := c.db.GetContext(ctx, &db.ProductVersion,
		"SELECT CAST(SERVERPROPERTY('ProductVersion') AS NVARCHAR(128))"); err != nil {
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
func (c *MSSQLCrawler) CrawlTable(ctx context.Context, db *model.Database, tableName string) (*model.Table, error) {
	const query = `SELECT
			COLUMN_NAME AS column_name,
			DATA_TYPE AS data_type,
			ORDINAL_POSITION AS ordinal_position,
			COALESCE(CHARACTER_MAXIMUM_LENGTH, NUMERIC_PRECISION, 0) AS size,
			COALESCE(NUMERIC_SCALE, 0) AS scale,
			IS_NULLABLE AS is_nullable,
			COLUMN_DEFAULT AS column_default,
			COALESCE(COLUMNPROPERTY(OBJECT_ID(TABLE_SCHEMA + '.' + TABLE_NAME), COLUMN_NAME, 'IsIdentity'), 0) AS is_identity
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = @p1 AND TABLE_NAME = @p2
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
	table.CategoryName = db.Name
	table.TableType = model.TableTypeTable

	table.Columns = make([]model.Column, 0, len(rows))
	for _, row := range rows {
		auto := model.FlagNo
		if row.IsIdentity == 1 {
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

// fillKeys loads primary-key and unique-constraint membership in one pass.
func (c *MSSQLCrawler) fillKeys(ctx context.Context, table *model.Table) error {
	const query = `SELECT
			tc.CONSTRAINT_NAME AS constraint_name,
			tc.CONSTRAINT_TYPE AS constraint_type,
			kcu.COLUMN_NAME AS column_name,
			kcu.ORDINAL_POSITION AS ordinal_position
		FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
		JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
			ON tc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME
			AND tc.TABLE_SCHEMA = kcu.TABLE_SCHEMA
		WHERE tc.CONSTRAINT_TYPE IN ('PRIMARY KEY', 'UNIQUE')
			AND tc.TABLE_SCHEMA = @p1
			AND tc.TABLE_NAME = @p2
		ORDER BY tc.CONSTRAINT_NAME, kcu.ORDINAL_POSITION`

	var rows []keyColumnRow
	if err := c.db.SelectContext(ctx, &rows, query, c.schemaName, table.TableName); err != nil {
		return fmt.Errorf("key columns for %q: %w", table.TableName, err)
	}

	byName := make(map[string]*model.UniqueConstraint)
	var order []string
	for _, row := range rows {
		if row.ConstraintType == "PRIMARY KEY" {
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

// fillIndices loads secondary indices from the sys catalog, skipping
// primary-key and constraint-backed indexes.
func (c *MSSQLCrawler) fillIndices(ctx context.Context, table *model.Table) error {
	const query = `SELECT
			i.name AS index_name,
			i.is_unique,
			col.name AS column_name
		FROM sys.indexes i
		JOIN sys.index_columns ic
			ON i.object_id = ic.object_id AND i.index_id = ic.index_id
		JOIN sys.columns col
			ON ic.object_id = col.object_id AND ic.column_id = col.column_id
		JOIN sys.tables t ON i.object_id = t.object_id
		JOIN sys.schemas s ON t.schema_id = s.schema_id
		WHERE s.name = @p1
			AND t.name = @p2
			AND i.is_primary_key = 0
			AND i.is_unique_constraint = 0
			AND i.type > 0
		ORDER BY i.name, ic.key_ordinal`

	var rows []indexColumnRow
	if err := c.db.SelectContext(ctx, &rows, query, c.schemaName, table.TableName); err != nil {
		return fmt.Errorf("indices for %q: %w", table.TableName, err)
	}

	var current *model.Index
	for _, row := range rows {
		if current == nil || current.Name != row.IndexName {
			table.Indices = append(table.Indices, model.Index{
				Name:     row.IndexName,
				IsUnique: row.IsUnique,
			})
			current = &table.Indices[len(table.Indices)-1]
		}
		current.Columns = append(current.Columns, row.ColumnName)
	}
	return nil
}

func (c *MSSQLCrawler) fillForeignKeys(ctx context.Context, table *model.Table) error {
	const query = `SELECT
			fk.name AS constraint_name,
			pc.name AS column_name,
			rt.name AS referenced_table,
			rc.name AS referenced_column
		FROM sys.foreign_keys fk
		JOIN sys.foreign_key_columns fkc ON fk.object_id = fkc.constraint_object_id
		JOIN sys.tables pt ON fkc.parent_object_id = pt.object_id
		JOIN sys.schemas s ON pt.schema_id = s.schema_id
		JOIN sys.columns pc ON fkc.parent_object_id = pc.object_id AND fkc.parent_column_id = pc.column_id
		JOIN sys.tables rt ON fkc.referenced_object_id = rt.object_id
		JOIN sys.columns rc ON fkc.referenced_object_id = rc.object_id AND fkc.referenced_column_id = rc.column_id
		WHERE s.name = @p1 AND pt.name = @p2
		ORDER BY fk.name, fkc.constraint_column_id`

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
