package postgres

import (
	"context"
	"fmt"

	"github.com/sahaj0/CompilerOrm/internal/model"
)

// columnRow holds a row from information_schema.columns, joined with the
// column comment from the catalog.
type columnRow struct {
	Name       string  `db:"column_name"`
	DataType   string  `db:"data_type"`
	Ordinal    int     `db:"ordinal_position"`
	Size       int64   `db:"size"`
	Scale      int     `db:"scale"`
	IsNullable string  `db:"is_nullable"`
	Default    *string `db:"column_default"`
	IsIdentity string  `db:"is_identity"`
	Remarks    string  `db:"remarks"`
}

// keyColumnRow holds one member of a primary-key or unique constraint.
type keyColumnRow struct {
	ConstraintName string `db:"constraint_name"`
	ColumnName     string `db:"column_name"`
	Ordinal        int    `db:"ordinal_position"`
}

// indexColumnRow holds one member of a secondary index.
type indexColumnRow struct {
	IndexName string `db:"index_name"`
	IsUnique  bool   `db:"is_unique"`
	Column    string `db:"column_name"`
}

// foreignKeyRow holds one member of a foreign-key constraint.
type foreignKeyRow struct {
	ConstraintName   string `db:"constraint_name"`
	ColumnName       string `db:"column_name"`
	ReferencedTable  string `db:"referenced_table"`
	ReferencedColumn string `db:"referenced_column"`
}

// TableNames returns the table and view names in the configured schema.
func (c *PostgresCrawler) TableNames(ctx context.Context) ([]string, error) {
	const query = `SELECT table_name FROM information_schema.tables
		WHERE table_schema = $1 AND table_type IN ('BASE TABLE', 'VIEW')
		ORDER BY table_name`

	var names []string
	if err := c.db.SelectContext(ctx, &names, query, c.schemaName); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return names, nil
}

// Crawl introspects the configured schema and returns the populated metadata
// graph, with this crawler's quoting rule installed as the escaper.
func (c *PostgresCrawler) Crawl(ctx context.Context) (*model.Database, error) {
	const query = `SELECT table_name, table_type FROM information_schema.tables
		WHERE table_schema = $1 AND table_type IN ('BASE TABLE', 'VIEW')
		ORDER BY table_name`

	type tableRow struct {
		Name string `db:"table_name"`
		Type string `db:"table_type"`
	}

	var rows []tableRow
	if err := c.db.SelectContext(ctx, &rows, query, c.schemaName); err != nil {
		return nil, fmt.Errorf("crawl schema: %w", err)
	}

	db := model.NewDatabase("")
	db.ProductName = "PostgreSQL"
	db.DriverName = c.DriverName()
	db.SetEscaper(c.QuoteIdentifier)

	if err := c.db.GetContext(ctx, &db.Name, "SELECT current_database()"); err != nil {
		return nil, fmt.Errorf("current database: %w", err)
	}
	if err := c.db.GetContext(ctx, &db.ProductVersion, "SHOW server_version"); err != nil {
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
func (c *PostgresCrawler) CrawlTable(ctx context.Context, db *model.Database, tableName string) (*model.Table, error) {
	const query = `SELECT
			c.column_name,
			c.data_type,
			c.ordinal_position,
			COALESCE(c.character_maximum_length, c.numeric_precision, 0) AS size,
			COALESCE(c.numeric_scale, 0) AS scale,
			c.is_nullable,
			c.column_default,
			c.is_identity,
			COALESCE(col_description(pc.oid, c.ordinal_position), '') AS remarks
		FROM information_schema.columns c
		JOIN pg_catalog.pg_namespace pn ON pn.nspname = c.table_schema
		JOIN pg_catalog.pg_class pc ON pc.relnamespace = pn.oid AND pc.relname = c.table_name
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position`

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
		table.Columns = append(table.Columns, model.Column{
			Name:            row.Name,
			TypeName:        row.DataType,
			OrdinalPosition: row.Ordinal - 1,
			Size:            row.Size,
			DecimalDigits:   row.Scale,
			Nullable:        row.IsNullable == "YES",
			DefaultValue:    row.Default,
			Remarks:         row.Remarks,
			AutoIncrement:   autoIncrementFlag(row),
		})
	}

	if err := c.fillPrimaryKey(ctx, table); err != nil {
		return nil, err
	}
	if err := c.fillUniqueConstraints(ctx, table); err != nil {
		return nil, err
	}
	if err := c.fillIndices(ctx, table); err != nil {
		return nil, err
	}
	if err := c.fillForeignKeys(ctx, table); err != nil {
		return nil, err
	}
	c.fillSequenceName(ctx, table)

	return table, nil
}

// autoIncrementFlag decides the tri-state auto-increment answer for a
// column: identity columns and serial-style nextval() defaults are YES,
// everything else is NO. information_schema always answers for plain
// tables, so UNKNOWN does not arise here.
func autoIncrementFlag(row columnRow) model.Flag {
	if row.IsIdentity == "YES" {
		return model.FlagYes
	}
	if row.Default != nil && len(*row.Default) >= 8 && (*row.Default)[:8] == "nextval(" {
		return model.FlagYes
	}
	return model.FlagNo
}

// Constraint names are only unique per table in Postgres, not per schema,
// so the key_column_usage joins below must correlate on table_name as well;
// joining on constraint_name + table_schema alone pulls in the key rows of
// an identically named constraint on another table.
const primaryKeyQuery = `SELECT tc.constraint_name, kcu.column_name, kcu.ordinal_position
	FROM information_schema.table_constraints tc
	JOIN information_schema.key_column_usage kcu
		ON tc.constraint_name = kcu.constraint_name
		AND tc.table_schema = kcu.table_schema
		AND tc.table_name = kcu.table_name
	WHERE tc.constraint_type = 'PRIMARY KEY'
		AND tc.table_schema = $1
		AND tc.table_name = $2
	ORDER BY kcu.ordinal_position`

func (c *PostgresCrawler) fillPrimaryKey(ctx context.Context, table *model.Table) error {
	var rows []keyColumnRow
	if err := c.db.SelectContext(ctx, &rows, primaryKeyQuery, c.schemaName, table.TableName); err != nil {
		return fmt.Errorf("primary key for %q: %w", table.TableName, err)
	}

	for _, row := range rows {
		for i := range table.Columns {
			if table.Columns[i].Name == row.ColumnName {
				table.Columns[i].PrimaryKey = true
				// key_column_usage ordinals are 1-based; the model carries
				// 0-based key ordinals.
				table.Columns[i].PrimaryKeyIndex = row.Ordinal - 1
			}
		}
	}
	return nil
}

const uniqueConstraintsQuery = `SELECT tc.constraint_name, kcu.column_name, kcu.ordinal_position
	FROM information_schema.table_constraints tc
	JOIN information_schema.key_column_usage kcu
		ON tc.constraint_name = kcu.constraint_name
		AND tc.table_schema = kcu.table_schema
		AND tc.table_name = kcu.table_name
	WHERE tc.constraint_type = 'UNIQUE'
		AND tc.table_schema = $1
		AND tc.table_name = $2
	ORDER BY tc.constraint_name, kcu.ordinal_position`

func (c *PostgresCrawler) fillUniqueConstraints(ctx context.Context, table *model.Table) error {
	var rows []keyColumnRow
	if err := c.db.SelectContext(ctx, &rows, uniqueConstraintsQuery, c.schemaName, table.TableName); err != nil {
		return fmt.Errorf("unique constraints for %q: %w", table.TableName, err)
	}

	byName := make(map[string]*model.UniqueConstraint)
	var order []string
	for _, row := range rows {
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

func (c *PostgresCrawler) fillIndices(ctx context.Context, table *model.Table) error {
	// Flat rows instead of array_agg so plain database/sql scanning works;
	// grouping happens here. Primary-key and constraint-backed indexes are
	// reported elsewhere.
	const query = `SELECT
			i.relname AS index_name,
			ix.indisunique AS is_unique,
			a.attname AS column_name
		FROM pg_catalog.pg_class t
		JOIN pg_catalog.pg_index ix ON t.oid = ix.indrelid
		JOIN pg_catalog.pg_class i ON i.oid = ix.indexrelid
		JOIN pg_catalog.pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		JOIN pg_catalog.pg_namespace n ON n.oid = t.relnamespace
		WHERE n.nspname = $1
			AND t.relname = $2
			AND NOT ix.indisprimary
			AND NOT EXISTS (
				SELECT 1 FROM pg_catalog.pg_constraint con
				WHERE con.conindid = ix.indexrelid
			)
		ORDER BY i.relname, array_position(ix.indkey, a.attnum)`

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
		current.Columns = append(current.Columns, row.Column)
	}
	return nil
}

const foreignKeysQuery = `SELECT
		tc.constraint_name,
		kcu.column_name,
		ccu.table_name AS referenced_table,
		ccu.column_name AS referenced_column
	FROM information_schema.table_constraints tc
	JOIN information_schema.key_column_usage kcu
		ON tc.constraint_name = kcu.constraint_name
		AND tc.table_schema = kcu.table_schema
		AND tc.table_name = kcu.table_name
	JOIN information_schema.constraint_column_usage ccu
		ON ccu.constraint_name = tc.constraint_name
		AND ccu.table_schema = tc.table_schema
	WHERE tc.constraint_type = 'FOREIGN KEY'
		AND tc.table_schema = $1
		AND tc.table_name = $2
	ORDER BY kcu.ordinal_position`

func (c *PostgresCrawler) fillForeignKeys(ctx context.Context, table *model.Table) error {
	var rows []foreignKeyRow
	if err := c.db.SelectContext(ctx, &rows, foreignKeysQuery, c.schemaName, table.TableName); err != nil {
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

// fillSequenceName records the backing sequence of the table's
// auto-generated key column, when there is one. Absence is not an error.
func (c *PostgresCrawler) fillSequenceName(ctx context.Context, table *model.Table) {
	for _, col := range table.Columns {
		if !col.PrimaryKey || col.AutoIncrement != model.FlagYes {
			continue
		}
		var seq *string
		err := c.db.GetContext(ctx, &seq,
			"SELECT pg_get_serial_sequence($1, $2)",
			c.QuoteIdentifier(c.schemaName)+"."+c.QuoteIdentifier(table.TableName),
			col.Name,
		)
		if err == nil && seq != nil {
			table.SequenceName = *seq
			return
		}
	}
}
