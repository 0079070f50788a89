package oracle

import (
	"context"
	"fmt"
	"strings"

	"github.com/sahaj0/CompilerOrm/internal/model"
)

// columnRow holds a row from all_tab_columns joined with all_col_comments.
type columnRow struct {
	Name       string  `db:"column_name"`
	DataType   string  `db:"data_type"`
	ColumnID   int     `db:"column_id"`
	Size       int64   `db:"size_chars"`
	Scale      int     `db:"scale"`
	Nullable   string  `db:"nullable"`
	Default    *string `db:"data_default"`
	IsIdentity string  `db:"identity_column"`
	Remarks    *string `db:"remarks"`
}

// consColumnRow holds one member of a primary-key or unique constraint.
type consColumnRow struct {
	ConstraintName string `db:"constraint_name"`
	ConstraintType string `db:"constraint_type"`
	ColumnName     string `db:"column_name"`
	Position       int    `db:"position"`
}

// indexColumnRow holds one member of a secondary index.
type indexColumnRow struct {
	IndexName  string `db:"index_name"`
	Uniqueness string `db:"uniqueness"`
	ColumnName string `db:"column_name"`
}

// foreignKeyRow holds one referencing column resolved through the
// referenced constraint.
type foreignKeyRow struct {
	ConstraintName   string `db:"constraint_name"`
	ColumnName       string `db:"column_name"`
	ReferencedTable  string `db:"referenced_table"`
	ReferencedColumn string `db:"referenced_column"`
}

// TableNames returns the table and view names in the configured schema.
func (c *OracleCrawler) TableNames(ctx context.Context) ([]string, error) {
	const query = `SELECT object_name FROM all_objects
		WHERE owner = :1 AND object_type IN ('TABLE', 'VIEW')
		ORDER BY object_name`

	var names []string
	if err := c.db.SelectContext(ctx, &names, query, c.schemaName); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return names, nil
}

// Crawl introspects the configured schema and returns the populated metadata
// graph, with this crawler's quoting rule installed as the escaper.
func (c *OracleCrawler) Crawl(ctx context.Context) (*model.Database, error) {
	const query = `SELECT object_name AS table_name, object_type AS table_type
		FROM all_objects
		WHERE owner = :1 AND object_type IN ('TABLE', 'VIEW')
		ORDER BY object_name`

	type tableRow struct {
		Name string `db:"table_name"`
		Type string `db:"table_type"`
	}

	var rows []tableRow
	if err := c.db.SelectContext(ctx, &rows, query, c.schemaName); err != nil {
		return nil, fmt.Errorf("crawl schema: %w", err)
	}

	db := model.NewDatabase("")
	db.ProductName = "Oracle"
	db.DriverName = c.DriverName()
	db.SetEscaper(c.QuoteIdentifier)

	if err := c.db.GetContext(ctx, &db.Name,
		"SELECT sys_context('USERENV', 'DB_NAME') FROM dual"); err != nil {
		return nil, fmt.Errorf("database name: %w", err)
	}
	if err := c.db.GetContext(ctx, &db.ProductVersion,
		"SELECT version FROM product_component_version WHERE ROWNUM = 1"); err != nil {
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
func (c *OracleCrawler) CrawlTable(ctx context.Context, db *model.Database, tableName string) (*model.Table, error) {
	const query = `SELECT
			tc.column_name,
			tc.data_type,
			tc.column_id,
			COALESCE(tc.data_precision, tc.char_length, 0) AS size_chars,
			COALESCE(tc.data_scale, 0) AS scale,
			tc.nullable,
			tc.data_default,
			tc.identity_column,
			cc.comments AS remarks
		FROM all_tab_columns tc
		LEFT JOIN all_col_comments cc
			ON cc.owner = tc.owner
			AND cc.table_name = tc.table_name
			AND cc.column_name = tc.column_name
		WHERE tc.owner = :1 AND tc.table_name = :2
		ORDER BY tc.column_id`

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
	table.TableType = model.TableTypeTable

	table.Columns = make([]model.Column, 0, len(rows))
	for _, row := range rows {
		auto := model.FlagNo
		if row.IsIdentity == "YES" {
			auto = model.FlagYes
		}

		remarks := ""
		if row.Remarks != nil {
			remarks = *row.Remarks
		}

		table.Columns = append(table.Columns, model.Column{
			Name:            row.Name,
			TypeName:        row.DataType,
			OrdinalPosition: row.ColumnID - 1,
			Size:            row.Size,
			DecimalDigits:   row.Scale,
			Nullable:        row.Nullable == "Y",
			DefaultValue:    row.Default,
			Remarks:         remarks,
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
	c.fillSequenceName(ctx, table)

	return table, nil
}

// fillKeys loads primary-key ('P') and unique ('U') constraint membership.
func (c *OracleCrawler) fillKeys(ctx context.Context, table *model.Table) error {
	const query = `SELECT
			ac.constraint_name,
			ac.constraint_type,
			acc.column_name,
			acc.position
		FROM all_constraints ac
		JOIN all_cons_columns acc
			ON ac.owner = acc.owner AND ac.constraint_name = acc.constraint_name
		WHERE ac.constraint_type IN ('P', 'U')
			AND ac.owner = :1
			AND ac.table_name = :2
		ORDER BY ac.constraint_name, acc.position`

	var rows []consColumnRow
	if err := c.db.SelectContext(ctx, &rows, query, c.schemaName, table.TableName); err != nil {
		return fmt.Errorf("key columns for %q: %w", table.TableName, err)
	}

	byName := make(map[string]*model.UniqueConstraint)
	var order []string
	for _, row := range rows {
		if row.ConstraintType == "P" {
			for i := range table.Columns {
				if table.Columns[i].Name == row.ColumnName {
					table.Columns[i].PrimaryKey = true
					table.Columns[i].PrimaryKeyIndex = row.Position - 1
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

// fillIndices loads secondary indices, skipping the ones that back
// constraints.
func (c *OracleCrawler) fillIndices(ctx context.Context, table *model.Table) error {
	const query = `SELECT
			ai.index_name,
			ai.uniqueness,
			aic.column_name
		FROM all_indexes ai
		JOIN all_ind_columns aic
			ON ai.owner = aic.index_owner AND ai.index_name = aic.index_name
		WHERE ai.table_owner = :1
			AND ai.table_name = :2
			AND NOT EXISTS (
				SELECT 1 FROM all_constraints ac
				WHERE ac.owner = ai.table_owner AND ac.index_name = ai.index_name
			)
		ORDER BY ai.index_name, aic.column_position`

	var rows []indexColumnRow
	if err := c.db.SelectContext(ctx, &rows, query, c.schemaName, table.TableName); err != nil {
		return fmt.Errorf("indices for %q: %w", table.TableName, err)
	}

	var current *model.Index
	for _, row := range rows {
		if current == nil || current.Name != row.IndexName {
			table.Indices = append(table.Indices, model.Index{
				Name:     row.IndexName,
				IsUnique: row.Uniqueness == "UNIQUE",
			})
			current = &table.Indices[len(table.Indices)-1]
		}
		current.Columns = append(current.Columns, row.ColumnName)
	}
	return nil
}

// fillForeignKeys resolves 'R' constraints through the constraint they
// reference to find the target table and column.
func (c *OracleCrawler) fillForeignKeys(ctx context.Context, table *model.Table) error {
	const query = `SELECT
			ac.constraint_name,
			acc.column_name,
			rcc.table_name AS referenced_table,
			rcc.column_name AS referenced_column
		FROM all_constraints ac
		JOIN all_cons_columns acc
			ON ac.owner = acc.owner AND ac.constraint_name = acc.constraint_name
		JOIN all_cons_columns rcc
			ON ac.r_owner = rcc.owner
			AND ac.r_constraint_name = rcc.constraint_name
			AND acc.position = rcc.position
		WHERE ac.constraint_type = 'R'
			AND ac.owner = :1
			AND ac.table_name = :2
		ORDER BY ac.constraint_name, acc.position`

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

// fillSequenceName records the "<TABLE>_SEQ" sequence when the schema has
// one; Oracle schemas that predate identity columns feed keys from such
// sequences by convention. Absence is not an error.
func (c *OracleCrawler) fillSequenceName(ctx context.Context, table *model.Table) {
	var name string
	err := c.db.GetContext(ctx, &name,
		"SELECT sequence_name FROM all_sequences WHERE sequence_owner = :1 AND sequence_name = :2",
		c.schemaName,
		strings.ToUpper(table.TableName)+"_SEQ",
	)
	if err == nil {
		table.SequenceName = name
	}
}
