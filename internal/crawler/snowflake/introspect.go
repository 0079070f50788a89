package snowflake

import (
	"context"
	"fmt"
	"strings"

	"github.com/sahaj0/CompilerOrm/internal/model"
)

// columnRow holds a row from INFORMATION_SCHEMA.COLUMNS. Snowflake returns
// uppercase result column names.
type columnRow struct {
	Name       string  `db:"COLUMN_NAME"`
	DataType   string  `db:"DATA_TYPE"`
	Ordinal    int     `db:"ORDINAL_POSITION"`
	Size       int64   `db:"SIZE"`
	Scale      int     `db:"SCALE"`
	IsNullable string  `db:"IS_NULLABLE"`
	Default    *string `db:"COLUMN_DEFAULT"`
	Comment    *string `db:"COMMENT"`
}

// TableNames returns the table and view names in the configured schema.
func (c *SnowflakeCrawler) TableNames(ctx context.Context) ([]string, error) {
	const query = `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES
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
func (c *SnowflakeCrawler) Crawl(ctx context.Context) (*model.Database, error) {
	const query = `SELECT TABLE_NAME AS "table_name", TABLE_TYPE AS "table_type"
		FROM INFORMATION_SCHEMA.TABLES
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

	db := model.NewDatabase("")
	db.ProductName = "Snowflake"
	db.DriverName = c.DriverName()
	db.SetEscaper(c.QuoteIdentifier)

	if err := c.db.GetContext(ctx, &db.Name, "SELECT CURRENT_DATABASE()"); err != nil {
		return nil, fmt.Errorf("current database: %w", err)
	}
	if err := c.db.GetContext(ctx, &db.ProductVersion, "SELECT CURRENT_VERSION()"); err != nil {
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
// Key metadata is not in Snowflake's information_schema constraint views for
// standard accounts, so primary and unique keys come from SHOW commands.
func (c *SnowflakeCrawler) CrawlTable(ctx context.Context, db *model.Database, tableName string) (*model.Table, error) {
	const query = `SELECT
			COLUMN_NAME,
			DATA_TYPE,
			ORDINAL_POSITION,
			COALESCE(CHARACTER_MAXIMUM_LENGTH, NUMERIC_PRECISION, 0) AS "SIZE",
			COALESCE(NUMERIC_SCALE, 0) AS "SCALE",
			IS_NULLABLE,
			COLUMN_DEFAULT,
			COMMENT
		FROM INFORMATION_SCHEMA.COLUMNS
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
	table.CategoryName = db.Name
	table.TableType = model.TableTypeTable

	table.Columns = make([]model.Column, 0, len(rows))
	for _, row := range rows {
		// AUTOINCREMENT/IDENTITY surfaces only in the default expression.
		auto := model.FlagNo
		if row.Default != nil {
			upper := strings.ToUpper(*row.Default)
			if strings.Contains(upper, "AUTOINCREMENT") || strings.Contains(upper, "IDENTITY") {
				auto = model.FlagYes
			}
		}

		comment := ""
		if row.Comment != nil {
			comment = *row.Comment
		}

		table.Columns = append(table.Columns, model.Column{
			Name:            row.Name,
			TypeName:        row.DataType,
			OrdinalPosition: row.Ordinal - 1,
			Size:            row.Size,
			DecimalDigits:   row.Scale,
			Nullable:        row.IsNullable == "YES",
			DefaultValue:    row.Default,
			Remarks:         comment,
			AutoIncrement:   auto,
		})
	}

	if err := c.fillPrimaryKey(ctx, table); err != nil {
		return nil, err
	}
	if err := c.fillUniqueConstraints(ctx, table); err != nil {
		return nil, err
	}

	return table, nil
}

// fillPrimaryKey reads SHOW PRIMARY KEYS. The result's key_sequence column
// is 1-based; the model carries 0-based key ordinals.
func (c *SnowflakeCrawler) fillPrimaryKey(ctx context.Context, table *model.Table) error {
	query := fmt.Sprintf("SHOW PRIMARY KEYS IN TABLE %s.%s",
		c.QuoteIdentifier(c.schemaName),
		c.QuoteIdentifier(table.TableName),
	)

	rows, err := c.db.QueryxContext(ctx, query)
	if err != nil {
		return fmt.Errorf("primary keys for %q: %w", table.TableName, err)
	}
	defer rows.Close()

	for rows.Next() {
		row := make(map[string]interface{})
		if err := rows.MapScan(row); err != nil {
			return fmt.Errorf("scan primary key row: %w", err)
		}

		columnName, _ := row["column_name"].(string)
		keySeq := toInt(row["key_sequence"])

		for i := range table.Columns {
			if table.Columns[i].Name == columnName {
				table.Columns[i].PrimaryKey = true
				if keySeq > 0 {
					table.Columns[i].PrimaryKeyIndex = keySeq - 1
				}
			}
		}
	}
	return rows.Err()
}

// fillUniqueConstraints reads SHOW UNIQUE KEYS, grouping members by
// constraint name in key_sequence order.
func (c *SnowflakeCrawler) fillUniqueConstraints(ctx context.Context, table *model.Table) error {
	query := fmt.Sprintf("SHOW UNIQUE KEYS IN TABLE %s.%s",
		c.QuoteIdentifier(c.schemaName),
		c.QuoteIdentifier(table.TableName),
	)

	rows, err := c.db.QueryxContext(ctx, query)
	if err != nil {
		return fmt.Errorf("unique keys for %q: %w", table.TableName, err)
	}
	defer rows.Close()

	type member struct {
		column string
		seq    int
	}
	byName := make(map[string][]member)
	var order []string

	for rows.Next() {
		row := make(map[string]interface{})
		if err := rows.MapScan(row); err != nil {
			return fmt.Errorf("scan unique key row: %w", err)
		}

		constraintName, _ := row["constraint_name"].(string)
		columnName, _ := row["column_name"].(string)
		if constraintName == "" || columnName == "" {
			continue
		}

		if _, ok := byName[constraintName]; !ok {
			order = append(order, constraintName)
		}
		byName[constraintName] = append(byName[constraintName], member{
			column: columnName,
			seq:    toInt(row["key_sequence"]),
		})
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, name := range order {
		members := byName[name]
		for i := 1; i < len(members); i++ {
			for j := i; j > 0 && members[j].seq < members[j-1].seq; j-- {
				members[j], members[j-1] = members[j-1], members[j]
			}
		}

		uc := model.UniqueConstraint{Name: name}
		for _, m := range members {
			uc.Columns = append(uc.Columns, m.column)
			for i := range table.Columns {
				if table.Columns[i].Name == m.column && table.Columns[i].UniqueConstraintName == nil {
					groupName := name
					table.Columns[i].UniqueConstraintName = &groupName
				}
			}
		}
		table.UniqueConstraints = append(table.UniqueConstraints, uc)
	}
	return nil
}

// toInt normalizes the numeric types MapScan may produce for SHOW output.
func toInt(v interface{}) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		var i int
		fmt.Sscanf(n, "%d", &i)
		return i
	default:
		return 0
	}
}
