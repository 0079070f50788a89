package generator

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/sahaj0/CompilerOrm/internal/model"
)

// Options controls where generated code is written and how the generated
// package is named.
type Options struct {
	OutputDir   string
	PackageName string
}

// Generator renders one Go source file per crawled table plus a manifest
// describing the run. File contents are driven entirely by the table's
// derived metadata queries, never by re-querying the database.
type Generator struct {
	catalog *TemplateCatalog
	logger  *slog.Logger
	opts    Options
}

// Manifest records the outcome of a generation run. It is written as
// manifest.yaml alongside the generated sources.
type Manifest struct {
	RunID       string    `yaml:"run_id"`
	GeneratedAt time.Time `yaml:"generated_at"`
	Database    string    `yaml:"database"`
	Driver      string    `yaml:"driver"`
	Package     string    `yaml:"package"`
	Files       []string  `yaml:"files"`
	Skipped     []string  `yaml:"skipped,omitempty"`
}

// recordData is the root object handed to the record template.
type recordData struct {
	Package     string
	StructName  string
	Table       *model.Table
	Fields      []fieldData
	Imports     []string
	ReadOnly    bool
	HasAutoPK   bool
	PKFields    []fieldData
	UniqueNames []string
	CustomTypes []string

	Select  *statementData
	Insert  *statementData
	Delete  *statementData
	Finders []statementData
}

// Statements flattens the generated methods in a stable order for the
// template.
func (d recordData) Statements() []statementData {
	var out []statementData
	for _, s := range []*statementData{d.Select, d.Insert, d.Delete} {
		if s != nil {
			out = append(out, *s)
		}
	}
	return append(out, d.Finders...)
}

// fieldData is one struct field derived from a column.
type fieldData struct {
	Name   string
	GoType string
	Column model.Column
}

// statementData is one generated statement-builder method. SQL uses "?"
// placeholders; Args names the struct fields bound to them in order.
type statementData struct {
	MethodName string
	Doc        string
	SQL        string
	Args       []string
}

var templateFuncs = template.FuncMap{
	"exported":   ExportedName,
	"unexported": UnexportedName,
	"join":       strings.Join,
	"lower":      strings.ToLower,
}

// customTypeImports maps custom-templated column types to the import their
// rendered Go type needs. Types absent here render without an extra import.
var customTypeImports = map[string]string{
	"uuid":     "github.com/google/uuid",
	"json":     "encoding/json",
	"jsonb":    "encoding/json",
	"interval": "time",
}

// New creates a Generator. A nil logger falls back to slog.Default.
func New(catalog *TemplateCatalog, logger *slog.Logger, opts Options) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.PackageName == "" {
		opts.PackageName = "dao"
	}
	return &Generator{catalog: catalog, logger: logger, opts: opts}
}

// Generate renders every eligible table in db to g's output directory and
// writes the run manifest. Tables and views get source files; other table
// types are recorded as skipped.
func (g *Generator) Generate(ctx context.Context, db *model.Database) (*Manifest, error) {
	if err := os.MkdirAll(g.opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	manifest := &Manifest{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Database:    db.Name,
		Driver:      db.DriverName,
		Package:     g.opts.PackageName,
	}

	for _, table := range db.Tables {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var readOnly bool
		switch table.TableType {
		case model.TableTypeTable:
			readOnly = false
		case model.TableTypeView:
			readOnly = true
		case model.TableTypeSystemTable, model.TableTypeGlobalTemporary,
			model.TableTypeLocalTemporary, model.TableTypeAlias,
			model.TableTypeSynonym, model.TableTypeOther:
			g.logger.Warn("skipping table", "table", table.TableName, "type", table.TableType)
			manifest.Skipped = append(manifest.Skipped, table.TableName)
			continue
		default:
			g.logger.Warn("skipping table", "table", table.TableName, "type", table.TableType)
			manifest.Skipped = append(manifest.Skipped, table.TableName)
			continue
		}

		fileName, err := g.generateTable(table, readOnly)
		if err != nil {
			return nil, fmt.Errorf("generate %q: %w", table.TableName, err)
		}
		manifest.Files = append(manifest.Files, fileName)
		g.logger.Info("generated", "table", table.TableName, "file", fileName)
	}

	if err := g.writeManifest(manifest); err != nil {
		return nil, err
	}
	return manifest, nil
}

func (g *Generator) generateTable(table *model.Table, readOnly bool) (string, error) {
	data := recordData{
		Package:     g.opts.PackageName,
		StructName:  ExportedName(table.TableName),
		Table:       table,
		ReadOnly:    readOnly,
		HasAutoPK:   table.HasAutoGeneratedPrimaryKey(),
		UniqueNames: table.UniqueConstraintGroupNames(),
	}

	imports := map[string]bool{}
	for _, col := range table.Columns {
		goType, imp, err := g.fieldType(col)
		if err != nil {
			return "", err
		}
		if imp != "" {
			imports[imp] = true
		}
		field := fieldData{
			Name:   ExportedName(col.Name),
			GoType: goType,
			Column: col,
		}
		data.Fields = append(data.Fields, field)
		if col.PrimaryKey {
			data.PKFields = append(data.PKFields, field)
		}
	}
	for imp := range imports {
		data.Imports = append(data.Imports, imp)
	}
	sort.Strings(data.Imports)

	data.CustomTypes = table.DistinctCustomColumnTypeNames(g.catalog)
	g.buildStatements(&data, table)

	var buf bytes.Buffer
	if err := g.catalog.Record().Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute record template: %w", err)
	}

	fileName := FileName(table.TableName)
	path := filepath.Join(g.opts.OutputDir, fileName)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return fileName, nil
}

// buildStatements derives the statement-builder methods from the table's
// key and constraint metadata. Generated SQL uses "?" placeholders; the
// caller rebinds for its driver (sqlx.Rebind).
func (g *Generator) buildStatements(data *recordData, table *model.Table) {
	esc := func(name string) string {
		if table.Database() == nil {
			return name
		}
		return table.Database().EscapedName(name)
	}

	cols := make([]string, 0, len(table.Columns))
	for _, col := range table.Columns {
		cols = append(cols, esc(col.Name))
	}
	colList := strings.Join(cols, ", ")
	relation := table.EscapedName()

	if table.HasPrimaryKey() {
		var preds, args []string
		for _, col := range table.PrimaryKeyColumns() {
			preds = append(preds, esc(col.Name)+" = ?")
			args = append(args, ExportedName(col.Name))
		}
		where := strings.Join(preds, " AND ")

		data.Select = &statementData{
			MethodName: "SelectByPrimaryKey",
			Doc:        "builds the single-row lookup by primary key.",
			SQL:        "SELECT " + colList + " FROM " + relation + " WHERE " + where,
			Args:       args,
		}
		if !data.ReadOnly {
			data.Delete = &statementData{
				MethodName: "DeleteByPrimaryKey",
				Doc:        "builds the single-row delete by primary key.",
				SQL:        "DELETE FROM " + relation + " WHERE " + where,
				Args:       args,
			}
		}
	}

	if !data.ReadOnly {
		var insertCols, args []string
		for _, col := range table.Columns {
			if col.PrimaryKey && col.AutoIncrement == model.FlagYes {
				continue
			}
			insertCols = append(insertCols, esc(col.Name))
			args = append(args, ExportedName(col.Name))
		}
		if len(insertCols) > 0 {
			holders := strings.TrimSuffix(strings.Repeat("?, ", len(insertCols)), ", ")
			data.Insert = &statementData{
				MethodName: "Insert",
				Doc:        "builds the insert statement, leaving database-generated keys out.",
				SQL: "INSERT INTO " + relation + " (" + strings.Join(insertCols, ", ") +
					") VALUES (" + holders + ")",
				Args: args,
			}
		}
	}

	// A group name can legitimately appear more than once in the scan when
	// its columns are not contiguous; one finder per name is enough.
	seen := map[string]bool{}
	for _, groupName := range table.UniqueConstraintGroupNames() {
		if seen[groupName] {
			continue
		}
		seen[groupName] = true
		var preds, args []string
		for _, col := range table.Columns {
			if col.UniqueConstraintName != nil && *col.UniqueConstraintName == groupName {
				preds = append(preds, esc(col.Name)+" = ?")
				args = append(args, ExportedName(col.Name))
			}
		}
		if len(preds) == 0 {
			continue
		}
		data.Finders = append(data.Finders, statementData{
			MethodName: "SelectBy" + ExportedName(groupName),
			Doc:        "builds the single-row lookup over the " + groupName + " constraint.",
			SQL:        "SELECT " + colList + " FROM " + relation + " WHERE " + strings.Join(preds, " AND "),
			Args:       args,
		})
	}
}

// fieldType resolves a column to its Go type. A custom template for the
// column's type wins over the built-in mapping.
func (g *Generator) fieldType(col model.Column) (goType, imp string, err error) {
	if g.catalog.HasCustomTemplate(col.TypeName) {
		tmpl, err := g.catalog.Custom(col.TypeName)
		if err != nil {
			return "", "", err
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, col); err != nil {
			return "", "", fmt.Errorf("execute custom template for %q: %w", col.TypeName, err)
		}
		goType = strings.TrimSpace(buf.String())
		imp = customTypeImports[strings.ToLower(col.TypeName)]
		if col.Nullable && !strings.HasPrefix(goType, "*") && !strings.HasPrefix(goType, "[]") {
			goType = "*" + goType
		}
		return goType, imp, nil
	}

	goType, imp = builtinType(col.TypeName)
	if col.Nullable && !strings.HasPrefix(goType, "[]") {
		goType = "*" + goType
	}
	return goType, imp, nil
}

// builtinType maps a SQL type name to a Go type and the import it needs.
func builtinType(typeName string) (goType, imp string) {
	base := strings.ToUpper(typeName)
	if i := strings.IndexByte(base, '('); i >= 0 {
		base = base[:i]
	}
	base = strings.TrimSpace(base)

	switch base {
	case "TINYINT", "SMALLINT", "SMALLSERIAL", "INT", "INTEGER", "MEDIUMINT", "SERIAL", "INT2", "INT4", "NUMBER":
		return "int", ""
	case "BIGINT", "BIGSERIAL", "INT8":
		return "int64", ""
	case "DECIMAL", "NUMERIC", "FLOAT", "FLOAT4", "FLOAT8", "DOUBLE", "DOUBLE PRECISION", "REAL", "MONEY":
		return "float64", ""
	case "BOOLEAN", "BOOL", "BIT":
		return "bool", ""
	case "DATE", "TIME", "DATETIME", "DATETIME2", "SMALLDATETIME", "TIMESTAMP",
		"TIMESTAMPTZ", "TIMESTAMP WITH TIME ZONE", "TIMESTAMP WITHOUT TIME ZONE",
		"TIMESTAMP_NTZ", "TIMESTAMP_LTZ", "TIMESTAMP_TZ":
		return "time.Time", "time"
	case "BLOB", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB", "BYTEA", "BINARY", "VARBINARY", "IMAGE", "RAW":
		return "[]byte", ""
	default:
		return "string", ""
	}
}

func (g *Generator) writeManifest(m *Manifest) error {
	out, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	path := filepath.Join(g.opts.OutputDir, "manifest.yaml")
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
