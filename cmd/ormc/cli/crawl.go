package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sahaj0/CompilerOrm/internal/config"
	"github.com/sahaj0/CompilerOrm/internal/model"
)

func newCrawlCmd() *cobra.Command {
	var (
		format  string
		outPath string
		askPass bool
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl the database schema and dump the metadata model",
		Long: `Connect to the configured database, introspect its tables, columns, keys,
indices, and constraints, and write the resulting metadata model to stdout
or a file. The dump is the same model the generate command compiles.`,
		Example: `  ormc crawl
  ormc crawl --format yaml --out schema.yaml
  ormc crawl --ask-pass`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "yaml" {
				return fmt.Errorf("unsupported format %q; supported: json, yaml", format)
			}
			if askPass {
				if err := promptPassword(); err != nil {
					return err
				}
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg, verbose)

			db, err := crawlDatabase(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("create output file: %w", err)
				}
				defer f.Close()
				out = f
			}
			return writeModel(out, db, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "Output format (json, yaml)")
	cmd.Flags().StringVar(&outPath, "out", "", "Write the model to a file instead of stdout")
	cmd.Flags().BoolVar(&askPass, "ask-pass", false, "Prompt for the database password")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

// crawlDatabase connects, crawls the full schema, applies the table
// filters, and disconnects.
func crawlDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*model.Database, error) {
	c, err := newRegistry().New(cfg.Source.Driver)
	if err != nil {
		return nil, err
	}
	if err := c.Connect(cfg.ConnectionConfig()); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer c.Disconnect()

	if err := c.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping: %w", err)
	}

	logger.Info("crawling schema", "driver", cfg.Source.Driver, "schema", cfg.Source.Schema)
	db, err := c.Crawl(ctx)
	if err != nil {
		return nil, fmt.Errorf("crawl: %w", err)
	}

	kept := db.Tables[:0]
	for _, table := range db.Tables {
		if cfg.IncludesTable(table.TableName) {
			kept = append(kept, table)
			continue
		}
		logger.Debug("filtered out table", "table", table.TableName)
	}
	db.Tables = kept

	logger.Info("crawl complete", "database", db.Name, "tables", len(db.Tables))
	return db, nil
}

func writeModel(w io.Writer, db *model.Database, format string) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(db)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(db)
}
