package cli

import (
	"github.com/spf13/cobra"

	"github.com/sahaj0/CompilerOrm/internal/generator"
)

func newGenerateCmd() *cobra.Command {
	var (
		outDir  string
		pkgName string
		askPass bool
		verbose bool
	)

	cmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"gen"},
		Short:   "Crawl the schema and generate Go persistence code",
		Long: `Crawl the configured database and compile each table and view into a Go
source file, plus a manifest.yaml describing the run. Column types with a
custom template (uuid, json, interval, ...) map to richer Go types.`,
		Example: `  ormc generate
  ormc generate --out-dir internal/dao --package dao`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if askPass {
				if err := promptPassword(); err != nil {
					return err
				}
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if outDir != "" {
				cfg.Output.Dir = outDir
			}
			if pkgName != "" {
				cfg.Output.Package = pkgName
			}
			logger := newLogger(cfg, verbose)

			db, err := crawlDatabase(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}

			catalog, err := generator.NewTemplateCatalog()
			if err != nil {
				return err
			}
			gen := generator.New(catalog, logger, generator.Options{
				OutputDir:   cfg.Output.Dir,
				PackageName: cfg.Output.Package,
			})

			manifest, err := gen.Generate(cmd.Context(), db)
			if err != nil {
				return err
			}
			logger.Info("generation complete",
				"run_id", manifest.RunID,
				"files", len(manifest.Files),
				"skipped", len(manifest.Skipped),
				"dir", cfg.Output.Dir)
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out-dir", "", "Output directory (overrides config)")
	cmd.Flags().StringVar(&pkgName, "package", "", "Generated package name (overrides config)")
	cmd.Flags().BoolVar(&askPass, "ask-pass", false, "Prompt for the database password")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}
