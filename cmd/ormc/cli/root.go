package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	rootCmd := newRootCmd(version, commit, date)
	return rootCmd.Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ormc",
		Short: "Compile a database schema into Go persistence code",
		Long: `ormc connects to a SQL database, crawls its schema into a metadata model,
and compiles that model into plain Go persistence code: one source file per
table, driven entirely by what the database itself reports.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./ormc.yaml)")

	cobra.OnInitialize(initConfig)

	// Add subcommands
	cmd.AddCommand(newVersionCmd(version, commit, date))
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newGenerateCmd())
	cmd.AddCommand(newDriversCmd())

	return cmd
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("ormc")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.ormc")
	}

	viper.SetEnvPrefix("ORMC")
	viper.AutomaticEnv()
	viper.ReadInConfig() // Ignore error - config file is optional
}
