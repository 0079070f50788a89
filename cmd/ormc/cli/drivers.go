package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDriversCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drivers",
		Short: "List the supported database drivers",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range newRegistry().Drivers() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
