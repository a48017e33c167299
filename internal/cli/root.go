// Package cli holds the oxienroll commands.
package cli

import "github.com/spf13/cobra"

// NewRootCmd creates the top-level "oxienroll" command.
func NewRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:          "oxienroll",
		Short:        "Open enrollment service backed by OxiDB",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (environment variables override it)")

	root.AddCommand(
		newServeCmd(&configPath),
		newSeedCmd(&configPath),
	)
	return root
}
