package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath = "./config/swisspipe.yaml"

	rootCmd = &cobra.Command{
		Use:   "swisspipe",
		Short: "SwissPipe variables service",
		Long: `SwissPipe manages workflow variables, encrypted secrets, template
rendering and workflow version history.

Run the HTTP API with "swisspipe server", or use the admin
sub commands to mint API keys and manage backups.`,
	}
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", configPath, "Path to config file")
}
