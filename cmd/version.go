package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/swisspipe/swisspipe/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the binary version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s (%s)\n", version.Get(), version.Commit())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
