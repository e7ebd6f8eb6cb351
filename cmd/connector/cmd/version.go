package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kartallu/connector/internal/constants"
	"github.com/kartallu/connector/internal/output"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the version of the CLI",
	Run: func(_ *cobra.Command, _ []string) {
		output.KeyValue("CLI version", *constants.GetVersion())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
