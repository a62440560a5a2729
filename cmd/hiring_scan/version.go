package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/hiring-signal/internal/pipeline"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the tool version and source revision",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "hiring_scan %s (%s)\n", pipeline.ToolVersion, pipeline.Revision())
		return err
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
