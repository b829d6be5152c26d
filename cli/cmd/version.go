package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show CLI version information",
	Long:  `Display the version, commit hash, and build date of sgctl.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "sgctl %s\n", Version)
		_, _ = fmt.Fprintf(out, "Commit: %s\n", Commit)
		_, _ = fmt.Fprintf(out, "Build Date: %s\n", BuildDate)
	},
}
