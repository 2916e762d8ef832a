package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Populated via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
)

// versionCmd prints build information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("equitylens %s (%s) %s/%s\n", version, commit, runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
