package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// versionCmd prints build information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("jsvet %s (commit %s, %s)\n", version, commit, runtime.Version())
	},
}
