package main

import (
	"fmt"
	"strings"

	"github.com/propertytek/rentbot"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of rentbot",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "rentbot version %s\n", strings.TrimSpace(rentbot.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
