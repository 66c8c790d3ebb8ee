package main

import (
	"os"

	"mapletap/cmd/run"
	"mapletap/cmd/transform"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mapletap",
	Short: "mapletap decodes MapleStory sessions from packet captures.",
}

func main() {
	rootCmd.AddCommand(run.Cmd)
	rootCmd.AddCommand(transform.Cmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
