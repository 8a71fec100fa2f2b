package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

// configPath is the --config flag shared by every subcommand.
var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:          "axd",
		Short:        "Axel dashboard - watch agent activity, conversations and knowledge notes",
		Version:      version,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/axd/config.toml)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(activityCmd())
	rootCmd.AddCommand(conversationCmd())
	rootCmd.AddCommand(memoryCmd())
	rootCmd.AddCommand(indexCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(openCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(doctorCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
