package main

import (
	"context"
	"fmt"
	"os"

	"github.com/propertytek/rentbot"
	"github.com/propertytek/rentbot/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "rentbot",
	Short: "Rentbot is a conversational assistant for renting homes",
	Long: `Rentbot searches rental listings from free-text requests, books viewings
and collects renter contact details. It can run as an HTTP API, an MCP
server or a terminal chat.

Settings come from rentbot.yaml, RENTBOT_* environment variables and flags,
in increasing order of precedence.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default ./rentbot.yaml if present)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json")
}

// loadConfig reads the config file and environment, letting the named flags
// of cmd override the given keys.
func loadConfig(cmd *cobra.Command, bindings map[string]string) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	opts := []config.Option{
		config.WithFlag("log_level", cmd.Flags().Lookup("log-level")),
		config.WithFlag("log_format", cmd.Flags().Lookup("log-format")),
	}
	for key, flag := range bindings {
		opts = append(opts, config.WithFlag(key, cmd.Flags().Lookup(flag)))
	}
	return config.Load(path, opts...)
}

// openApp loads the configuration and wires the assistant.
func openApp(ctx context.Context, cmd *cobra.Command, bindings map[string]string, opts ...rentbot.Option) (*rentbot.App, error) {
	cfg, err := loadConfig(cmd, bindings)
	if err != nil {
		return nil, err
	}
	return rentbot.New(ctx, cfg, opts...)
}
