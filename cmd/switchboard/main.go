package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/michaelbrown/switchboard/internal/client"
	"github.com/michaelbrown/switchboard/internal/config"
)

var apiFlag string

var rootCmd = &cobra.Command{
	Use:   "switchboard",
	Short: "Switchboard - settings service for MCP tool servers",
	Long: `Switchboard manages which MCP tool servers are enabled and what their
configuration looks like. It serves a small settings API and ships the
matching CLI for listing tools, flipping them on and off, and editing the
raw configuration.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiFlag, "api", "", "Base URL of the switchboard server (overrides config)")
}

// apiClient builds a client for the configured (or overridden) server.
func apiClient() (*client.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	base := cfg.API.BaseURL
	if apiFlag != "" {
		base = apiFlag
	}
	return client.New(base, cfg.Document), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
