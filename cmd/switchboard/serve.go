package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/michaelbrown/switchboard/internal/config"
	"github.com/michaelbrown/switchboard/internal/registry"
	"github.com/michaelbrown/switchboard/internal/server"
	"github.com/michaelbrown/switchboard/internal/store/sqlite"
)

var portFlag int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Switchboard settings server",
	Long: `Start the Switchboard HTTP server.

API endpoints are under /api; config-change notifications are pushed on
/api/events.

Examples:
  switchboard serve
  switchboard serve --port 9090`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&portFlag, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Open storage
	store, err := sqlite.Open(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer store.Close()

	// Launch tool servers for whatever config was saved last
	reg := registry.New()
	defer reg.Close()

	if doc, err := store.LoadConfig(cmd.Context(), cfg.Document); err == nil {
		reg.Sync(doc.Config)
		log.Printf("Loaded config %s (revision %s)", doc.Name, doc.Revision[:8])
	} else {
		log.Printf("No saved config for %s yet", cfg.Document)
	}

	// Determine port
	port := cfg.Server.Port
	if portFlag > 0 {
		port = portFlag
	}

	// Create and start server
	srv := server.New(cfg, store, reg)

	// Graceful shutdown on SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		srv.Shutdown(context.Background())
	}()

	return srv.Start(port)
}
