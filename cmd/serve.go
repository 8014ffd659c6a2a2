package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alpaylan/ruggle/internal/catalog"
	"github.com/alpaylan/ruggle/internal/config"
	"github.com/alpaylan/ruggle/internal/daemon"
	"github.com/alpaylan/ruggle/internal/ingest"
	"github.com/alpaylan/ruggle/internal/mcp"
	"github.com/alpaylan/ruggle/internal/registry"
	"github.com/spf13/cobra"
)

var debug bool

var rootCmd = &cobra.Command{
	Use:   "ruggle",
	Short: "Structural search for Rust crate public APIs, served over MCP",
	Run:   runServe,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("command failed: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "run daemon in-process (visible log output)")

	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(scopesCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(logsCmd)
}

// connectDaemon returns a daemon client. In debug mode, starts the daemon
// in-process so all log output is visible in the terminal.
func connectDaemon() (*daemon.Client, error) {
	socketPath := config.SocketPath()

	if !debug {
		return daemon.ConnectOrSpawn(socketPath)
	}

	// In debug mode: stop any existing daemon, then start in-process
	client := daemon.NewClient(socketPath)
	if client.IsAvailable() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client.Shutdown(shutdownCtx)
		cancel()
		time.Sleep(200 * time.Millisecond)
	}

	srv, err := newDaemonServer(socketPath)
	if err != nil {
		return nil, err
	}
	go func() {
		if err := srv.Start(context.Background()); err != nil {
			log.Printf("in-process daemon error: %v", err)
		}
	}()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
		if client.IsAvailable() {
			return client, nil
		}
	}

	return nil, fmt.Errorf("in-process daemon did not start within 5 seconds")
}

// newDaemonServer wires a daemon.Server from config: the in-memory index,
// the sqlite bookkeeping catalog, and the on-disk JSON cache.
func newDaemonServer(socketPath string) (*daemon.Server, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	cat, err := catalog.Open(config.CatalogDBPath())
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	cache, err := ingest.NewCache(config.JSONCacheDir())
	if err != nil {
		return nil, fmt.Errorf("opening json cache: %w", err)
	}

	idx := registry.New()
	if err := rehydrateIndex(idx, cat, cache); err != nil {
		log.Printf("daemon: rehydrating index from cache: %v", err)
	}

	return daemon.NewServer(cfg, idx, cat, cache, socketPath), nil
}

// rehydrateIndex re-ingests every crate the catalog already records,
// reading the cached JSON blob from disk, so a restarted daemon does not
// need to re-fetch from docs.rs for crates it already has (spec §6.5).
func rehydrateIndex(idx *registry.Index, cat *catalog.Catalog, cache *ingest.Cache) error {
	entries, err := cat.List()
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !cache.Has(e.Name, e.Version) {
			continue
		}
		data, err := cache.Load(e.Name, e.Version)
		if err != nil {
			log.Printf("daemon: loading cached docs for %s@%s: %v", e.Name, e.Version, err)
			continue
		}
		if _, err := idx.Ingest(e.Name, e.Version, data); err != nil {
			log.Printf("daemon: re-ingesting %s@%s: %v", e.Name, e.Version, err)
		}
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) {
	socketPath := config.SocketPath()

	server, err := mcp.NewServer(socketPath)
	if err != nil {
		log.Fatalf("failed to create MCP server: %v", err)
	}

	errCh := make(chan error)
	go func() { errCh <- server.Run() }()

	if err := waitForSignal(errCh); err != nil {
		log.Fatalf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	server.Shutdown(ctx)
}

func waitForSignal(errCh chan error) error {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		log.Printf("received signal: %s", sig)
		return nil
	case err := <-errCh:
		return err
	}
}
