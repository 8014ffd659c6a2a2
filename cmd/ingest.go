package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/alpaylan/ruggle/internal/config"
	"github.com/alpaylan/ruggle/internal/daemon"
	"github.com/alpaylan/ruggle/internal/rpc"
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [crate[@version] ...]",
	Short: "Index a crate's public API from docs.rs",
	Long:  `Fetch and index a Rust crate's public function, method, and associated-function signatures. Version defaults to "latest".`,
	Example: `  ruggle ingest serde
  ruggle ingest serde@1.0 tokio@1.0
  ruggle ingest serde serde_json tokio`,
	Args: cobra.MinimumNArgs(1),
	Run:  runIngest,
}

func runIngest(cmd *cobra.Command, args []string) {
	var specs []rpc.CrateSpec
	for _, arg := range args {
		name, version, _ := strings.Cut(arg, "@")
		specs = append(specs, rpc.CrateSpec{Name: name, Version: version})
	}

	client, err := connectDaemon()
	if err != nil {
		log.Fatalf("failed to connect to daemon: %v", err)
	}

	resp, err := client.Ingest(context.Background(), specs, func(msg string) {
		fmt.Printf("  %s\n", msg)
	})
	if err != nil {
		log.Fatalf("failed to ingest crates: %v", err)
	}

	for _, r := range resp.Results {
		if r.Error != "" {
			fmt.Printf("  %s@%s: error: %s\n", r.Name, r.Version, r.Error)
		} else {
			fmt.Printf("  %s@%s: %d items indexed\n", r.Name, r.Version, r.Items)
		}
	}
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search indexed crate APIs by type signature",
	Example: `  ruggle search --scope crate:std "fn (Vec<T>, T) -> ()"
  ruggle search --scope set:libstd "(Option<T>) -> T"
  ruggle search --scope crate:serde --limit 5 "T -> T"`,
	Args: cobra.ExactArgs(1),
	Run:  runSearch,
}

var (
	searchScope     string
	searchLimit     int
	searchThreshold float64
)

func init() {
	searchCmd.Flags().StringVar(&searchScope, "scope", "", `scope to search: "crate:<name>", "crate:<name>:<version>" or "set:<name>" (an empty scope fails as an unknown scope)`)
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "max results (default from config)")
	searchCmd.Flags().Float64Var(&searchThreshold, "threshold", 0, "max normalised distance score, 0 to 1 (default from config)")
}

func runSearch(cmd *cobra.Command, args []string) {
	client, err := connectDaemon()
	if err != nil {
		log.Fatalf("failed to connect to daemon: %v", err)
	}

	resp, err := client.Search(context.Background(), rpc.SearchRequest{
		Query:     args[0],
		Scope:     searchScope,
		Limit:     searchLimit,
		Threshold: searchThreshold,
	})
	if err != nil {
		log.Fatalf("search failed: %v", err)
	}

	if len(resp.Results) == 0 {
		fmt.Println("no results")
		return
	}

	for i, r := range resp.Results {
		fmt.Printf("%d. %s - %s\n", i+1, r.Signature, r.Path)
		if r.Docs != "" {
			fmt.Printf("   %s\n", r.Docs)
		}
	}
}

var scopesCmd = &cobra.Command{
	Use:   "scopes",
	Short: "List searchable crate and set scopes",
	Run:   runScopes,
}

func runScopes(cmd *cobra.Command, args []string) {
	client, err := connectDaemon()
	if err != nil {
		log.Fatalf("failed to connect to daemon: %v", err)
	}

	resp, err := client.Scopes(context.Background())
	if err != nil {
		log.Fatalf("listing scopes failed: %v", err)
	}

	if len(resp.Scopes) == 0 {
		fmt.Println("no scopes defined")
		return
	}
	for _, s := range resp.Scopes {
		fmt.Println("  " + s)
	}
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show indexed crates and daemon state",
	Run:   runStatus,
}

var statusJSON bool

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
}

func runStatus(cmd *cobra.Command, args []string) {
	client, err := connectDaemon()
	if err != nil {
		log.Fatalf("failed to connect to daemon: %v", err)
	}

	resp, err := client.Status(context.Background())
	if err != nil {
		log.Fatalf("status failed: %v", err)
	}

	if statusJSON {
		out, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Println(string(out))
		return
	}

	if len(resp.Crates) == 0 {
		fmt.Println("no crates indexed")
		return
	}

	for _, c := range resp.Crates {
		fmt.Printf("  %s@%s (%d items, ingested %s)\n", c.Name, c.Version, c.Items, c.IngestedAt)
	}
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the background daemon",
	Run:   runStop,
}

func runStop(cmd *cobra.Command, args []string) {
	client := daemon.NewClient(config.SocketPath())
	if !client.IsAvailable() {
		fmt.Println("daemon is not running")
		return
	}

	if err := client.Shutdown(context.Background()); err != nil {
		// Connection reset is expected — daemon exits after responding
		fmt.Println("daemon stopped")
		return
	}
	fmt.Println("daemon stopped")
}
