// Package mcp exposes the search engine over the Model Context Protocol,
// per spec §4.8: an MCP client can ingest crates, search signatures, and
// list scopes without going through the CLI.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alpaylan/ruggle/internal/daemon"
	"github.com/alpaylan/ruggle/internal/rpc"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const instructions = `ruggle is a structural search engine for Rust crate public APIs.

Use ingest_crate to fetch and index a crate's documentation from docs.rs
before searching it. Use search_signatures with a signature query
(e.g. "fn (Vec<T>, T) -> ()" or "Option<T> -> T") to find matching functions, methods, and
associated functions by type-signature shape, not keywords. Use
list_scopes to see which "crate:<name>" and "set:<name>" scopes are
available to search within.`

type Server struct {
	mcpServer *server.MCPServer
	client    *daemon.Client
}

func NewServer(socketPath string) (*Server, error) {
	client, err := daemon.ConnectOrSpawn(socketPath)
	if err != nil {
		return nil, fmt.Errorf("connecting to daemon: %w", err)
	}

	s := &Server{client: client}

	mcpServer := server.NewMCPServer(
		"ruggle",
		"0.1.0",
		server.WithInstructions(instructions),
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)

	s.mcpServer = mcpServer
	return s, nil
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("ingest_crate",
			mcp.WithDescription("Fetch and index a Rust crate's public API from docs.rs. Synchronous: returns when complete. Version defaults to \"latest\"."),
			ingestCrateSchema,
		),
		s.handleIngestCrate,
	)

	mcpServer.AddTool(
		mcp.NewTool("search_signatures",
			mcp.WithDescription("Search indexed Rust crate APIs by type-signature shape, Hoogle-style, e.g. \"fn (Option<T>) -> T\". Requires an explicit scope; list_scopes shows what's available."),
			mcp.WithString("query",
				mcp.Description("A signature query such as \"fn name(A, B) -> C\", \"(A, B) -> C\" or \"A -> B\"; the fn keyword and the name are optional, and an argument list without \"-> C\" matches any return type"),
				mcp.Required(),
			),
			mcp.WithString("scope",
				mcp.Description("A \"crate:<name>\" or \"set:<name>\" scope to search within"),
				mcp.Required(),
			),
			mcp.WithNumber("threshold",
				mcp.Description("Maximum normalised distance score to keep, 0 to 1 (default from config)"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of results (default from config)"),
			),
		),
		s.handleSearchSignatures,
	)

	mcpServer.AddTool(
		mcp.NewTool("list_scopes",
			mcp.WithDescription("List every \"crate:<name>\" and \"set:<name>\" scope currently searchable."),
		),
		s.handleListScopes,
	)
}

func ingestCrateSchema(t *mcp.Tool) {
	t.InputSchema.Required = append(t.InputSchema.Required, "crates")
	t.InputSchema.Properties["crates"] = map[string]any{
		"type":        "array",
		"description": "List of crates to index",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name": map[string]any{
					"type":        "string",
					"description": "Crate name (e.g., \"serde\")",
				},
				"version": map[string]any{
					"type":        "string",
					"description": "Version (default: \"latest\")",
				},
			},
			"required": []string{"name"},
		},
	}
}

func (s *Server) handleIngestCrate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	cratesRaw, ok := args["crates"]
	if !ok {
		return mcp.NewToolResultError("missing required parameter: crates"), nil
	}

	cratesJSON, err := json.Marshal(cratesRaw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid crates parameter: %v", err)), nil
	}

	var specs []rpc.CrateSpec
	if err := json.Unmarshal(cratesJSON, &specs); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid crates format: %v", err)), nil
	}

	resp, err := s.client.Ingest(ctx, specs, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to ingest crates: %v", err)), nil
	}

	resultJSON, _ := json.MarshalIndent(resp.Results, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleSearchSignatures(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	query, _ := args["query"].(string)
	if query == "" {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	var searchReq rpc.SearchRequest
	searchReq.Query = query
	if scope, ok := args["scope"].(string); ok {
		searchReq.Scope = scope
	}
	if threshold, ok := args["threshold"].(float64); ok {
		searchReq.Threshold = threshold
	}
	if limit, ok := args["limit"].(float64); ok {
		searchReq.Limit = int(limit)
	}

	resp, err := s.client.Search(ctx, searchReq)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	resultJSON, _ := json.MarshalIndent(resp.Results, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleListScopes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resp, err := s.client.Scopes(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing scopes failed: %v", err)), nil
	}

	resultJSON, _ := json.MarshalIndent(resp.Scopes, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) Shutdown(_ context.Context) error {
	return nil
}
