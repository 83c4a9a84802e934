// Package mcp exposes the review pipeline as an MCP tool over stdio, so
// coding agents can gate their own changes without going through HTTP.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/reviewgate/reviewgate/internal/models"
)

// ReviewEngine runs the reviewer panel. Satisfied by *review.Engine.
type ReviewEngine interface {
	Review(ctx context.Context, diff, developer string) *models.FinalVerdict
}

// Server wraps the review engine and exposes it as MCP tools.
type Server struct {
	engine    ReviewEngine
	developer string
}

// NewServer creates the MCP server wrapper. The developer name is attached
// to every verdict; MCP runs operator-side, so there is no key gate here.
func NewServer(engine ReviewEngine, developer string) *Server {
	return &Server{engine: engine, developer: developer}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("reviewgate", "1.0.0", server.WithToolCapabilities(true))
	srv.AddTool(s.reviewDiffTool())
	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// review_diff
func (s *Server) reviewDiffTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("review_diff",
		mcp.WithDescription("Send a git diff to the reviewer panel and get a majority-vote PASS/FAIL verdict. Returns JSON with the overall verdict, vote breakdown, per-model verdicts, and merged issue list."),
		mcp.WithString("diff", mcp.Required(), mcp.Description("The unified diff to review")),
	)
	return tool, s.handleReviewDiff
}

func (s *Server) handleReviewDiff(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	diff := request.GetString("diff", "")
	if diff == "" {
		return mcp.NewToolResultError("diff is required"), nil
	}

	result := s.engine.Review(ctx, diff, s.developer)

	data, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
