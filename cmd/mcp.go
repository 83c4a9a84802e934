package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/reviewgate/reviewgate/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server (stdio)",
	Long: `Run reviewgate as an MCP server over stdio, exposing the reviewer panel
as a review_diff tool. Intended for use from coding agents; the panel runs
locally with the provider keys from config, bypassing the HTTP gate.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// stdout carries the MCP protocol; keep logs on stderr.
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

		engine, err := buildEngine()
		if err != nil {
			return err
		}

		srv := mcp.NewServer(engine, viper.GetString("developer"))
		return srv.ServeStdio(context.Background())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
