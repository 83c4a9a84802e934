package cmd

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/reviewgate/reviewgate/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the review API server",
	Long: `Start the HTTP server that accepts diffs and runs the reviewer panel.

Callers POST a raw diff to /api/v1/review with their key in the X-Api-Key
header. By default the server listens on port 8080; use --port to change it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}

		engine, err := buildEngine()
		if err != nil {
			return err
		}

		srv := api.NewServer(s, engine, serverTimeout())

		port := viper.GetInt("server.port")
		addr := fmt.Sprintf(":%d", port)
		slog.Info("review API listening",
			"addr", addr,
			"panel_size", len(engine.Panel()),
			"request_timeout", serverTimeout(),
		)
		return http.ListenAndServe(addr, srv.Router())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}
