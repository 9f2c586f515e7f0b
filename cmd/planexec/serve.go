package main

import (
	"github.com/spf13/cobra"

	"github.com/smallnest/planexec/log"
	"github.com/smallnest/planexec/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the agent over HTTP",
	Long: `Starts an HTTP server exposing chat completions with SSE streaming,
thread management, and cancellation endpoints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := commandConfig(cmd)

		threads, err := cfg.threadRegistry()
		if err != nil {
			return err
		}
		ag, err := cfg.buildAgent(cmd.Context(), threads)
		if err != nil {
			return err
		}

		logger := log.NewDefaultLogger(log.LogLevelInfo)
		srv := server.New(cfg.Addr, ag, threads, logger)
		logger.Info("listening on %s (model %s)", cfg.Addr, cfg.Model)
		return srv.Start()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default $PLANEXEC_ADDR or :8080)")
}
