package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tuannvm/jira-reporter/internal/mcpserver"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server (stdio, sse or streamable http)",
		PreRun: func(cmd *cobra.Command, _ []string) {
			bindFlags(cmd, map[string]string{
				"transport":   "transport",
				"server_host": "host",
				"server_port": "port",
			}, false)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p, err := newPipeline(ctx, true)
			if err != nil {
				return err
			}
			srv := mcpserver.New(p.gen, p.fallback, version)
			addr := fmt.Sprintf("%s:%d", p.cfg.ServerHost, p.cfg.ServerPort)
			return srv.Serve(ctx, p.cfg.Transport, addr)
		},
	}

	flags := cmd.Flags()
	flags.String("transport", "stdio", "MCP transport: stdio, sse or http")
	flags.String("host", "localhost", "listen host for sse and http")
	flags.Int("port", 8080, "listen port for sse and http")
	return cmd
}
