package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tuannvm/jira-reporter/internal/agents"
	"github.com/tuannvm/jira-reporter/internal/common"
	log "github.com/tuannvm/jira-reporter/internal/logging"
)

func newAgentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "a2a",
		Short: "Run the reporter as an A2A agent",
		PreRun: func(cmd *cobra.Command, _ []string) {
			bindFlags(cmd, map[string]string{
				"server_host": "host",
				"server_port": "port",
				"auth_type":   "auth",
			}, false)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p, err := newPipeline(ctx, true)
			if err != nil {
				return err
			}
			agent := agents.NewReporterAgent(p.cfg, p.gen, p.fallback)
			srv, err := agent.SetupServer()
			if err != nil {
				return err
			}
			log.Infof("%s listening on %s:%d", p.cfg.AgentName, p.cfg.ServerHost, p.cfg.ServerPort)
			return common.StartServer(ctx, srv, p.cfg.ServerHost, p.cfg.ServerPort)
		},
	}

	flags := cmd.Flags()
	flags.String("host", "localhost", "listen host")
	flags.Int("port", 8080, "listen port")
	flags.String("auth", "apikey", "authentication: apikey, jwt or none")
	return cmd
}
