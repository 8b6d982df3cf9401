package main

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
	liblog "trpc.group/trpc-go/trpc-a2a-go/log"

	"github.com/tuannvm/jira-reporter/internal/config"
	"github.com/tuannvm/jira-reporter/internal/jira"
	"github.com/tuannvm/jira-reporter/internal/llm"
	log "github.com/tuannvm/jira-reporter/internal/logging"
	"github.com/tuannvm/jira-reporter/internal/report"
)

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "jirareporter",
		Short:         "Generate Jira issue reports over MCP, A2A or the command line",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			config.LoadDotEnv()
			if err := config.ReadConfigFile(configFile); err != nil {
				return err
			}
			cfg := config.NewConfig()
			if err := log.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
				return errors.Wrap(err, "init logging")
			}
			liblog.Default = log.Logger
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			log.Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (yaml, toml or json)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "json", "log format (json or console)")
	bindFlags(root, map[string]string{
		"log_level":  "log-level",
		"log_format": "log-format",
	}, true)

	root.AddCommand(
		newServeCmd(),
		newAgentCmd(),
		newReportCmd(),
		newVersionCmd(),
	)
	return root
}

// bindFlags binds viper keys to the named flags of cmd.
func bindFlags(cmd *cobra.Command, keys map[string]string, persistent bool) {
	flags := cmd.Flags()
	if persistent {
		flags = cmd.PersistentFlags()
	}
	for key, name := range keys {
		_ = config.GetViper().BindPFlag(key, flags.Lookup(name))
	}
}

// pipeline holds what every command needs to produce reports.
type pipeline struct {
	cfg      *config.Config
	gen      *report.Generator
	fallback report.Sampler
}

// newPipeline builds the Jira client, the worker pool and, when enabled, the
// server-side LLM. With checkConnection set it verifies the Jira credentials.
func newPipeline(ctx context.Context, checkConnection bool) (*pipeline, error) {
	cfg := config.NewConfig()
	client, err := jira.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	if checkConnection {
		who, err := client.Myself(ctx)
		if err != nil {
			return nil, errors.Errorf("Failed to connect to Jira: %v", err)
		}
		log.Infof("Connected to Jira at %s as %s", cfg.JiraBaseURL, who)
	}

	p := &pipeline{
		cfg: cfg,
		gen: report.NewGenerator(client, report.NewPool(cfg.ReportWorkers)),
	}
	if cfg.LLMEnabled {
		c, err := llm.NewClient(cfg)
		if err != nil {
			return nil, err
		}
		log.Infof("Server-side LLM enabled (%s/%s)", cfg.LLMProvider, cfg.LLMModel)
		p.fallback = c
	}
	return p, nil
}
