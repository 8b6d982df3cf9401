// Command reportclient asks a running reporter A2A agent for a report and
// prints it.
//
//	reportclient --agent http://localhost:8080 --project OPS --summarize
//	reportclient --tool find_delayed_issues --explain-delay
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
	"trpc.group/trpc-go/trpc-a2a-go/protocol"

	"github.com/tuannvm/jira-reporter/internal/common"
	"github.com/tuannvm/jira-reporter/internal/config"
	log "github.com/tuannvm/jira-reporter/internal/logging"
	"github.com/tuannvm/jira-reporter/internal/models"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	agentURL     string
	tool         string
	jql          string
	project      string
	maxResults   int
	summarize    bool
	explainDelay bool
	timeout      time.Duration
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:          "reportclient",
		Short:        "Request a Jira report from a reporter A2A agent",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config.LoadDotEnv()
			cfg := config.NewConfig()
			if err := log.Init(cfg.LogLevel, "console"); err != nil {
				return err
			}
			if opts.agentURL == "" {
				opts.agentURL = cfg.AgentURL
			}

			call, err := buildToolCall(opts, cmd.Flags().Changed("max-results"))
			if err != nil {
				return err
			}
			text, err := requestReport(cmd.Context(), cfg, opts, call)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.agentURL, "agent", "", "reporter agent URL (default AGENT_URL)")
	flags.StringVar(&opts.tool, "tool", common.ToolGenerateReport, "generate_report or find_delayed_issues")
	flags.StringVar(&opts.jql, "jql", "", "JQL filter for generate_report")
	flags.StringVar(&opts.project, "project", "", "project key")
	flags.IntVar(&opts.maxResults, "max-results", models.DefaultMaxResults, "maximum number of issues")
	flags.BoolVar(&opts.summarize, "summarize", false, "ask the agent for an LLM summary")
	flags.BoolVar(&opts.explainDelay, "explain-delay", false, "ask the agent to explain delays")
	flags.DurationVar(&opts.timeout, "timeout", 2*time.Minute, "request timeout")
	return cmd
}

// buildToolCall turns the flags into the agent's tool-call payload. Only the
// arguments relevant to the chosen tool are sent.
func buildToolCall(opts options, maxResultsSet bool) (common.ToolCall, error) {
	args := map[string]interface{}{}
	if opts.project != "" {
		args["project_key"] = opts.project
	}
	switch opts.tool {
	case common.ToolGenerateReport:
		if opts.jql != "" {
			args["jql_query"] = opts.jql
		}
		args["max_results"] = opts.maxResults
		args["summarize"] = opts.summarize
	case common.ToolFindDelayedIssues:
		if maxResultsSet {
			args["max_results"] = opts.maxResults
		}
		args["explain_delay"] = opts.explainDelay
	default:
		return common.ToolCall{}, errors.Errorf("unknown tool %q", opts.tool)
	}
	return common.ToolCall{Tool: opts.tool, Arguments: args}, nil
}

func requestReport(ctx context.Context, cfg *config.Config, opts options, call common.ToolCall) (string, error) {
	a2aClient, err := common.SetupA2AClient(cfg, opts.agentURL)
	if err != nil {
		return "", err
	}
	msg, err := common.NewToolCallMessage(call)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	log.Infof("Sending %s request to %s", call.Tool, opts.agentURL)
	reply, err := common.SendTask(ctx, a2aClient, protocol.SendTaskParams{Message: msg})
	if err != nil {
		return "", errors.Wrap(err, "report request failed")
	}
	return common.MessageText(reply), nil
}
