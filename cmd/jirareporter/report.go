package main

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/tuannvm/jira-reporter/internal/models"
)

func newReportCmd() *cobra.Command {
	var (
		req          = models.NewReportRequest()
		delayed      bool
		explainDelay bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a single report to stdout",
		Example: `  jirareporter report --project OPS --summarize
  jirareporter report --jql "assignee = currentUser()" --max-results 20
  jirareporter report --delayed --explain-delay`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := newPipeline(cmd.Context(), false)
			if err != nil {
				return err
			}

			var res models.ToolResult
			if delayed {
				dreq := models.NewDelayedRequest()
				dreq.ScopeKey = req.ScopeKey
				dreq.ExplainDelay = explainDelay
				if cmd.Flags().Changed("max-results") {
					dreq.MaxResults = req.MaxResults
				}
				res = p.gen.FindDelayed(cmd.Context(), dreq, p.fallback)
			} else {
				res = p.gen.Generate(cmd.Context(), req, p.fallback)
			}

			if res.IsError() {
				return errors.New(res.Text())
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Text())
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&req.FilterExpression, "jql", "", "JQL filter (default: issues updated in the last 7 days)")
	flags.StringVar(&req.ScopeKey, "project", "", "limit the report to one project key")
	flags.IntVar(&req.MaxResults, "max-results", models.DefaultMaxResults, "maximum number of issues")
	flags.BoolVar(&req.Summarize, "summarize", false, "prepend an LLM summary (needs LLM_ENABLED)")
	flags.BoolVar(&delayed, "delayed", false, "report unresolved issues past their due date")
	flags.BoolVar(&explainDelay, "explain-delay", false, "with --delayed, infer delay reasons from comments")
	return cmd
}
