package agents

import (
	"context"

	"github.com/go-faster/errors"
	"trpc.group/trpc-go/trpc-a2a-go/protocol"
	"trpc.group/trpc-go/trpc-a2a-go/server"
	"trpc.group/trpc-go/trpc-a2a-go/taskmanager"

	"github.com/tuannvm/jira-reporter/internal/common"
	"github.com/tuannvm/jira-reporter/internal/config"
	log "github.com/tuannvm/jira-reporter/internal/logging"
	"github.com/tuannvm/jira-reporter/internal/models"
	"github.com/tuannvm/jira-reporter/internal/report"
)

// ReporterAgent serves the report tools over A2A. A2A callers cannot sample,
// so summaries come from the server-side LLM when one is configured.
type ReporterAgent struct {
	cfg     *config.Config
	gen     *report.Generator
	sampler report.Sampler
}

// NewReporterAgent creates a ReporterAgent. sampler may be nil, in which case
// summaries are skipped.
func NewReporterAgent(cfg *config.Config, gen *report.Generator, sampler report.Sampler) *ReporterAgent {
	return &ReporterAgent{cfg: cfg, gen: gen, sampler: sampler}
}

// Process implements the TaskProcessor interface
func (a *ReporterAgent) Process(ctx context.Context, taskID string, msg protocol.Message, handle taskmanager.TaskHandle) error {
	log.Infof("Processing report task %s", taskID)
	if err := handle.UpdateStatus(protocol.TaskState(common.StateWorking), nil); err != nil {
		log.Warnf("Failed to update task status: %v", err)
	}

	result := a.HandleMessage(ctx, msg)
	reply := &protocol.Message{Parts: []protocol.Part{protocol.NewTextPart(result.Text())}}

	if result.IsError() {
		log.Warnf("Report task %s failed: %s", taskID, result.Text())
		if err := handle.UpdateStatus(protocol.TaskState(common.StateFailed), reply); err != nil {
			return errors.Wrap(err, "failed to mark task failed")
		}
		return nil
	}

	artifact := protocol.Artifact{
		Name:        common.StringPtr("report"),
		Description: common.StringPtr("Jira report"),
		Parts:       []protocol.Part{protocol.NewTextPart(result.Text())},
	}
	if err := handle.AddArtifact(artifact); err != nil {
		return errors.Wrap(err, "failed to record artifact")
	}
	if err := handle.UpdateStatus(protocol.TaskState(common.StateCompleted), reply); err != nil {
		return errors.Wrap(err, "failed to complete task")
	}

	log.Infof("Task %s completed successfully", taskID)
	return nil
}

// HandleMessage decodes the tool call in msg and runs it.
func (a *ReporterAgent) HandleMessage(ctx context.Context, msg protocol.Message) models.ToolResult {
	call, err := common.ExtractToolCall(msg)
	if err != nil {
		return report.FailureResult(report.AsInvalidArgument(err))
	}

	switch call.Tool {
	case common.ToolFindDelayedIssues:
		req, err := report.ParseDelayedArgs(call.Arguments)
		if err != nil {
			return report.FailureResult(err)
		}
		return a.gen.FindDelayed(ctx, req, a.samplerIf(req.ExplainDelay))
	default:
		req, err := report.ParseReportArgs(call.Arguments)
		if err != nil {
			return report.FailureResult(err)
		}
		return a.gen.Generate(ctx, req, a.samplerIf(req.Summarize))
	}
}

func (a *ReporterAgent) samplerIf(wanted bool) report.Sampler {
	if !wanted || a.sampler == nil {
		return nil
	}
	return a.sampler
}

// SetupServer creates the A2A server for this agent.
func (a *ReporterAgent) SetupServer() (*server.A2AServer, error) {
	return common.SetupServer(common.SetupServerOptions{
		AgentName:    a.cfg.AgentName,
		AgentVersion: a.cfg.AgentVersion,
		AgentURL:     a.cfg.AgentURL,
		Description:  "Generates plain-text Jira issue reports, optionally summarized by an LLM.",
		AuthType:     a.cfg.AuthType,
		JWTSecret:    a.cfg.JWTSecret,
		APIKey:       a.cfg.APIKey,
		Processor:    a,
		Skills:       Skills(),
	})
}

// Skills describes the tools the agent accepts.
func Skills() []server.AgentSkill {
	return []server.AgentSkill{
		{
			ID:          common.ToolGenerateReport,
			Name:        "Generate Jira report",
			Description: common.StringPtr(`Report of issues matching a JQL query. Send {"tool":"generate_report","arguments":{"project_key":"PROJ","summarize":true}}.`),
		},
		{
			ID:          common.ToolFindDelayedIssues,
			Name:        "Find delayed Jira issues",
			Description: common.StringPtr(`Unresolved issues past their due date. Send {"tool":"find_delayed_issues","arguments":{"explain_delay":true}}.`),
		},
	}
}
