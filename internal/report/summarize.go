package report

import (
	"context"
	"strings"

	"github.com/go-faster/errors"

	log "github.com/tuannvm/jira-reporter/internal/logging"
	"github.com/tuannvm/jira-reporter/internal/models"
)

const (
	summaryInstruction = "Please summarize the following Jira report, highlighting key updates or trends"
	summaryMaxTokens   = 300
)

// Sampler asks a language model for a completion. The MCP client session
// and the server-side LLM client both satisfy it.
type Sampler interface {
	Sample(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// SamplerFunc adapts a function to the Sampler interface.
type SamplerFunc func(ctx context.Context, prompt string, maxTokens int) (string, error)

// Sample calls f.
func (f SamplerFunc) Sample(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return f(ctx, prompt, maxTokens)
}

// OutcomeKind tells which branch the summarizer took.
type OutcomeKind int

const (
	// Skipped means no summary was requested or no sampler was available.
	Skipped OutcomeKind = iota
	// Summarized means the sampler returned a usable summary.
	Summarized
	// FailedFallback means the sampler failed and the plain report is returned.
	FailedFallback
)

func (k OutcomeKind) String() string {
	switch k {
	case Skipped:
		return "skipped"
	case Summarized:
		return "summarized"
	case FailedFallback:
		return "failed_fallback"
	default:
		return "unknown"
	}
}

// Outcome is the result of MaybeSummarize. Summary is set only for Summarized;
// Err only for FailedFallback.
type Outcome struct {
	Kind    OutcomeKind
	Summary string
	Report  string
	Err     error
}

// Text returns the payload the caller should see.
func (o Outcome) Text() string {
	if o.Kind == Summarized {
		return "Summary:\n" + o.Summary + "\n\nFull Report:\n" + o.Report
	}
	return o.Report
}

// MaybeSummarize optionally prepends an LLM summary to the report. It never
// fails: every sampler error falls back to the unmodified report.
func MaybeSummarize(ctx context.Context, report models.Report, summarize bool, sampler Sampler) Outcome {
	body := report.Text()
	if !summarize || sampler == nil {
		return Outcome{Kind: Skipped, Report: body}
	}

	prompt := summaryInstruction + ":\n\n" + body
	text, err := sampler.Sample(ctx, prompt, summaryMaxTokens)
	if err == nil && strings.TrimSpace(text) == "" {
		err = errors.New("empty summary")
	}
	if err != nil {
		log.Warnf("Failed to get summary from LLM: %v. Returning raw report.", err)
		return Outcome{Kind: FailedFallback, Report: body, Err: err}
	}

	log.Infof("Summary received from LLM")
	return Outcome{Kind: Summarized, Summary: strings.TrimSpace(text), Report: body}
}
