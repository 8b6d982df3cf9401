package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/sourcegraph/conc/iter"
	"go.opentelemetry.io/otel/attribute"

	log "github.com/tuannvm/jira-reporter/internal/logging"
	"github.com/tuannvm/jira-reporter/internal/models"
)

const (
	recentComments    = 5
	reasonMaxTokens   = 100
	noCommentsReason  = "No recent comments."
	reasonUnavailable = "Analysis unavailable."
)

// ValidateDelayed checks a delayed-issue request before any Jira call is made.
func ValidateDelayed(req models.DelayedRequest) error {
	return validateMax(req.MaxResults)
}

// FindDelayed reports unresolved issues past their due date. With
// ExplainDelay set, each issue's recent comments are handed to sampler for a
// short delay reason. Explanation failures never fail the request.
func (g *Generator) FindDelayed(ctx context.Context, req models.DelayedRequest, sampler Sampler) models.ToolResult {
	ctx, span := g.tel.start(ctx, "report.find_delayed",
		attribute.Int("max_results", req.MaxResults),
		attribute.Bool("explain_delay", req.ExplainDelay),
	)

	text, err := g.findDelayed(ctx, req, sampler)
	endSpan(span, err)
	if err != nil {
		g.tel.count(ctx, g.tel.failed, toolDelayed)
		return FailureResult(err)
	}
	g.tel.count(ctx, g.tel.generated, toolDelayed)
	return models.OkResult(text)
}

func (g *Generator) findDelayed(ctx context.Context, req models.DelayedRequest, sampler Sampler) (string, error) {
	if err := ValidateDelayed(req); err != nil {
		log.Warnf("Rejected delayed-issue request: %v", err)
		return "", err
	}

	jql := BuildDelayedQuery(req)
	log.Infof("Searching for delayed Jira issues (max %d)", req.MaxResults)
	log.Debugf("Using JQL: %s", jql)

	issues, hadMore, err := g.search(ctx, jql, req.MaxResults)
	if err != nil {
		return "", err
	}
	log.Infof("Found %d delayed issues", len(issues))

	var reasons map[string]string
	if req.ExplainDelay {
		if len(issues) > req.MaxResults {
			issues = issues[:req.MaxResults]
		}
		reasons = g.explainDelays(ctx, issues, sampler)
	}

	return FormatDelayed(jql, issues, hadMore, req.MaxResults, reasons, g.now()).Text(), nil
}

// explainDelays fetches recent comments for every issue and asks sampler for
// a delay reason per issue. Both fan-outs run concurrently.
func (g *Generator) explainDelays(ctx context.Context, issues []models.IssueRecord, sampler Sampler) map[string]string {
	ctx, span := g.tel.start(ctx, "report.explain_delays", attribute.Int("issues", len(issues)))
	defer span.End()

	comments := iter.Map(issues, func(is *models.IssueRecord) []models.Comment {
		cs, err := Run(ctx, g.pool, func(ctx context.Context) ([]models.Comment, error) {
			return g.fetcher.Comments(ctx, is.Key, recentComments)
		})
		if err != nil {
			log.Warnf("[%s] Failed to load comments: %v", is.Key, err)
			return nil
		}
		return cs
	})

	idx := make([]int, len(issues))
	for i := range idx {
		idx[i] = i
	}
	explained := iter.Map(idx, func(i *int) string {
		is, cs := issues[*i], comments[*i]
		if len(cs) == 0 {
			return noCommentsReason
		}
		if sampler == nil {
			return reasonUnavailable
		}
		text, err := sampler.Sample(ctx, delayPrompt(is, cs), reasonMaxTokens)
		text = strings.TrimSpace(text)
		if err != nil || text == "" {
			log.Warnf("[%s] Delay analysis failed: %v", is.Key, err)
			g.tel.count(ctx, g.tel.fallbacks, toolDelayed)
			return reasonUnavailable
		}
		return text
	})

	reasons := make(map[string]string, len(issues))
	for i, is := range issues {
		reasons[is.Key] = explained[i]
	}
	return reasons
}

func delayPrompt(is models.IssueRecord, comments []models.Comment) string {
	due := is.DueDate
	if due == "" {
		due = noDueDate
	}
	parts := make([]string, 0, len(comments))
	for _, c := range comments {
		parts = append(parts, fmt.Sprintf("Author: %s, Date: %s\n%s", c.Author, c.Created.Format(dateLayout), c.Body))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The following Jira issue is past its due date (%s) but is still in '%s' status.\n", due, is.Status)
	fmt.Fprintf(&b, "Issue key: %s\n", is.Key)
	fmt.Fprintf(&b, "Summary: %s\n", is.Summary)
	b.WriteString("Based on the recent comments, briefly infer the main reason for the delay ")
	b.WriteString("(for example: \"waiting for information\", \"blocked by other work\", \"assignee unavailable\", \"scope grew\").\n\n")
	b.WriteString("Recent comments:\n")
	b.WriteString(strings.Join(parts, "\n---\n"))
	b.WriteString("\n\nLikely delay reason:")
	return b.String()
}
