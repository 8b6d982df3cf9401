package report

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	log "github.com/tuannvm/jira-reporter/internal/logging"
	"github.com/tuannvm/jira-reporter/internal/models"
)

const (
	toolGenerate = "generate_report"
	toolDelayed  = "find_delayed_issues"
)

// Fetcher is the slice of the Jira client the reports need.
type Fetcher interface {
	Search(ctx context.Context, jql string, limit int) ([]models.IssueRecord, bool, error)
	Comments(ctx context.Context, issueKey string, n int) ([]models.Comment, error)
}

// Generator runs the report pipeline. It holds no per-request state and is
// safe for concurrent use.
type Generator struct {
	fetcher Fetcher
	pool    *Pool
	now     func() time.Time
	tel     *telemetry
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock overrides the clock used for report dates.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// NewGenerator creates a Generator fetching through f on pool.
func NewGenerator(f Fetcher, pool *Pool, opts ...Option) *Generator {
	g := &Generator{
		fetcher: f,
		pool:    pool,
		now:     time.Now,
		tel:     newTelemetry(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.pool == nil {
		g.pool = NewPool(1)
	}
	return g
}

// Validate checks a report request before any Jira call is made.
func Validate(req models.ReportRequest) error {
	return validateMax(req.MaxResults)
}

func validateMax(n int) error {
	if n < 1 || n > models.MaxResultsLimit {
		return invalidArgument("max_results must be between 1 and %d, got %d", models.MaxResultsLimit, n)
	}
	return nil
}

// Generate builds the report for req and optionally summarizes it with
// sampler. sampler may be nil. The result is an Error only for invalid
// arguments and fetch failures.
func (g *Generator) Generate(ctx context.Context, req models.ReportRequest, sampler Sampler) models.ToolResult {
	ctx, span := g.tel.start(ctx, "report.generate",
		attribute.Int("max_results", req.MaxResults),
		attribute.Bool("summarize", req.Summarize),
	)

	text, err := g.generate(ctx, req, sampler)
	endSpan(span, err)
	if err != nil {
		g.tel.count(ctx, g.tel.failed, toolGenerate)
		return FailureResult(err)
	}
	g.tel.count(ctx, g.tel.generated, toolGenerate)
	return models.OkResult(text)
}

func (g *Generator) generate(ctx context.Context, req models.ReportRequest, sampler Sampler) (string, error) {
	if err := Validate(req); err != nil {
		log.Warnf("Rejected report request: %v", err)
		return "", err
	}

	jql := BuildQuery(req)
	log.Infof("Generating Jira report (max %d, summarize=%v)", req.MaxResults, req.Summarize)
	log.Debugf("Using JQL: %s", jql)

	issues, hadMore, err := g.search(ctx, jql, req.MaxResults)
	if err != nil {
		return "", err
	}
	log.Infof("Found %d issues matching JQL", len(issues))

	report := Format(jql, issues, hadMore, req.MaxResults, g.now())

	sctx, span := g.tel.start(ctx, "report.summarize")
	outcome := MaybeSummarize(sctx, report, req.Summarize, sampler)
	span.SetAttributes(attribute.String("outcome", outcome.Kind.String()))
	span.End()
	if outcome.Kind == FailedFallback {
		g.tel.count(ctx, g.tel.fallbacks, toolGenerate)
	}
	return outcome.Text(), nil
}

// search runs the Jira query on the pool.
func (g *Generator) search(ctx context.Context, jql string, limit int) ([]models.IssueRecord, bool, error) {
	ctx, span := g.tel.start(ctx, "report.fetch", attribute.String("jql", jql))

	type page struct {
		issues  []models.IssueRecord
		hadMore bool
	}
	p, err := Run(ctx, g.pool, func(ctx context.Context) (page, error) {
		issues, hadMore, err := g.fetcher.Search(ctx, jql, limit)
		return page{issues, hadMore}, err
	})
	if err != nil {
		err = fetchFailed(err)
		log.Errorf("Jira interaction failed: %v", err)
	}
	endSpan(span, err)
	return p.issues, p.hadMore, err
}
