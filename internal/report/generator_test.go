package report

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannvm/jira-reporter/internal/models"
)

type stubFetcher struct {
	mu       sync.Mutex
	issues   []models.IssueRecord
	hadMore  bool
	err      error
	comments map[string][]models.Comment
	// commentErr fails comment loading for the listed keys.
	commentErr map[string]error

	searches []string
	limits   []int
}

func (s *stubFetcher) Search(_ context.Context, jql string, limit int) ([]models.IssueRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searches = append(s.searches, jql)
	s.limits = append(s.limits, limit)
	if s.err != nil {
		return nil, false, s.err
	}
	return s.issues, s.hadMore, nil
}

func (s *stubFetcher) Comments(_ context.Context, key string, _ int) ([]models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.commentErr[key]; err != nil {
		return nil, err
	}
	return s.comments[key], nil
}

func (s *stubFetcher) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.searches)
}

type stubSampler struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (s *stubSampler) Sample(_ context.Context, prompt string, _ int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	return s.reply, s.err
}

func newTestGenerator(f Fetcher) *Generator {
	return NewGenerator(f, NewPool(2), WithClock(func() time.Time { return fixedNow }))
}

func TestGenerateDefaults(t *testing.T) {
	t.Parallel()

	f := &stubFetcher{issues: issues(3)}
	res := newTestGenerator(f).Generate(context.Background(), models.NewReportRequest(), nil)

	require.False(t, res.IsError(), res.Text())
	assert.Contains(t, res.Text(), "Jira Report (2026-10-18)\nQuery: "+DefaultJQL)
	assert.Len(t, issueLines(strings.Split(res.Text(), "\n")), 3)
	assert.Equal(t, []string{DefaultJQL}, f.searches)
	assert.Equal(t, []int{models.DefaultMaxResults}, f.limits)
}

func TestGenerateScopedEmpty(t *testing.T) {
	t.Parallel()

	f := &stubFetcher{}
	req := models.ReportRequest{ScopeKey: "MYPROJ", MaxResults: 20}
	res := newTestGenerator(f).Generate(context.Background(), req, nil)

	require.False(t, res.IsError(), res.Text())
	assert.Contains(t, res.Text(), "project = 'MYPROJ'")
	assert.Contains(t, res.Text(), "Found 0 issues (showing max 20):")
	assert.True(t, strings.HasSuffix(res.Text(), "No issues found matching the criteria."))
}

func TestGenerateSummarized(t *testing.T) {
	t.Parallel()

	f := &stubFetcher{issues: issues(2)}
	s := &stubSampler{reply: "OK summary"}
	req := models.NewReportRequest()
	req.Summarize = true

	res := newTestGenerator(f).Generate(context.Background(), req, s)

	require.False(t, res.IsError(), res.Text())
	require.True(t, strings.HasPrefix(res.Text(), "Summary:\nOK summary\n\nFull Report:\n"), res.Text())
	full := strings.SplitN(res.Text(), "Full Report:\n", 2)[1]
	assert.Len(t, issueLines(strings.Split(full, "\n")), 2)

	require.Len(t, s.prompts, 1)
	assert.True(t, strings.HasPrefix(s.prompts[0], summaryInstruction))
	assert.Contains(t, s.prompts[0], full)
}

func TestGenerateInvalidMaxResults(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, -1, models.MaxResultsLimit + 1} {
		f := &stubFetcher{issues: issues(1)}
		req := models.NewReportRequest()
		req.MaxResults = n

		res := newTestGenerator(f).Generate(context.Background(), req, nil)

		assert.True(t, res.IsError())
		assert.Contains(t, res.Text(), "Could not generate Jira report")
		assert.Contains(t, res.Text(), "max_results must be between 1 and 1000")
		assert.Zero(t, f.calls(), "fetcher must not be invoked for max_results=%d", n)
		assert.ErrorIs(t, Validate(req), ErrInvalidArgument)
	}
}

func TestGenerateFetchError(t *testing.T) {
	t.Parallel()

	f := &stubFetcher{err: errors.New("jira search: authentication failed (check JIRA_USERNAME and JIRA_API_TOKEN)")}
	s := &stubSampler{reply: "never used"}
	req := models.NewReportRequest()
	req.Summarize = true

	res := newTestGenerator(f).Generate(context.Background(), req, s)

	assert.True(t, res.IsError())
	assert.Equal(t, "Error: Could not generate Jira report. jira search: authentication failed (check JIRA_USERNAME and JIRA_API_TOKEN)", res.Text())
	assert.Empty(t, s.prompts)
	assert.Equal(t, 1, f.calls(), "fetch failures are not retried")
}

func TestGenerateSummaryFailureKeepsReport(t *testing.T) {
	t.Parallel()

	for name, s := range map[string]*stubSampler{
		"error":       {err: errors.New("sampling not supported by client")},
		"empty reply": {reply: "  "},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			f := &stubFetcher{issues: issues(2)}
			g := newTestGenerator(f)

			plain := g.Generate(context.Background(), models.NewReportRequest(), nil)
			req := models.NewReportRequest()
			req.Summarize = true
			res := g.Generate(context.Background(), req, s)

			require.False(t, res.IsError())
			assert.Equal(t, plain.Text(), res.Text())
			assert.NotContains(t, res.Text(), "Summary:")
		})
	}
}

func TestGenerateBoundsIssueCount(t *testing.T) {
	t.Parallel()

	// A fetcher ignoring the limit must not leak extra issues into the report.
	f := &stubFetcher{issues: issues(30)}
	req := models.NewReportRequest()
	req.MaxResults = 10

	res := newTestGenerator(f).Generate(context.Background(), req, nil)

	require.False(t, res.IsError())
	assert.Len(t, issueLines(strings.Split(res.Text(), "\n")), 10)
	assert.Contains(t, res.Text(), "Found 10 issues (showing max 10): (more results available)")
}

func TestGenerateCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := &stubFetcher{issues: issues(1)}

	res := newTestGenerator(f).Generate(ctx, models.NewReportRequest(), nil)

	assert.True(t, res.IsError())
	assert.Contains(t, res.Text(), context.Canceled.Error())
}
