package models

import (
	"strings"
	"time"
)

const (
	// DefaultMaxResults is the result cap applied when a request does not name one.
	DefaultMaxResults = 50

	// DefaultDelayedMaxResults is the result cap for delayed-issue reports.
	DefaultDelayedMaxResults = 15

	// MaxResultsLimit is the largest result cap a request may ask for.
	MaxResultsLimit = 1000
)

// ReportRequest carries the parameters of a generate_report call.
// An empty FilterExpression or ScopeKey means the value was not supplied.
type ReportRequest struct {
	FilterExpression string `json:"jql_query,omitempty"`
	ScopeKey         string `json:"project_key,omitempty"`
	MaxResults       int    `json:"max_results"`
	Summarize        bool   `json:"summarize"`
}

// NewReportRequest returns a request with every default applied.
func NewReportRequest() ReportRequest {
	return ReportRequest{MaxResults: DefaultMaxResults}
}

// DelayedRequest carries the parameters of a find_delayed_issues call.
type DelayedRequest struct {
	ScopeKey     string `json:"project_key,omitempty"`
	MaxResults   int    `json:"max_results"`
	ExplainDelay bool   `json:"explain_delay"`
}

// NewDelayedRequest returns a delayed-issue request with defaults applied.
func NewDelayedRequest() DelayedRequest {
	return DelayedRequest{MaxResults: DefaultDelayedMaxResults}
}

// IssueRecord is a read-only projection of a Jira issue.
type IssueRecord struct {
	Key      string    `json:"key"`
	Summary  string    `json:"summary"`
	Status   string    `json:"status"`
	Assignee string    `json:"assignee,omitempty"` // empty when unassigned
	Updated  time.Time `json:"updated"`
	DueDate  string    `json:"dueDate,omitempty"` // YYYY-MM-DD, empty when unset
}

// Comment is a single Jira comment reduced to plain text.
type Comment struct {
	Author  string    `json:"author"`
	Created time.Time `json:"created"`
	Body    string    `json:"body"`
}

// Report is the formatted output of one request.
type Report struct {
	QueryUsed  string   `json:"queryUsed"`
	IssueCount int      `json:"issueCount"`
	Truncated  bool     `json:"truncated"`
	Body       []string `json:"body"`
}

// Text joins the report lines.
func (r Report) Text() string {
	return strings.Join(r.Body, "\n")
}

// ToolResult is either an Ok text payload or an Error message.
type ToolResult struct {
	text    string
	isError bool
}

// OkResult wraps a successful payload.
func OkResult(text string) ToolResult {
	return ToolResult{text: text}
}

// ErrorResult wraps a failure message.
func ErrorResult(message string) ToolResult {
	return ToolResult{text: message, isError: true}
}

// IsError reports whether the result is the Error variant.
func (r ToolResult) IsError() bool { return r.isError }

// Text returns the payload for Ok results and the message for Error results.
func (r ToolResult) Text() string { return r.text }
