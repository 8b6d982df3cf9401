package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/tuannvm/jira-reporter/internal/models"
)

const (
	dateLayout    = "2006-01-02"
	updatedLayout = "2006-01-02 15:04"

	noIssuesLine        = "No issues found matching the criteria."
	noDelayedIssuesLine = "No delayed issues found matching the criteria."
	unassigned          = "Unassigned"
	noDueDate           = "No due date"
)

// Format renders issues into a report. Fetcher order is kept. Issues beyond
// limit are dropped and the report marked truncated. Format never fails.
func Format(query string, issues []models.IssueRecord, hadMore bool, limit int, now time.Time) models.Report {
	issues, truncated := capIssues(issues, hadMore, limit)

	body := []string{
		fmt.Sprintf("Jira Report (%s)", now.Format(dateLayout)),
		"Query: " + query,
		foundLine("issues", len(issues), limit, truncated),
		strings.Repeat("-", 20),
	}
	if len(issues) == 0 {
		body = append(body, noIssuesLine)
	}
	for _, is := range issues {
		body = append(body, fmt.Sprintf("- [%s] %s | Status: %s | Assignee: %s | Updated: %s",
			is.Key, is.Summary, is.Status, assigneeOf(is), updatedOf(is)))
	}

	return models.Report{
		QueryUsed:  query,
		IssueCount: len(issues),
		Truncated:  truncated,
		Body:       body,
	}
}

// FormatDelayed renders overdue issues. reasons maps issue keys to a delay
// explanation and is nil when no explanation was requested.
func FormatDelayed(query string, issues []models.IssueRecord, hadMore bool, limit int, reasons map[string]string, now time.Time) models.Report {
	issues, truncated := capIssues(issues, hadMore, limit)

	body := []string{
		fmt.Sprintf("Jira Delayed Issues Report (%s)", now.Format(dateLayout)),
		"Query: " + query,
		foundLine("delayed issues", len(issues), limit, truncated),
		strings.Repeat("-", 30),
	}
	if len(issues) == 0 {
		body = append(body, noDelayedIssuesLine)
	}
	for _, is := range issues {
		due := is.DueDate
		if due == "" {
			due = noDueDate
		}
		body = append(body,
			"",
			fmt.Sprintf("- [%s] %s", is.Key, is.Summary),
			fmt.Sprintf("  Status: %s, Assignee: %s, Due: %s", is.Status, assigneeOf(is), due),
		)
		if reasons != nil {
			reason, ok := reasons[is.Key]
			if !ok {
				reason = reasonUnavailable
			}
			body = append(body, "  Likely delay reason: "+reason)
		}
	}

	return models.Report{
		QueryUsed:  query,
		IssueCount: len(issues),
		Truncated:  truncated,
		Body:       body,
	}
}

func capIssues(issues []models.IssueRecord, hadMore bool, limit int) ([]models.IssueRecord, bool) {
	if limit > 0 && len(issues) > limit {
		return issues[:limit], true
	}
	return issues, hadMore
}

func foundLine(noun string, count, limit int, truncated bool) string {
	line := fmt.Sprintf("Found %d %s (showing max %d):", count, noun, limit)
	if truncated {
		line += " (more results available)"
	}
	return line
}

func assigneeOf(is models.IssueRecord) string {
	if is.Assignee == "" {
		return unassigned
	}
	return is.Assignee
}

func updatedOf(is models.IssueRecord) string {
	if is.Updated.IsZero() {
		return "unknown"
	}
	return is.Updated.Format(updatedLayout)
}
