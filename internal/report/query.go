package report

import (
	"fmt"
	"strings"

	"github.com/tuannvm/jira-reporter/internal/models"
)

// DefaultJQL selects issues updated in the last week, most recent first.
const DefaultJQL = "updated >= -7d ORDER BY updated DESC"

// delayedJQL selects unresolved issues past their due date, oldest due date first.
const delayedJQL = "duedate < now() AND resolution = Unresolved ORDER BY duedate ASC"

// BuildQuery composes the JQL for a report request. The filter expression is
// used verbatim; a scope key is AND-ed in front of it whether the filter is
// the default or caller supplied.
func BuildQuery(req models.ReportRequest) string {
	jql := strings.TrimSpace(req.FilterExpression)
	if jql == "" {
		jql = DefaultJQL
	}
	return scoped(req.ScopeKey, jql)
}

// BuildDelayedQuery composes the JQL for a delayed-issue request.
func BuildDelayedQuery(req models.DelayedRequest) string {
	return scoped(req.ScopeKey, delayedJQL)
}

func scoped(scopeKey, jql string) string {
	key := strings.ToUpper(strings.TrimSpace(scopeKey))
	if key == "" {
		return jql
	}
	return fmt.Sprintf("project = '%s' AND %s", key, jql)
}
