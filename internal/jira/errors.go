package jira

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	atlmodels "github.com/ctreminiom/go-atlassian/v2/pkg/infra/models"
)

// Error is returned for every failed Jira call. Message is safe to show to
// callers: it never contains credentials.
type Error struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("jira %s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// newError classifies a failed call by HTTP status.
func newError(op string, res *atlmodels.ResponseScheme, err error) *Error {
	status := 0
	var detail string
	if res != nil {
		status = res.Code
		detail = errorDetail(res.Bytes.Bytes())
	}

	var msg string
	switch {
	case status == http.StatusUnauthorized:
		msg = "authentication failed (check JIRA_USERNAME and JIRA_API_TOKEN)"
	case status == http.StatusForbidden:
		msg = "permission denied"
	case status == http.StatusBadRequest:
		msg = "invalid query syntax"
	case status == http.StatusNotFound:
		msg = "not found"
	case status == http.StatusTooManyRequests:
		msg = "rate limited by Jira"
	case status >= 500:
		msg = fmt.Sprintf("Jira server error (status %d)", status)
	case status != 0:
		msg = fmt.Sprintf("unexpected status %d", status)
	default:
		msg = fmt.Sprintf("network failure: %v", err)
	}
	if detail != "" {
		msg += ": " + detail
	}
	return &Error{Op: op, Status: status, Message: msg, Err: err}
}

// errorDetail extracts Jira's {errorMessages, errors} payload.
func errorDetail(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload struct {
		ErrorMessages []string          `json:"errorMessages"`
		Errors        map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	parts := append([]string{}, payload.ErrorMessages...)
	for field, m := range payload.Errors {
		parts = append(parts, field+": "+m)
	}
	return strings.Join(parts, "; ")
}
