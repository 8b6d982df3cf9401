package report

import (
	"github.com/go-faster/errors"

	"github.com/tuannvm/jira-reporter/internal/models"
)

var (
	// ErrInvalidArgument marks malformed requests. They are never retried.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrFetch marks failures while retrieving issues from Jira.
	ErrFetch = errors.New("fetch failed")
)

// kindError tags a cause with one of the sentinels while keeping the
// cause's message and chain intact.
type kindError struct {
	kind error
	err  error
}

func (e *kindError) Error() string        { return e.err.Error() }
func (e *kindError) Unwrap() error        { return e.err }
func (e *kindError) Is(target error) bool { return target == e.kind }

func invalidArgument(format string, args ...interface{}) error {
	return &kindError{kind: ErrInvalidArgument, err: errors.Errorf(format, args...)}
}

// AsInvalidArgument marks err as an invalid-argument failure.
func AsInvalidArgument(err error) error {
	return &kindError{kind: ErrInvalidArgument, err: err}
}

func fetchFailed(err error) error {
	return &kindError{kind: ErrFetch, err: err}
}

// FailureResult converts a terminal pipeline error into an Error result.
func FailureResult(err error) models.ToolResult {
	return models.ErrorResult("Error: Could not generate Jira report. " + err.Error())
}
