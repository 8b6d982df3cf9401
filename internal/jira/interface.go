package jira

import (
	"context"

	"github.com/tuannvm/jira-reporter/internal/models"
)

// IssueSearcher defines the search operation the report pipeline needs.
type IssueSearcher interface {
	Search(ctx context.Context, jql string, limit int) ([]models.IssueRecord, bool, error)
}

// CommentReader defines comment retrieval used for delay explanations.
type CommentReader interface {
	Comments(ctx context.Context, issueKey string, n int) ([]models.Comment, error)
}

// ClientInterface defines the operations a Jira client should implement
type ClientInterface interface {
	IssueSearcher
	CommentReader
	Myself(ctx context.Context) (string, error)
}

var _ ClientInterface = (*Client)(nil)
