package jira

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/tuannvm/jira-reporter/internal/models"
)

// timestamp is the layout Jira uses for created/updated fields.
const timestamp = "2006-01-02T15:04:05.999-0700"

// jiraTime decodes Jira timestamps; null and empty values decode to the zero time.
type jiraTime struct {
	time.Time
}

func (t *jiraTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil || s == "" {
		// null or a non-string value
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{timestamp, time.RFC3339Nano, "2006-01-02T15:04:05.999Z0700"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	t.Time = time.Time{}
	return nil
}

type userPayload struct {
	DisplayName string `json:"displayName"`
}

type issuePayload struct {
	Key    string `json:"key"`
	Fields struct {
		Summary string `json:"summary"`
		Status  *struct {
			Name string `json:"name"`
		} `json:"status"`
		Assignee *userPayload `json:"assignee"`
		Updated  jiraTime     `json:"updated"`
		DueDate  string       `json:"duedate"`
	} `json:"fields"`
}

func (p issuePayload) record() models.IssueRecord {
	rec := models.IssueRecord{
		Key:     p.Key,
		Summary: p.Fields.Summary,
		Updated: p.Fields.Updated.Time,
		DueDate: p.Fields.DueDate,
	}
	if p.Fields.Status != nil {
		rec.Status = p.Fields.Status.Name
	}
	if p.Fields.Assignee != nil {
		rec.Assignee = p.Fields.Assignee.DisplayName
	}
	return rec
}

// offsetPage is a /rest/api/2/search response.
type offsetPage struct {
	StartAt    int            `json:"startAt"`
	MaxResults int            `json:"maxResults"`
	Total      int            `json:"total"`
	Issues     []issuePayload `json:"issues"`
}

// tokenPage is a /rest/api/3/search/jql response.
type tokenPage struct {
	Issues        []issuePayload `json:"issues"`
	NextPageToken string         `json:"nextPageToken"`
	IsLast        bool           `json:"isLast"`
}

type commentPayload struct {
	Author  userPayload     `json:"author"`
	Created jiraTime        `json:"created"`
	Body    json.RawMessage `json:"body"`
}

type commentPage struct {
	StartAt  int              `json:"startAt"`
	Total    int              `json:"total"`
	Comments []commentPayload `json:"comments"`
}

// adfNode is the subset of the Atlassian Document Format needed to pull text out.
type adfNode struct {
	Type    string    `json:"type"`
	Text    string    `json:"text"`
	Content []adfNode `json:"content"`
}

// bodyText renders a comment body as plain text. API v2 returns wiki markup
// strings; API v3 returns ADF documents.
func bodyText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var doc adfNode
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ""
	}
	var sb strings.Builder
	writeADF(&sb, doc)
	return strings.TrimSpace(sb.String())
}

func writeADF(sb *strings.Builder, n adfNode) {
	switch n.Type {
	case "text":
		sb.WriteString(n.Text)
		return
	case "hardBreak":
		sb.WriteString("\n")
		return
	}
	for _, child := range n.Content {
		writeADF(sb, child)
	}
	switch n.Type {
	case "paragraph", "heading", "listItem", "codeBlock", "blockquote":
		sb.WriteString("\n")
	}
}
