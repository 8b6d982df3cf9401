package jira

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	v2 "github.com/ctreminiom/go-atlassian/v2/jira/v2"
	v3 "github.com/ctreminiom/go-atlassian/v2/jira/v3"
	atlmodels "github.com/ctreminiom/go-atlassian/v2/pkg/infra/models"
	"github.com/go-faster/errors"
	"golang.org/x/oauth2"

	"github.com/tuannvm/jira-reporter/internal/config"
	log "github.com/tuannvm/jira-reporter/internal/logging"
	"github.com/tuannvm/jira-reporter/internal/models"
)

// maxPageSize is the largest page Jira returns for a search.
const maxPageSize = 100

// searchFields are the only issue fields the reports read.
var searchFields = []string{"summary", "status", "assignee", "updated", "duedate"}

// connector is the request/response surface shared by the go-atlassian v2 and v3 clients.
type connector interface {
	NewRequest(ctx context.Context, method, urlStr, contentType string, body interface{}) (*http.Request, error)
	Call(request *http.Request, structure interface{}) (*atlmodels.ResponseScheme, error)
}

// Client talks to the Jira REST API through go-atlassian.
type Client struct {
	conn       connector
	apiVersion string
}

// NewClient creates a Jira client from a validated configuration.
func NewClient(cfg *config.Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	httpClient := NewHTTPClient(cfg)

	switch cfg.JiraAPIVersion {
	case "2":
		c, err := v2.New(httpClient, cfg.JiraBaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "create jira v2 client")
		}
		if cfg.JiraAuthType == "basic" {
			c.Auth.SetBasicAuth(cfg.JiraUsername, cfg.JiraAPIToken)
		}
		return newClient(c, "2"), nil
	default:
		c, err := v3.New(httpClient, cfg.JiraBaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "create jira v3 client")
		}
		if cfg.JiraAuthType == "basic" {
			c.Auth.SetBasicAuth(cfg.JiraUsername, cfg.JiraAPIToken)
		}
		return newClient(c, "3"), nil
	}
}

func newClient(conn connector, apiVersion string) *Client {
	return &Client{conn: conn, apiVersion: apiVersion}
}

// NewHTTPClient builds the transport for Jira calls. Personal access tokens
// (bearer auth) are injected by an oauth2 static token source; basic auth is
// set on the go-atlassian client instead.
func NewHTTPClient(cfg *config.Config) *http.Client {
	if cfg.JiraAuthType == "bearer" {
		base := &http.Client{Timeout: cfg.JiraHTTPTimeout}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.JiraAPIToken, TokenType: "Bearer"})
		hc := oauth2.NewClient(ctx, ts)
		hc.Timeout = cfg.JiraHTTPTimeout
		return hc
	}
	return &http.Client{Timeout: cfg.JiraHTTPTimeout}
}

func (c *Client) path(format string, args ...interface{}) string {
	return fmt.Sprintf("rest/api/%s/", c.apiVersion) + fmt.Sprintf(format, args...)
}

// Myself verifies the credentials by fetching the calling user.
func (c *Client) Myself(ctx context.Context) (string, error) {
	req, err := c.conn.NewRequest(ctx, http.MethodGet, c.path("myself"), "", nil)
	if err != nil {
		return "", newError("myself", nil, err)
	}
	var me struct {
		DisplayName  string `json:"displayName"`
		EmailAddress string `json:"emailAddress"`
	}
	res, err := c.conn.Call(req, &me)
	if err != nil {
		return "", newError("myself", res, err)
	}
	if me.DisplayName != "" {
		return me.DisplayName, nil
	}
	return me.EmailAddress, nil
}

// Search runs jql and returns at most limit issues in the order Jira
// returned them. hadMore reports whether further matches exist.
func (c *Client) Search(ctx context.Context, jql string, limit int) ([]models.IssueRecord, bool, error) {
	if limit < 1 {
		return nil, false, errors.Errorf("jira: invalid search limit %d", limit)
	}
	var (
		issues  []issuePayload
		hadMore bool
		err     error
	)
	if c.apiVersion == "2" {
		issues, hadMore, err = c.searchByOffset(ctx, jql, limit)
	} else {
		issues, hadMore, err = c.searchByToken(ctx, jql, limit)
	}
	if err != nil {
		return nil, false, err
	}

	records := make([]models.IssueRecord, 0, len(issues))
	for _, is := range issues {
		records = append(records, is.record())
	}
	log.Debugf("Jira search returned %d issues (more=%v)", len(records), hadMore)
	return records, hadMore, nil
}

// searchByOffset pages the Server/DC search endpoint with startAt.
func (c *Client) searchByOffset(ctx context.Context, jql string, limit int) ([]issuePayload, bool, error) {
	var collected []issuePayload
	for {
		body := map[string]interface{}{
			"jql":        jql,
			"startAt":    len(collected),
			"maxResults": min(limit-len(collected), maxPageSize),
			"fields":     searchFields,
		}
		req, err := c.conn.NewRequest(ctx, http.MethodPost, c.path("search"), "", body)
		if err != nil {
			return nil, false, newError("search", nil, err)
		}
		var page offsetPage
		res, err := c.conn.Call(req, &page)
		if err != nil {
			return nil, false, newError("search", res, err)
		}

		collected = append(collected, page.Issues...)
		if len(collected) >= limit {
			return collected[:limit], page.Total > limit, nil
		}
		if len(page.Issues) == 0 || len(collected) >= page.Total {
			return collected, false, nil
		}
	}
}

// searchByToken pages the Cloud enhanced search endpoint with nextPageToken.
func (c *Client) searchByToken(ctx context.Context, jql string, limit int) ([]issuePayload, bool, error) {
	var (
		collected []issuePayload
		token     string
	)
	for {
		body := map[string]interface{}{
			"jql":        jql,
			"maxResults": min(limit-len(collected), maxPageSize),
			"fields":     searchFields,
		}
		if token != "" {
			body["nextPageToken"] = token
		}
		req, err := c.conn.NewRequest(ctx, http.MethodPost, c.path("search/jql"), "", body)
		if err != nil {
			return nil, false, newError("search", nil, err)
		}
		var page tokenPage
		res, err := c.conn.Call(req, &page)
		if err != nil {
			return nil, false, newError("search", res, err)
		}

		collected = append(collected, page.Issues...)
		more := !page.IsLast && page.NextPageToken != ""
		if len(collected) >= limit {
			return collected[:limit], more || len(collected) > limit, nil
		}
		if !more || len(page.Issues) == 0 {
			return collected, false, nil
		}
		token = page.NextPageToken
	}
}

// Comments returns up to n of the most recent comments on an issue, oldest first.
func (c *Client) Comments(ctx context.Context, issueKey string, n int) ([]models.Comment, error) {
	if issueKey == "" {
		return nil, errors.New("jira: empty issue key")
	}
	q := url.Values{}
	q.Set("orderBy", "-created")
	q.Set("maxResults", fmt.Sprint(n))
	endpoint := c.path("issue/%s/comment", url.PathEscape(issueKey)) + "?" + q.Encode()

	req, err := c.conn.NewRequest(ctx, http.MethodGet, endpoint, "", nil)
	if err != nil {
		return nil, newError("comments", nil, err)
	}
	var page commentPage
	res, err := c.conn.Call(req, &page)
	if err != nil {
		return nil, newError("comments", res, err)
	}

	comments := make([]models.Comment, 0, len(page.Comments))
	// Jira returned newest first; reverse into reading order.
	for i := len(page.Comments) - 1; i >= 0; i-- {
		cm := page.Comments[i]
		comments = append(comments, models.Comment{
			Author:  cm.Author.DisplayName,
			Created: cm.Created.Time,
			Body:    bodyText(cm.Body),
		})
	}
	if len(comments) > n {
		comments = comments[len(comments)-n:]
	}
	return comments, nil
}
