package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannvm/jira-reporter/internal/config"
)

func testConfig(url, version string) *config.Config {
	return &config.Config{
		JiraBaseURL:     url,
		JiraUsername:    "bot@example.com",
		JiraAPIToken:    "s3cr3t-token",
		JiraAPIVersion:  version,
		JiraAuthType:    "basic",
		JiraHTTPTimeout: 5 * time.Second,
		ReportWorkers:   1,
	}
}

func fakeIssue(i int) map[string]interface{} {
	fields := map[string]interface{}{
		"summary": fmt.Sprintf("Issue %d", i),
		"status":  map[string]interface{}{"name": "In Progress"},
		"updated": "2025-04-01T10:30:00.000+0000",
	}
	if i%2 == 0 {
		fields["assignee"] = map[string]interface{}{"displayName": "Alice"}
	} else {
		fields["assignee"] = nil
	}
	return map[string]interface{}{"key": fmt.Sprintf("PROJ-%d", i), "fields": fields}
}

type searchBody struct {
	JQL           string   `json:"jql"`
	StartAt       int      `json:"startAt"`
	MaxResults    int      `json:"maxResults"`
	NextPageToken string   `json:"nextPageToken"`
	Fields        []string `json:"fields"`
}

func assertBasicAuth(t *testing.T, r *http.Request) {
	user, pass, ok := r.BasicAuth()
	assert.True(t, ok)
	assert.Equal(t, "bot@example.com", user)
	assert.Equal(t, "s3cr3t-token", pass)
}

// newOffsetServer serves total issues from the v2 search endpoint.
func newOffsetServer(t *testing.T, total int, calls *int) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/2/search", func(w http.ResponseWriter, r *http.Request) {
		assertBasicAuth(t, r)
		*calls++
		var body searchBody
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.LessOrEqual(t, body.MaxResults, maxPageSize)
		assert.Contains(t, body.Fields, "duedate")

		issues := []interface{}{}
		for i := body.StartAt; i < total && i < body.StartAt+body.MaxResults; i++ {
			issues = append(issues, fakeIssue(i))
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"startAt": body.StartAt, "maxResults": body.MaxResults, "total": total, "issues": issues,
		})
	})
	return httptest.NewServer(mux)
}

// newTokenServer serves total issues from the v3 enhanced search endpoint.
func newTokenServer(t *testing.T, total int, calls *int) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/3/search/jql", func(w http.ResponseWriter, r *http.Request) {
		assertBasicAuth(t, r)
		*calls++
		var body searchBody
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		start := 0
		if body.NextPageToken != "" {
			start, _ = strconv.Atoi(body.NextPageToken)
		}
		issues := []interface{}{}
		end := start
		for ; end < total && end < start+body.MaxResults; end++ {
			issues = append(issues, fakeIssue(end))
		}
		resp := map[string]interface{}{"issues": issues, "isLast": end >= total}
		if end < total {
			resp["nextPageToken"] = strconv.Itoa(end)
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	return httptest.NewServer(mux)
}

func TestSearch_OffsetPagination(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		limit     int
		wantCount int
		wantMore  bool
		wantCalls int
	}{
		{"fewer than limit", 3, 50, 3, false, 1},
		{"capped by limit", 10, 4, 4, true, 1},
		{"spans pages", 120, 150, 120, false, 2},
		{"spans pages and capped", 250, 150, 150, true, 2},
		{"no matches", 0, 10, 0, false, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			srv := newOffsetServer(t, tt.total, &calls)
			defer srv.Close()

			c, err := NewClient(testConfig(srv.URL, "2"))
			require.NoError(t, err)

			issues, more, err := c.Search(context.Background(), "updated >= -7d", tt.limit)
			require.NoError(t, err)
			assert.Len(t, issues, tt.wantCount)
			assert.Equal(t, tt.wantMore, more)
			assert.Equal(t, tt.wantCalls, calls)
		})
	}
}

func TestSearch_TokenPagination(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		limit     int
		wantCount int
		wantMore  bool
	}{
		{"fewer than limit", 3, 50, 3, false},
		{"capped by limit", 10, 4, 4, true},
		{"spans pages", 230, 500, 230, false},
		{"exactly limit", 5, 5, 5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			srv := newTokenServer(t, tt.total, &calls)
			defer srv.Close()

			c, err := NewClient(testConfig(srv.URL, "3"))
			require.NoError(t, err)

			issues, more, err := c.Search(context.Background(), "project = 'X'", tt.limit)
			require.NoError(t, err)
			assert.Len(t, issues, tt.wantCount)
			assert.Equal(t, tt.wantMore, more)
		})
	}
}

func TestSearch_MapsFields(t *testing.T) {
	calls := 0
	srv := newTokenServer(t, 2, &calls)
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL, "3"))
	require.NoError(t, err)

	issues, _, err := c.Search(context.Background(), "updated >= -7d", 10)
	require.NoError(t, err)
	require.Len(t, issues, 2)

	assert.Equal(t, "PROJ-0", issues[0].Key)
	assert.Equal(t, "Issue 0", issues[0].Summary)
	assert.Equal(t, "In Progress", issues[0].Status)
	assert.Equal(t, "Alice", issues[0].Assignee)
	assert.Equal(t, time.Date(2025, 4, 1, 10, 30, 0, 0, time.UTC), issues[0].Updated.UTC())
	assert.Empty(t, issues[1].Assignee)
}

func TestSearch_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantMsg    string
	}{
		{"unauthorized", http.StatusUnauthorized, ``, 401, "authentication failed"},
		{"bad jql", http.StatusBadRequest, `{"errorMessages":["Error in the JQL Query: Expecting operator"]}`, 400, "invalid query syntax: Error in the JQL Query"},
		{"forbidden", http.StatusForbidden, `{}`, 403, "permission denied"},
		{"server error", http.StatusBadGateway, ``, 502, "Jira server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, err := NewClient(testConfig(srv.URL, "3"))
			require.NoError(t, err)

			_, _, err = c.Search(context.Background(), "project = ", 10)
			require.Error(t, err)

			var jerr *Error
			require.True(t, errors.As(err, &jerr))
			assert.Equal(t, tt.wantStatus, jerr.Status)
			assert.Contains(t, jerr.Error(), tt.wantMsg)
			assert.NotContains(t, jerr.Error(), "s3cr3t-token")
		})
	}
}

func TestSearch_InvalidLimit(t *testing.T) {
	t.Parallel()
	c := newClient(nil, "3")
	_, _, err := c.Search(context.Background(), "x", 0)
	assert.Error(t, err)
}

func TestComments(t *testing.T) {
	tests := []struct {
		version string
		body    func(i int) interface{}
	}{
		{"2", func(i int) interface{} { return fmt.Sprintf("comment %d", i) }},
		{"3", func(i int) interface{} {
			return map[string]interface{}{
				"type": "doc", "version": 1,
				"content": []interface{}{map[string]interface{}{
					"type":    "paragraph",
					"content": []interface{}{map[string]interface{}{"type": "text", "text": fmt.Sprintf("comment %d", i)}},
				}},
			}
		}},
	}
	for _, tt := range tests {
		t.Run("api v"+tt.version, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/rest/api/"+tt.version+"/issue/PROJ-7/comment", func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "-created", r.URL.Query().Get("orderBy"))
				assert.Equal(t, "2", r.URL.Query().Get("maxResults"))
				// newest first
				comments := []interface{}{}
				for _, i := range []int{3, 2} {
					comments = append(comments, map[string]interface{}{
						"author":  map[string]interface{}{"displayName": "Bob"},
						"created": fmt.Sprintf("2025-04-0%dT09:00:00.000+0000", i),
						"body":    tt.body(i),
					})
				}
				_ = json.NewEncoder(w).Encode(map[string]interface{}{"startAt": 0, "total": 4, "comments": comments})
			})
			srv := httptest.NewServer(mux)
			defer srv.Close()

			c, err := NewClient(testConfig(srv.URL, tt.version))
			require.NoError(t, err)

			comments, err := c.Comments(context.Background(), "PROJ-7", 2)
			require.NoError(t, err)
			require.Len(t, comments, 2)
			assert.Equal(t, "comment 2", comments[0].Body)
			assert.Equal(t, "comment 3", comments[1].Body)
			assert.Equal(t, "Bob", comments[1].Author)
		})
	}
}

func TestMyself(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/3/myself", func(w http.ResponseWriter, r *http.Request) {
		assertBasicAuth(t, r)
		_, _ = w.Write([]byte(`{"displayName":"Report Bot","emailAddress":"bot@example.com"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL, "3"))
	require.NoError(t, err)

	name, err := c.Myself(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Report Bot", name)
}

func TestNewClient_RequiresValidConfig(t *testing.T) {
	t.Parallel()
	_, err := NewClient(&config.Config{JiraAPIVersion: "3", JiraAuthType: "basic", ReportWorkers: 1})
	assert.Error(t, err)
}

func TestNewHTTPClient_Bearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer pat-123", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	cfg := &config.Config{JiraAuthType: "bearer", JiraAPIToken: "pat-123", JiraHTTPTimeout: time.Second}
	resp, err := NewHTTPClient(cfg).Get(srv.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestBodyText(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "plain", bodyText(json.RawMessage(`" plain "`)))
	assert.Equal(t, "", bodyText(nil))
	adf := `{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"waiting on "},{"type":"text","text":"design"}]},{"type":"paragraph","content":[{"type":"text","text":"blocked"}]}]}`
	assert.Equal(t, "waiting on design\nblocked", bodyText(json.RawMessage(adf)))
}
