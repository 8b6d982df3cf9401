package report

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannvm/jira-reporter/internal/models"
)

func TestParseReportArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    map[string]any
		want    models.ReportRequest
		wantErr bool
	}{
		{
			name: "empty uses defaults",
			args: map[string]any{},
			want: models.NewReportRequest(),
		},
		{
			name: "nil map",
			want: models.NewReportRequest(),
		},
		{
			name: "all fields",
			args: map[string]any{
				"jql_query":   " status = Open ",
				"project_key": "MYPROJ",
				"max_results": float64(20),
				"summarize":   true,
			},
			want: models.ReportRequest{FilterExpression: "status = Open", ScopeKey: "MYPROJ", MaxResults: 20, Summarize: true},
		},
		{
			name: "explicit zero is kept for validation",
			args: map[string]any{"max_results": float64(0)},
			want: models.ReportRequest{MaxResults: 0},
		},
		{
			name: "json number and string bool",
			args: map[string]any{"max_results": json.Number("7"), "summarize": "true"},
			want: models.ReportRequest{MaxResults: 7, Summarize: true},
		},
		{
			name: "null values keep defaults",
			args: map[string]any{"jql_query": nil, "max_results": nil},
			want: models.NewReportRequest(),
		},
		{name: "fractional max_results", args: map[string]any{"max_results": 2.5}, wantErr: true},
		{name: "non numeric max_results", args: map[string]any{"max_results": "lots"}, wantErr: true},
		{name: "non string query", args: map[string]any{"jql_query": 3}, wantErr: true},
		{name: "non bool summarize", args: map[string]any{"summarize": []any{}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseReportArgs(tt.args)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDelayedArgs(t *testing.T) {
	t.Parallel()

	got, err := ParseDelayedArgs(map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, models.DelayedRequest{MaxResults: models.DefaultDelayedMaxResults}, got)

	got, err = ParseDelayedArgs(map[string]any{"project_key": "ops", "max_results": 3, "explain_delay": true})
	require.NoError(t, err)
	assert.Equal(t, models.DelayedRequest{ScopeKey: "ops", MaxResults: 3, ExplainDelay: true}, got)

	_, err = ParseDelayedArgs(map[string]any{"explain_delay": "maybe"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
