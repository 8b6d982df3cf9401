package report

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/tuannvm/jira-reporter/internal/models"
)

// ParseReportArgs decodes generate_report tool arguments. Missing keys keep
// their defaults; a present but malformed value is an invalid argument.
// Range checks are left to Validate.
func ParseReportArgs(args map[string]any) (models.ReportRequest, error) {
	req := models.NewReportRequest()
	var err error
	if req.FilterExpression, err = stringArg(args, "jql_query"); err != nil {
		return req, err
	}
	if req.ScopeKey, err = stringArg(args, "project_key"); err != nil {
		return req, err
	}
	if req.MaxResults, err = intArg(args, "max_results", req.MaxResults); err != nil {
		return req, err
	}
	if req.Summarize, err = boolArg(args, "summarize", req.Summarize); err != nil {
		return req, err
	}
	return req, nil
}

// ParseDelayedArgs decodes find_delayed_issues tool arguments.
func ParseDelayedArgs(args map[string]any) (models.DelayedRequest, error) {
	req := models.NewDelayedRequest()
	var err error
	if req.ScopeKey, err = stringArg(args, "project_key"); err != nil {
		return req, err
	}
	if req.MaxResults, err = intArg(args, "max_results", req.MaxResults); err != nil {
		return req, err
	}
	if req.ExplainDelay, err = boolArg(args, "explain_delay", req.ExplainDelay); err != nil {
		return req, err
	}
	return req, nil
}

func stringArg(args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", invalidArgument("%s must be a string, got %T", key, raw)
	}
	return strings.TrimSpace(s), nil
}

func intArg(args map[string]any, key string, def int) (int, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return def, nil
	}
	switch n := raw.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, invalidArgument("%s must be an integer, got %v", key, n)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, invalidArgument("%s must be an integer, got %q", key, n.String())
		}
		return int(i), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, invalidArgument("%s must be an integer, got %q", key, n)
		}
		return i, nil
	default:
		return 0, invalidArgument("%s must be an integer, got %T", key, raw)
	}
}

func boolArg(args map[string]any, key string, def bool) (bool, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return def, nil
	}
	switch b := raw.(type) {
	case bool:
		return b, nil
	case string:
		v, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return false, invalidArgument("%s must be a boolean, got %q", key, b)
		}
		return v, nil
	default:
		return false, invalidArgument("%s must be a boolean, got %T", key, raw)
	}
}
