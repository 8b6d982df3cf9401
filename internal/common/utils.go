package common

import (
	"encoding/json"
	"regexp"

	"github.com/go-faster/errors"
)

var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

// StringPtr returns a pointer to the given string
func StringPtr(s string) *string {
	return &s
}

// ExtractJSON returns the outermost JSON object embedded in text, such as a
// request pasted into a chat message.
func ExtractJSON(text string) (string, error) {
	if match := jsonObject.FindString(text); match != "" && json.Valid([]byte(match)) {
		return match, nil
	}
	return "", errors.New("no valid JSON object found in text")
}

// GetStringValue retrieves a string value from a map using multiple possible keys
// It tries each key in order and returns the first non-empty value found
func GetStringValue(data map[string]interface{}, keys ...string) (string, bool) {
	for _, key := range keys {
		if val, ok := data[key]; ok {
			if strVal, ok := val.(string); ok && strVal != "" {
				return strVal, true
			}
		}
	}
	return "", false
}
