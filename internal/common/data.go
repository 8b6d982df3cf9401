package common

import (
	"encoding/json"
	"strings"

	"github.com/go-faster/errors"
	"trpc.group/trpc-go/trpc-a2a-go/protocol"

	log "github.com/tuannvm/jira-reporter/internal/logging"
)

const (
	// ToolGenerateReport names the weekly report tool.
	ToolGenerateReport = "generate_report"
	// ToolFindDelayedIssues names the overdue issue tool.
	ToolFindDelayedIssues = "find_delayed_issues"
)

// ToolCall is a tool invocation carried in an A2A message.
type ToolCall struct {
	Tool      string                 `json:"tool"`
	Arguments map[string]interface{} `json:"arguments"`
}

// NewToolCallMessage encodes call as a single-part JSON text message.
func NewToolCallMessage(call ToolCall) (protocol.Message, error) {
	raw, err := json.Marshal(call)
	if err != nil {
		return protocol.Message{}, errors.Wrap(err, "marshal tool call")
	}
	return protocol.Message{
		Parts: []protocol.Part{protocol.NewTextPart(string(raw))},
	}, nil
}

// ExtractToolCall finds the tool invocation in a message. Parts may carry
// {"tool": ..., "arguments": {...}} or bare generate_report arguments, either
// as structured data or as JSON text.
func ExtractToolCall(message protocol.Message) (ToolCall, error) {
	if len(message.Parts) == 0 {
		return ToolCall{}, errors.New("message has no parts")
	}

	for _, part := range message.Parts {
		var data map[string]interface{}
		switch p := part.(type) {
		case protocol.DataPart:
			data = dataMap(p.Data)
		case *protocol.DataPart:
			data = dataMap(p.Data)
		case protocol.TextPart:
			data = textMap(p.Text)
		case *protocol.TextPart:
			data = textMap(p.Text)
		}
		if data == nil {
			continue
		}
		call, err := ExtractFromMap(data)
		if err != nil {
			return ToolCall{}, err
		}
		return call, nil
	}

	return ToolCall{}, errors.New("could not extract tool call from message")
}

// ExtractFromMap builds a ToolCall from decoded JSON.
func ExtractFromMap(data map[string]interface{}) (ToolCall, error) {
	tool, ok := GetStringValue(data, "tool", "name")
	if !ok {
		log.Debugf("No tool named in message, defaulting to %s", ToolGenerateReport)
		return ToolCall{Tool: ToolGenerateReport, Arguments: data}, nil
	}

	switch tool {
	case ToolGenerateReport, ToolFindDelayedIssues:
	default:
		return ToolCall{}, errors.Errorf("unknown tool %q", tool)
	}

	call := ToolCall{Tool: tool, Arguments: map[string]interface{}{}}
	switch args := data["arguments"].(type) {
	case map[string]interface{}:
		call.Arguments = args
	case nil:
	default:
		return ToolCall{}, errors.Errorf("arguments must be an object, got %T", args)
	}
	return call, nil
}

func dataMap(v interface{}) map[string]interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		return m
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

func textMap(text string) map[string]interface{} {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(text), &m); err == nil {
		return m
	}
	embedded, err := ExtractJSON(text)
	if err != nil {
		return nil
	}
	if err := json.Unmarshal([]byte(embedded), &m); err != nil {
		return nil
	}
	return m
}

// MessageText concatenates the text parts of a message.
func MessageText(message protocol.Message) string {
	var texts []string
	for _, part := range message.Parts {
		switch p := part.(type) {
		case protocol.TextPart:
			texts = append(texts, p.Text)
		case *protocol.TextPart:
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}
