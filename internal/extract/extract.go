// Package extract pulls structured tool-call requests out of free-form
// model output. Models speak a text protocol: tool calls arrive as JSON
// objects embedded anywhere in the completion, optionally wrapped in a
// fenced code block, either as a whole-document array or as loose objects
// mixed with prose.
package extract

import (
	"encoding/json"
	"strings"
)

// ToolCallRequest is a single parsed tool invocation.
type ToolCallRequest struct {
	Name      string
	Arguments map[string]any
}

// Extract parses every recognizable tool call from text, in document
// order. An empty result is not an error: it means the model produced a
// final answer rather than tool calls.
func Extract(text string) []ToolCallRequest {
	body := unwrapFence(strings.TrimSpace(text))

	// Whole-document array first. If the entire payload is one JSON
	// array of calls, trust it verbatim; a single malformed element
	// invalidates the array and we fall through to the object scan.
	if calls, ok := parseArray(body); ok {
		return calls
	}

	return scanObjects(body)
}

// unwrapFence strips a surrounding markdown code fence, tolerating a
// language tag on the opening line.
func unwrapFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	rest := s[3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	} else {
		return s
	}
	if end := strings.LastIndex(rest, "```"); end >= 0 {
		return strings.TrimSpace(rest[:end])
	}
	return s
}

func parseArray(body string) ([]ToolCallRequest, bool) {
	if !strings.HasPrefix(body, "[") {
		return nil, false
	}

	var raw []map[string]any
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, false
	}

	calls := make([]ToolCallRequest, 0, len(raw))
	for _, obj := range raw {
		call, ok := normalize(obj)
		if !ok {
			return nil, false
		}
		calls = append(calls, call)
	}
	return calls, true
}

// scanObjects walks the text and decodes every balanced top-level JSON
// object that normalizes to a tool call. Non-JSON spans between objects
// are skipped, so prose around calls is harmless.
func scanObjects(body string) []ToolCallRequest {
	var calls []ToolCallRequest

	for i := 0; i < len(body); {
		if body[i] != '{' {
			i++
			continue
		}

		end, ok := matchBrace(body, i)
		if !ok {
			i++
			continue
		}

		var obj map[string]any
		if err := json.Unmarshal([]byte(body[i:end+1]), &obj); err == nil {
			if call, ok := normalize(obj); ok {
				calls = append(calls, call)
				i = end + 1
				continue
			}
		}
		i++
	}

	return calls
}

// matchBrace returns the index of the brace closing the object opened at
// start. String literals are tracked so braces inside quoted values do
// not affect the depth count.
func matchBrace(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}

		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return i, true
				}
			}
		}
	}

	return 0, false
}

// normalize validates the decoded object as a tool call, accepting the
// argument key aliases some models emit.
func normalize(obj map[string]any) (ToolCallRequest, bool) {
	name, ok := obj["name"].(string)
	if !ok || name == "" {
		return ToolCallRequest{}, false
	}

	for _, key := range []string{"arguments", "parameters", "args"} {
		raw, present := obj[key]
		if !present {
			continue
		}
		args, ok := raw.(map[string]any)
		if !ok {
			return ToolCallRequest{}, false
		}
		return ToolCallRequest{Name: name, Arguments: args}, true
	}

	return ToolCallRequest{}, false
}
