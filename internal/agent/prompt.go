package agent

import (
	"fmt"
	"strings"

	"github.com/codeforge-ai/codeforge/internal/tools"
)

// buildSystemPrompt renders the persona, the tool-call wire protocol, and
// the role's toolset into one system message.
func buildSystemPrompt(role Role, schemas []tools.Schema, delegatable []string) string {
	var b strings.Builder

	b.WriteString(role.Persona)
	b.WriteString("\n\n")
	b.WriteString(strings.TrimSpace(`
To use a tool, emit a JSON object on its own line:
{"name": "<tool>", "arguments": {...}}
You may emit several tool calls in one response, or a JSON array of them.
When the task is done, answer in plain text with no tool calls.`))
	b.WriteString("\n\nAvailable tools:\n")

	allowed := make(map[string]bool, len(role.Toolset))
	for _, name := range role.Toolset {
		allowed[name] = true
	}

	for _, s := range schemas {
		if !allowed[s.Name] {
			continue
		}
		writeSchema(&b, s)
	}

	if allowed["agent.delegate"] && len(delegatable) > 0 {
		writeSchema(&b, tools.DelegateSchema(delegatable))
	}

	return b.String()
}

func writeSchema(b *strings.Builder, s tools.Schema) {
	fmt.Fprintf(b, "- %s: %s\n", s.Name, s.Description)
	for _, p := range s.Parameters {
		req := "optional"
		if p.Required {
			req = "required"
		}
		fmt.Fprintf(b, "    %s (%s, %s)", p.Name, p.Type, req)
		if p.Description != "" {
			fmt.Fprintf(b, " - %s", p.Description)
		}
		if len(p.Enum) > 0 {
			fmt.Fprintf(b, " [%s]", strings.Join(p.Enum, ", "))
		}
		b.WriteString("\n")
	}
}

func truncateForPrompt(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	return text[:limit] + "... [truncated]"
}
