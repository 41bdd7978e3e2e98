package agent

import (
	"fmt"
	"strings"

	"github.com/codeforge-ai/codeforge/internal/extract"
	"github.com/codeforge-ai/codeforge/internal/tools"
)

const delegateTool = "agent.delegate"

// Router resolves delegation requests against the roster.
type Router struct {
	roster   *Roster
	maxDepth int
}

// NewRouter builds a router with a delegation depth cap.
func NewRouter(roster *Roster, maxDepth int) *Router {
	return &Router{roster: roster, maxDepth: maxDepth}
}

// SplitCalls separates delegation requests from ordinary tool calls,
// preserving document order within each group.
func SplitCalls(calls []extract.ToolCallRequest) (toolCalls, delegates []extract.ToolCallRequest) {
	for _, c := range calls {
		if c.Name == delegateTool {
			delegates = append(delegates, c)
		} else {
			toolCalls = append(toolCalls, c)
		}
	}
	return toolCalls, delegates
}

// Choose picks the effective delegation when a response carries several:
// the most recent (last) one wins.
func (r *Router) Choose(delegates []extract.ToolCallRequest) (extract.ToolCallRequest, bool) {
	if len(delegates) == 0 {
		return extract.ToolCallRequest{}, false
	}
	return delegates[len(delegates)-1], true
}

// Resolve validates a delegation call and returns the target role and
// task. A missing or unknown role name routes to the most recently used
// delegate for continuity, then to the orchestrator, which always exists.
// Failures are classified tool errors so the loop can surface them to
// the model.
func (r *Router) Resolve(call extract.ToolCallRequest, depth int, last RoleID, hasLast bool) (Role, string, error) {
	if depth >= r.maxDepth {
		return Role{}, "", tools.NewError(tools.KindAccessDenied, delegateTool,
			fmt.Sprintf("delegation depth limit (%d) reached", r.maxDepth))
	}

	task, _ := call.Arguments["task"].(string)
	if strings.TrimSpace(task) == "" {
		return Role{}, "", tools.NewError(tools.KindInvalidArguments, delegateTool, "task is required")
	}

	roleKey, _ := call.Arguments["role"].(string)
	roleKey = strings.ToLower(strings.TrimSpace(roleKey))

	if role, ok := r.roster.Lookup(roleKey); ok {
		return role, task, nil
	}
	if hasLast {
		return r.roster.Get(last), task, nil
	}
	return r.roster.Orchestrator(), task, nil
}
