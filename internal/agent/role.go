package agent

import (
	"fmt"
	"sort"

	"github.com/codeforge-ai/codeforge/internal/config"
)

// RoleID identifies a built-in specialist role. The set is closed:
// configuration may override a role's persona, toolset, or model, but can
// neither add nor remove roles.
type RoleID int

const (
	RoleOrchestrator RoleID = iota
	RoleCodeGenerator
	RoleCodeReviewer
	RoleDebugger
	RoleTestWriter
	RoleRefactorer
	RoleNavigator
	RoleDevOps

	roleCount
)

var roleKeys = [roleCount]string{
	RoleOrchestrator:  "orchestrator",
	RoleCodeGenerator: "code_generator",
	RoleCodeReviewer:  "code_reviewer",
	RoleDebugger:      "debugger",
	RoleTestWriter:    "test_writer",
	RoleRefactorer:    "refactorer",
	RoleNavigator:     "navigator",
	RoleDevOps:        "devops",
}

// Key returns the stable string key used in config and delegation calls.
func (id RoleID) Key() string {
	if id < 0 || id >= roleCount {
		return "unknown"
	}
	return roleKeys[id]
}

// ParseRoleID resolves a role key to its id.
func ParseRoleID(key string) (RoleID, bool) {
	for id, k := range roleKeys {
		if k == key {
			return RoleID(id), true
		}
	}
	return 0, false
}

// Role is one specialist's runtime definition.
type Role struct {
	ID       RoleID
	Persona  string
	Toolset  []string
	ModelKey string
}

// allTools marks roles with unrestricted tool access.
var allTools = []string{
	"fs.read_file", "fs.write_file", "fs.list_dir", "fs.search", "fs.tree",
	"terminal.exec", "git.status", "git.diff", "git.apply_patch",
}

var readOnlyTools = []string{
	"fs.read_file", "fs.list_dir", "fs.search", "fs.tree", "git.status", "git.diff",
}

// Roster holds the full role set with defaults and any applied overrides.
type Roster struct {
	roles [roleCount]Role
}

// NewRoster builds the default roster.
func NewRoster() *Roster {
	r := &Roster{}
	r.roles = [roleCount]Role{
		RoleOrchestrator: {
			ID: RoleOrchestrator,
			Persona: "You coordinate work on a coding task. Break the task down, " +
				"delegate focused sub-tasks to specialists when useful, and " +
				"assemble their answers into a final result.",
			Toolset: append(append([]string{}, allTools...), "agent.delegate"),
		},
		RoleCodeGenerator: {
			ID: RoleCodeGenerator,
			Persona: "You write new code. Produce complete, working files that " +
				"match the surrounding project's style. Verify what you wrote " +
				"by reading it back when in doubt.",
			Toolset: allTools,
		},
		RoleCodeReviewer: {
			ID: RoleCodeReviewer,
			Persona: "You review code for correctness, clarity, and risk. Point " +
				"at concrete lines and suggest precise fixes. You do not modify " +
				"files.",
			Toolset: readOnlyTools,
		},
		RoleDebugger: {
			ID: RoleDebugger,
			Persona: "You diagnose failures. Reproduce the problem, narrow it to " +
				"a cause, and apply the smallest fix that resolves it.",
			Toolset: allTools,
		},
		RoleTestWriter: {
			ID: RoleTestWriter,
			Persona: "You write tests. Cover the behavior that matters, including " +
				"edge cases, using the project's existing test conventions.",
			Toolset: allTools,
		},
		RoleRefactorer: {
			ID: RoleRefactorer,
			Persona: "You restructure code without changing behavior. Keep diffs " +
				"reviewable and verify nothing breaks.",
			Toolset: allTools,
		},
		RoleNavigator: {
			ID: RoleNavigator,
			Persona: "You explore and explain codebases. Locate definitions, " +
				"trace call paths, and summarize how components fit together. " +
				"You do not modify files.",
			Toolset: readOnlyTools,
		},
		RoleDevOps: {
			ID: RoleDevOps,
			Persona: "You handle build, packaging, and CI concerns. Prefer " +
				"checking configuration and running diagnostics over guessing.",
			Toolset: allTools,
		},
	}
	return r
}

// Get returns the role for an id.
func (r *Roster) Get(id RoleID) Role {
	return r.roles[id]
}

// Lookup resolves a role by key.
func (r *Roster) Lookup(key string) (Role, bool) {
	id, ok := ParseRoleID(key)
	if !ok {
		return Role{}, false
	}
	return r.roles[id], true
}

// Orchestrator returns the default entry role.
func (r *Roster) Orchestrator() Role {
	return r.roles[RoleOrchestrator]
}

// Keys returns all role keys, sorted.
func (r *Roster) Keys() []string {
	keys := make([]string, 0, roleCount)
	keys = append(keys, roleKeys[:]...)
	sort.Strings(keys)
	return keys
}

// DelegatableKeys returns role keys valid as delegation targets; the
// orchestrator never delegates to itself.
func (r *Roster) DelegatableKeys() []string {
	keys := make([]string, 0, roleCount-1)
	for id, k := range roleKeys {
		if RoleID(id) == RoleOrchestrator {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ApplyOverrides merges per-role config overrides. Keys outside the
// built-in set are rejected.
func (r *Roster) ApplyOverrides(overrides map[string]config.RoleConfig) error {
	for key, o := range overrides {
		id, ok := ParseRoleID(key)
		if !ok {
			return fmt.Errorf("unknown role %q in overrides", key)
		}
		role := r.roles[id]
		if o.Persona != "" {
			role.Persona = o.Persona
		}
		if len(o.Tools) > 0 {
			role.Toolset = append([]string{}, o.Tools...)
		}
		if o.Model != "" {
			role.ModelKey = o.Model
		}
		r.roles[id] = role
	}
	return nil
}
