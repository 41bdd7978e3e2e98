package agent

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeforge-ai/codeforge/internal/config"
)

func TestRoleKeysRoundTrip(t *testing.T) {
	for id := RoleID(0); id < roleCount; id++ {
		parsed, ok := ParseRoleID(id.Key())
		require.True(t, ok, id.Key())
		require.Equal(t, id, parsed)
	}
}

func TestParseRoleIDUnknown(t *testing.T) {
	_, ok := ParseRoleID("architect")
	require.False(t, ok)
}

func TestRosterDefaults(t *testing.T) {
	r := NewRoster()

	orch := r.Orchestrator()
	require.Equal(t, RoleOrchestrator, orch.ID)
	require.Contains(t, orch.Toolset, "agent.delegate")

	reviewer := r.Get(RoleCodeReviewer)
	require.NotContains(t, reviewer.Toolset, "fs.write_file")
	require.Contains(t, reviewer.Toolset, "fs.read_file")
}

func TestRosterApplyOverrides(t *testing.T) {
	r := NewRoster()

	err := r.ApplyOverrides(map[string]config.RoleConfig{
		"debugger": {
			Persona: "custom debugger persona",
			Tools:   []string{"fs.read_file"},
			Model:   "fast",
		},
	})
	require.NoError(t, err)

	dbg := r.Get(RoleDebugger)
	require.Equal(t, "custom debugger persona", dbg.Persona)
	require.Equal(t, []string{"fs.read_file"}, dbg.Toolset)
	require.Equal(t, "fast", dbg.ModelKey)

	// Other roles untouched.
	require.NotEqual(t, "custom debugger persona", r.Get(RoleTestWriter).Persona)
}

func TestRosterRejectsUnknownRole(t *testing.T) {
	r := NewRoster()

	err := r.ApplyOverrides(map[string]config.RoleConfig{
		"prompt_engineer": {Persona: "nope"},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "prompt_engineer")
}

func TestDelegatableKeysExcludeOrchestrator(t *testing.T) {
	r := NewRoster()
	for _, k := range r.DelegatableKeys() {
		require.NotEqual(t, "orchestrator", k)
	}
	require.Len(t, r.DelegatableKeys(), int(roleCount)-1)
}
