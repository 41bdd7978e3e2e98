package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const minimalYAML = `
providers:
  local:
    type: ollama
    base_url: http://127.0.0.1:11434
models:
  default:
    provider: local
    model: qwen2.5-coder
    default: true
  cheap:
    provider: local
    model: llama3.2
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	require.Equal(t, 10, cfg.Agent.MaxIterations)
	require.Equal(t, 2, cfg.Agent.MaxDelegationDepth)
	require.Equal(t, 6000, cfg.Memory.Threshold)
	require.Equal(t, 10, cfg.Memory.KeepRecent)
	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, "connect", cfg.Server.Transport)
	require.False(t, cfg.Session.Enabled)
}

func TestLoadRejectsMissingProviders(t *testing.T) {
	_, err := Load(writeConfig(t, "models: {}\n"))
	require.Error(t, err)
}

func TestValidateRejectsUnknownModelReferences(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	cfg.Memory.SummarizerModel = "nonexistent"
	require.Error(t, cfg.Validate())

	cfg.Memory.SummarizerModel = "cheap"
	require.NoError(t, cfg.Validate())

	cfg.Strategy.RoleModels = map[string]string{"debugger": "missing"}
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsBadLoopSettings(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	cfg.Agent.MaxIterations = 0
	require.Error(t, cfg.Validate())

	cfg.Agent.MaxIterations = 10
	cfg.Memory.KeepRecent = 0
	require.Error(t, cfg.Validate())
}

func TestLoadRoleOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
debugger:
  persona: "You hunt bugs."
  tools: [fs.read_file, fs.search]
  model: cheap
`), 0o644))

	overrides, err := LoadRoleOverrides(path)
	require.NoError(t, err)
	require.Len(t, overrides, 1)
	require.Equal(t, "You hunt bugs.", overrides["debugger"].Persona)
	require.Equal(t, []string{"fs.read_file", "fs.search"}, overrides["debugger"].Tools)
	require.Equal(t, "cheap", overrides["debugger"].Model)
}

func TestLoadRoleOverridesMissingFile(t *testing.T) {
	_, err := LoadRoleOverrides(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
