package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeforge-ai/codeforge/internal/workspace"
)

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	resolver, err := workspace.NewResolver(t.TempDir())
	require.NoError(t, err)

	fs := NewFilesystem(resolver, true)
	term := &Terminal{AllowExecution: true, WorkingDir: resolver.Root()}
	git := &GitTool{WorkingDir: resolver.Root(), AllowExec: true, DryRunOnly: true}

	return NewDispatcher(NewRegistry(fs, term, git))
}

func TestInvokeWriteThenRead(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	out, err := d.Invoke(ctx, "fs.write_file", map[string]interface{}{
		"path":    "hello.txt",
		"content": "hi there",
	})
	require.NoError(t, err)
	require.Contains(t, out, "hello.txt")

	out, err = d.Invoke(ctx, "fs.read_file", map[string]interface{}{"path": "hello.txt"})
	require.NoError(t, err)
	require.Equal(t, "hi there", out)
}

func TestInvokeUnknownTool(t *testing.T) {
	d := newTestDispatcher(t)

	_, err := d.Invoke(context.Background(), "fs.delete_everything", map[string]interface{}{})
	require.Error(t, err)
	require.Equal(t, KindNotFound, KindOf(err))
}

func TestInvokeMissingRequiredArg(t *testing.T) {
	d := newTestDispatcher(t)

	_, err := d.Invoke(context.Background(), "fs.read_file", map[string]interface{}{})
	require.Error(t, err)
	require.Equal(t, KindInvalidArguments, KindOf(err))
}

func TestInvokeWrongArgType(t *testing.T) {
	d := newTestDispatcher(t)

	_, err := d.Invoke(context.Background(), "fs.read_file", map[string]interface{}{"path": 42})
	require.Error(t, err)
	require.Equal(t, KindInvalidArguments, KindOf(err))
}

func TestInvokeTerminalExec(t *testing.T) {
	d := newTestDispatcher(t)

	out, err := d.Invoke(context.Background(), "terminal.exec", map[string]interface{}{
		"command": "echo",
		"args":    []interface{}{"ping"},
	})
	require.NoError(t, err)
	require.Contains(t, out, "ping")
	require.Contains(t, out, `"exit_code": 0`)
}

func TestInvokeSearchNoMatches(t *testing.T) {
	d := newTestDispatcher(t)

	out, err := d.Invoke(context.Background(), "fs.search", map[string]interface{}{
		"pattern": "nothing-matches-this",
	})
	require.NoError(t, err)
	require.Equal(t, "no matches", out)
}

func TestInvokePathEscapeDenied(t *testing.T) {
	d := newTestDispatcher(t)

	_, err := d.Invoke(context.Background(), "fs.write_file", map[string]interface{}{
		"path":    "../outside.txt",
		"content": "nope",
	})
	require.Error(t, err)
	require.Equal(t, KindAccessDenied, KindOf(err))
}

func TestDelegateSchemaEnumeratesRoles(t *testing.T) {
	s := DelegateSchema([]string{"code_generator", "debugger"})
	require.Equal(t, "agent.delegate", s.Name)
	require.Equal(t, []string{"code_generator", "debugger"}, s.Parameters[0].Enum)
}
