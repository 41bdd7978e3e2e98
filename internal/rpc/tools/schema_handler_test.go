package tools

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeforge-ai/codeforge/internal/tools"
	"github.com/codeforge-ai/codeforge/internal/workspace"
)

func TestSchemaHandler(t *testing.T) {
	resolver, err := workspace.NewResolver(t.TempDir())
	require.NoError(t, err)
	reg := tools.NewRegistry(tools.NewFilesystem(resolver, true), &tools.Terminal{}, &tools.GitTool{})

	h := SchemaHandler{Registry: reg}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tools/schemas", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var schemas []tools.Schema
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &schemas))
	require.NotEmpty(t, schemas)

	names := make(map[string]bool)
	for _, s := range schemas {
		names[s.Name] = true
	}
	require.True(t, names["fs.read_file"])
	require.True(t, names["terminal.exec"])
}

func TestSchemaHandlerRejectsPost(t *testing.T) {
	h := SchemaHandler{}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tools/schemas", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
