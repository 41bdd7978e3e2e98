package agent

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeforge-ai/codeforge/internal/config"
	"github.com/codeforge-ai/codeforge/internal/llm"
	llmmock "github.com/codeforge-ai/codeforge/internal/llm/mock"
)

func testRegistry() *llm.Registry {
	reg := llm.NewRegistry()
	reg.RegisterProvider("mock", &llmmock.Provider{NameValue: "mock"})
	reg.RegisterModel("cheap", llm.ModelRoute{Provider: "mock", Model: "cheap-model"}, true)
	reg.RegisterModel("big", llm.ModelRoute{Provider: "mock", Model: "big-model"}, false)
	reg.MarkExpensive("big", true)
	return reg
}

func TestResolveModelRoleMapping(t *testing.T) {
	s := NewStrategyEngine(testRegistry(), config.StrategyConfig{
		DefaultModel: "cheap",
		RoleModels:   map[string]string{"code_generator": "big"},
	})

	_, route, err := s.ResolveModel("code_generator", "")
	require.NoError(t, err)
	require.Equal(t, "big", route.Name)

	_, route, err = s.ResolveModel("debugger", "")
	require.NoError(t, err)
	require.Equal(t, "cheap", route.Name)
}

func TestResolveModelOverrideWins(t *testing.T) {
	s := NewStrategyEngine(testRegistry(), config.StrategyConfig{
		DefaultModel: "cheap",
		RoleModels:   map[string]string{"code_generator": "cheap"},
	})

	_, route, err := s.ResolveModel("code_generator", "big")
	require.NoError(t, err)
	require.Equal(t, "big", route.Name)
}

func TestResolveModelUnknownFallsBack(t *testing.T) {
	s := NewStrategyEngine(testRegistry(), config.StrategyConfig{
		DefaultModel: "missing",
		Fallbacks:    []string{"cheap"},
	})

	_, route, err := s.ResolveModel("debugger", "")
	require.NoError(t, err)
	require.Equal(t, "cheap", route.Name)
}

func TestPickWithBudgetExhausted(t *testing.T) {
	s := NewStrategyEngine(testRegistry(), config.StrategyConfig{
		DefaultModel: "cheap",
		RoleModels:   map[string]string{"code_generator": "big"},
		Fallbacks:    []string{"cheap"},
		MaxExpensive: 1,
	})

	_, route, isExp, err := s.PickWithBudget("code_generator", "", 0)
	require.NoError(t, err)
	require.True(t, isExp)
	require.Equal(t, "big", route.Name)

	_, route, isExp, err = s.PickWithBudget("code_generator", "", 1)
	require.NoError(t, err)
	require.False(t, isExp)
	require.Equal(t, "cheap", route.Name)
}

func TestNextFallbackSkipsCurrent(t *testing.T) {
	s := NewStrategyEngine(testRegistry(), config.StrategyConfig{
		Fallbacks: []string{"big", "cheap"},
	})

	require.Equal(t, "cheap", s.NextFallback("big"))
	require.Equal(t, "big", s.NextFallback("cheap"))
	require.Equal(t, "big", s.NextFallback(""))
}
