package memory

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeforge-ai/codeforge/internal/config"
	"github.com/codeforge-ai/codeforge/internal/llm"
	llmmock "github.com/codeforge-ai/codeforge/internal/llm/mock"
)

func testMemoryConfig() config.MemoryConfig {
	return config.MemoryConfig{Threshold: 100, KeepRecent: 3}
}

func buildHistory(n, contentLen int) []llm.ChatMessage {
	history := make([]llm.ChatMessage, 0, n)
	for i := 0; i < n; i++ {
		role := llm.RoleUser
		if i%2 == 1 {
			role = llm.RoleAssistant
		}
		history = append(history, llm.ChatMessage{
			Role:    role,
			Content: strings.Repeat("x", contentLen),
		})
	}
	return history
}

func registryWith(p llm.Provider) *llm.Registry {
	reg := llm.NewRegistry()
	reg.RegisterProvider("mock", p)
	reg.RegisterModel("default", llm.ModelRoute{Provider: "mock", Model: "m"}, true)
	return reg
}

func TestShouldCompact(t *testing.T) {
	c := NewCompactor(nil, testMemoryConfig(), nil)

	// Short histories are never compacted regardless of size.
	require.False(t, c.ShouldCompact(buildHistory(3, 10_000)))

	// Long but small histories stay under the threshold.
	require.False(t, c.ShouldCompact(buildHistory(10, 10)))

	// 10 messages x 100 chars = 250 estimated tokens > 100.
	require.True(t, c.ShouldCompact(buildHistory(10, 100)))
}

func TestCompactWithSummarizer(t *testing.T) {
	var instruction string
	mock := &llmmock.Provider{
		NameValue: "mock",
		ChatFn: func(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
			instruction = req.Messages[0].Content
			return llm.ChatResponse{
				Message: llm.ChatMessage{Role: llm.RoleAssistant, Content: "the user wrote a parser"},
			}, nil
		},
	}

	c := NewCompactor(registryWith(mock), testMemoryConfig(), nil)
	history := buildHistory(10, 100)

	res, err := c.Compact(context.Background(), history)
	require.NoError(t, err)
	require.Equal(t, 7, res.CompactedCount)
	require.Len(t, res.Tail, 3)
	require.Equal(t, llm.RoleSystem, res.Summary.Role)
	require.Contains(t, res.Summary.Content, "the user wrote a parser")

	// The instruction names what the summary must keep.
	require.Contains(t, instruction, "key decisions")
	require.Contains(t, instruction, "code changes")
	require.Contains(t, instruction, "unresolved issues")
	require.Contains(t, instruction, "preferences")

	replaced := res.History()
	require.Len(t, replaced, 4)
	require.Equal(t, history[7:], replaced[1:])
}

func TestCompactFallbackOnSummarizerError(t *testing.T) {
	mock := &llmmock.Provider{
		NameValue: "mock",
		ChatFn: func(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
			return llm.ChatResponse{}, errors.New("model offline")
		},
	}

	c := NewCompactor(registryWith(mock), testMemoryConfig(), nil)
	history := []llm.ChatMessage{
		{Role: llm.RoleUser, Content: "fix the build"},
		{Role: llm.RoleAssistant, Content: "reading Makefile"},
		{Role: llm.RoleUser, Content: strings.Repeat("y", 500)},
		{Role: llm.RoleAssistant, Content: "a"},
		{Role: llm.RoleUser, Content: "b"},
		{Role: llm.RoleAssistant, Content: "c"},
	}

	res, err := c.Compact(context.Background(), history)
	require.NoError(t, err)
	require.Equal(t, 3, res.CompactedCount)
	require.Contains(t, res.Summary.Content, "fix the build")
	require.Contains(t, res.Summary.Content, "...")
}

func TestCompactNilRegistryUsesFallback(t *testing.T) {
	c := NewCompactor(nil, testMemoryConfig(), nil)

	res, err := c.Compact(context.Background(), buildHistory(6, 50))
	require.NoError(t, err)
	require.Equal(t, 3, res.CompactedCount)
	require.NotEmpty(t, res.Summary.Content)
}

func TestCompactTooShort(t *testing.T) {
	c := NewCompactor(nil, testMemoryConfig(), nil)

	_, err := c.Compact(context.Background(), buildHistory(3, 1000))
	require.ErrorIs(t, err, ErrTooShort)
}

func TestCompactDoesNotMutateInput(t *testing.T) {
	c := NewCompactor(nil, testMemoryConfig(), nil)
	history := buildHistory(8, 100)
	before := make([]llm.ChatMessage, len(history))
	copy(before, history)

	res, err := c.Compact(context.Background(), history)
	require.NoError(t, err)
	require.Equal(t, before, history)

	// Mutating the tail must not reach back into the input.
	res.Tail[0].Content = "mutated"
	require.Equal(t, before, history)
}

func TestEstimateTokens(t *testing.T) {
	history := []llm.ChatMessage{
		{Role: llm.RoleUser, Content: strings.Repeat("a", 400)},
		{Role: llm.RoleAssistant, Content: strings.Repeat("b", 100)},
	}
	require.Equal(t, 125, EstimateTokens(history))
	require.Equal(t, 0, EstimateTokens(nil))
}
