// Package memory keeps conversation histories inside the model context
// budget. When the estimated token count of a history crosses a
// threshold, everything but the most recent messages is folded into a
// single summary message.
package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/codeforge-ai/codeforge/internal/config"
	"github.com/codeforge-ai/codeforge/internal/llm"
)

// ErrTooShort is returned when the history has nothing to compact beyond
// the retained tail.
var ErrTooShort = errors.New("history too short to compact")

// excerptLimit caps per-message excerpts in the fallback summary.
const excerptLimit = 200

// Compactor summarizes old conversation turns.
type Compactor struct {
	registry *llm.Registry
	cfg      config.MemoryConfig
	logger   *zap.Logger
}

// Result carries the outcome of one compaction.
type Result struct {
	// Summary is a synthetic system message replacing the compacted prefix.
	Summary llm.ChatMessage
	// Tail holds the retained recent messages, copied from the input.
	Tail []llm.ChatMessage
	// CompactedCount is how many messages were folded into the summary.
	CompactedCount int
}

// History returns the replacement history: summary followed by the tail.
func (r Result) History() []llm.ChatMessage {
	out := make([]llm.ChatMessage, 0, len(r.Tail)+1)
	out = append(out, r.Summary)
	out = append(out, r.Tail...)
	return out
}

// NewCompactor builds a compactor. The registry may be nil, in which case
// summaries always use the extractive fallback.
func NewCompactor(registry *llm.Registry, cfg config.MemoryConfig, logger *zap.Logger) *Compactor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Compactor{registry: registry, cfg: cfg, logger: logger}
}

// EstimateTokens approximates the token cost of a history. The chars/4
// heuristic overestimates slightly for code-heavy content, which errs on
// the side of compacting earlier.
func EstimateTokens(history []llm.ChatMessage) int {
	chars := 0
	for _, m := range history {
		chars += len(m.Content)
	}
	return chars / 4
}

// ShouldCompact reports whether the history is both long enough to have a
// compactable prefix and over the token threshold.
func (c *Compactor) ShouldCompact(history []llm.ChatMessage) bool {
	if len(history) <= c.cfg.KeepRecent {
		return false
	}
	return EstimateTokens(history) > c.cfg.Threshold
}

// Compact folds everything before the retained tail into a summary
// message. The input slice is never mutated; callers swap in
// Result.History atomically. If the summarizer model fails, an extractive
// fallback summary is produced instead of failing the run.
func (c *Compactor) Compact(ctx context.Context, history []llm.ChatMessage) (Result, error) {
	if len(history) <= c.cfg.KeepRecent {
		return Result{}, ErrTooShort
	}

	cut := len(history) - c.cfg.KeepRecent
	head := history[:cut]
	tail := make([]llm.ChatMessage, c.cfg.KeepRecent)
	copy(tail, history[cut:])

	summary, err := c.summarize(ctx, head)
	if err != nil {
		c.logger.Warn("summarizer failed, using extractive fallback",
			zap.Int("messages", len(head)),
			zap.Error(err))
		summary = fallbackSummary(head)
	}

	c.logger.Debug("history compacted",
		zap.Int("compacted", cut),
		zap.Int("kept", len(tail)))

	return Result{
		Summary: llm.ChatMessage{
			Role:    llm.RoleSystem,
			Content: "Summary of earlier conversation:\n" + summary,
			Metadata: map[string]string{
				"compacted": fmt.Sprintf("%d", cut),
			},
		},
		Tail:           tail,
		CompactedCount: cut,
	}, nil
}

func (c *Compactor) summarize(ctx context.Context, head []llm.ChatMessage) (string, error) {
	if c.registry == nil {
		return "", errors.New("no summarizer registry")
	}

	provider, route, err := c.registry.Resolve(c.cfg.SummarizerModel)
	if err != nil {
		return "", fmt.Errorf("resolve summarizer model: %w", err)
	}

	var b strings.Builder
	for _, m := range head {
		fmt.Fprintf(&b, "[%s] %s\n", m.Role, m.Content)
	}

	resp, err := provider.Chat(ctx, llm.ChatRequest{
		Model: route.Model,
		Messages: []llm.ChatMessage{
			{
				Role: llm.RoleSystem,
				Content: "Summarize the following agent conversation. Preserve: " +
					"the user's goal, key decisions, code changes (files read or " +
					"written, commands run and their outcomes), unresolved issues, " +
					"and any user preferences discovered along the way. Be concise.",
			},
			{Role: llm.RoleUser, Content: b.String()},
		},
		Temperature: route.Temperature,
		MaxTokens:   route.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Message.Content) == "" {
		return "", errors.New("empty summary from model")
	}
	return resp.Message.Content, nil
}

// fallbackSummary builds a lossy extractive digest when no model is
// available: one truncated line per message.
func fallbackSummary(head []llm.ChatMessage) string {
	var b strings.Builder
	for _, m := range head {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		content = strings.ReplaceAll(content, "\n", " ")
		if len(content) > excerptLimit {
			content = content[:excerptLimit] + "..."
		}
		fmt.Fprintf(&b, "- [%s] %s\n", m.Role, content)
	}
	return b.String()
}
