package agent

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/codeforge-ai/codeforge/internal/llm"
)

// FinishReason records how a run ended.
type FinishReason string

const (
	// FinishCompleted means the model produced a final answer.
	FinishCompleted FinishReason = "completed"
	// FinishMaxIterations means the iteration cap fired first.
	FinishMaxIterations FinishReason = "max_iterations"
	// FinishCancelled means the context was cancelled.
	FinishCancelled FinishReason = "cancelled"
)

// State is one run's mutable conversation state. Delegated sub-runs get a
// fresh State sharing the workspace but not the history.
type State struct {
	SessionID     string
	History       []llm.ChatMessage
	WorkspaceRoot string
	ActiveRole    RoleID
	// ModelOverride forces a model for this run; it does not propagate
	// to delegated sub-runs.
	ModelOverride string
	Iterations    int
	Depth         int
	ExpensiveUsed int
	ToolCalls     int
	// LastDelegate is the role most recently delegated to in this run;
	// it is the continuity fallback when a delegation names no valid role.
	LastDelegate RoleID
	HasDelegated bool
}

// NewState creates run state for a session. An empty session id gets a
// generated one.
func NewState(sessionID, workspaceRoot string) *State {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	return &State{
		SessionID:     sessionID,
		History:       make([]llm.ChatMessage, 0, 16),
		WorkspaceRoot: workspaceRoot,
		ActiveRole:    RoleOrchestrator,
	}
}

// child builds the state for a delegated sub-run.
func (s *State) child(role RoleID) *State {
	return &State{
		SessionID:     s.SessionID,
		History:       make([]llm.ChatMessage, 0, 16),
		WorkspaceRoot: s.WorkspaceRoot,
		ActiveRole:    role,
		Depth:         s.Depth + 1,
		ExpensiveUsed: s.ExpensiveUsed,
	}
}

// Result is the outcome of a completed run.
type Result struct {
	FinalAnswer  string
	FinishReason FinishReason
	Iterations   int
	ToolCalls    int
	Compactions  int
	Delegations  int
}

// InferenceError marks a hard model failure after fallbacks were
// exhausted. Unlike tool errors it aborts the run.
type InferenceError struct {
	Model string
	Err   error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference failed on model %q: %v", e.Model, e.Err)
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}
