package agent

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codeforge-ai/codeforge/internal/agent"
	"github.com/codeforge-ai/codeforge/internal/rpc"
	"github.com/codeforge-ai/codeforge/internal/session"
)

// Metrics is the subset of observability the runner reports to.
type Metrics interface {
	RecordAgentRun(finishReason string, duration time.Duration, iterations int)
	RecordToolCall(tool string, failed bool)
	RecordCompaction()
	RecordDelegation(role string)
	RecordModelUsage(role, model string)
	RecordModelFailure(role, model string)
}

// AgentRunner bridges the execution loop to streamed RPC events.
type AgentRunner struct {
	Loop      *agent.Loop
	Roster    *agent.Roster
	Sessions  *session.Store
	Metrics   Metrics
	Workspace string
	Logger    *zap.Logger
}

// Run starts one agent task and streams its events. The channel closes
// when the run finishes; the final event is done or error.
func (r *AgentRunner) Run(httpReq *http.Request, req rpc.RunTaskRequest) (<-chan rpc.RunTaskEvent, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, errors.New("prompt is required")
	}

	roleID := agent.RoleOrchestrator
	if req.Role != "" {
		id, ok := agent.ParseRoleID(strings.ToLower(strings.TrimSpace(req.Role)))
		if !ok {
			return nil, fmt.Errorf("unknown role %q", req.Role)
		}
		roleID = id
	}

	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	if req.CorrelationID == "" {
		req.CorrelationID = uuid.NewString()
	}

	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	out := make(chan rpc.RunTaskEvent, 16)
	go func() {
		defer close(out)
		start := time.Now()

		emit := func(ev rpc.RunTaskEvent) {
			ev.SessionID = req.SessionID
			ev.CorrelationID = req.CorrelationID
			out <- ev
		}

		state := agent.NewState(req.SessionID, r.Workspace)
		state.ActiveRole = roleID
		state.ModelOverride = req.Model

		if r.Sessions != nil {
			history, err := r.Sessions.Load(req.SessionID)
			switch {
			case err == nil:
				state.History = history
			case errors.Is(err, session.ErrNotFound):
			default:
				logger.Warn("session load failed", zap.String("session", req.SessionID), zap.Error(err))
			}
		}

		hooks := agent.Hooks{
			OnAssistant: func(role, content string) {
				emit(rpc.RunTaskEvent{Type: "message", Role: role, Message: content})
			},
			OnToolResult: func(name, output string, err error) {
				ev := rpc.RunTaskEvent{Type: "tool", ToolName: name, ToolOutput: output}
				if err != nil {
					ev.ToolError = err.Error()
				}
				emit(ev)
				if r.Metrics != nil {
					r.Metrics.RecordToolCall(name, err != nil)
				}
			},
			OnCompaction: func(compacted int) {
				emit(rpc.RunTaskEvent{Type: "compact", Compacted: compacted})
				if r.Metrics != nil {
					r.Metrics.RecordCompaction()
				}
			},
			OnDelegation: func(role string) {
				emit(rpc.RunTaskEvent{Type: "delegate", Role: role})
				if r.Metrics != nil {
					r.Metrics.RecordDelegation(role)
				}
			},
			OnModelUsage: func(role, model string) {
				if r.Metrics != nil {
					r.Metrics.RecordModelUsage(role, model)
				}
			},
			OnModelFailure: func(role, model string) {
				if r.Metrics != nil {
					r.Metrics.RecordModelFailure(role, model)
				}
			},
		}

		result, err := r.Loop.Run(httpReq.Context(), state, req.Prompt, hooks)

		if r.Sessions != nil {
			if saveErr := r.Sessions.Save(req.SessionID, state.History); saveErr != nil {
				logger.Warn("session save failed", zap.String("session", req.SessionID), zap.Error(saveErr))
			}
		}

		if err != nil {
			if r.Metrics != nil {
				r.Metrics.RecordAgentRun("error", time.Since(start), result.Iterations)
			}
			emit(rpc.RunTaskEvent{Type: "error", Error: err.Error()})
			return
		}

		if r.Metrics != nil {
			r.Metrics.RecordAgentRun(string(result.FinishReason), time.Since(start), result.Iterations)
		}
		emit(rpc.RunTaskEvent{
			Type:         "done",
			Done:         true,
			Role:         roleID.Key(),
			Message:      result.FinalAnswer,
			FinishReason: string(result.FinishReason),
			Iterations:   result.Iterations,
		})
	}()

	return out, nil
}
