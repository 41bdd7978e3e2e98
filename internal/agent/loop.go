package agent

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/codeforge-ai/codeforge/internal/config"
	"github.com/codeforge-ai/codeforge/internal/extract"
	"github.com/codeforge-ai/codeforge/internal/llm"
	"github.com/codeforge-ai/codeforge/internal/memory"
	"github.com/codeforge-ai/codeforge/internal/tools"
)

// toolOutputLimit caps how much of a tool result is fed back verbatim.
const toolOutputLimit = 8000

// Invoker executes validated tool calls.
type Invoker interface {
	Invoke(ctx context.Context, name string, args map[string]interface{}) (string, error)
	Schemas() []tools.Schema
}

// Hooks receive loop events; all fields are optional. They fire
// synchronously from the loop goroutine.
type Hooks struct {
	OnAssistant    func(role, content string)
	OnToolResult   func(name, output string, err error)
	OnCompaction   func(compacted int)
	OnDelegation   func(role string)
	OnModelUsage   func(role, model string)
	OnModelFailure func(role, model string)
}

// Loop drives one agent run: propose tool calls, execute them, feed
// results back, until the model answers in plain text or a cap fires.
// A single Loop is reusable across runs and roles; all per-run state
// lives in State.
type Loop struct {
	strategy  *StrategyEngine
	invoker   Invoker
	compactor *memory.Compactor
	roster    *Roster
	router    *Router
	cfg       config.AgentConfig
	logger    *zap.Logger
}

// NewLoop assembles an execution loop.
func NewLoop(strategy *StrategyEngine, invoker Invoker, compactor *memory.Compactor, roster *Roster, cfg config.AgentConfig, logger *zap.Logger) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		strategy:  strategy,
		invoker:   invoker,
		compactor: compactor,
		roster:    roster,
		router:    NewRouter(roster, cfg.MaxDelegationDepth),
		cfg:       cfg,
		logger:    logger,
	}
}

// Run executes the loop until a terminal condition. Tool failures are
// conversational: they become tool results the model sees on the next
// pass. Only inference failure aborts the run with an error.
func (l *Loop) Run(ctx context.Context, state *State, prompt string, hooks Hooks) (Result, error) {
	role := l.roster.Get(state.ActiveRole)
	if prompt != "" {
		state.History = append(state.History, llm.ChatMessage{Role: llm.RoleUser, Content: prompt})
	}

	result := Result{}
	lastAssistant := ""

	for {
		if ctx.Err() != nil {
			result.FinishReason = FinishCancelled
			result.FinalAnswer = lastAssistant
			result.Iterations = state.Iterations
			result.ToolCalls = state.ToolCalls
			return result, nil
		}

		if state.Iterations >= l.cfg.MaxIterations {
			l.logger.Warn("iteration cap reached",
				zap.String("session", state.SessionID),
				zap.String("role", role.ID.Key()),
				zap.Int("iterations", state.Iterations))
			result.FinishReason = FinishMaxIterations
			result.FinalAnswer = lastAssistant
			result.Iterations = state.Iterations
			result.ToolCalls = state.ToolCalls
			return result, nil
		}
		state.Iterations++

		if l.compactor != nil && l.compactor.ShouldCompact(state.History) {
			if res, err := l.compactor.Compact(ctx, state.History); err == nil {
				state.History = res.History()
				result.Compactions++
				if hooks.OnCompaction != nil {
					hooks.OnCompaction(res.CompactedCount)
				}
			}
		}

		content, err := l.complete(ctx, state, role, hooks)
		if err != nil {
			result.Iterations = state.Iterations
			result.ToolCalls = state.ToolCalls
			return result, err
		}
		lastAssistant = content
		state.History = append(state.History, llm.ChatMessage{Role: llm.RoleAssistant, Content: content})
		if hooks.OnAssistant != nil {
			hooks.OnAssistant(role.ID.Key(), content)
		}

		calls := extract.Extract(content)
		if len(calls) == 0 {
			result.FinishReason = FinishCompleted
			result.FinalAnswer = content
			result.Iterations = state.Iterations
			result.ToolCalls = state.ToolCalls
			return result, nil
		}

		l.executePass(ctx, state, role, calls, hooks, &result)
	}
}

// complete performs one model call, retrying once on the configured
// fallback before giving up.
func (l *Loop) complete(ctx context.Context, state *State, role Role, hooks Hooks) (string, error) {
	roleKey := role.ID.Key()
	provider, route, isExp, err := l.strategy.PickWithBudget(roleKey, firstNonEmpty(state.ModelOverride, role.ModelKey), state.ExpensiveUsed)
	if err != nil {
		return "", &InferenceError{Err: err}
	}

	messages := make([]llm.ChatMessage, 0, len(state.History)+1)
	messages = append(messages, llm.ChatMessage{
		Role:    llm.RoleSystem,
		Content: buildSystemPrompt(role, l.invoker.Schemas(), l.roster.DelegatableKeys()),
	})
	messages = append(messages, state.History...)

	req := llm.ChatRequest{
		Model:       route.Model,
		Messages:    messages,
		MaxTokens:   pickMaxTokens(l.cfg.MaxTokens, route.MaxTokens),
		Temperature: pickTemperature(l.cfg.Temperature, route.Temperature),
	}

	resp, err := provider.Chat(ctx, req)
	if err != nil {
		if hooks.OnModelFailure != nil {
			hooks.OnModelFailure(roleKey, route.Name)
		}
		fb := l.strategy.NextFallback(route.Name)
		if fb == "" {
			return "", &InferenceError{Model: route.Name, Err: err}
		}
		l.logger.Warn("model call failed, trying fallback",
			zap.String("model", route.Name),
			zap.String("fallback", fb),
			zap.Error(err))

		fbProvider, fbRoute, fbErr := l.strategy.ResolveModel("", fb)
		if fbErr != nil {
			return "", &InferenceError{Model: route.Name, Err: err}
		}
		req.Model = fbRoute.Model
		resp, err = fbProvider.Chat(ctx, req)
		if err != nil {
			if hooks.OnModelFailure != nil {
				hooks.OnModelFailure(roleKey, fbRoute.Name)
			}
			return "", &InferenceError{Model: fbRoute.Name, Err: err}
		}
		route = fbRoute
		isExp = false
	}

	if isExp {
		state.ExpensiveUsed++
	}
	if hooks.OnModelUsage != nil {
		hooks.OnModelUsage(roleKey, route.Name)
	}
	return resp.Message.Content, nil
}

// executePass runs one pass's tool calls and at most one delegation. Tool
// results land in history in call order regardless of execution order.
func (l *Loop) executePass(ctx context.Context, state *State, role Role, calls []extract.ToolCallRequest, hooks Hooks, result *Result) {
	toolCalls, delegates := SplitCalls(calls)

	allowed := make(map[string]bool, len(role.Toolset))
	for _, name := range role.Toolset {
		allowed[name] = true
	}

	outputs := make([]string, len(toolCalls))
	errs := make([]error, len(toolCalls))

	run := func(i int, call extract.ToolCallRequest) {
		if !allowed[call.Name] {
			errs[i] = tools.NewError(tools.KindAccessDenied, call.Name,
				fmt.Sprintf("tool %q is not available to role %s", call.Name, role.ID.Key()))
			return
		}
		outputs[i], errs[i] = l.invoker.Invoke(ctx, call.Name, call.Arguments)
	}

	if l.cfg.ParallelTools && len(toolCalls) > 1 {
		// Failures stay per-call, so the group never cancels siblings.
		var g errgroup.Group
		g.SetLimit(4)
		for i, call := range toolCalls {
			i, call := i, call
			g.Go(func() error {
				run(i, call)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, call := range toolCalls {
			run(i, call)
		}
	}

	for i, call := range toolCalls {
		state.ToolCalls++
		l.appendToolResult(state, call.Name, outputs[i], errs[i], hooks)
	}

	if chosen, ok := l.router.Choose(delegates); ok {
		state.ToolCalls++
		if !allowed[delegateTool] {
			err := tools.NewError(tools.KindAccessDenied, delegateTool,
				fmt.Sprintf("tool %q is not available to role %s", delegateTool, role.ID.Key()))
			l.appendToolResult(state, delegateTool, "", err, hooks)
			return
		}
		output, err := l.delegate(ctx, state, chosen, hooks, result)
		l.appendToolResult(state, delegateTool, output, err, hooks)
	}
}

// delegate runs a sub-task under a specialist role with a fresh history.
func (l *Loop) delegate(ctx context.Context, state *State, call extract.ToolCallRequest, hooks Hooks, result *Result) (string, error) {
	target, task, err := l.router.Resolve(call, state.Depth, state.LastDelegate, state.HasDelegated)
	if err != nil {
		return "", err
	}
	state.LastDelegate = target.ID
	state.HasDelegated = true

	if hooks.OnDelegation != nil {
		hooks.OnDelegation(target.ID.Key())
	}
	l.logger.Info("delegating sub-task",
		zap.String("session", state.SessionID),
		zap.String("role", target.ID.Key()),
		zap.Int("depth", state.Depth+1))

	// Child stats stay with the child run; the parent only counts the
	// delegation itself. The expensive-model budget is shared.
	child := state.child(target.ID)
	subResult, err := l.Run(ctx, child, task, hooks)
	state.ExpensiveUsed = child.ExpensiveUsed
	result.Delegations++
	if err != nil {
		return "", err
	}

	answer := subResult.FinalAnswer
	if answer == "" {
		answer = fmt.Sprintf("specialist %s finished without an answer (%s)", target.ID.Key(), subResult.FinishReason)
	}
	return answer, nil
}

func (l *Loop) appendToolResult(state *State, name, output string, err error, hooks Hooks) {
	content := output
	if err != nil {
		var ie *InferenceError
		if errors.As(err, &ie) {
			// The sub-run already gave up; report it to the parent as a
			// failed result rather than aborting the whole run.
			content = fmt.Sprintf("delegation failed: %v", err)
		} else {
			content = fmt.Sprintf("tool error (%s): %s", tools.KindOf(err), err.Error())
		}
	}
	content = truncateForPrompt(content, toolOutputLimit)
	if content == "" {
		content = "(no output)"
	}

	state.History = append(state.History, llm.ChatMessage{
		Role:    llm.RoleTool,
		Name:    name,
		Content: content,
	})
	if hooks.OnToolResult != nil {
		hooks.OnToolResult(name, content, err)
	}
}

func pickTemperature(agentTemp, routeTemp float64) float64 {
	if agentTemp > 0 {
		return agentTemp
	}
	if routeTemp > 0 {
		return routeTemp
	}
	return 0.2
}

func pickMaxTokens(agentMax, routeMax int) int {
	if agentMax > 0 {
		return agentMax
	}
	if routeMax > 0 {
		return routeMax
	}
	return 0
}
