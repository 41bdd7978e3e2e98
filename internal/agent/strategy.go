package agent

import (
	"strings"

	"github.com/codeforge-ai/codeforge/internal/config"
	"github.com/codeforge-ai/codeforge/internal/llm"
)

// StrategyEngine chooses models per role, honoring fallbacks and the
// expensive-model budget.
type StrategyEngine struct {
	registry *llm.Registry
	cfg      config.StrategyConfig
}

// NewStrategyEngine builds a strategy selector.
func NewStrategyEngine(reg *llm.Registry, cfg config.StrategyConfig) *StrategyEngine {
	return &StrategyEngine{registry: reg, cfg: cfg}
}

// ResolveModel picks a model for a role; override wins, then the role
// mapping, then the strategy default, then registry default.
func (s *StrategyEngine) ResolveModel(roleKey, override string) (llm.Provider, llm.ModelRoute, error) {
	roleKey = strings.ToLower(strings.TrimSpace(roleKey))
	modelID := firstNonEmpty(
		override,
		s.cfg.RoleModels[roleKey],
		s.cfg.DefaultModel,
	)
	if modelID != "" {
		if p, route, err := s.registry.Resolve(modelID); err == nil {
			return p, route, nil
		}
	}
	for _, fb := range s.cfg.Fallbacks {
		if p, route, err := s.registry.Resolve(fb); err == nil {
			return p, route, nil
		}
	}
	return s.registry.Resolve("")
}

// PickWithBudget chooses a model honoring max_expensive; expensiveUsed is
// the count consumed so far in the run.
func (s *StrategyEngine) PickWithBudget(roleKey, override string, expensiveUsed int) (llm.Provider, llm.ModelRoute, bool, error) {
	prov, route, err := s.ResolveModel(roleKey, override)
	if err != nil {
		return nil, llm.ModelRoute{}, false, err
	}

	isExp := s.registry.IsExpensive(route.Name)
	if s.cfg.MaxExpensive > 0 && isExp && expensiveUsed >= s.cfg.MaxExpensive {
		for _, fb := range s.cfg.Fallbacks {
			p, r, err := s.registry.Resolve(fb)
			if err != nil || s.registry.IsExpensive(r.Name) {
				continue
			}
			return p, r, false, nil
		}
		if s.cfg.DefaultModel != "" {
			if p, r, err := s.registry.Resolve(s.cfg.DefaultModel); err == nil && !s.registry.IsExpensive(r.Name) {
				return p, r, false, nil
			}
		}
	}

	return prov, route, isExp, nil
}

// NextFallback returns the first fallback model id different from current.
func (s *StrategyEngine) NextFallback(current string) string {
	for _, fb := range s.cfg.Fallbacks {
		if strings.TrimSpace(fb) == "" || fb == current {
			continue
		}
		return fb
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
