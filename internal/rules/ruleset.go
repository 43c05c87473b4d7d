// FilePath: internal/rules/ruleset.go
package rules

import (
	"context"
	"sync"

	"github.com/fleetpulse/hub/internal/models"
	"github.com/fleetpulse/hub/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

type ruleKey struct {
	componentID string
	parameter   models.SensorKind
}

// RuleSet is the in-memory rule index used on the hot evaluation path. It
// enforces at most one rule per (component, parameter) pair and is reloaded
// wholesale, never mutated in place.
type RuleSet struct {
	mu    sync.RWMutex
	rules map[ruleKey]*models.Rule
}

func NewRuleSet() *RuleSet {
	return &RuleSet{rules: make(map[ruleKey]*models.Rule)}
}

// Load replaces the rule index with the repository's current contents.
// Duplicate (component, parameter) pairs keep the first rule seen and log
// the rest; the invariant is one rule per pair.
func (s *RuleSet) Load(ctx context.Context, repo repository.RuleRepository) error {
	all, err := repo.ListAll(ctx)
	if err != nil {
		return err
	}

	next := make(map[ruleKey]*models.Rule, len(all))
	for _, rule := range all {
		key := ruleKey{componentID: rule.ComponentID, parameter: rule.Parameter}
		if _, exists := next[key]; exists {
			nuts.L.Warnf("[RuleSet] Duplicate rule for component %s parameter %s, keeping first", rule.ComponentID, rule.Parameter)
			continue
		}
		next[key] = rule
	}

	s.mu.Lock()
	s.rules = next
	s.mu.Unlock()

	nuts.L.Infof("[RuleSet] Loaded %d threshold rules", len(next))
	return nil
}

// Find returns the rule for a (component, parameter) pair, or nil when none
// is configured.
func (s *RuleSet) Find(componentID string, parameter models.SensorKind) *models.Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rules[ruleKey{componentID: componentID, parameter: parameter}]
}

// Put inserts or replaces a single rule. Used by tests and administrative
// reload paths.
func (s *RuleSet) Put(rule *models.Rule) {
	s.mu.Lock()
	s.rules[ruleKey{componentID: rule.ComponentID, parameter: rule.Parameter}] = rule
	s.mu.Unlock()
}

// Len reports the number of loaded rules.
func (s *RuleSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rules)
}
