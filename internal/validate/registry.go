package validate

import (
	"slices"
	"sync"

	"github.com/dgallion1/docstruct/internal/structure"
)

// Rule is one structural check. Check must be pure.
type Rule interface {
	Name() string
	Check(doc *structure.DocumentStructure) Result
}

type funcRule struct {
	name string
	fn   func(*structure.DocumentStructure) Result
}

func (r funcRule) Name() string                                  { return r.name }
func (r funcRule) Check(doc *structure.DocumentStructure) Result { return r.fn(doc) }

// RuleFunc adapts a named function to Rule.
func RuleFunc(name string, fn func(*structure.DocumentStructure) Result) Rule {
	return funcRule{name: name, fn: fn}
}

// Registry is an ordered, concurrency-safe set of named rules.
type Registry struct {
	mu    sync.RWMutex
	rules []Rule
}

// NewRegistry returns a registry holding rules in the given order.
func NewRegistry(rules ...Rule) *Registry {
	r := &Registry{}
	for _, rule := range rules {
		_ = r.Register(rule)
	}
	return r
}

// Register adds rule. A rule with the same name is replaced in place so the
// evaluation order is unchanged.
func (r *Registry) Register(rule Rule) error {
	if rule == nil || rule.Name() == "" {
		return ErrRuleNameRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if i := r.index(rule.Name()); i >= 0 {
		r.rules[i] = rule
		return nil
	}
	r.rules = append(r.rules, rule)
	return nil
}

// Unregister removes the named rule. Unknown names are ignored.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i := r.index(name); i >= 0 {
		r.rules = slices.Delete(r.rules, i, i+1)
	}
}

// Rules returns a snapshot of the registered rules in evaluation order.
func (r *Registry) Rules() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.rules)
}

// Names returns the registered rule names in evaluation order.
func (r *Registry) Names() []string {
	rules := r.Rules()
	names := make([]string, len(rules))
	for i, rule := range rules {
		names[i] = rule.Name()
	}
	return names
}

func (r *Registry) index(name string) int {
	return slices.IndexFunc(r.rules, func(rule Rule) bool { return rule.Name() == name })
}
