package domain

import (
	"sort"
	"strings"
)

// Kind discriminates how a matched transition is interpreted.
type Kind string

const (
	KindSimple      Kind = "simple"
	KindToolBased   Kind = "tool_based"
	KindConditional Kind = "conditional"
)

// ParseKind normalizes a raw transition type from a contract document.
// Matching is case-insensitive. Unknown values are preserved (lowercased)
// instead of rejected, so contracts can carry host-specific kinds; the
// dispatcher routes those to the fallback executor.
func ParseKind(raw string) Kind {
	return Kind(strings.ToLower(strings.TrimSpace(raw)))
}

// Known reports whether the kind is one of the built-in transition kinds.
func (k Kind) Known() bool {
	switch k {
	case KindSimple, KindToolBased, KindConditional:
		return true
	}
	return false
}

// Transition is a single declarative dispatch rule from a node contract.
//
// The kind-specific fields (Updates, Tool, ToolParams) are populated only for
// the matching kind. Config carries the remaining raw mapping for conditional
// and host-specific kinds, decoded generically.
type Transition struct {
	Name        string            `json:"name" yaml:"name" mapstructure:"name"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Triggers    []string          `json:"triggers" yaml:"triggers" mapstructure:"triggers"`
	Priority    int               `json:"priority,omitempty" yaml:"priority,omitempty" mapstructure:"priority"`
	Kind        Kind              `json:"type" yaml:"type" mapstructure:"type"`
	Updates     map[string]string `json:"updates,omitempty" yaml:"updates,omitempty" mapstructure:"updates"`
	Tool        string            `json:"tool,omitempty" yaml:"tool,omitempty" mapstructure:"tool"`
	ToolParams  map[string]any    `json:"tool_params,omitempty" yaml:"tool_params,omitempty" mapstructure:"tool_params"`
	Config      map[string]any    `json:"config,omitempty" yaml:"config,omitempty" mapstructure:",remain"`
}

// Matches reports whether the action is an exact member of the trigger set.
// No prefix, glob, or case folding is applied.
func (t Transition) Matches(action string) bool {
	for _, trigger := range t.Triggers {
		if trigger == action {
			return true
		}
	}
	return false
}

// TransitionSet is the ordered, immutable result of loading a node's contract.
// A nil or empty set is valid and means "no declarative transitions": dispatch
// then falls straight through to the host's main logic.
//
// Name uniqueness is not enforced here; duplicate names are surfaced by the
// validator instead, so a permissive loader and a strict linter can coexist.
type TransitionSet struct {
	Node        string       `json:"node"`
	Description string       `json:"description,omitempty"`
	Transitions []Transition `json:"transitions"`
}

// Len returns the number of transitions in the set.
func (s *TransitionSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Transitions)
}

// Match returns the transitions whose trigger set contains the action,
// preserving contract order. The returned slice is a copy.
func (s *TransitionSet) Match(action string) []Transition {
	if s == nil {
		return nil
	}
	var matched []Transition
	for _, t := range s.Transitions {
		if t.Matches(action) {
			matched = append(matched, t)
		}
	}
	return matched
}

// Names returns the transition names in contract order.
func (s *TransitionSet) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.Transitions))
	for _, t := range s.Transitions {
		names = append(names, t.Name)
	}
	return names
}

// OrderByPriority returns the transitions sorted by priority, highest first.
// The sort is stable: ties keep their contract order. The input is not mutated.
func OrderByPriority(transitions []Transition) []Transition {
	ordered := make([]Transition, len(transitions))
	copy(ordered, transitions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})
	return ordered
}

// Invocation carries everything an executor may inspect when a matched
// transition is applied. Executors treat it as read-only; the dispatcher owns
// the request and never lets executors mutate it.
type Invocation struct {
	Node       string
	Action     string
	Transition Transition
	Request    Request
}
