package compiler

import (
	"fmt"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Parser is responsible for converting a raw contract document into a
// TransitionSet.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// document mirrors the on-disk contract layout. Transitions are kept as raw
// mappings so each entry can be built by its kind factory.
type document struct {
	Description      string           `yaml:"description"`
	StateTransitions []map[string]any `yaml:"state_transitions"`
}

// factory finalizes a decoded transition for its kind.
type factory func(*domain.Transition) error

var factories = map[domain.Kind]factory{
	domain.KindSimple:    buildSimple,
	domain.KindToolBased: buildToolBased,
}

// Parse decodes the raw contract document for the given node.
//
// A decode failure on any entry fails the whole parse: the caller degrades to
// the empty set rather than dispatching against half a contract. Semantic gaps
// (no triggers, missing tool name, unknown kind) survive parsing and are the
// validator's business.
func (p *Parser) Parse(node string, data []byte) (*domain.TransitionSet, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse contract: %w", err)
	}

	set := &domain.TransitionSet{
		Node:        node,
		Description: doc.Description,
	}

	for i, raw := range doc.StateTransitions {
		t, err := buildTransition(raw)
		if err != nil {
			return nil, fmt.Errorf("state_transitions[%d]: %w", i, err)
		}
		set.Transitions = append(set.Transitions, t)
	}

	return set, nil
}

// buildTransition decodes one raw entry and routes it through its kind factory.
// Kinds without a factory (conditional and host-specific ones) keep their
// unmatched keys in Config via the ",remain" mapping.
func buildTransition(raw map[string]any) (domain.Transition, error) {
	var t domain.Transition
	if err := mapstructure.Decode(raw, &t); err != nil {
		return domain.Transition{}, fmt.Errorf("failed to decode transition: %w", err)
	}

	if t.Name == "" {
		return domain.Transition{}, fmt.Errorf("transition missing name")
	}

	t.Kind = domain.ParseKind(string(t.Kind))

	if build, ok := factories[t.Kind]; ok {
		if err := build(&t); err != nil {
			return domain.Transition{}, fmt.Errorf("transition %q: %w", t.Name, err)
		}
	}

	return t, nil
}

func buildSimple(t *domain.Transition) error {
	if t.Updates == nil {
		t.Updates = map[string]string{}
	}
	return nil
}

func buildToolBased(t *domain.Transition) error {
	if t.ToolParams == nil {
		t.ToolParams = map[string]any{}
	}
	return nil
}
