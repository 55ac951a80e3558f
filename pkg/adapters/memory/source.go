package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/aretw0/espalier/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Source implements ports.ContractSource using an in-memory map.
// It is the natural choice for tests and for hosts that embed their
// contracts in the binary.
type Source struct {
	contracts map[string][]byte
}

// NewSource creates a Source from raw contract documents keyed by node name.
func NewSource(contracts map[string]string) *Source {
	data := make(map[string][]byte, len(contracts))
	for node, doc := range contracts {
		data[node] = []byte(doc)
	}
	return &Source{contracts: data}
}

// NewFromSets creates a Source from domain objects, serializing each set back
// to a contract document. This improves DX for tests and the DSL builder.
func NewFromSets(sets ...*domain.TransitionSet) (*Source, error) {
	data := make(map[string][]byte, len(sets))
	for _, set := range sets {
		if set.Node == "" {
			return nil, fmt.Errorf("transition set missing node name")
		}
		entries := make([]map[string]any, 0, len(set.Transitions))
		for _, t := range set.Transitions {
			entries = append(entries, transitionDoc(t))
		}
		doc := map[string]any{
			"description":       set.Description,
			"state_transitions": entries,
		}
		raw, err := yaml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal contract for %s: %w", set.Node, err)
		}
		data[set.Node] = raw
	}
	return &Source{contracts: data}, nil
}

// transitionDoc renders a transition as a contract entry. Config keys are
// inlined at the entry's top level, the inverse of the parser's ",remain"
// collection.
func transitionDoc(t domain.Transition) map[string]any {
	entry := map[string]any{
		"name":     t.Name,
		"triggers": t.Triggers,
		"type":     string(t.Kind),
	}
	if t.Description != "" {
		entry["description"] = t.Description
	}
	if t.Priority != 0 {
		entry["priority"] = t.Priority
	}
	if len(t.Updates) > 0 {
		entry["updates"] = t.Updates
	}
	if t.Tool != "" {
		entry["tool"] = t.Tool
	}
	if len(t.ToolParams) > 0 {
		entry["tool_params"] = t.ToolParams
	}
	for k, v := range t.Config {
		entry[k] = v
	}
	return entry
}

// Load returns the raw contract document for a node.
func (s *Source) Load(ctx context.Context, node string) ([]byte, error) {
	content, ok := s.contracts[node]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrContractNotFound, node)
	}
	return content, nil
}

// ListNodes returns all node names with a contract.
func (s *Source) ListNodes(ctx context.Context) ([]string, error) {
	nodes := make([]string, 0, len(s.contracts))
	for node := range s.contracts {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes) // Deterministic order
	return nodes, nil
}
