package dsl

import (
	"fmt"

	"github.com/aretw0/espalier/internal/validator"
	"github.com/aretw0/espalier/pkg/adapters/memory"
	"github.com/aretw0/espalier/pkg/domain"
)

// Builder manages the construction of one node's transition contract.
// Declaration order is preserved: transitions with equal priority are
// dispatched in the order they were added.
type Builder struct {
	node        string
	description string
	order       []*TransitionBuilder
	index       map[string]*TransitionBuilder
}

// New creates a contract builder for the given node.
func New(node string) *Builder {
	return &Builder{
		node:  node,
		index: make(map[string]*TransitionBuilder),
	}
}

// Describe sets the contract description.
func (b *Builder) Describe(text string) *Builder {
	b.description = text
	return b
}

// Add creates a new transition in the contract.
// If the transition already exists, it returns the existing builder.
func (b *Builder) Add(name string) *TransitionBuilder {
	if tb, ok := b.index[name]; ok {
		return tb
	}
	tb := &TransitionBuilder{
		t: domain.Transition{
			Name: name,
		},
		builder: b,
	}
	b.index[name] = tb
	b.order = append(b.order, tb)
	return tb
}

// Set compiles the contract into a domain.TransitionSet.
func (b *Builder) Set() *domain.TransitionSet {
	transitions := make([]domain.Transition, 0, len(b.order))
	for _, tb := range b.order {
		transitions = append(transitions, tb.t)
	}
	return &domain.TransitionSet{
		Node:        b.node,
		Description: b.description,
		Transitions: transitions,
	}
}

// Build validates the contract and compiles it into a memory Source.
// Contracts a file-based node would fail to lint (a tool_based transition
// without a tool, a transition without a kind) fail here instead of
// degrading at dispatch time.
func (b *Builder) Build() (*memory.Source, error) {
	set := b.Set()
	if err := validator.ValidateOrError(set); err != nil {
		return nil, fmt.Errorf("invalid contract: %w", err)
	}
	source, err := memory.NewFromSets(set)
	if err != nil {
		return nil, fmt.Errorf("failed to build memory source: %w", err)
	}
	return source, nil
}
