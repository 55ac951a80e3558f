package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventContractLoad    EventType = "contract_load"
	EventTransitionApply EventType = "transition_apply"
	EventDispatch        EventType = "dispatch"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp  time.Time `json:"timestamp"`
	Type       EventType `json:"type"`
	Node       string    `json:"node"`
	DispatchID string    `json:"dispatch_id,omitempty"`
}

// LoadEvent describes the one-time contract load of an engine instance.
// Degraded is true when a read or parse failure produced the empty set; a
// node that simply has no contract is not degraded.
type LoadEvent struct {
	EventBase
	Transitions int           `json:"transitions"`
	FromCache   bool          `json:"from_cache,omitempty"`
	Degraded    bool          `json:"degraded,omitempty"`
	Error       string        `json:"error,omitempty"`
	Duration    time.Duration `json:"duration"`
}

// TransitionEvent describes one executor application during a dispatch.
type TransitionEvent struct {
	EventBase
	Transition string `json:"transition"`
	Kind       Kind   `json:"kind"`
	Action     string `json:"action"`
	IsError    bool   `json:"is_error,omitempty"`
	Error      string `json:"error,omitempty"`
}

// DispatchEvent describes a completed dispatch.
type DispatchEvent struct {
	EventBase
	Action    string        `json:"action"`
	Matched   int           `json:"matched"`
	Applied   []string      `json:"applied,omitempty"`
	Failed    int           `json:"failed,omitempty"`
	Delegated bool          `json:"delegated,omitempty"`
	Status    Status        `json:"status"`
	Duration  time.Duration `json:"duration"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnContractLoad    func(context.Context, *LoadEvent)
	OnTransitionApply func(context.Context, *TransitionEvent)
	OnDispatch        func(context.Context, *DispatchEvent)
}
