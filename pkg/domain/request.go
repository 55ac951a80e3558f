package domain

import "strings"

// Status reports the outcome of a dispatch.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusError   Status = "ERROR"
)

// UnknownAction is substituted when a request carries no action name.
// Dispatch proceeds normally with it; an anonymous request is degraded,
// not rejected.
const UnknownAction = "unknown_action"

// Defaults used by DefaultResponse when the host has no main logic.
const (
	DefaultMessage = "Processed action via contract transitions"
	DefaultVersion = "1.0.0"
)

// Request is the unit of work a host hands to the dispatcher.
// Payload is opaque to the interpreter and only visible to executors
// and the host's main logic.
type Request struct {
	Action  string         `json:"action" yaml:"action" mapstructure:"action"`
	Version string         `json:"version,omitempty" yaml:"version,omitempty" mapstructure:"version"`
	Payload map[string]any `json:"payload,omitempty" yaml:"payload,omitempty" mapstructure:"payload"`
}

// ActionName returns the action used for trigger matching, degrading to
// UnknownAction when the request has none.
func (r Request) ActionName() string {
	if strings.TrimSpace(r.Action) == "" {
		return UnknownAction
	}
	return r.Action
}

// Response is the dispatcher's reply to the host.
type Response struct {
	Status  Status `json:"status" yaml:"status"`
	Message string `json:"message" yaml:"message"`
	Version string `json:"version" yaml:"version"`
}

// DefaultResponse builds the canned success reply returned when no main logic
// is registered. It echoes the request version when present.
func DefaultResponse(req Request) Response {
	version := req.Version
	if version == "" {
		version = DefaultVersion
	}
	return Response{
		Status:  StatusSuccess,
		Message: DefaultMessage,
		Version: version,
	}
}
