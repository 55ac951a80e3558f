package validator

import (
	"testing"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rulesOf(diags []Diagnostic) []string {
	out := make([]string, 0, len(diags))
	for _, d := range diags {
		out = append(out, d.Rule)
	}
	return out
}

func findRule(diags []Diagnostic, rule string) (Diagnostic, bool) {
	for _, d := range diags {
		if d.Rule == rule {
			return d, true
		}
	}
	return Diagnostic{}, false
}

func TestLint_CleanContract(t *testing.T) {
	doc := []byte(`
description: Order flow
state_transitions:
  - name: audit
    triggers: [confirm, cancel]
    priority: 10
    type: simple
    updates:
      last_event: "{action}"
  - name: charge
    triggers: [confirm]
    priority: 5
    type: tool_based
    tool: payment_gateway
    tool_params:
      provider: stripe
  - name: reroute
    triggers: [cancel]
    type: conditional
    condition: "order.paid == false"
`)

	diags := Lint("orders", doc)
	assert.Empty(t, diags, "expected no diagnostics, got %v", rulesOf(diags))
}

func TestLint_SemanticRules(t *testing.T) {
	t.Run("duplicate names", func(t *testing.T) {
		doc := []byte(`
state_transitions:
  - name: audit
    triggers: [a]
    type: simple
  - name: audit
    triggers: [b]
    type: simple
`)
		diags := Lint("orders", doc)
		d, ok := findRule(diags, "duplicate_name")
		require.True(t, ok, "expected duplicate_name, got %v", rulesOf(diags))
		assert.Equal(t, SeverityError, d.Severity)
		assert.Equal(t, "audit", d.Transition)
	})

	t.Run("missing kind", func(t *testing.T) {
		doc := []byte(`
state_transitions:
  - name: untyped
    triggers: [go]
`)
		diags := Lint("orders", doc)
		d, ok := findRule(diags, "missing_kind")
		require.True(t, ok, "expected missing_kind, got %v", rulesOf(diags))
		assert.Equal(t, SeverityError, d.Severity)
	})

	t.Run("unknown kind warns", func(t *testing.T) {
		doc := []byte(`
state_transitions:
  - name: retry
    triggers: [timeout]
    type: retry_with_backoff
`)
		diags := Lint("orders", doc)
		d, ok := findRule(diags, "unknown_kind")
		require.True(t, ok, "expected unknown_kind, got %v", rulesOf(diags))
		assert.Equal(t, SeverityWarning, d.Severity)
		assert.Contains(t, d.Message, "retry_with_backoff")
	})

	t.Run("tool_based requires tool", func(t *testing.T) {
		doc := []byte(`
state_transitions:
  - name: charge
    triggers: [confirm]
    type: tool_based
`)
		diags := Lint("orders", doc)
		d, ok := findRule(diags, "tool_required")
		require.True(t, ok, "expected tool_required, got %v", rulesOf(diags))
		assert.Equal(t, SeverityError, d.Severity)
	})

	t.Run("triggerless transition is informational", func(t *testing.T) {
		doc := []byte(`
state_transitions:
  - name: orphan
    type: simple
`)
		diags := Lint("orders", doc)
		d, ok := findRule(diags, "no_triggers")
		require.True(t, ok, "expected no_triggers, got %v", rulesOf(diags))
		assert.Equal(t, SeverityInfo, d.Severity)
	})

	t.Run("empty contract is informational", func(t *testing.T) {
		diags := Lint("orders", []byte(`description: nothing here`))
		d, ok := findRule(diags, "no_transitions")
		require.True(t, ok, "expected no_transitions, got %v", rulesOf(diags))
		assert.Equal(t, SeverityInfo, d.Severity)
	})
}

func TestLint_DocumentValidation(t *testing.T) {
	t.Run("malformed yaml", func(t *testing.T) {
		diags := Lint("orders", []byte("state_transitions: [unclosed"))
		_, ok := findRule(diags, "document_syntax")
		assert.True(t, ok, "expected document_syntax, got %v", rulesOf(diags))
	})

	t.Run("transitions not a list", func(t *testing.T) {
		diags := Lint("orders", []byte("state_transitions:\n  not: a list"))
		_, ok := findRule(diags, "document_schema")
		assert.True(t, ok, "expected document_schema, got %v", rulesOf(diags))
	})

	t.Run("entry without name", func(t *testing.T) {
		diags := Lint("orders", []byte("state_transitions:\n  - triggers: [go]"))
		_, ok := findRule(diags, "document_schema")
		assert.True(t, ok, "expected document_schema, got %v", rulesOf(diags))
	})

	t.Run("schema failure still reports the parse error", func(t *testing.T) {
		diags := Lint("orders", []byte("state_transitions:\n  - triggers: [go]"))
		_, ok := findRule(diags, "contract_parse")
		assert.True(t, ok, "expected contract_parse alongside schema error, got %v", rulesOf(diags))
	})
}

func TestValidateOrError(t *testing.T) {
	warnOnly := &domain.TransitionSet{
		Node: "orders",
		Transitions: []domain.Transition{
			{Name: "retry", Triggers: []string{"timeout"}, Kind: domain.Kind("retry_with_backoff")},
		},
	}
	assert.NoError(t, ValidateOrError(warnOnly), "warnings do not fail validation")

	withErrors := &domain.TransitionSet{
		Node: "orders",
		Transitions: []domain.Transition{
			{Name: "charge", Triggers: []string{"confirm"}, Kind: domain.KindToolBased},
		},
	}
	err := ValidateOrError(withErrors)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tool_required")
}

type nodeNameRule struct{}

func (nodeNameRule) Name() string { return "node_named" }

func (nodeNameRule) Apply(set *domain.TransitionSet) []Diagnostic {
	if set.Node != "" {
		return nil
	}
	return []Diagnostic{{Rule: "node_named", Severity: SeverityError, Message: "set has no node name"}}
}

func TestValidate_ExtraRules(t *testing.T) {
	diags := Validate(&domain.TransitionSet{}, nodeNameRule{})
	_, ok := findRule(diags, "node_named")
	assert.True(t, ok, "expected the extra rule to run, got %v", rulesOf(diags))
}
