// Package validator lints transition contracts. The loader is deliberately
// permissive (anything it can decode is dispatchable), so everything the
// loader tolerates but an operator should know about surfaces here as a
// diagnostic instead: duplicate names, unknown kinds, transitions that can
// never fire.
package validator

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/espalier/internal/compiler"
	"github.com/aretw0/espalier/pkg/domain"
)

type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
	SeverityInfo    Severity = "INFO"
)

type Diagnostic struct {
	Rule       string   `json:"rule"`
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
	Node       string   `json:"node,omitempty"`
	Transition string   `json:"transition,omitempty"`
	Fix        string   `json:"fix,omitempty"`
}

// LintRule is the interface for custom lint rules passed to Validate.
type LintRule interface {
	Name() string
	Apply(set *domain.TransitionSet) []Diagnostic
}

//go:embed contract_schema.json
var contractSchemaJSON string

var contractSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("contract_schema.json", strings.NewReader(contractSchemaJSON)); err != nil {
		panic(err)
	}
	schema, err := c.Compile("contract_schema.json")
	if err != nil {
		panic(err)
	}
	return schema
}

// Lint runs the full pipeline against a raw contract document: structural
// schema validation, a parse, then the semantic rules on the parsed set.
func Lint(node string, raw []byte, extraRules ...LintRule) []Diagnostic {
	diags := ValidateDocument(raw)

	set, err := compiler.NewParser().Parse(node, raw)
	if err != nil {
		diags = append(diags, Diagnostic{
			Rule:     "contract_parse",
			Severity: SeverityError,
			Message:  err.Error(),
			Node:     node,
		})
		return diags
	}

	return append(diags, Validate(set, extraRules...)...)
}

// ValidateDocument checks the raw YAML document against the embedded contract
// schema. The document is normalized through JSON so the schema sees the same
// value shapes the runtime decoder does.
func ValidateDocument(raw []byte) []Diagnostic {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return []Diagnostic{{
			Rule:     "document_syntax",
			Severity: SeverityError,
			Message:  err.Error(),
		}}
	}
	if doc == nil {
		return nil
	}

	normalized, err := normalizeToJSON(doc)
	if err != nil {
		return []Diagnostic{{
			Rule:     "document_syntax",
			Severity: SeverityError,
			Message:  err.Error(),
		}}
	}

	if err := contractSchema.Validate(normalized); err != nil {
		return []Diagnostic{{
			Rule:     "document_schema",
			Severity: SeverityError,
			Message:  err.Error(),
		}}
	}
	return nil
}

func normalizeToJSON(doc any) (any, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var normalized any
	if err := json.Unmarshal(b, &normalized); err != nil {
		return nil, err
	}
	return normalized, nil
}

// Validate runs all built-in lint rules and any extra rules against the set.
func Validate(set *domain.TransitionSet, extraRules ...LintRule) []Diagnostic {
	var diags []Diagnostic
	if set == nil {
		return []Diagnostic{{Rule: "contract_nil", Severity: SeverityError, Message: "transition set is nil"}}
	}

	diags = append(diags, lintNoTransitions(set)...)
	diags = append(diags, lintDuplicateNames(set)...)
	diags = append(diags, lintMissingKind(set)...)
	diags = append(diags, lintUnknownKind(set)...)
	diags = append(diags, lintNoTriggers(set)...)
	diags = append(diags, lintToolRequired(set)...)

	for _, rule := range extraRules {
		if rule != nil {
			diags = append(diags, rule.Apply(set)...)
		}
	}
	return diags
}

// ValidateOrError collapses error-severity diagnostics into a single error.
func ValidateOrError(set *domain.TransitionSet, extraRules ...LintRule) error {
	diags := Validate(set, extraRules...)
	var errs []string
	for _, d := range diags {
		if d.Severity == SeverityError {
			errs = append(errs, d.Rule+": "+d.Message)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func lintNoTransitions(set *domain.TransitionSet) []Diagnostic {
	if set.Len() > 0 {
		return nil
	}
	return []Diagnostic{{
		Rule:     "no_transitions",
		Severity: SeverityInfo,
		Message:  "contract declares no state transitions; every dispatch goes straight to the main logic",
		Node:     set.Node,
	}}
}

func lintDuplicateNames(set *domain.TransitionSet) []Diagnostic {
	var diags []Diagnostic
	seen := make(map[string]bool, set.Len())
	for _, t := range set.Transitions {
		if seen[t.Name] {
			diags = append(diags, Diagnostic{
				Rule:       "duplicate_name",
				Severity:   SeverityError,
				Message:    fmt.Sprintf("transition name %q is declared more than once", t.Name),
				Node:       set.Node,
				Transition: t.Name,
				Fix:        "rename one of the transitions",
			})
		}
		seen[t.Name] = true
	}
	return diags
}

func lintMissingKind(set *domain.TransitionSet) []Diagnostic {
	var diags []Diagnostic
	for _, t := range set.Transitions {
		if t.Kind == "" {
			diags = append(diags, Diagnostic{
				Rule:       "missing_kind",
				Severity:   SeverityError,
				Message:    "transition declares no type",
				Node:       set.Node,
				Transition: t.Name,
				Fix:        "set type to simple, tool_based or conditional",
			})
		}
	}
	return diags
}

func lintUnknownKind(set *domain.TransitionSet) []Diagnostic {
	var diags []Diagnostic
	for _, t := range set.Transitions {
		if t.Kind == "" || t.Kind.Known() {
			continue
		}
		diags = append(diags, Diagnostic{
			Rule:       "unknown_kind",
			Severity:   SeverityWarning,
			Message:    fmt.Sprintf("transition type %q has no built-in executor; dispatch will use the fallback", t.Kind),
			Node:       set.Node,
			Transition: t.Name,
			Fix:        "register an executor for this kind on the engine",
		})
	}
	return diags
}

func lintNoTriggers(set *domain.TransitionSet) []Diagnostic {
	var diags []Diagnostic
	for _, t := range set.Transitions {
		if len(t.Triggers) == 0 {
			diags = append(diags, Diagnostic{
				Rule:       "no_triggers",
				Severity:   SeverityInfo,
				Message:    "transition has no triggers and can never fire",
				Node:       set.Node,
				Transition: t.Name,
			})
		}
	}
	return diags
}

func lintToolRequired(set *domain.TransitionSet) []Diagnostic {
	var diags []Diagnostic
	for _, t := range set.Transitions {
		if t.Kind != domain.KindToolBased {
			continue
		}
		if strings.TrimSpace(t.Tool) == "" {
			diags = append(diags, Diagnostic{
				Rule:       "tool_required",
				Severity:   SeverityError,
				Message:    "tool_based transition declares no tool",
				Node:       set.Node,
				Transition: t.Name,
				Fix:        "set the tool field to the delegate tool name",
			})
		}
	}
	return diags
}
