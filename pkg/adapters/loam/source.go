package loam

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/loam"
	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Contract layout inside the repository, mirrored from the filesystem source.
// Document IDs are matched with extensions trimmed, so the contract document
// name carries none.
const (
	versionDir      = "v1_0_0"
	contractsDir    = "contracts"
	contractDocName = "contract_state_transitions"
)

// ContractDocument is the typed metadata of a contract document stored in a
// Loam repository. It uses "mapstructure" tags to match the YAML keys.
type ContractDocument struct {
	Description      string           `json:"description" mapstructure:"description"`
	StateTransitions []map[string]any `json:"state_transitions" mapstructure:"state_transitions"`
}

// Source adapts the Loam library to the Espalier ContractSource interface.
// It buys versioned, watchable contract storage for the price of a dependency.
type Source struct {
	Repo *loam.TypedRepository[ContractDocument]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[ContractDocument]) *Source {
	return &Source{
		Repo: repo,
	}
}

// Open initializes a read-only Loam repository at the given path and returns a
// Source over it. Strict mode keeps numeric types consistent across Loam's
// JSON and YAML adapters.
func Open(repoPath string) (*Source, error) {
	absPath, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}

	return New(loam.NewTypedRepository[ContractDocument](repo)), nil
}

// Load discovers the node's contract document and re-serializes it to the
// canonical YAML layout, so the compiler sees the same shape a filesystem
// source would produce.
func (s *Source) Load(ctx context.Context, node string) ([]byte, error) {
	id, err := s.discover(ctx, node)
	if err != nil {
		return nil, err
	}

	doc, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loam get failed for %s: %w", id, err)
	}

	out := map[string]any{
		"state_transitions": doc.Data.StateTransitions,
	}
	if doc.Data.Description != "" {
		out["description"] = doc.Data.Description
	}

	raw, err := yaml.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal contract document: %w", err)
	}
	return raw, nil
}

// discover returns the document ID holding the node's contract. Like the
// filesystem source, the tool-scoped layout wins, then ties break
// lexicographically on the trimmed ID.
func (s *Source) discover(ctx context.Context, node string) (string, error) {
	if node == "" {
		return "", fmt.Errorf("%w: empty node name", domain.ErrContractNotFound)
	}

	docs, err := s.Repo.List(ctx)
	if err != nil {
		return "", fmt.Errorf("loam list failed: %w", err)
	}

	byTrimmed := make(map[string]string, len(docs))
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		trimmed := trimExtension(doc.ID)
		if _, ok := byTrimmed[trimmed]; !ok {
			ids = append(ids, trimmed)
		}
		byTrimmed[trimmed] = doc.ID
	}
	sort.Strings(ids)

	patterns := []string{
		path.Join("**", "tools", "**", node, versionDir, contractsDir, contractDocName),
		path.Join("**", node, versionDir, contractsDir, contractDocName),
	}

	for _, pattern := range patterns {
		for _, id := range ids {
			ok, err := doublestar.Match(pattern, id)
			if err != nil {
				return "", fmt.Errorf("match %q: %w", pattern, err)
			}
			if ok {
				return byTrimmed[id], nil
			}
		}
	}

	return "", fmt.Errorf("%w: no contract document for node %s", domain.ErrContractNotFound, node)
}

// ListNodes returns the node names with a contract document, sorted.
func (s *Source) ListNodes(ctx context.Context) ([]string, error) {
	docs, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]bool)
	var nodes []string
	for _, doc := range docs {
		node := nodeFromContractID(trimExtension(doc.ID))
		if node == "" || seen[node] {
			continue
		}
		seen[node] = true
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)
	return nodes, nil
}

// Watch implements ports.Watchable, forwarding contract document changes as
// node names.
func (s *Source) Watch(ctx context.Context) (<-chan string, error) {
	events, err := s.Repo.Watch(ctx, "**/"+contractDocName+".{yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				node := nodeFromContractID(trimExtension(evt.ID))
				if node == "" {
					continue
				}
				select {
				case ch <- node:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}

// nodeFromContractID extracts the node name from a trimmed document ID ending
// in <node>/v1_0_0/contracts/contract_state_transitions.
func nodeFromContractID(id string) string {
	if path.Base(id) != contractDocName {
		return ""
	}
	versioned := path.Dir(path.Dir(id))
	if path.Base(versioned) != versionDir {
		return ""
	}
	node := path.Base(path.Dir(versioned))
	if node == "." || node == "/" {
		return ""
	}
	return node
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
