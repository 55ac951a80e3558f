package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/bmatcuk/doublestar/v4"
)

// Contract layout constants. A node's contract lives at
// <node>/v1_0_0/contracts/contract_state_transitions.yaml, with the versioned
// directory discoverable anywhere under the source root.
const (
	VersionDir       = "v1_0_0"
	ContractsDir     = "contracts"
	ContractFileName = "contract_state_transitions.yaml"
)

// Source implements ports.ContractSource on a directory tree.
//
// Discovery prefers tool-scoped layouts: "**/tools/**/<node>/v1_0_0" is tried
// before "**/<node>/v1_0_0". When a pattern yields several directories, the
// lexicographically first one wins; the walk order makes that deterministic
// across runs and platforms.
type Source struct {
	root string
}

// New creates a filesystem source rooted at the given directory.
func New(root string) (*Source, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", abs)
	}
	return &Source{root: abs}, nil
}

// Root returns the absolute directory the source discovers contracts under.
func (s *Source) Root() string {
	return s.root
}

// Load discovers the node's versioned directory and reads its contract file.
// Returns domain.ErrContractNotFound when no directory or contract file exists.
func (s *Source) Load(ctx context.Context, node string) ([]byte, error) {
	dir, err := s.discover(node)
	if err != nil {
		return nil, err
	}

	contract := filepath.Join(s.root, filepath.FromSlash(dir), ContractsDir, ContractFileName)
	data, err := os.ReadFile(contract)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s has no %s", domain.ErrContractNotFound, dir, ContractFileName)
		}
		return nil, fmt.Errorf("failed to read contract: %w", err)
	}
	return data, nil
}

// discover returns the node's versioned directory, relative to the root in
// slash form. The tool-scoped pattern is authoritative when it matches: a
// match without a contract file does not fall through to the next pattern.
func (s *Source) discover(node string) (string, error) {
	if node == "" {
		return "", fmt.Errorf("%w: empty node name", domain.ErrContractNotFound)
	}

	fsys := os.DirFS(s.root)
	patterns := []string{
		path.Join("**", "tools", "**", node, VersionDir),
		path.Join("**", node, VersionDir),
	}

	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return "", fmt.Errorf("glob %q: %w", pattern, err)
		}
		sort.Strings(matches)
		for _, match := range matches {
			info, err := fs.Stat(fsys, match)
			if err != nil || !info.IsDir() {
				continue
			}
			return match, nil
		}
	}

	return "", fmt.Errorf("%w: no %s directory for node %s", domain.ErrContractNotFound, VersionDir, node)
}

// ListNodes returns the node names with a discoverable contract file, sorted.
func (s *Source) ListNodes(ctx context.Context) ([]string, error) {
	fsys := os.DirFS(s.root)
	pattern := path.Join("**", VersionDir, ContractsDir, ContractFileName)

	matches, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}

	seen := make(map[string]bool)
	var nodes []string
	for _, match := range matches {
		node := nodeFromContractPath(match)
		if node == "" || seen[node] {
			continue
		}
		seen[node] = true
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)
	return nodes, nil
}

// nodeFromContractPath extracts the node name from a slash-form path ending in
// <node>/v1_0_0/contracts/contract_state_transitions.yaml.
func nodeFromContractPath(p string) string {
	versioned := path.Dir(path.Dir(p))
	if path.Base(versioned) != VersionDir {
		return ""
	}
	node := path.Base(path.Dir(versioned))
	if node == "." || node == "/" {
		return ""
	}
	return node
}
