package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// ContractSourceTest is a reusable test suite that verifies if an adapter
// complies with ports.ContractSource. setupData maps node names to the raw
// contract document the source is expected to return for them.
func ContractSourceTest(t *testing.T, source ports.ContractSource, setupData map[string][]byte) {
	t.Helper()
	ctx := context.Background()

	// 1. Test Load (Success)
	t.Run("Load_Success", func(t *testing.T) {
		for node, expectedContent := range setupData {
			content, err := source.Load(ctx, node)
			if err != nil {
				t.Fatalf("unexpected error loading contract for %s: %v", node, err)
			}
			if string(content) != string(expectedContent) {
				t.Errorf("content mismatch for %s. got %q, want %q", node, content, expectedContent)
			}
		}
	})

	// 2. Test Load (NotFound)
	t.Run("Load_NotFound", func(t *testing.T) {
		_, err := source.Load(ctx, "non-existent-node")
		if err == nil {
			t.Error("expected error for non-existent node, got nil")
		}
		if !errors.Is(err, domain.ErrContractNotFound) {
			t.Errorf("expected ErrContractNotFound, got %v", err)
		}
	})

	// 3. Test ListNodes (when supported)
	t.Run("ListNodes", func(t *testing.T) {
		lister, ok := source.(ports.Lister)
		if !ok {
			t.Skip("source does not implement ports.Lister")
		}

		nodes, err := lister.ListNodes(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing nodes: %v", err)
		}

		if len(nodes) != len(setupData) {
			t.Errorf("expected %d nodes, got %d", len(setupData), len(nodes))
		}

		lookup := make(map[string]bool)
		for _, node := range nodes {
			lookup[node] = true
		}
		for node := range setupData {
			if !lookup[node] {
				t.Errorf("node %s missing from list", node)
			}
		}
	})
}
