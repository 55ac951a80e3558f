package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunTransitionCacheContract runs a suite of tests to verify that a
// TransitionCache implementation adheres to the defined interface contract.
func RunTransitionCacheContract(t *testing.T, cache TransitionCache) {
	ctx := context.Background()
	node := "contract-test-node-" + time.Now().Format("20060102150405")

	set := &domain.TransitionSet{
		Node:        node,
		Description: "cache contract fixture",
		Transitions: []domain.Transition{
			{Name: "audit", Triggers: []string{"confirm"}, Priority: 10, Kind: domain.KindSimple,
				Updates: map[string]string{"status": "confirmed"}},
			{Name: "route", Triggers: []string{"pay"}, Kind: domain.KindToolBased,
				Tool: "payment_gateway", ToolParams: map[string]any{"retries": 3}},
		},
	}

	t.Run("Put and Get", func(t *testing.T) {
		err := cache.Put(ctx, node, set)
		require.NoError(t, err, "Put should not return error")

		got, ok, err := cache.Get(ctx, node)
		require.NoError(t, err, "Get should not return error")
		require.True(t, ok, "Get should report a hit after Put")
		assert.Equal(t, node, got.Node)
		assert.Equal(t, 2, got.Len())
		assert.Equal(t, "audit", got.Transitions[0].Name)
		assert.Equal(t, domain.KindToolBased, got.Transitions[1].Kind)
		// JSON round-trips may widen numerics; only presence is contractual.
		assert.Contains(t, got.Transitions[1].ToolParams, "retries")
	})

	t.Run("Get Miss", func(t *testing.T) {
		_, ok, err := cache.Get(ctx, "absent-"+node)
		require.NoError(t, err, "a miss is not an error")
		assert.False(t, ok)
	})

	t.Run("Empty Set Round-Trip", func(t *testing.T) {
		// A node without a contract still caches as an explicit empty set.
		empty := &domain.TransitionSet{Node: node + "-empty"}
		require.NoError(t, cache.Put(ctx, node+"-empty", empty))

		got, ok, err := cache.Get(ctx, node+"-empty")
		require.NoError(t, err)
		require.True(t, ok, "an empty set is a hit, not a miss")
		assert.Equal(t, 0, got.Len())
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, cache.Put(ctx, node, set))
		require.NoError(t, cache.Delete(ctx, node))

		_, ok, err := cache.Get(ctx, node)
		require.NoError(t, err)
		assert.False(t, ok, "Get after Delete should report a miss")
	})
}
