package loam_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/espalier/internal/compiler"
	loamAdapter "github.com/aretw0/espalier/pkg/adapters/loam"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ordersContract = `description: Order lifecycle contract.
state_transitions:
  - name: confirm_order
    triggers: [confirm]
    priority: 10
    type: simple
    updates:
      status: confirmed
`

// seedContract writes a contract document into the repository directory at
// <parts...>/contracts/contract_state_transitions.yaml.
func seedContract(t *testing.T, root, content string, parts ...string) {
	t.Helper()
	dir := filepath.Join(append([]string{root}, parts...)...)
	contracts := filepath.Join(dir, "contracts")
	require.NoError(t, os.MkdirAll(contracts, 0o755))
	file := filepath.Join(contracts, "contract_state_transitions.yaml")
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))
}

func TestSourceLoadParsesContract(t *testing.T) {
	tmpDir := t.TempDir()
	seedContract(t, tmpDir, ordersContract, "services", "orders", "v1_0_0")

	source, err := loamAdapter.Open(tmpDir)
	require.NoError(t, err)

	raw, err := source.Load(context.Background(), "orders")
	require.NoError(t, err)

	set, err := compiler.NewParser().Parse("orders", raw)
	require.NoError(t, err)
	assert.Equal(t, "Order lifecycle contract.", set.Description)
	require.Equal(t, 1, set.Len())
	assert.Equal(t, "confirm_order", set.Transitions[0].Name)
	assert.Equal(t, domain.KindSimple, set.Transitions[0].Kind)
	assert.Equal(t, 10, set.Transitions[0].Priority)
	assert.Equal(t, "confirmed", set.Transitions[0].Updates["status"])
}

func TestSourceDiscoveryPrefersToolScopedLayout(t *testing.T) {
	tmpDir := t.TempDir()
	seedContract(t, tmpDir, "description: plain\nstate_transitions: []\n", "worker", "v1_0_0")
	seedContract(t, tmpDir, "description: tool-scoped\nstate_transitions: []\n", "tools", "pool", "worker", "v1_0_0")

	source, err := loamAdapter.Open(tmpDir)
	require.NoError(t, err)

	raw, err := source.Load(context.Background(), "worker")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "tool-scoped")
}

func TestSourceLoadNotFound(t *testing.T) {
	source, err := loamAdapter.Open(t.TempDir())
	require.NoError(t, err)

	_, err = source.Load(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrContractNotFound)
}

func TestSourceListNodes(t *testing.T) {
	tmpDir := t.TempDir()
	seedContract(t, tmpDir, "state_transitions: []\n", "orders", "v1_0_0")
	seedContract(t, tmpDir, "state_transitions: []\n", "area", "tools", "billing", "payments", "v1_0_0")

	source, err := loamAdapter.Open(tmpDir)
	require.NoError(t, err)

	nodes, err := source.ListNodes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "payments"}, nodes)
}
