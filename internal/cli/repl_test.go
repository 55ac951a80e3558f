package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/pkg/adapters/memory"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

const replContract = `description: Order routing rules.
state_transitions:
  - name: audit_order
    type: simple
    priority: 10
    triggers: [confirm_order]
    updates:
      audit: pending
`

func newLoopEngine(t *testing.T, opts ...espalier.Option) *espalier.Engine {
	t.Helper()

	source := memory.NewSource(map[string]string{"orders": replContract})
	base := []espalier.Option{
		espalier.WithSource(source),
		espalier.WithLogger(logging.NewNop()),
	}
	engine, err := espalier.New("orders", append(base, opts...)...)
	require.NoError(t, err)
	return engine
}

func TestRunLoop_DispatchesAndExits(t *testing.T) {
	engine := newLoopEngine(t)

	in := strings.NewReader("confirm_order\nexit\n")
	var out bytes.Buffer

	err := runLoop(context.Background(), engine, nil, false, in, &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "[SUCCESS] Processed action via contract transitions (v1.0.0)")
	assert.Contains(t, out.String(), "Bye!")
}

func TestRunLoop_JSONMode(t *testing.T) {
	engine := newLoopEngine(t)

	in := strings.NewReader(`{"action":"confirm_order","version":"2.0.0"}` + "\n")
	var out bytes.Buffer

	err := runLoop(context.Background(), engine, nil, true, in, &out)
	require.NoError(t, err)

	var resp domain.Response
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, domain.StatusSuccess, resp.Status)
	assert.Equal(t, "2.0.0", resp.Version)
}

func TestRunLoop_ContinuesAfterDispatchError(t *testing.T) {
	main := ports.MainLogicFunc(func(ctx context.Context, req domain.Request) (domain.Response, error) {
		if req.Action == "boom" {
			return domain.Response{}, assert.AnError
		}
		return domain.DefaultResponse(req), nil
	})
	engine := newLoopEngine(t, espalier.WithMainLogic(main))

	in := strings.NewReader("boom\n\nconfirm_order\nexit\n")
	var out bytes.Buffer

	err := runLoop(context.Background(), engine, nil, false, in, &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), `dispatch "boom" on node "orders"`)
	assert.Contains(t, out.String(), "[SUCCESS]")
}

func TestRunLoop_RefreshSwapsEngine(t *testing.T) {
	first := newLoopEngine(t, espalier.WithMainLogic(ports.MainLogicFunc(
		func(ctx context.Context, req domain.Request) (domain.Response, error) {
			return domain.Response{Status: domain.StatusSuccess, Message: "first", Version: "1.0.0"}, nil
		})))
	second := newLoopEngine(t, espalier.WithMainLogic(ports.MainLogicFunc(
		func(ctx context.Context, req domain.Request) (domain.Response, error) {
			return domain.Response{Status: domain.StatusSuccess, Message: "second", Version: "1.0.0"}, nil
		})))

	calls := 0
	refresh := func() *espalier.Engine {
		calls++
		if calls == 2 {
			return second
		}
		return nil
	}

	in := strings.NewReader("confirm_order\nconfirm_order\nexit\n")
	var out bytes.Buffer

	err := runLoop(context.Background(), first, refresh, false, in, &out)
	require.NoError(t, err)

	firstIdx := strings.Index(out.String(), "first")
	secondIdx := strings.Index(out.String(), "second")
	require.GreaterOrEqual(t, firstIdx, 0)
	require.GreaterOrEqual(t, secondIdx, 0)
	assert.Less(t, firstIdx, secondIdx)
}

func TestRunLoop_RejectsOversizedAction(t *testing.T) {
	engine := newLoopEngine(t)

	in := strings.NewReader(strings.Repeat("a", 5000) + "\nexit\n")
	var out bytes.Buffer

	err := runLoop(context.Background(), engine, nil, false, in, &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "action rejected")
}

func TestRunLoop_ExitsOnEOF(t *testing.T) {
	engine := newLoopEngine(t)

	in := strings.NewReader("confirm_order\n")
	var out bytes.Buffer

	err := runLoop(context.Background(), engine, nil, false, in, &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "[SUCCESS]")
	assert.NotContains(t, out.String(), "Bye!")
}
