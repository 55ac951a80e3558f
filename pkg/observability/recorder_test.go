package observability_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/pkg/adapters/memory"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/observability"
	"github.com/aretw0/espalier/pkg/ports"
)

const ordersContract = `
state_transitions:
  - name: audit
    triggers: [confirm_order]
    priority: 10
    type: simple
  - name: notify
    triggers: [confirm_order]
    priority: 5
    type: webhook
`

func scrape(t *testing.T, rec *observability.Recorder) string {
	t.Helper()
	srv := httptest.NewServer(rec.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestRecorder_CollectsDispatchMetrics(t *testing.T) {
	rec := observability.NewRecorder()

	failing := ports.ExecutorFunc(func(ctx context.Context, inv domain.Invocation) error {
		return errors.New("webhook endpoint unreachable")
	})

	eng, err := espalier.New("orders",
		espalier.WithSource(memory.NewSource(map[string]string{"orders": ordersContract})),
		espalier.WithExecutor(domain.Kind("webhook"), failing),
		espalier.WithLifecycleHooks(rec.Hooks()),
	)
	require.NoError(t, err)

	resp, err := eng.Dispatch(context.Background(), domain.Request{Action: "confirm_order"})
	require.NoError(t, err)
	require.Equal(t, domain.StatusSuccess, resp.Status)

	body := scrape(t, rec)

	assert.Contains(t, body, `espalier_dispatches_total{action="confirm_order",node="orders",outcome="success"} 1`)
	assert.Contains(t, body, `espalier_transitions_applied_total{kind="simple",node="orders"} 1`)
	assert.Contains(t, body, `espalier_executor_failures_total{kind="webhook",node="orders"} 1`)
	assert.Contains(t, body, `espalier_contract_transitions{node="orders"} 2`)
	assert.Contains(t, body, `espalier_contract_load_seconds_count 1`)
}

func TestRecorder_CountsErrorOutcomes(t *testing.T) {
	rec := observability.NewRecorder()

	main := ports.MainLogicFunc(func(ctx context.Context, req domain.Request) (domain.Response, error) {
		return domain.Response{}, errors.New("downstream rejected")
	})

	eng, err := espalier.New("orders",
		espalier.WithSource(memory.NewSource(nil)),
		espalier.WithMainLogic(main),
		espalier.WithLifecycleHooks(rec.Hooks()),
	)
	require.NoError(t, err)

	_, err = eng.Dispatch(context.Background(), domain.Request{Action: "confirm_order"})
	require.Error(t, err)

	body := scrape(t, rec)
	assert.Contains(t, body, `espalier_dispatches_total{action="confirm_order",node="orders",outcome="error"} 1`)
}

func TestRecorder_CustomNamespace(t *testing.T) {
	rec := observability.NewRecorder(observability.WithNamespace("orders_svc"))

	hooks := rec.Hooks()
	hooks.OnDispatch(context.Background(), &domain.DispatchEvent{
		EventBase: domain.EventBase{Node: "orders"},
		Action:    "ping",
		Status:    domain.StatusSuccess,
	})

	body := scrape(t, rec)
	assert.Contains(t, body, `orders_svc_dispatches_total{action="ping",node="orders",outcome="success"} 1`)
	assert.NotContains(t, body, "espalier_dispatches_total")
}
