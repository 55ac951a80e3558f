package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSource serves contracts from memory and counts reads, so tests can
// prove the one-shot load.
type stubSource struct {
	data  map[string][]byte
	err   error
	loads atomic.Int32
}

func (s *stubSource) Load(ctx context.Context, node string) ([]byte, error) {
	s.loads.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	raw, ok := s.data[node]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrContractNotFound, node)
	}
	return raw, nil
}

// stubCache is an in-memory TransitionCache that counts writes.
type stubCache struct {
	mu   sync.Mutex
	sets map[string]*domain.TransitionSet
	puts int
}

func newStubCache() *stubCache {
	return &stubCache{sets: make(map[string]*domain.TransitionSet)}
}

func (c *stubCache) Get(ctx context.Context, node string) (*domain.TransitionSet, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	set, ok := c.sets[node]
	return set, ok, nil
}

func (c *stubCache) Put(ctx context.Context, node string, set *domain.TransitionSet) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets[node] = set
	c.puts++
	return nil
}

func (c *stubCache) Delete(ctx context.Context, node string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sets, node)
	return nil
}

// recordingExecutor captures the order transitions are applied in and can be
// told to fail or panic on specific names.
type recordingExecutor struct {
	mu      sync.Mutex
	applied []string
	failOn  map[string]error
	panicOn string
}

func (r *recordingExecutor) Apply(ctx context.Context, inv domain.Invocation) error {
	if inv.Transition.Name == r.panicOn {
		panic("executor exploded")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.failOn[inv.Transition.Name]; ok {
		return err
	}
	r.applied = append(r.applied, inv.Transition.Name)
	return nil
}

func (r *recordingExecutor) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.applied))
	copy(out, r.applied)
	return out
}

func recordingRegistry(rec *recordingExecutor) *registry.Registry {
	reg := registry.New()
	reg.SetFallback(rec)
	return reg
}

func captureLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

const priorityContract = `
state_transitions:
  - name: low
    triggers: [go]
    priority: 5
    type: simple
  - name: high
    triggers: [go]
    priority: 10
    type: simple
  - name: unrelated
    triggers: [stop]
    priority: 99
    type: simple
`

func TestDispatchAppliesHigherPriorityFirst(t *testing.T) {
	source := &stubSource{data: map[string][]byte{"alpha": []byte(priorityContract)}}
	rec := &recordingExecutor{}

	d := NewDispatcher("alpha", source, WithRegistry(recordingRegistry(rec)))

	resp, err := d.Dispatch(context.Background(), domain.Request{Action: "go"})
	require.NoError(t, err)

	assert.Equal(t, []string{"high", "low"}, rec.names(),
		"priority 10 runs before priority 5; non-matching triggers are skipped")
	assert.Equal(t, domain.StatusSuccess, resp.Status)
	assert.Equal(t, domain.DefaultMessage, resp.Message)
}

func TestDispatchKeepsContractOrderOnTies(t *testing.T) {
	doc := `
state_transitions:
  - name: first
    triggers: [go]
    priority: 7
    type: simple
  - name: second
    triggers: [go]
    priority: 7
    type: simple
  - name: third
    triggers: [go]
    priority: 7
    type: simple
`
	source := &stubSource{data: map[string][]byte{"n": []byte(doc)}}
	rec := &recordingExecutor{}
	d := NewDispatcher("n", source, WithRegistry(recordingRegistry(rec)))

	_, err := d.Dispatch(context.Background(), domain.Request{Action: "go"})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, rec.names())
}

func TestDispatchWithoutContractReturnsDefaultResponse(t *testing.T) {
	source := &stubSource{data: map[string][]byte{}}
	d := NewDispatcher("beta", source)

	resp, err := d.Dispatch(context.Background(), domain.Request{Action: "anything"})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusSuccess, resp.Status)
	assert.Equal(t, "Processed action via contract transitions", resp.Message)
	assert.Equal(t, "1.0.0", resp.Version)
}

func TestDispatchEchoesRequestVersion(t *testing.T) {
	source := &stubSource{data: map[string][]byte{}}
	d := NewDispatcher("beta", source)

	resp, err := d.Dispatch(context.Background(), domain.Request{Action: "x", Version: "2.3.0"})
	require.NoError(t, err)
	assert.Equal(t, "2.3.0", resp.Version)
}

func TestDispatchDegradesMissingActionName(t *testing.T) {
	doc := `
state_transitions:
  - name: catch_unknown
    triggers: [unknown_action]
    type: simple
`
	source := &stubSource{data: map[string][]byte{"n": []byte(doc)}}
	rec := &recordingExecutor{}
	logger, buf := captureLogger()
	d := NewDispatcher("n", source, WithRegistry(recordingRegistry(rec)), WithLogger(logger))

	resp, err := d.Dispatch(context.Background(), domain.Request{})
	require.NoError(t, err)

	assert.Equal(t, []string{"catch_unknown"}, rec.names(),
		"the degraded name participates in trigger matching")
	assert.Equal(t, domain.StatusSuccess, resp.Status)
	assert.Contains(t, buf.String(), "request missing action name")
}

func TestDispatchLoadsContractOnce(t *testing.T) {
	source := &stubSource{data: map[string][]byte{"alpha": []byte(priorityContract)}}
	d := NewDispatcher("alpha", source)

	ctx := context.Background()
	_, err := d.Dispatch(ctx, domain.Request{Action: "go"})
	require.NoError(t, err)
	_, err = d.Dispatch(ctx, domain.Request{Action: "stop"})
	require.NoError(t, err)
	_, err = d.Transitions(ctx)
	require.NoError(t, err)

	assert.Equal(t, int32(1), source.loads.Load(), "the contract is read exactly once per dispatcher")
}

func TestDispatchLocksInEmptySetAfterFailure(t *testing.T) {
	source := &stubSource{err: errors.New("disk on fire")}
	logger, buf := captureLogger()
	d := NewDispatcher("alpha", source, WithLogger(logger))

	ctx := context.Background()
	resp, err := d.Dispatch(ctx, domain.Request{Action: "go"})
	require.NoError(t, err, "load failures never surface as dispatch errors")
	assert.Equal(t, domain.StatusSuccess, resp.Status)

	// Even after the source recovers, the instance keeps its empty set.
	source.err = nil
	source.data = map[string][]byte{"alpha": []byte(priorityContract)}
	_, err = d.Dispatch(ctx, domain.Request{Action: "go"})
	require.NoError(t, err)

	assert.Equal(t, int32(1), source.loads.Load(), "a failed load is not retried")
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "failed to read contract")
}

func TestDispatchSurvivesMalformedContract(t *testing.T) {
	source := &stubSource{data: map[string][]byte{"alpha": []byte("state_transitions: [broken")}}
	rec := &recordingExecutor{}
	logger, buf := captureLogger()
	d := NewDispatcher("alpha", source, WithRegistry(recordingRegistry(rec)), WithLogger(logger))

	resp, err := d.Dispatch(context.Background(), domain.Request{Action: "go"})
	require.NoError(t, err)

	assert.Empty(t, rec.names(), "a malformed contract yields no transitions, not a partial set")
	assert.Equal(t, domain.StatusSuccess, resp.Status)
	assert.Contains(t, buf.String(), "failed to parse contract")
}

func TestDispatchToleratesExecutorFailures(t *testing.T) {
	doc := `
state_transitions:
  - name: one
    triggers: [go]
    priority: 3
    type: simple
  - name: two
    triggers: [go]
    priority: 2
    type: simple
  - name: three
    triggers: [go]
    priority: 1
    type: simple
`
	source := &stubSource{data: map[string][]byte{"n": []byte(doc)}}
	rec := &recordingExecutor{failOn: map[string]error{"two": errors.New("simulated executor failure")}}
	logger, buf := captureLogger()

	var mainCalled bool
	main := ports.MainLogicFunc(func(ctx context.Context, req domain.Request) (domain.Response, error) {
		mainCalled = true
		return domain.Response{Status: domain.StatusSuccess, Message: "host handled it", Version: "9.9.9"}, nil
	})

	d := NewDispatcher("n", source,
		WithRegistry(recordingRegistry(rec)),
		WithLogger(logger),
		WithMainLogic(main),
	)

	resp, err := d.Dispatch(context.Background(), domain.Request{Action: "go"})
	require.NoError(t, err)

	assert.Equal(t, []string{"one", "three"}, rec.names(), "the failing executor does not stop the others")
	assert.True(t, mainCalled, "main logic still runs after executor failures")
	assert.Equal(t, "host handled it", resp.Message)
	assert.Contains(t, buf.String(), "transition executor failed")
	assert.Contains(t, buf.String(), "simulated executor failure")
}

func TestDispatchRecoversExecutorPanic(t *testing.T) {
	doc := `
state_transitions:
  - name: volatile
    triggers: [go]
    type: simple
  - name: calm
    triggers: [go]
    type: simple
`
	source := &stubSource{data: map[string][]byte{"n": []byte(doc)}}
	rec := &recordingExecutor{panicOn: "volatile"}
	logger, buf := captureLogger()
	d := NewDispatcher("n", source, WithRegistry(recordingRegistry(rec)), WithLogger(logger))

	resp, err := d.Dispatch(context.Background(), domain.Request{Action: "go"})
	require.NoError(t, err)

	assert.Equal(t, []string{"calm"}, rec.names())
	assert.Equal(t, domain.StatusSuccess, resp.Status)
	assert.Contains(t, buf.String(), "executor panic")
}

func TestDispatchWrapsMainLogicError(t *testing.T) {
	source := &stubSource{data: map[string][]byte{}}
	cause := errors.New("downstream unavailable")
	main := ports.MainLogicFunc(func(ctx context.Context, req domain.Request) (domain.Response, error) {
		return domain.Response{}, cause
	})
	d := NewDispatcher("orders", source, WithMainLogic(main))

	_, err := d.Dispatch(context.Background(), domain.Request{Action: "confirm"})
	require.Error(t, err)

	var de *domain.DispatchError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "orders", de.Node)
	assert.Equal(t, "confirm", de.Action)
	assert.ErrorIs(t, err, cause)
}

func TestDispatchUsesCache(t *testing.T) {
	t.Run("hit skips the source", func(t *testing.T) {
		cache := newStubCache()
		require.NoError(t, cache.Put(context.Background(), "alpha", &domain.TransitionSet{
			Node:        "alpha",
			Transitions: []domain.Transition{{Name: "cached", Triggers: []string{"go"}, Kind: domain.KindSimple}},
		}))
		cache.puts = 0

		source := &stubSource{data: map[string][]byte{"alpha": []byte(priorityContract)}}
		rec := &recordingExecutor{}
		d := NewDispatcher("alpha", source, WithCache(cache), WithRegistry(recordingRegistry(rec)))

		_, err := d.Dispatch(context.Background(), domain.Request{Action: "go"})
		require.NoError(t, err)

		assert.Equal(t, int32(0), source.loads.Load())
		assert.Equal(t, []string{"cached"}, rec.names())
		assert.Equal(t, 0, cache.puts, "cache hits are not written back")
	})

	t.Run("miss writes back successful loads", func(t *testing.T) {
		cache := newStubCache()
		source := &stubSource{data: map[string][]byte{"alpha": []byte(priorityContract)}}
		d := NewDispatcher("alpha", source, WithCache(cache))

		_, err := d.Dispatch(context.Background(), domain.Request{Action: "go"})
		require.NoError(t, err)

		assert.Equal(t, 1, cache.puts)
		set, ok, _ := cache.Get(context.Background(), "alpha")
		require.True(t, ok)
		assert.Equal(t, 3, set.Len())
	})

	t.Run("degraded loads are never cached", func(t *testing.T) {
		cache := newStubCache()
		source := &stubSource{err: errors.New("read failed")}
		d := NewDispatcher("alpha", source, WithCache(cache))

		_, err := d.Dispatch(context.Background(), domain.Request{Action: "go"})
		require.NoError(t, err)

		assert.Equal(t, 0, cache.puts)
		_, ok, _ := cache.Get(context.Background(), "alpha")
		assert.False(t, ok)
	})
}

func TestConcurrentDispatchesLoadOnce(t *testing.T) {
	source := &stubSource{data: map[string][]byte{"alpha": []byte(priorityContract)}}
	d := NewDispatcher("alpha", source)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.Dispatch(context.Background(), domain.Request{Action: "go"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), source.loads.Load())
}

func TestDispatchEmitsLifecycleEvents(t *testing.T) {
	source := &stubSource{data: map[string][]byte{"alpha": []byte(priorityContract)}}

	var loadEvents []*domain.LoadEvent
	var transitionEvents []*domain.TransitionEvent
	var dispatchEvents []*domain.DispatchEvent
	hooks := domain.LifecycleHooks{
		OnContractLoad: func(ctx context.Context, e *domain.LoadEvent) {
			loadEvents = append(loadEvents, e)
		},
		OnTransitionApply: func(ctx context.Context, e *domain.TransitionEvent) {
			transitionEvents = append(transitionEvents, e)
		},
		OnDispatch: func(ctx context.Context, e *domain.DispatchEvent) {
			dispatchEvents = append(dispatchEvents, e)
		},
	}

	d := NewDispatcher("alpha", source, WithLifecycleHooks(hooks))

	_, err := d.Dispatch(context.Background(), domain.Request{Action: "go"})
	require.NoError(t, err)

	require.Len(t, loadEvents, 1)
	assert.Equal(t, 3, loadEvents[0].Transitions)
	assert.False(t, loadEvents[0].Degraded)

	require.Len(t, transitionEvents, 2)
	assert.Equal(t, "high", transitionEvents[0].Transition)
	assert.Equal(t, "low", transitionEvents[1].Transition)

	require.Len(t, dispatchEvents, 1)
	evt := dispatchEvents[0]
	assert.Equal(t, "go", evt.Action)
	assert.Equal(t, 2, evt.Matched)
	assert.Equal(t, []string{"high", "low"}, evt.Applied)
	assert.Equal(t, 0, evt.Failed)
	assert.False(t, evt.Delegated)
	assert.Equal(t, domain.StatusSuccess, evt.Status)
	assert.NotEmpty(t, evt.DispatchID)
	assert.Greater(t, evt.Duration, time.Duration(0))
}
