package tools

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plutus/pkg/errors"
)

func newTestDispatcher(t *testing.T, register func(r *Registry)) *Dispatcher {
	t.Helper()
	r := NewRegistry()
	register(r)
	return NewDispatcher(r, time.Second)
}

func TestDispatch_UnknownTool(t *testing.T) {
	d := newTestDispatcher(t, func(r *Registry) {})

	res := d.Dispatch(context.Background(), CallRequest{ID: "c1", Name: "nope"})

	assert.Equal(t, "c1", res.ID)
	assert.Equal(t, StatusError, res.Status)
	require.NotNil(t, res.Error)
	assert.Equal(t, CodeUnknownTool, res.Error.Code)
}

func TestDispatch_InvalidArgumentsNeverReachHandler(t *testing.T) {
	var invocations int32
	d := newTestDispatcher(t, func(r *Registry) {
		spec := Spec{
			Name: "get_quote",
			Params: map[string]ParamSpec{
				"ticker": {Type: TypeString, Required: true},
			},
		}
		require.NoError(t, r.Register(spec, func(ctx context.Context, args Args) (interface{}, error) {
			atomic.AddInt32(&invocations, 1)
			return nil, nil
		}))
	})

	res := d.Dispatch(context.Background(), CallRequest{ID: "c1", Name: "get_quote"})

	assert.Equal(t, StatusError, res.Status)
	require.NotNil(t, res.Error)
	assert.Equal(t, CodeInvalidArguments, res.Error.Code)
	assert.Contains(t, res.Error.Message, "ticker")
	assert.Equal(t, int32(0), atomic.LoadInt32(&invocations))
}

func TestDispatch_HandlerErrorCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code string
	}{
		{"not found", errors.Wrap(errors.ErrNotFound, "ticker FAKE"), CodeNotFound},
		{"timeout", context.DeadlineExceeded, CodeTimeout},
		{"collaborator", errors.Wrap(errors.ErrExternal, "yahoo 503"), CodeCollaborator},
		{"quote unavailable", errors.ErrQuoteUnavailable, CodeCollaborator},
		{"unexpected", errors.New("boom"), CodeInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := newTestDispatcher(t, func(r *Registry) {
				require.NoError(t, r.Register(Spec{Name: "t"}, func(ctx context.Context, args Args) (interface{}, error) {
					return nil, tc.err
				}))
			})

			res := d.Dispatch(context.Background(), CallRequest{ID: "c1", Name: "t"})

			assert.Equal(t, StatusError, res.Status)
			require.NotNil(t, res.Error)
			assert.Equal(t, tc.code, res.Error.Code)
		})
	}
}

func TestDispatch_PanicBecomesErrorResult(t *testing.T) {
	d := newTestDispatcher(t, func(r *Registry) {
		require.NoError(t, r.Register(Spec{Name: "t"}, func(ctx context.Context, args Args) (interface{}, error) {
			panic("handler bug")
		}))
	})

	res := d.Dispatch(context.Background(), CallRequest{ID: "c1", Name: "t"})

	assert.Equal(t, StatusError, res.Status)
	require.NotNil(t, res.Error)
	assert.Equal(t, CodeInternal, res.Error.Code)
	assert.Contains(t, res.Error.Message, "panicked")
}

func TestDispatchAll_OrderPreservedWithFailure(t *testing.T) {
	d := newTestDispatcher(t, func(r *Registry) {
		require.NoError(t, r.Register(Spec{Name: "ok_tool"}, func(ctx context.Context, args Args) (interface{}, error) {
			return "fine", nil
		}))
		require.NoError(t, r.Register(Spec{Name: "bad_tool"}, func(ctx context.Context, args Args) (interface{}, error) {
			return nil, errors.ErrNotFound
		}))
	})

	reqs := []CallRequest{
		{ID: "c1", Name: "ok_tool"},
		{ID: "c2", Name: "bad_tool"},
		{ID: "c3", Name: "ok_tool"},
	}

	results := d.DispatchAll(context.Background(), reqs)

	require.Len(t, results, 3)
	assert.Equal(t, "c1", results[0].ID)
	assert.Equal(t, "c2", results[1].ID)
	assert.Equal(t, "c3", results[2].ID)

	assert.Equal(t, StatusOK, results[0].Status)
	assert.Equal(t, StatusError, results[1].Status)
	assert.Equal(t, StatusOK, results[2].Status)
	assert.Equal(t, CodeNotFound, results[1].Error.Code)
}

func TestDispatch_MutationsSerializedPerTicker(t *testing.T) {
	var inFlight, maxInFlight int32
	var mu sync.Mutex

	d := newTestDispatcher(t, func(r *Registry) {
		spec := Spec{
			Name:     "add_position",
			Mutating: true,
			Params: map[string]ParamSpec{
				"ticker": {Type: TypeString, Required: true},
			},
		}
		require.NoError(t, r.Register(spec, func(ctx context.Context, args Args) (interface{}, error) {
			n := atomic.AddInt32(&inFlight, 1)
			mu.Lock()
			if n > maxInFlight {
				maxInFlight = n
			}
			mu.Unlock()
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return nil, nil
		}))
	})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// mixed case hits the same lock after normalization
			d.Dispatch(context.Background(), CallRequest{
				ID: "c", Name: "add_position",
				Args: map[string]interface{}{"ticker": "aapl"},
			})
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, int32(1), maxInFlight)
}

func TestDispatch_HandlerTimeout(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Spec{Name: "slow"}, func(ctx context.Context, args Args) (interface{}, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Second):
			return "too late", nil
		}
	}))
	d := NewDispatcher(r, 20*time.Millisecond)

	res := d.Dispatch(context.Background(), CallRequest{ID: "c1", Name: "slow"})

	assert.Equal(t, StatusError, res.Status)
	require.NotNil(t, res.Error)
	assert.Equal(t, CodeTimeout, res.Error.Code)
}
