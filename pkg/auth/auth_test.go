package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridial/faceit/pkg/dispatch"
	"github.com/veridial/faceit/pkg/pool"
	"github.com/veridial/faceit/pkg/types"
)

// fakeCoordinator counts disposition calls to verify the exactly-once
// property on every terminal path, and records the context state it was
// handed so tests can check compensation runs on a live context
type fakeCoordinator struct {
	acquireErr   error
	unit         *types.WorkerUnit
	releaseCalls int
	disposeCalls int
	releaseErr   error
	disposeErr   error
	lastCtxErr   error
}

func (f *fakeCoordinator) Acquire(ctx context.Context) (*types.WorkerUnit, error) {
	if f.acquireErr != nil {
		return nil, f.acquireErr
	}
	return f.unit, nil
}

func (f *fakeCoordinator) Release(ctx context.Context, unit *types.WorkerUnit) error {
	f.releaseCalls++
	f.lastCtxErr = ctx.Err()
	return f.releaseErr
}

func (f *fakeCoordinator) Dispose(ctx context.Context, unit *types.WorkerUnit) error {
	f.disposeCalls++
	f.lastCtxErr = ctx.Err()
	return f.disposeErr
}

// fakeDispatcher returns a canned response or error. beforeReturn, when
// set, runs first, so tests can cancel the request context mid-dispatch.
type fakeDispatcher struct {
	resp         *types.AuthResponse
	err          error
	beforeReturn func()
}

func (f *fakeDispatcher) Authenticate(ctx context.Context, unit *types.WorkerUnit, req *types.AuthRequest, requestID string) (*types.AuthResponse, error) {
	if f.beforeReturn != nil {
		f.beforeReturn()
	}
	return f.resp, f.err
}

func testUnit() *types.WorkerUnit {
	return &types.WorkerUnit{
		Name:      "worker-1",
		Namespace: "ns",
		IP:        "10.0.0.1",
		Status:    types.WorkerStatusBusy,
	}
}

// TestAuthenticateSuccessDisposesWorker tests the completed path: the
// decision is returned and the worker is disposed exactly once
func TestAuthenticateSuccessDisposesWorker(t *testing.T) {
	coord := &fakeCoordinator{unit: testUnit()}
	disp := &fakeDispatcher{resp: &types.AuthResponse{
		Matched: true, UserID: "user1", Confidence: 0.93,
	}}

	o := New(coord, disp)
	resp, err := o.Authenticate(context.Background(), &types.AuthRequest{ImageBase64: "aW1hZ2U="})
	require.NoError(t, err)

	assert.True(t, resp.Matched)
	assert.Equal(t, "user1", resp.UserID)
	assert.GreaterOrEqual(t, resp.DurationMs, int64(0))
	assert.Equal(t, 1, coord.disposeCalls)
	assert.Equal(t, 0, coord.releaseCalls)
}

// TestAuthenticateNoMatchStillDisposes tests that a rejected authentication
// is a completed job: dispose, and the rejection goes back to the caller
func TestAuthenticateNoMatchStillDisposes(t *testing.T) {
	coord := &fakeCoordinator{unit: testUnit()}
	disp := &fakeDispatcher{resp: &types.AuthResponse{Matched: false, Confidence: 0.41}}

	o := New(coord, disp)
	resp, err := o.Authenticate(context.Background(), &types.AuthRequest{ImageBase64: "aW1hZ2U="})
	require.NoError(t, err)

	assert.False(t, resp.Matched)
	assert.Empty(t, resp.UserID)
	assert.Equal(t, 1, coord.disposeCalls)
	assert.Equal(t, 0, coord.releaseCalls)
}

// TestAuthenticateNoCapacity tests that capacity failures surface without
// any compensation
func TestAuthenticateNoCapacity(t *testing.T) {
	tests := []struct {
		name       string
		acquireErr error
	}{
		{name: "no idle workers", acquireErr: pool.ErrNoIdleWorkers},
		{name: "contention exhausted", acquireErr: pool.ErrPoolContended},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coord := &fakeCoordinator{acquireErr: tt.acquireErr}
			o := New(coord, &fakeDispatcher{})

			_, err := o.Authenticate(context.Background(), &types.AuthRequest{ImageBase64: "aW1hZ2U="})
			assert.ErrorIs(t, err, ErrNoCapacity)
			assert.Equal(t, 0, coord.disposeCalls)
			assert.Equal(t, 0, coord.releaseCalls)
		})
	}
}

// TestAuthenticateStoreFailure tests that a store transport failure during
// acquire is not reported as a capacity error
func TestAuthenticateStoreFailure(t *testing.T) {
	coord := &fakeCoordinator{acquireErr: errors.New("connection refused")}
	o := New(coord, &fakeDispatcher{})

	_, err := o.Authenticate(context.Background(), &types.AuthRequest{ImageBase64: "aW1hZ2U="})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoCapacity)
}

// TestAuthenticateTransportFailureReleases tests the compensation path for
// an unreachable worker: release, not dispose
func TestAuthenticateTransportFailureReleases(t *testing.T) {
	coord := &fakeCoordinator{unit: testUnit()}
	disp := &fakeDispatcher{err: fmt.Errorf("%w: connection refused", dispatch.ErrUnreachable)}

	o := New(coord, disp)
	_, err := o.Authenticate(context.Background(), &types.AuthRequest{ImageBase64: "aW1hZ2U="})

	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, 1, coord.releaseCalls)
	assert.Equal(t, 0, coord.disposeCalls)
}

// TestAuthenticateWorkerFailureDisposes tests the compensation path for a
// worker-internal failure: dispose, not release
func TestAuthenticateWorkerFailureDisposes(t *testing.T) {
	coord := &fakeCoordinator{unit: testUnit()}
	disp := &fakeDispatcher{err: &dispatch.WorkerError{StatusCode: 422, Message: "bad image"}}

	o := New(coord, disp)
	_, err := o.Authenticate(context.Background(), &types.AuthRequest{ImageBase64: "aW1hZ2U="})

	assert.ErrorIs(t, err, ErrProcessing)
	assert.Equal(t, 1, coord.disposeCalls)
	assert.Equal(t, 0, coord.releaseCalls)
}

// TestAuthenticateCompensationSurvivesCallerCancel tests that disposition
// runs on a live context on every terminal path, even when the request
// context was canceled while the worker held the job
func TestAuthenticateCompensationSurvivesCallerCancel(t *testing.T) {
	tests := []struct {
		name         string
		resp         *types.AuthResponse
		dispatchErr  error
		releaseCalls int
		disposeCalls int
	}{
		{
			name:         "success disposes",
			resp:         &types.AuthResponse{Matched: true, UserID: "user1", Confidence: 0.9},
			disposeCalls: 1,
		},
		{
			name:         "transport failure releases",
			dispatchErr:  fmt.Errorf("%w: timeout", dispatch.ErrUnreachable),
			releaseCalls: 1,
		},
		{
			name:         "worker failure disposes",
			dispatchErr:  &dispatch.WorkerError{StatusCode: 500, Message: "crashed"},
			disposeCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			coord := &fakeCoordinator{unit: testUnit()}
			disp := &fakeDispatcher{
				resp:         tt.resp,
				err:          tt.dispatchErr,
				beforeReturn: cancel,
			}

			o := New(coord, disp)
			o.Authenticate(ctx, &types.AuthRequest{ImageBase64: "aW1hZ2U="})

			require.Error(t, ctx.Err(), "request context must be canceled by the dispatcher")
			assert.Equal(t, tt.releaseCalls, coord.releaseCalls)
			assert.Equal(t, tt.disposeCalls, coord.disposeCalls)
			assert.NoError(t, coord.lastCtxErr, "disposition must not run on the canceled request context")
		})
	}
}

// TestAuthenticateCompensationFailureKeepsJobError tests that a failed
// compensation never changes the client-visible error
func TestAuthenticateCompensationFailureKeepsJobError(t *testing.T) {
	coord := &fakeCoordinator{
		unit:       testUnit(),
		releaseErr: errors.New("release failed"),
	}
	disp := &fakeDispatcher{err: fmt.Errorf("%w: timeout", dispatch.ErrUnreachable)}

	o := New(coord, disp)
	_, err := o.Authenticate(context.Background(), &types.AuthRequest{ImageBase64: "aW1hZ2U="})

	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, 1, coord.releaseCalls)
}

// TestAuthenticateDisposeFailureKeepsSuccess tests that a failed dispose
// after a completed job does not fail the request
func TestAuthenticateDisposeFailureKeepsSuccess(t *testing.T) {
	coord := &fakeCoordinator{
		unit:       testUnit(),
		disposeErr: errors.New("delete failed"),
	}
	disp := &fakeDispatcher{resp: &types.AuthResponse{Matched: true, UserID: "user1", Confidence: 0.9}}

	o := New(coord, disp)
	resp, err := o.Authenticate(context.Background(), &types.AuthRequest{ImageBase64: "aW1hZ2U="})

	require.NoError(t, err)
	assert.True(t, resp.Matched)
}

// TestAuthenticateEndToEndWithPool drives the orchestrator against the
// real pool and fake store: worker answers matched=false, pod is disposed
func TestAuthenticateEndToEndWithPool(t *testing.T) {
	store := newStoreWithWorker(t)
	p := pool.New(store, "faceit-workers", "app=faceit-worker", 5)
	disp := &fakeDispatcher{resp: &types.AuthResponse{Matched: false, Confidence: 0.3}}

	o := New(p, disp)
	resp, err := o.Authenticate(context.Background(), &types.AuthRequest{ImageBase64: "aW1hZ2U="})
	require.NoError(t, err)

	assert.False(t, resp.Matched)
	assert.Empty(t, resp.UserID)

	_, ok := store.GetPod("faceit-workers", "worker-1")
	assert.False(t, ok, "completed job must retire the pod")
}
