package podstore

import (
	"context"
	"errors"

	"github.com/veridial/faceit/pkg/types"
)

var (
	// ErrConflict is returned by PatchStatus when the expected version
	// token no longer matches the pod's current resource version
	ErrConflict = errors.New("podstore: resource version conflict")

	// ErrNotFound is returned when the named pod does not exist
	ErrNotFound = errors.New("podstore: pod not found")
)

// PodOperations abstracts the pod-level operations the pool coordinator
// needs from the cluster. Implementations: KubeStore against the real
// Kubernetes API, FakeStore in memory for tests.
type PodOperations interface {
	// List returns the worker units matching a label selector in a
	// namespace. A connectivity failure is returned as a transport error.
	List(ctx context.Context, namespace, labelSelector string) ([]types.WorkerUnit, error)

	// PatchStatus conditionally sets the status label of a pod. The patch
	// is applied only if expectedVersion matches the pod's current
	// resource version; otherwise ErrConflict is returned. Returns the
	// updated unit carrying the new resource version.
	PatchStatus(ctx context.Context, namespace, name, expectedVersion string, status types.WorkerStatus) (types.WorkerUnit, error)

	// Delete removes a pod. Returns ErrNotFound if it no longer exists.
	Delete(ctx context.Context, namespace, name string) error
}
