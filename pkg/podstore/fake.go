package podstore

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/veridial/faceit/pkg/types"
)

// fakePod is the FakeStore's internal pod record
type fakePod struct {
	name            string
	namespace       string
	ip              string
	labels          map[string]string
	resourceVersion int
}

// FakeStore is an in-memory PodOperations implementation with the same
// conditional-update semantics as the real API server. It supports
// injecting artificial conflicts and list failures to drive concurrency
// tests without a live cluster.
type FakeStore struct {
	mu              sync.Mutex
	pods            map[string]*fakePod
	nextVersion     int
	failNextPatches int
	listErr         error

	// call counters, readable via accessors
	listCalls  int
	patchCalls int
}

// NewFakeStore creates an empty fake store
func NewFakeStore() *FakeStore {
	return &FakeStore{
		pods:        make(map[string]*fakePod),
		nextVersion: 1,
	}
}

// AddPod registers a pod with the given labels and IP
func (f *FakeStore) AddPod(namespace, name, ip string, labels map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	copied := make(map[string]string, len(labels))
	for k, v := range labels {
		copied[k] = v
	}
	f.pods[key(namespace, name)] = &fakePod{
		name:            name,
		namespace:       namespace,
		ip:              ip,
		labels:          copied,
		resourceVersion: f.nextVersion,
	}
	f.nextVersion++
}

// AddIdleWorker registers a pod labeled as an idle faceit worker
func (f *FakeStore) AddIdleWorker(namespace, name, ip string) {
	f.AddPod(namespace, name, ip, map[string]string{
		"app":             "faceit-worker",
		types.StatusLabel: string(types.WorkerStatusIdle),
	})
}

// GetPod returns the current state of a pod, or false if absent
func (f *FakeStore) GetPod(namespace, name string) (types.WorkerUnit, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pod, ok := f.pods[key(namespace, name)]
	if !ok {
		return types.WorkerUnit{}, false
	}
	return pod.toUnit(), true
}

// FailNextPatches forces the next n PatchStatus calls to fail with
// ErrConflict regardless of the version token
func (f *FakeStore) FailNextPatches(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNextPatches = n
}

// SetListError makes every List call fail with the given error
func (f *FakeStore) SetListError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listErr = err
}

// ListCalls returns how many List calls have been made
func (f *FakeStore) ListCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

// PatchCalls returns how many PatchStatus calls have been made
func (f *FakeStore) PatchCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.patchCalls
}

// List returns pods in the namespace matching the label selector
func (f *FakeStore) List(ctx context.Context, namespace, labelSelector string) ([]types.WorkerUnit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}

	var units []types.WorkerUnit
	for _, pod := range f.pods {
		if pod.namespace != namespace {
			continue
		}
		if !matchesSelector(pod.labels, labelSelector) {
			continue
		}
		units = append(units, pod.toUnit())
	}

	// Stable order so tie-break behavior is deterministic in tests
	sort.Slice(units, func(i, j int) bool { return units[i].Name < units[j].Name })
	return units, nil
}

// PatchStatus conditionally sets the status label of a pod
func (f *FakeStore) PatchStatus(ctx context.Context, namespace, name, expectedVersion string, status types.WorkerStatus) (types.WorkerUnit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.patchCalls++
	if f.failNextPatches > 0 {
		f.failNextPatches--
		return types.WorkerUnit{}, fmt.Errorf("%w: %s (injected)", ErrConflict, name)
	}

	pod, ok := f.pods[key(namespace, name)]
	if !ok {
		return types.WorkerUnit{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	if strconv.Itoa(pod.resourceVersion) != expectedVersion {
		return types.WorkerUnit{}, fmt.Errorf("%w: %s expected %s current %d",
			ErrConflict, name, expectedVersion, pod.resourceVersion)
	}

	pod.labels[types.StatusLabel] = string(status)
	pod.resourceVersion = f.nextVersion
	f.nextVersion++
	return pod.toUnit(), nil
}

// Delete removes a pod
func (f *FakeStore) Delete(ctx context.Context, namespace, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	k := key(namespace, name)
	if _, ok := f.pods[k]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(f.pods, k)
	return nil
}

func (p *fakePod) toUnit() types.WorkerUnit {
	return types.WorkerUnit{
		Name:            p.name,
		Namespace:       p.namespace,
		ResourceVersion: strconv.Itoa(p.resourceVersion),
		IP:              p.ip,
		Status:          types.WorkerStatus(p.labels[types.StatusLabel]),
	}
}

func key(namespace, name string) string {
	return namespace + "/" + name
}

// matchesSelector implements the "k=v,k=v" subset of label selectors,
// which is all the pool coordinator uses
func matchesSelector(labels map[string]string, selector string) bool {
	if selector == "" {
		return true
	}
	for _, pair := range strings.Split(selector, ",") {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		if labels[strings.TrimSpace(parts[0])] != strings.TrimSpace(parts[1]) {
			return false
		}
	}
	return true
}
