package auth

import (
	"testing"

	"github.com/veridial/faceit/pkg/podstore"
)

func newStoreWithWorker(t *testing.T) *podstore.FakeStore {
	t.Helper()
	store := podstore.NewFakeStore()
	store.AddIdleWorker("faceit-workers", "worker-1", "10.0.0.1")
	return store
}
