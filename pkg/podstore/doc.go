/*
Package podstore is the resource-store client for the worker pool: a thin
capability interface over pod list, conditional status patch, and delete.

All authoritative pool state lives in pod labels; this package never caches
pod status. The conditional patch is the only mutation primitive, and it is
keyed on the pod's resourceVersion (the version token), so two concurrent
writers can never both win.

Two implementations:

  - KubeStore talks to the real Kubernetes API via client-go. The patch
    body carries metadata.resourceVersion so the API server enforces the
    compare-and-swap; a 409 maps to ErrConflict.
  - FakeStore is an in-memory substitute with identical semantics plus
    conflict and list-failure injection hooks, used to drive exclusivity
    and convergence tests without a cluster.

Callers branch on errors.Is(err, ErrConflict) and errors.Is(err,
ErrNotFound); any other error is a transport failure and fatal for the
current call.
*/
package podstore
