/*
Package auth implements the per-request authentication state machine that
ties the pool coordinator and the dispatch transport together.

Each job runs linearly with one compensating branch:

	Start -> Acquiring -> Dispatching -> Completed
	                           │
	                           └──► Compensating -> {Released | Disposed}

The compensation choice encodes trust in the worker. If the dispatch never
reached the pod (connection failure, timeout), the pod did no biometric
work and is released back to the idle pool. If the pod answered, whether
with a decision or with a failure, it has touched sensitive material or is
in an unknown state, and it is disposed either way.

The invariant the tests pin down: every acquired worker sees exactly one
of Release or Dispose, and a failed compensation is logged without ever
changing the error the client sees.
*/
package auth
