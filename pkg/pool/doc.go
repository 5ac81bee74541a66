/*
Package pool implements the worker-pool coordinator: safe hand-off of one
idle worker pod to exactly one concurrent requester.

# Protocol

Acquire lists idle pods, picks one uniformly at random, and attempts a
conditional status patch (idle -> busy) keyed on the resourceVersion
observed in the list response:

	┌───────────────── ACQUIRE ─────────────────┐
	│                                            │
	│  list idle pods ──── empty ──► NoIdleWorkers
	│        │                                   │
	│  pick one at random                        │
	│        │                                   │
	│  conditional patch idle->busy              │
	│        │                │                  │
	│    accepted         conflict               │
	│        │                │                  │
	│    return unit      re-list (fresh)        │
	│                         │                  │
	│              attempts exhausted ──► PoolContended
	└────────────────────────────────────────────┘

Random selection avoids the thundering herd: when several pods become idle
at once, concurrent callers spread over the candidates instead of all
racing for the first list entry. A conflict always triggers a fresh list
rather than a blind retry, because a stale list converges slowly under
contention.

# Disposition

Every acquired pod ends in exactly one of two terminal calls:

  - Dispose deletes the pod. A pod that has processed biometric material
    is retired rather than reused; the deployment controller replenishes
    the pool.
  - Release patches the pod back to idle. Used only when the job never
    reached the pod, so nothing sensitive happened there.

Both are forgiving: a repeat delete, a lost release race, or an already
retired pod are all no-ops.

# Coordination model

There is no in-process pool state and no lock held across store calls.
Correctness rests entirely on the store's compare-and-swap keyed on the
version token, which is what lets any number of server replicas coordinate
through the Kubernetes API alone.
*/
package pool
