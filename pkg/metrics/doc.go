/*
Package metrics exposes Prometheus metrics for faceit.

Pool metrics track the acquire protocol: attempts, version conflicts, and
call outcomes. Authentication metrics track end-to-end request latency and
outcomes. Worker metrics track the in-memory template set and similarity
scan latency.

All metrics are registered at package init and served by Handler(), which
both the API server and the worker mount at /metrics.

Conflict counters deserve a note: a version conflict during acquire is an
expected event under concurrency, not an error. The conflict counter is the
way to observe contention pressure without grepping logs.
*/
package metrics
