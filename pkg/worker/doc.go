/*
Package worker implements the worker process that runs inside each pool
pod. It loads the enrolled template set once at startup, then serves:

  - POST /authenticate: decode the image, extract an embedding, scan the
    template set, answer with the match decision
  - GET /health: liveness
  - GET /ready: readiness, reporting the loaded template count
  - GET /metrics: Prometheus metrics

The template set is immutable after load, so request handling is
lock-free. The worker has no knowledge of the pool protocol; its pod
labels are managed entirely by the API server side.
*/
package worker
