/*
Package api implements the client-facing HTTP API of the authentication
service.

The api package is the front door: it validates incoming requests, hands
them to the authentication orchestrator, and translates the orchestrator's
error taxonomy into HTTP statuses a caller can act on.

# Architecture

	┌──────────────────────── CLIENT ────────────────────────┐
	│                                                         │
	│  POST /authenticate  {image_base64, user_hint}          │
	└────────────────────────┬────────────────────────────────┘
	                         │ HTTP/JSON
	┌────────────────────────▼──── API SERVER ───────────────┐
	│                                                         │
	│  ┌───────────────────────────────────────────┐         │
	│  │           HTTP Server (pkg/api)            │         │
	│  │  - Request validation                      │         │
	│  │  - Error taxonomy → HTTP status mapping    │         │
	│  │  - Health / readiness / metrics endpoints  │         │
	│  └──────────────────┬────────────────────────┘         │
	│                     │                                   │
	│  ┌──────────────────▼────────────────────────┐         │
	│  │        Orchestrator (pkg/auth)             │         │
	│  │  - Acquires a worker from the pool         │         │
	│  │  - Dispatches and settles the job          │         │
	│  └────────────────────────────────────────────┘        │
	└─────────────────────────────────────────────────────────┘

# Endpoints

  - POST /authenticate: run one authentication job against the worker pool
  - GET /health: liveness check, always healthy while the process runs
  - GET /ready: readiness check, requires the resource store to answer
  - GET /metrics: Prometheus metrics exposition

# Error Mapping

The orchestrator classifies failures by what the caller should do next, and
the server maps each class onto an HTTP status:

  - ErrNoCapacity  → 503 no_capacity: no idle worker, retry later
  - ErrTransport   → 502 worker_unreachable: dispatch never reached a
    worker, safe to retry immediately
  - ErrProcessing  → 422 processing_failed: the worker rejected the input,
    retrying the same image will not help
  - anything else  → 500 internal

A request missing image_base64 is rejected with 400 before a worker is ever
acquired.

# Readiness

Readiness reflects the server's ability to see the pool, not the pool's
capacity: /ready lists idle workers through the resource store and fails
only when the store itself is unreachable. An empty pool still reports
ready, because capacity exhaustion is surfaced per request as 503.
*/
package api
