// Package dispatch forwards authentication jobs to an acquired worker pod
// over HTTP under a bounded timeout. It splits failures into two classes
// the orchestrator compensates differently: ErrUnreachable (no response,
// the pod never saw the job) and WorkerError (the pod answered with a
// processing failure and should not be reused).
package dispatch
