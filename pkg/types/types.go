package types

// WorkerStatus is the coordination label value on a worker pod
type WorkerStatus string

const (
	// WorkerStatusIdle marks a pod as available in the pool
	WorkerStatusIdle WorkerStatus = "idle"
	// WorkerStatusBusy marks a pod as exclusively owned by one request
	WorkerStatusBusy WorkerStatus = "busy"
)

// StatusLabel is the pod label key carrying the coordination status
const StatusLabel = "status"

// WorkerUnit represents one orchestrator-managed worker pod.
//
// ResourceVersion is the opaque version token used for optimistic
// concurrency: a conditional patch is accepted only if the token still
// matches the pod's current version at apply time. It is refreshed on
// every successful patch.
type WorkerUnit struct {
	Name            string
	Namespace       string
	ResourceVersion string
	IP              string
	Status          WorkerStatus
}

// Template is an enrolled identity record. The embedding is a fixed-length
// L2-normalized vector, immutable once loaded.
type Template struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Embedding []float32 `json:"embedding"`
}

// TemplateSet is the on-disk document holding all enrolled templates
type TemplateSet struct {
	Embeddings []Template `json:"embeddings"`
}

// AuthRequest is one authentication job
type AuthRequest struct {
	ImageBase64 string `json:"image_base64"`
	UserHint    string `json:"user_hint,omitempty"`
}

// AuthResponse is the result of an authentication job
type AuthResponse struct {
	Matched    bool    `json:"matched"`
	UserID     string  `json:"user_id,omitempty"`
	UserName   string  `json:"user_name,omitempty"`
	Confidence float32 `json:"confidence"`
	DurationMs int64   `json:"duration_ms,omitempty"`
}

// ErrorResponse is the JSON error body returned by both servers
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// EmbeddingDim is the dimensionality produced by the face encoder
const EmbeddingDim = 512
