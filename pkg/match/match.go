package match

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/veridial/faceit/pkg/metrics"
	"github.com/veridial/faceit/pkg/types"
)

// DefaultThreshold is the similarity at or above which a query is accepted
const DefaultThreshold = 0.7

// Decision is the outcome of one similarity scan. Confidence always
// carries the best similarity observed, even on rejection, which is useful
// for diagnosing near-misses.
type Decision struct {
	Matched    bool
	UserID     string
	UserName   string
	Confidence float32
	Elapsed    time.Duration
}

// Database holds the enrolled templates for this worker. It is immutable
// after construction, so concurrent Match calls need no locking.
type Database struct {
	templates []types.Template
	threshold float32
	dim       int
}

// NewDatabase builds a database from enrolled templates. All templates
// must share one embedding dimensionality.
func NewDatabase(templates []types.Template, threshold float32) (*Database, error) {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	dim := 0
	for i := range templates {
		n := len(templates[i].Embedding)
		if n == 0 {
			return nil, fmt.Errorf("template %s has an empty embedding", templates[i].UserID)
		}
		if dim == 0 {
			dim = n
		} else if n != dim {
			return nil, fmt.Errorf("template %s has dimension %d, want %d",
				templates[i].UserID, n, dim)
		}
	}

	return &Database{
		templates: templates,
		threshold: threshold,
		dim:       dim,
	}, nil
}

// LoadDatabase reads the enrolled template set from a JSON document of the
// form {"embeddings":[{"user_id","name","embedding":[...]}]}
func LoadDatabase(path string, threshold float32) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read embeddings file: %v", err)
	}

	var set types.TemplateSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse embeddings file: %v", err)
	}

	db, err := NewDatabase(set.Embeddings, threshold)
	if err != nil {
		return nil, err
	}

	metrics.TemplatesLoaded.Set(float64(db.Count()))
	return db, nil
}

// Count returns the number of enrolled templates
func (db *Database) Count() int {
	return len(db.templates)
}

// Threshold returns the decision threshold in effect
func (db *Database) Threshold() float32 {
	return db.threshold
}

// Match scans every template for the best cosine similarity to the query
// and decides accept/reject against the threshold (inclusive).
//
// The scan is exhaustive over the enrolled set. On an exact tie the first
// template in storage order wins. An empty database rejects with
// confidence 0 and no error.
func (db *Database) Match(query []float32) (*Decision, error) {
	start := time.Now()

	if db.dim != 0 && len(query) != db.dim {
		return nil, fmt.Errorf("query embedding has dimension %d, want %d", len(query), db.dim)
	}

	var best float32
	bestIdx := -1
	for i := range db.templates {
		sim, err := CosineSimilarity(query, db.templates[i].Embedding)
		if err != nil {
			return nil, err
		}
		if bestIdx == -1 || sim > best {
			best = sim
			bestIdx = i
		}
	}

	elapsed := time.Since(start)
	metrics.MatchDuration.Observe(elapsed.Seconds())

	if bestIdx == -1 {
		return &Decision{Matched: false, Confidence: 0, Elapsed: elapsed}, nil
	}

	if best >= db.threshold {
		return &Decision{
			Matched:    true,
			UserID:     db.templates[bestIdx].UserID,
			UserName:   db.templates[bestIdx].Name,
			Confidence: best,
			Elapsed:    elapsed,
		}, nil
	}

	return &Decision{Matched: false, Confidence: best, Elapsed: elapsed}, nil
}

// CosineSimilarity computes dot(a,b) / (||a|| * ||b||).
//
// Inputs are not assumed normalized. A zero-norm vector yields
// similarity 0.
func CosineSimilarity(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("embedding dimension mismatch: %d vs %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB))), nil
}
