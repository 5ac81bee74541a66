// Package encoder produces fixed-length face embeddings from raw image
// bytes. The Encoder interface keeps the worker independent of the model
// backend; the bundled Placeholder implementation is deterministic and
// model-free, for development and tests.
package encoder
