// Package types defines the shared data model for faceit: worker units,
// enrolled templates, and the authentication wire types exchanged between
// the API server and worker pods.
package types
