// Package config loads faceit configuration from defaults, an optional
// YAML file, and environment variable overrides, in increasing precedence.
package config
