package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Server holds the API server configuration
type Server struct {
	Port               int           `yaml:"port"`
	WorkerNamespace    string        `yaml:"worker_namespace"`
	WorkerSelector     string        `yaml:"worker_selector"`
	WorkerPort         int           `yaml:"worker_port"`
	MaxAcquireAttempts int           `yaml:"max_acquire_attempts"`
	DispatchTimeout    time.Duration `yaml:"dispatch_timeout"`
	LogLevel           string        `yaml:"log_level"`
	LogJSON            bool          `yaml:"log_json"`
}

// Worker holds the worker process configuration
type Worker struct {
	Port           int     `yaml:"port"`
	EmbeddingsPath string  `yaml:"embeddings_path"`
	MatchThreshold float32 `yaml:"match_threshold"`
	LogLevel       string  `yaml:"log_level"`
	LogJSON        bool    `yaml:"log_json"`
}

// DefaultServer returns the server configuration defaults
func DefaultServer() Server {
	return Server{
		Port:               8080,
		WorkerNamespace:    "faceit-workers",
		WorkerSelector:     "app=faceit-worker",
		WorkerPort:         8080,
		MaxAcquireAttempts: 5,
		DispatchTimeout:    30 * time.Second,
		LogLevel:           "info",
		LogJSON:            true,
	}
}

// DefaultWorker returns the worker configuration defaults
func DefaultWorker() Worker {
	return Worker{
		Port:           8080,
		EmbeddingsPath: "/etc/embeddings/data.json",
		MatchThreshold: 0.7,
		LogLevel:       "info",
		LogJSON:        true,
	}
}

// LoadServer builds the server configuration from defaults, an optional
// YAML file, and environment variable overrides (in that order)
func LoadServer(path string) (Server, error) {
	cfg := DefaultServer()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %v", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %v", err)
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid PORT %q: %v", v, err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("WORKER_NAMESPACE"); v != "" {
		cfg.WorkerNamespace = v
	}
	if v := os.Getenv("WORKER_SELECTOR"); v != "" {
		cfg.WorkerSelector = v
	}
	if v := os.Getenv("WORKER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid WORKER_PORT %q: %v", v, err)
		}
		cfg.WorkerPort = port
	}
	if v := os.Getenv("MAX_ACQUIRE_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid MAX_ACQUIRE_ATTEMPTS %q: %v", v, err)
		}
		cfg.MaxAcquireAttempts = n
	}
	if v := os.Getenv("DISPATCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid DISPATCH_TIMEOUT %q: %v", v, err)
		}
		cfg.DispatchTimeout = d
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	return cfg, nil
}

// LoadWorker builds the worker configuration from defaults, an optional
// YAML file, and environment variable overrides (in that order)
func LoadWorker(path string) (Worker, error) {
	cfg := DefaultWorker()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %v", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %v", err)
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid PORT %q: %v", v, err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("EMBEDDINGS_PATH"); v != "" {
		cfg.EmbeddingsPath = v
	}
	if v := os.Getenv("MATCH_THRESHOLD"); v != "" {
		t, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return cfg, fmt.Errorf("invalid MATCH_THRESHOLD %q: %v", v, err)
		}
		cfg.MatchThreshold = float32(t)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	return cfg, nil
}
