package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/veridial/faceit/pkg/api"
	"github.com/veridial/faceit/pkg/auth"
	"github.com/veridial/faceit/pkg/config"
	"github.com/veridial/faceit/pkg/dispatch"
	"github.com/veridial/faceit/pkg/encoder"
	"github.com/veridial/faceit/pkg/log"
	"github.com/veridial/faceit/pkg/match"
	"github.com/veridial/faceit/pkg/podstore"
	"github.com/veridial/faceit/pkg/pool"
	"github.com/veridial/faceit/pkg/worker"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "faceit",
	Short: "Faceit - face authentication over an ephemeral worker pool",
	Long: `Faceit is a face authentication service that dispatches each
request to a pre-warmed worker pod, coordinated through pod labels and
conditional updates in the cluster API.

The server process fronts the pool; the worker process serves one
authentication at a time and is disposed of after use.`,
	Version: Version,
}

func init() {
	// Set version template
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Faceit version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	// Add subcommands
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(workerCmd)

	serverCmd.Flags().String("config", "", "Path to YAML configuration file")
	serverCmd.Flags().String("kubeconfig", "", "Path to kubeconfig (out-of-cluster; defaults to in-cluster credentials)")

	workerCmd.Flags().String("config", "", "Path to YAML configuration file")
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the client-facing authentication server",
	Long: `Run the client-facing authentication server.

The server accepts authentication requests, acquires an idle worker pod
from the pool via conditional label updates, dispatches the request to
it, and disposes of the pod once it has processed a job.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		kubeconfig, _ := cmd.Flags().GetString("kubeconfig")

		cfg, err := config.LoadServer(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %v", err)
		}

		log.Init(log.Config{
			Level:      log.Level(cfg.LogLevel),
			JSONOutput: cfg.LogJSON,
		})

		var store *podstore.KubeStore
		if kubeconfig != "" {
			store, err = podstore.NewFromKubeconfig(kubeconfig)
		} else {
			store, err = podstore.NewInCluster()
		}
		if err != nil {
			return fmt.Errorf("failed to connect to cluster: %v", err)
		}

		workerPool := pool.New(store, cfg.WorkerNamespace, cfg.WorkerSelector, cfg.MaxAcquireAttempts)
		dispatcher := dispatch.NewClient(cfg.DispatchTimeout, cfg.WorkerPort)
		orchestrator := auth.New(workerPool, dispatcher)

		sweeper := pool.NewSweeper(workerPool, 30*time.Second)
		sweeper.Start()

		server := api.NewServer(orchestrator, workerPool)
		errCh := make(chan error, 1)
		go func() {
			if err := server.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil {
				errCh <- fmt.Errorf("API server error: %v", err)
			}
		}()

		mainLog := log.WithComponent("main")
		mainLog.Info().
			Int("port", cfg.Port).
			Str("namespace", cfg.WorkerNamespace).
			Str("selector", cfg.WorkerSelector).
			Msg("Authentication server started")

		// Wait for interrupt signal or server error
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case <-sigCh:
			log.Info("Shutting down")
		case err := <-errCh:
			return err
		}

		sweeper.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown: %v", err)
		}
		return nil
	},
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run a worker process",
	Long: `Run a worker process.

The worker loads the template database at startup and serves
authentication requests from the server. Each worker pod is expected to
handle one job and be deleted afterwards.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")

		cfg, err := config.LoadWorker(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %v", err)
		}

		log.Init(log.Config{
			Level:      log.Level(cfg.LogLevel),
			JSONOutput: cfg.LogJSON,
		})

		db, err := match.LoadDatabase(cfg.EmbeddingsPath, cfg.MatchThreshold)
		if err != nil {
			return fmt.Errorf("failed to load template database: %v", err)
		}

		server := worker.NewServer(db, encoder.NewPlaceholder())
		errCh := make(chan error, 1)
		go func() {
			if err := server.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil {
				errCh <- fmt.Errorf("worker server error: %v", err)
			}
		}()

		mainLog := log.WithComponent("main")
		mainLog.Info().
			Int("port", cfg.Port).
			Int("templates", db.Count()).
			Msg("Worker started")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case <-sigCh:
			log.Info("Shutting down")
		case err := <-errCh:
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown: %v", err)
		}
		return nil
	},
}
