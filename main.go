package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"census_server/adapter/in/worker"
	"census_server/config"
	"census_server/internal/bootstrap"
	"census_server/pkg/logger"

	"github.com/joho/godotenv"
)

const (
	shutdownTimeout = 30 * time.Second // Maximum time to wait for graceful shutdown
)

func main() {
	// Initialize logger early
	logger.Init(logger.Config{
		Level:   logger.LevelInfo,
		Service: "portal-census",
	})

	// Load .env file if exists (for local development)
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using environment variables")
	}

	mode := flag.String("mode", "", "Run mode: api, worker, batch, all")
	input := flag.String("input", "", "Batch mode: input CSV path")
	output := flag.String("output", "", "Batch mode: output CSV path")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}

	if *mode == "" {
		*mode = cfg.Mode
	}
	if *input != "" {
		cfg.BatchInputPath = *input
	}
	if *output != "" {
		cfg.BatchOutputPath = *output
	}

	switch *mode {
	case "api":
		runAPI(cfg, nil)
	case "worker":
		runWorker(cfg)
	case "batch":
		runBatch(cfg)
	case "all":
		runAll(cfg)
	default:
		logger.Fatal("Unknown mode: %s", *mode)
	}
}

// runAll shares one dependency set between the worker pool and the API.
func runAll(cfg *config.Config) {
	deps, cleanup, err := bootstrap.NewDependencies(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize dependencies: %v", err)
	}
	defer cleanup()

	w, _, err := bootstrap.NewWorkerWithDeps(cfg, deps, func() {})
	if err != nil {
		logger.Fatal("Failed to initialize worker: %v", err)
	}
	w.StartBackground()
	defer w.Stop()

	serveAPI(cfg, deps, w.Pool())
}

func runAPI(cfg *config.Config, pool *worker.Pool) {
	deps, cleanup, err := bootstrap.NewDependencies(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize dependencies: %v", err)
	}
	defer cleanup()

	serveAPI(cfg, deps, pool)
}

func serveAPI(cfg *config.Config, deps *bootstrap.Dependencies, pool *worker.Pool) {
	app := bootstrap.NewAPI(cfg, deps, pool)

	// Graceful shutdown with timeout
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down API server (timeout: %v)...", shutdownTimeout)

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			done <- app.Shutdown()
		}()

		select {
		case err := <-done:
			if err != nil {
				logger.Error("Error shutting down: %v", err)
			} else {
				logger.Info("API server shut down gracefully")
			}
		case <-ctx.Done():
			logger.Warn("API shutdown timed out, forcing exit")
		}
	}()

	addr := ":" + cfg.Port
	logger.Info("Starting API server on %s", addr)
	if err := app.Listen(addr); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}

func runWorker(cfg *config.Config) {
	w, cleanup, err := bootstrap.NewWorker(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize worker: %v", err)
	}
	defer cleanup()

	// Graceful shutdown with timeout
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutting down worker (timeout: %v)...", shutdownTimeout)

		done := make(chan struct{})
		go func() {
			w.Stop()
			close(done)
		}()

		select {
		case <-done:
			logger.Info("Worker shut down gracefully")
		case <-time.After(shutdownTimeout):
			logger.Warn("Worker shutdown timed out, forcing exit")
			os.Exit(1)
		}
	}()

	logger.Info("Starting worker...")
	w.Start()
}

// runBatch runs one census over the configured CSV and exits.
func runBatch(cfg *config.Config) {
	w, cleanup, err := bootstrap.NewWorker(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize worker: %v", err)
	}
	defer cleanup()

	w.StartBackground()
	defer w.Stop()

	msg := worker.NewMessage(worker.JobBatchRun, map[string]any{
		"input_path":  cfg.BatchInputPath,
		"output_path": cfg.BatchOutputPath,
	})
	if !w.Submit(msg) {
		logger.Fatal("Failed to submit batch job")
	}

	logger.Info("Batch census started: %s -> %s", cfg.BatchInputPath, cfg.BatchOutputPath)

	// Interrupt aborts the run; otherwise wait for the pool to drain.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for range ticker.C {
			m := w.GetMetrics()
			if m.JobsProcessed+m.JobsFailed >= 1 {
				close(done)
				return
			}
		}
	}()

	select {
	case <-sigChan:
		logger.Warn("Batch census interrupted")
	case <-done:
		logger.Info("Batch census finished")
	}
}
