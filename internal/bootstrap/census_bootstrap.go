package bootstrap

import (
	"context"
	"os"
	"sync"
	"time"

	"census_server/adapter/in/worker"
	"census_server/config"
	"census_server/pkg/logger"

	"github.com/rs/zerolog"
)

type Worker struct {
	pool   *worker.Pool
	deps   *Dependencies
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	zlog   zerolog.Logger
}

func NewWorker(cfg *config.Config) (*Worker, func(), error) {
	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		return nil, nil, err
	}
	return NewWorkerWithDeps(cfg, deps, cleanup)
}

// NewWorkerWithDeps builds the worker around already-wired dependencies, so
// the API and worker can share one set of connections in combined mode.
func NewWorkerWithDeps(cfg *config.Config, deps *Dependencies, cleanup func()) (*Worker, func(), error) {
	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
		With().Timestamp().Str("component", "census_worker").Logger()

	portalProcessor := worker.NewPortalProcessor(deps.CensusService)
	batchProcessor := worker.NewBatchProcessor(deps.CensusService, cfg.BatchConcurrency)

	handler := worker.NewHandler(portalProcessor, batchProcessor)

	poolConfig := worker.DefaultPoolConfig()
	if cfg.WorkerMax > 0 {
		poolConfig.MaxWorkers = cfg.WorkerMax
	}
	if cfg.WorkerQueueSize > 0 {
		poolConfig.QueueSize = cfg.WorkerQueueSize
	}
	if cfg.WorkerMaxRetry > 0 {
		poolConfig.MaxRetries = cfg.WorkerMaxRetry
	}
	if cfg.SubmitRate > 0 {
		poolConfig.SubmitRate = cfg.SubmitRate
	}

	pool := worker.NewPool(handler, poolConfig, zlog)

	if deps.PortalRepo != nil {
		repo := deps.PortalRepo
		pool.SetDeadLetterHandler(func(msg *worker.Message) {
			url, _ := msg.Payload["url"].(string)
			if url == "" {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := repo.MarkFailed(ctx, url, "job failed after max retries"); err != nil {
				zlog.Error().Err(err).Str("portal", url).Msg("failed to record dead letter")
			}
		})
	}

	ctx, cancel := context.WithCancel(context.Background())

	w := &Worker{
		pool:   pool,
		deps:   deps,
		ctx:    ctx,
		cancel: cancel,
		zlog:   zlog,
	}

	logger.Info("Census worker configured (id: %s, workers: %d)", cfg.WorkerID, poolConfig.MaxWorkers)

	return w, cleanup, nil
}

func (w *Worker) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.pool.Start()
	}()

	// Block until context is cancelled
	<-w.ctx.Done()
}

// StartBackground starts the pool without blocking, for combined mode.
func (w *Worker) StartBackground() {
	w.pool.Start()
}

func (w *Worker) Stop() {
	w.cancel()
	w.pool.Stop()
	w.wg.Wait()
}

func (w *Worker) Submit(msg *worker.Message) bool {
	if msg.IsPriority() {
		return w.pool.SubmitPriority(msg)
	}
	return w.pool.Submit(msg)
}

func (w *Worker) SubmitPriority(msg *worker.Message) bool {
	return w.pool.SubmitPriority(msg)
}

func (w *Worker) GetMetrics() worker.PoolMetrics {
	return w.pool.GetMetrics()
}

func (w *Worker) Pool() *worker.Pool {
	return w.pool
}

func (w *Worker) Dependencies() *Dependencies {
	return w.deps
}
