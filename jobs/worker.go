package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
)

// ImageDeleter removes a hosted file from the image store.
type ImageDeleter interface {
	Delete(ctx context.Context, hostedURL string) error
}

// Worker wraps the Asynq server processing background tasks.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *slog.Logger
}

// WorkerConfig collects dependencies required to bootstrap the worker.
type WorkerConfig struct {
	RedisOpts asynq.RedisClientOpt
	Logger    *slog.Logger
	Images    ImageDeleter
	Metrics   *Metrics
}

// NewWorker constructs a Worker instance.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if cfg.Images == nil {
		return nil, errors.New("jobs: image deleter is required")
	}
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			QueueDefault: 1,
		},
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskImageCleanup, HandleImageCleanupTask(cfg.Images, cfg.Logger, cfg.Metrics))
	return &Worker{server: srv, mux: mux, logger: cfg.Logger}, nil
}

// Run starts processing jobs until context cancellation.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("worker: not configured")
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	select {
	case <-ctx.Done():
		w.server.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// HandleImageCleanupTask returns the handler removing orphaned images.
func HandleImageCleanupTask(images ImageDeleter, logger *slog.Logger, metrics *Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		tracker := metrics.Track(TaskImageCleanup)
		var payload ImageCleanupPayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return tracker.End(err)
		}
		if payload.URL == "" {
			return tracker.End(nil)
		}
		if err := images.Delete(ctx, payload.URL); err != nil {
			if logger != nil {
				logger.Warn("image cleanup failed", slog.String("url", payload.URL), slog.Any("error", err))
			}
			return tracker.End(err)
		}
		if logger != nil {
			logger.Info("orphaned image removed", slog.String("url", payload.URL))
		}
		return tracker.End(nil)
	}
}
