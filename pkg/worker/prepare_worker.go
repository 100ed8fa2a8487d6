package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"activity-insights/internal/service/session"
	"activity-insights/pkg/logger"
	"activity-insights/pkg/queue"
)

// PrepareWorker consumes queued prepare runs and drives them through the
// session service. Failed runs are not retried; the user re-triggers them.
type PrepareWorker struct {
	BaseWorker
	sessionService session.Service
}

func NewPrepareWorker(cfg *Config, svc session.Service, log logger.Logger) (*PrepareWorker, error) {
	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr, DB: cfg.RedisDB},
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues:      cfg.Queues,
		},
	)

	w := &PrepareWorker{
		BaseWorker: BaseWorker{
			server:   server,
			mux:      asynq.NewServeMux(),
			logger:   log,
			stopChan: make(chan struct{}),
		},
		sessionService: svc,
	}

	w.registerHandlers()
	return w, nil
}

func (w *PrepareWorker) registerHandlers() {
	w.mux.HandleFunc(queue.TaskTypePrepare, w.handlePrepare)
}

func (w *PrepareWorker) handlePrepare(ctx context.Context, t *asynq.Task) error {
	var task queue.PrepareTask
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		w.logger.Error("Failed to unmarshal prepare task",
			logger.Error(err),
			logger.String("payload", string(t.Payload())),
		)
		return fmt.Errorf("failed to unmarshal task: %w", err)
	}

	w.logger.Info("Processing prepare task",
		logger.String("taskId", task.ID),
		logger.String("dataDir", task.DataDir),
	)

	if err := w.sessionService.HandlePrepare(ctx, &task); err != nil {
		w.logger.Error("Prepare run failed",
			logger.String("taskId", task.ID),
			logger.Error(err),
		)
		return err
	}

	w.logger.Info("Prepare run completed", logger.String("taskId", task.ID))
	return nil
}

func (w *PrepareWorker) Start(ctx context.Context) error {
	go func() {
		if err := w.server.Run(w.mux); err != nil {
			w.logger.Error("Worker server stopped", logger.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		w.Stop()
	}()

	return nil
}
