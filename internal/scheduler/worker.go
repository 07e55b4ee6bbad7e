package scheduler

import (
	"context"
	"fmt"

	"leadlift_backend/internal/email"
	"leadlift_backend/platform/config"
	"leadlift_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	sender email.Sender
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, sender email.Sender, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := newWorker(sender, log)
	w.server = server
	return w, nil
}

func newWorker(sender email.Sender, log *logger.Logger) *Worker {
	w := &Worker{
		mux:    asynq.NewServeMux(),
		sender: sender,
		log:    log,
	}
	w.mux.HandleFunc(TaskLeadAlert, w.handleLeadAlert)
	return w
}

// Run processes tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil || w.server == nil {
		return nil
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
		return err
	}
	return nil
}

// handleLeadAlert sends one alert. A malformed payload is not retried.
func (w *Worker) handleLeadAlert(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseLeadAlertPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if payload.Recipient == "" {
		return fmt.Errorf("%w: missing recipient", asynq.SkipRetry)
	}

	if err := w.sender.SendLeadAlert(ctx, payload.Recipient, payload.Alert); err != nil {
		w.log.Error("lead alert delivery failed",
			"client_id", payload.Alert.ClientID,
			"form_id", payload.Alert.FormID,
			"error", err,
		)
		return err
	}

	w.log.Info("lead alert sent",
		"client_id", payload.Alert.ClientID,
		"form_id", payload.Alert.FormID,
		"lead_score", payload.Alert.LeadScore,
	)
	return nil
}
