package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"leadlift_backend/internal/email"
	"leadlift_backend/internal/scheduler"
	"leadlift_backend/platform/config"
	"leadlift_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "queue", cfg.GetAsynqQueueName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sender := email.NewSender(cfg, log)
	if !cfg.IsEmailEnabled() {
		log.Warn("SMTP_HOST not configured; lead alerts will be dropped")
	}

	worker, err := scheduler.NewWorker(cfg, sender, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	if err := worker.Run(ctx); err != nil {
		panic("scheduler worker stopped: " + err.Error())
	}
	log.Info("scheduler stopped")
}
