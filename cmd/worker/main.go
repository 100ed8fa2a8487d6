package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"activity-insights/config"
	"activity-insights/internal/service/session"
	"activity-insights/pkg/logger"
	"activity-insights/pkg/worker"
)

func main() {
	appCfg := config.GetAppConfig()

	log, err := logger.NewLogger(
		logger.WithLevel(appCfg.LogLevel),
		logger.WithEncoding("json"),
		logger.WithOutputPaths([]string{"stdout", "logs/worker.log"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	sessionService, err := session.GetService(log)
	if err != nil {
		log.Error("Failed to create session service", logger.Error(err))
		os.Exit(1)
	}

	redisCfg := config.GetRedisConfig()
	workerCfg := &worker.Config{
		RedisAddr:   redisCfg.Addr,
		RedisDB:     redisCfg.DB,
		Concurrency: redisCfg.Concurrency,
		Queues: map[string]int{
			"default": 1,
		},
	}

	prepareWorker, err := worker.NewPrepareWorker(workerCfg, sessionService, log)
	if err != nil {
		log.Error("Failed to create prepare worker", logger.Error(err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := prepareWorker.Start(ctx); err != nil {
		log.Error("Failed to start worker", logger.Error(err))
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down worker...")
	prepareWorker.Stop()
	log.Info("Worker stopped")
}
