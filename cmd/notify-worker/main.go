package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"

	"github.com/filipinovation/clinic-booking/cmd/mainconfig"
	"github.com/filipinovation/clinic-booking/internal/app/bootstrap"
	appconfig "github.com/filipinovation/clinic-booking/internal/config"
	"github.com/filipinovation/clinic-booking/internal/notify"
	"github.com/filipinovation/clinic-booking/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()
	logger := logging.NewWithFormat(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.UseMemoryQueue {
		logger.Error("notify worker cannot run with USE_MEMORY_QUEUE=true; the API process drains inline workers instead")
		os.Exit(1)
	}
	if cfg.NotifyQueueURL == "" {
		logger.Error("notify worker requires NOTIFY_QUEUE_URL")
		os.Exit(1)
	}

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	var prefsStore notify.PrefsStore
	if store := bootstrap.BuildPrefsStore(redisClient, logger); store != nil {
		prefsStore = store
	}

	sender := bootstrap.BuildEmailSender(cfg, awsCfg, logger)
	svc := notify.NewService(sender, prefsStore, logger)

	queue := notify.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.NotifyQueueURL)
	worker := notify.NewSQSWorker(queue, svc, notify.WorkerConfig{Workers: cfg.WorkerCount}, logger)

	logger.Info("confirmation worker starting", "workers", cfg.WorkerCount, "queue", cfg.NotifyQueueURL)
	worker.Start(ctx)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("confirmation worker shutting down")
	cancel()
	worker.Wait()
}
