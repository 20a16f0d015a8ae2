package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/filipinovation/clinic-booking/cmd/mainconfig"
	"github.com/filipinovation/clinic-booking/internal/api/router"
	"github.com/filipinovation/clinic-booking/internal/app/bootstrap"
	"github.com/filipinovation/clinic-booking/internal/appointments"
	"github.com/filipinovation/clinic-booking/internal/booking"
	appconfig "github.com/filipinovation/clinic-booking/internal/config"
	"github.com/filipinovation/clinic-booking/internal/directory"
	"github.com/filipinovation/clinic-booking/internal/http/handlers"
	"github.com/filipinovation/clinic-booking/internal/notify"
	"github.com/filipinovation/clinic-booking/internal/observability/metrics"
	"github.com/filipinovation/clinic-booking/internal/patients"
	"github.com/filipinovation/clinic-booking/internal/schedule"
	"github.com/filipinovation/clinic-booking/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.NewWithFormat(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting clinic-booking API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	loc, err := time.LoadLocation(cfg.ClinicTimezone)
	if err != nil {
		logger.Error("invalid clinic timezone", "timezone", cfg.ClinicTimezone, "error", err)
		os.Exit(1)
	}

	awsCfg, err := mainconfig.LoadAWSConfig(context.Background(), cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	dynamoClient := dynamodb.NewFromConfig(awsCfg)

	scheduleStore := schedule.NewStore(dynamoClient, cfg.DoctorsTable, cfg.SlotsTable, logger)
	patientStore := patients.NewStore(dynamoClient, cfg.PatientsTable, logger)
	apptStore := appointments.NewStore(dynamoClient, cfg.AppointmentsTable, logger)
	resolver := schedule.NewResolver(scheduleStore, loc, logger)

	redisClient := bootstrap.BuildRedisClient(context.Background(), cfg, logger, true)
	var prefsStore notify.PrefsStore
	if store := bootstrap.BuildPrefsStore(redisClient, logger); store != nil {
		prefsStore = store
	}

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	var publisher booking.ConfirmationPublisher
	var inlineWorker *notify.Worker
	if cfg.UseMemoryQueue {
		// Single-process mode: confirmations are drained by inline workers.
		queue := notify.NewMemoryQueue(256)
		publisher = notify.NewMemoryPublisher(queue, logger)
		sender := bootstrap.BuildEmailSender(cfg, awsCfg, logger)
		svc := notify.NewService(sender, prefsStore, logger)
		inlineWorker = notify.NewMemoryWorker(queue, svc, notify.WorkerConfig{Workers: cfg.WorkerCount}, logger)
		inlineWorker.Start(workerCtx)
		logger.Info("inline confirmation workers started", "count", cfg.WorkerCount)
	} else if cfg.NotifyQueueURL != "" {
		sqsClient := sqs.NewFromConfig(awsCfg)
		publisher = notify.NewSQSPublisher(notify.NewSQSQueue(sqsClient, cfg.NotifyQueueURL), logger)
	} else {
		logger.Warn("no notification queue configured, confirmations disabled")
	}

	registry := prometheus.NewRegistry()
	bookingMetrics := metrics.NewBookingMetrics(registry)

	bookingSvc := booking.NewService(scheduleStore, patientStore, apptStore, publisher, booking.Config{
		ClinicID:            cfg.ClinicID,
		AllowWithoutContact: cfg.AllowBookingWithoutContact,
	}, bookingMetrics, loc, logger)
	directorySvc := directory.NewService(scheduleStore, logger)

	r := router.New(&router.Config{
		Logger:              logger,
		AvailabilityHandler: handlers.NewAvailabilityHandler(resolver, bookingMetrics, logger),
		BookingHandler:      handlers.NewBookingHandler(bookingSvc, logger),
		PatientHandler:      handlers.NewPatientHandler(patientStore, apptStore, logger),
		NearestHandler:      handlers.NewNearestHandler(directorySvc, logger),
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerSecond:  cfg.RateLimitPerSecond,
		RateLimitBurst:      cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	stopWorkers()
	if inlineWorker != nil {
		inlineWorker.Wait()
	}

	logger.Info("server stopped")
}
