package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/filipinovation/clinic-booking/pkg/logging"
)

// WorkerConfig tunes the confirmation worker pool.
type WorkerConfig struct {
	Workers          int
	ReceiveBatchSize int
	ReceiveWaitSecs  int
}

func (c WorkerConfig) withDefaults() WorkerConfig {
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.ReceiveBatchSize <= 0 {
		c.ReceiveBatchSize = 5
	}
	if c.ReceiveWaitSecs <= 0 {
		c.ReceiveWaitSecs = 10
	}
	return c
}

// Worker drains confirmation payloads from the queue and sends email.
type Worker struct {
	queue   queueClient
	service *Service
	cfg     WorkerConfig
	logger  *logging.Logger
	wg      sync.WaitGroup
}

// NewWorker creates a confirmation worker over the given queue.
func NewWorker(queue queueClient, service *Service, cfg WorkerConfig, logger *logging.Logger) *Worker {
	if queue == nil {
		panic("notify: queue is required")
	}
	if service == nil {
		panic("notify: service is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Worker{queue: queue, service: service, cfg: cfg.withDefaults(), logger: logger}
}

// NewSQSWorker creates a worker backed by SQS.
func NewSQSWorker(queue *SQSQueue, service *Service, cfg WorkerConfig, logger *logging.Logger) *Worker {
	return NewWorker(queue, service, cfg, logger)
}

// NewMemoryWorker creates a worker draining the given in-memory queue.
func NewMemoryWorker(queue *MemoryQueue, service *Service, cfg WorkerConfig, logger *logging.Logger) *Worker {
	return NewWorker(queue, service, cfg, logger)
}

// Start launches worker goroutines until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.cfg.Workers; i++ {
		w.wg.Add(1)
		go w.run(ctx, i+1)
	}
}

// Wait blocks until all worker goroutines exit.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()
	w.logger.Debug("confirmation worker started", "worker_id", workerID)

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("confirmation worker stopping", "worker_id", workerID)
			return
		default:
		}

		messages, err := w.queue.Receive(ctx, w.cfg.ReceiveBatchSize, w.cfg.ReceiveWaitSecs)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			w.logger.Error("failed to receive confirmations", "error", err, "worker_id", workerID)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			w.handleMessage(ctx, msg)
		}
	}
}

func (w *Worker) handleMessage(ctx context.Context, msg queueMessage) {
	payload, err := decodeConfirmation(msg.Body)
	if err != nil {
		// Malformed payloads will never succeed, drop them.
		w.logger.Error("failed to decode confirmation", "error", err, "msg_id", msg.ID)
		w.deleteMessage(context.Background(), msg.ReceiptHandle)
		return
	}

	if err := w.service.SendConfirmation(ctx, payload); err != nil {
		// Leave the message for redelivery.
		w.logger.Error("failed to send confirmation", "error", err, "appointment_id", payload.AppointmentID)
		return
	}

	w.deleteMessage(context.Background(), msg.ReceiptHandle)
}

func (w *Worker) deleteMessage(ctx context.Context, receiptHandle string) {
	if err := w.queue.Delete(ctx, receiptHandle); err != nil {
		w.logger.Error("failed to delete confirmation message", "error", err)
	}
}
