package notify

import (
	"context"
	"fmt"

	"github.com/filipinovation/clinic-booking/pkg/logging"
)

// Publisher enqueues confirmation payloads for asynchronous delivery.
type Publisher struct {
	queue  queueClient
	logger *logging.Logger
}

// NewPublisher creates a publisher over the given queue.
func NewPublisher(queue queueClient, logger *logging.Logger) *Publisher {
	if queue == nil {
		panic("notify: queue is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{queue: queue, logger: logger}
}

// NewSQSPublisher creates a publisher backed by SQS.
func NewSQSPublisher(queue *SQSQueue, logger *logging.Logger) *Publisher {
	return NewPublisher(queue, logger)
}

// NewMemoryPublisher creates a publisher backed by the given in-memory queue.
// The same queue must be handed to the worker that drains it.
func NewMemoryPublisher(queue *MemoryQueue, logger *logging.Logger) *Publisher {
	return NewPublisher(queue, logger)
}

// EnqueueConfirmation queues a booking confirmation. A failure here never
// unwinds the booking; the slot is already secured.
func (p *Publisher) EnqueueConfirmation(ctx context.Context, payload ConfirmationV1) error {
	payload, body, err := encodeConfirmation(payload)
	if err != nil {
		return err
	}
	if err := p.queue.Send(ctx, body); err != nil {
		return fmt.Errorf("notify: enqueue confirmation %s: %w", payload.AppointmentID, err)
	}

	p.logger.Info("confirmation queued",
		"payload_id", payload.ID,
		"appointment_id", payload.AppointmentID,
		"to", payload.PatientEmail)
	return nil
}
