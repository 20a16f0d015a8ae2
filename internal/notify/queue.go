package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

type queueClient interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]queueMessage, error)
	Delete(ctx context.Context, receiptHandle string) error
}

type queueMessage struct {
	ID            string
	Body          string
	ReceiptHandle string
}

// ConfirmationV1 is the queue payload emitted after a slot is secured.
// The booking flow never waits on delivery; a worker consumes these.
type ConfirmationV1 struct {
	ID            string `json:"id"`
	Kind          string `json:"kind"`
	ClinicID      string `json:"clinic_id"`
	AppointmentID string `json:"appointment_id"`
	PatientName   string `json:"patient_name"`
	PatientEmail  string `json:"patient_email"`
	DoctorName    string `json:"doctor_name"`
	Field         string `json:"field"`
	Date          string `json:"date"`
	Time          string `json:"time"`
}

const kindBookingConfirmed = "booking_confirmed.v1"

func encodeConfirmation(payload ConfirmationV1) (ConfirmationV1, string, error) {
	if payload.ID == "" {
		payload.ID = uuid.NewString()
	}
	payload.Kind = kindBookingConfirmed

	body, err := json.Marshal(payload)
	if err != nil {
		return ConfirmationV1{}, "", fmt.Errorf("notify: failed to encode payload: %w", err)
	}
	return payload, string(body), nil
}

func decodeConfirmation(body string) (ConfirmationV1, error) {
	var payload ConfirmationV1
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return ConfirmationV1{}, fmt.Errorf("notify: failed to decode payload: %w", err)
	}
	if payload.Kind != kindBookingConfirmed {
		return ConfirmationV1{}, fmt.Errorf("notify: unknown payload kind %q", payload.Kind)
	}
	return payload, nil
}
