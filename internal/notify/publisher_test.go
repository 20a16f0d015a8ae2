package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/filipinovation/clinic-booking/pkg/logging"
)

type stubQueue struct {
	sent    []string
	sendErr error
	deleted []string
}

func (s *stubQueue) Send(ctx context.Context, body string) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, body)
	return nil
}

func (s *stubQueue) Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]queueMessage, error) {
	return nil, nil
}

func (s *stubQueue) Delete(ctx context.Context, receiptHandle string) error {
	s.deleted = append(s.deleted, receiptHandle)
	return nil
}

func testConfirmation() ConfirmationV1 {
	return ConfirmationV1{
		ClinicID:      "filipinovation",
		AppointmentID: "A1",
		PatientName:   "Maria Santos",
		PatientEmail:  "maria@example.com",
		DoctorName:    "Dr. Reyes",
		Field:         "Cardiology",
		Date:          "2025-05-10",
		Time:          "9:00 AM",
	}
}

func TestEnqueueConfirmation(t *testing.T) {
	queue := &stubQueue{}
	pub := NewPublisher(queue, logging.New("error"))

	if err := pub.EnqueueConfirmation(context.Background(), testConfirmation()); err != nil {
		t.Fatalf("EnqueueConfirmation returned error: %v", err)
	}
	if len(queue.sent) != 1 {
		t.Fatalf("expected one queued message, got %d", len(queue.sent))
	}

	var payload ConfirmationV1
	if err := json.Unmarshal([]byte(queue.sent[0]), &payload); err != nil {
		t.Fatalf("queued body is not JSON: %v", err)
	}
	if payload.Kind != "booking_confirmed.v1" {
		t.Fatalf("unexpected kind: %s", payload.Kind)
	}
	if payload.ID == "" {
		t.Fatal("expected generated payload ID")
	}
	if payload.AppointmentID != "A1" || payload.PatientEmail != "maria@example.com" {
		t.Fatalf("payload fields lost: %#v", payload)
	}
}

func TestEnqueueConfirmationQueueFailure(t *testing.T) {
	queue := &stubQueue{sendErr: errors.New("queue down")}
	pub := NewPublisher(queue, logging.New("error"))

	if err := pub.EnqueueConfirmation(context.Background(), testConfirmation()); err == nil {
		t.Fatal("expected error when queue send fails")
	}
}

func TestDecodeConfirmationRejectsWrongKind(t *testing.T) {
	if _, err := decodeConfirmation(`{"kind":"payment_succeeded.v1"}`); err == nil {
		t.Fatal("expected error for unknown kind")
	}
	if _, err := decodeConfirmation("not json"); err == nil {
		t.Fatal("expected error for malformed body")
	}
}
