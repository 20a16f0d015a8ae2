package notify

import (
	"context"
	"fmt"

	"github.com/filipinovation/clinic-booking/internal/clinicprefs"
	"github.com/filipinovation/clinic-booking/pkg/logging"
)

// PrefsStore retrieves clinic notification preferences.
type PrefsStore interface {
	Get(ctx context.Context, clinicID string) (clinicprefs.Prefs, error)
}

// Service turns confirmation payloads into outbound email.
type Service struct {
	email  EmailSender
	prefs  PrefsStore
	logger *logging.Logger
}

// NewService creates a notification service.
func NewService(email EmailSender, prefs PrefsStore, logger *logging.Logger) *Service {
	if email == nil {
		panic("notify: email sender is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, prefs: prefs, logger: logger}
}

// SendConfirmation emails the patient about their confirmed appointment.
// Respects the clinic's notification preferences; disabled clinics are a
// silent success so the worker still deletes the message.
func (s *Service) SendConfirmation(ctx context.Context, payload ConfirmationV1) error {
	prefs := clinicprefs.DefaultPrefs()
	if s.prefs != nil {
		loaded, err := s.prefs.Get(ctx, payload.ClinicID)
		if err != nil {
			s.logger.Warn("failed to load clinic preferences, using defaults", "clinic_id", payload.ClinicID, "error", err)
		} else {
			prefs = loaded
		}
	}

	if !prefs.EmailEnabled || !prefs.NotifyOnBooking {
		s.logger.Debug("booking notifications disabled for clinic", "clinic_id", payload.ClinicID)
		return nil
	}
	if payload.PatientEmail == "" {
		s.logger.Warn("confirmation has no patient email, dropping", "appointment_id", payload.AppointmentID)
		return nil
	}

	msg := EmailMessage{
		To:      payload.PatientEmail,
		ToName:  payload.PatientName,
		CC:      prefs.CCRecipients,
		Subject: fmt.Sprintf("Appointment confirmed: %s on %s", payload.DoctorName, payload.Date),
		Body:    confirmationBody(prefs.Name, payload),
	}
	if err := s.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: send confirmation %s: %w", payload.AppointmentID, err)
	}
	return nil
}

func confirmationBody(clinicName string, payload ConfirmationV1) string {
	return fmt.Sprintf(
		"Hi %s,\n\nYour appointment is confirmed.\n\nDoctor: %s (%s)\nDate: %s\nTime: %s\nReference: %s\n\nSee you at %s.\n",
		payload.PatientName,
		payload.DoctorName,
		payload.Field,
		payload.Date,
		payload.Time,
		payload.AppointmentID,
		clinicName,
	)
}
