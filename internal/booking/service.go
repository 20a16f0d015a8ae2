// Package booking runs the appointment transaction: one open slot,
// one patient, exactly one winner per slot.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/filipinovation/clinic-booking/internal/appointments"
	"github.com/filipinovation/clinic-booking/internal/dates"
	"github.com/filipinovation/clinic-booking/internal/notify"
	"github.com/filipinovation/clinic-booking/internal/observability/metrics"
	"github.com/filipinovation/clinic-booking/internal/patients"
	"github.com/filipinovation/clinic-booking/internal/schedule"
	"github.com/filipinovation/clinic-booking/pkg/logging"
)

var tracer = otel.Tracer("clinic.internal.booking")

// ScheduleStore is the slice of the schedule layer the transaction needs.
type ScheduleStore interface {
	ResolveDoctor(ctx context.Context, selector string) (*schedule.Doctor, error)
	GetSlot(ctx context.Context, doctorID, date, timeOfDay string) (*schedule.Slot, error)
	Reserve(ctx context.Context, doctorID, date, timeOfDay string) error
}

// PatientStore looks up registered patients.
type PatientStore interface {
	Get(ctx context.Context, patientID string) (patients.Patient, error)
}

// AppointmentStore persists confirmed bookings.
type AppointmentStore interface {
	Insert(ctx context.Context, appt appointments.Appointment) error
}

// ConfirmationPublisher queues confirmation notifications.
type ConfirmationPublisher interface {
	EnqueueConfirmation(ctx context.Context, payload notify.ConfirmationV1) error
}

// Request is one booking attempt.
type Request struct {
	PatientID string `json:"patient_id"`
	Selector  string `json:"doctor"`
	Date      string `json:"date"`
	Time      string `json:"time"`
}

// Result is a confirmed booking.
type Result struct {
	Appointment      appointments.Appointment `json:"appointment"`
	NotificationSent bool                     `json:"notification_sent"`
	Warning          string                   `json:"warning,omitempty"`
}

// Config tunes the booking service.
type Config struct {
	ClinicID            string
	AllowWithoutContact bool
}

// Service coordinates the booking transaction across stores.
type Service struct {
	schedule  ScheduleStore
	patients  PatientStore
	appts     AppointmentStore
	publisher ConfirmationPublisher
	cfg       Config
	metrics   *metrics.BookingMetrics
	clock     func() time.Time
	loc       *time.Location
	logger    *logging.Logger
}

// NewService creates a booking service. The publisher may be nil when the
// deployment runs without notifications.
func NewService(sched ScheduleStore, pats PatientStore, appts AppointmentStore, publisher ConfirmationPublisher, cfg Config, m *metrics.BookingMetrics, loc *time.Location, logger *logging.Logger) *Service {
	if sched == nil {
		panic("booking: schedule store is required")
	}
	if pats == nil {
		panic("booking: patient store is required")
	}
	if appts == nil {
		panic("booking: appointment store is required")
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		schedule:  sched,
		patients:  pats,
		appts:     appts,
		publisher: publisher,
		cfg:       cfg,
		metrics:   m,
		clock:     time.Now,
		loc:       loc,
		logger:    logger,
	}
}

// WithClock overrides the service clock. Tests only.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// Book runs the transaction. The slot reservation is the only step that
// may race; everything before it is read-only, so a request that fails
// validation leaves no trace. Once the conditional write wins, the
// appointment exists even if recording or queueing after it fails.
func (s *Service) Book(ctx context.Context, req Request) (*Result, error) {
	ctx, span := tracer.Start(ctx, "booking.book",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("booking.selector", req.Selector)))
	defer span.End()

	date, err := dates.NormalizeDate(req.Date, s.clock().In(s.loc))
	if err != nil {
		s.metrics.ObserveBooking("rejected")
		return nil, err
	}
	timeOfDay, err := dates.NormalizeTime(req.Time)
	if err != nil {
		s.metrics.ObserveBooking("rejected")
		return nil, err
	}

	patient, err := s.patients.Get(ctx, req.PatientID)
	if err != nil {
		s.metrics.ObserveBooking("rejected")
		return nil, err
	}
	warning := ""
	if !patient.HasEmail() {
		if !s.cfg.AllowWithoutContact {
			s.metrics.ObserveBooking("rejected")
			return nil, patients.ErrContactMissing
		}
		warning = "patient has no contact email, confirmation will not be sent"
	}

	doctor, err := s.schedule.ResolveDoctor(ctx, req.Selector)
	if err != nil {
		s.metrics.ObserveBooking("rejected")
		return nil, err
	}

	if _, err := s.schedule.GetSlot(ctx, doctor.ID, date, timeOfDay); err != nil {
		s.metrics.ObserveBooking("rejected")
		return nil, err
	}

	if err := s.schedule.Reserve(ctx, doctor.ID, date, timeOfDay); err != nil {
		if errors.Is(err, schedule.ErrSlotUnavailable) {
			s.metrics.ObserveBooking("denied")
			s.metrics.ObserveSlotConflict()
			s.logger.Info("booking denied, slot already taken",
				"patient_id", req.PatientID,
				"doctor_id", doctor.ID,
				"date", date,
				"time", timeOfDay)
			return nil, err
		}
		s.metrics.ObserveBooking("error")
		return nil, err
	}

	appt := appointments.Appointment{
		ID:         uuid.NewString(),
		PatientID:  patient.ID,
		DoctorID:   doctor.ID,
		DoctorName: doctor.Name,
		Field:      doctor.Field,
		Date:       date,
		Time:       timeOfDay,
		CreatedAt:  appointments.NowRFC3339(s.clock()),
	}

	if err := s.appts.Insert(ctx, appt); err != nil {
		s.metrics.ObserveBooking("error")
		return nil, fmt.Errorf("booking: slot reserved but record failed: %w", err)
	}

	// Dispatch only after the record is committed. A failed insert must
	// never produce a confirmation email for a booking that was not recorded.
	sent := false
	if warning == "" && s.publisher != nil {
		payload := notify.ConfirmationV1{
			ClinicID:      s.cfg.ClinicID,
			AppointmentID: appt.ID,
			PatientName:   patient.Name,
			PatientEmail:  patient.Email,
			DoctorName:    doctor.Name,
			Field:         doctor.Field,
			Date:          date,
			Time:          timeOfDay,
		}
		if err := s.publisher.EnqueueConfirmation(ctx, payload); err != nil {
			// Slot is already secured, the booking stands.
			s.logger.Error("failed to queue confirmation", "error", err, "appointment_id", appt.ID)
			warning = "confirmation could not be queued"
		} else {
			sent = true
		}
	}
	appt.NotificationSent = sent

	s.metrics.ObserveBooking("confirmed")
	s.logger.Info("booking confirmed",
		"appointment_id", appt.ID,
		"patient_id", patient.ID,
		"doctor_id", doctor.ID,
		"date", date,
		"time", timeOfDay,
		"notification_sent", sent)

	return &Result{Appointment: appt, NotificationSent: sent, Warning: warning}, nil
}
