package schedule

import (
	"context"
	"sort"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/filipinovation/clinic-booking/internal/dates"
	"github.com/filipinovation/clinic-booking/pkg/logging"
)

var resolverTracer = otel.Tracer("clinic.internal.schedule.resolver")

// DoctorAvailability is one matched doctor with their open slots for a date,
// ordered by time of day ascending.
type DoctorAvailability struct {
	Doctor Doctor `json:"doctor"`
	Slots  []Slot `json:"slots"`
}

// Availability is the resolved set of bookable options for a selector+date.
type Availability struct {
	Date    string               `json:"date"`
	Doctors []DoctorAvailability `json:"doctors"`
}

// Empty reports whether no open slot was found for any matched doctor.
func (a *Availability) Empty() bool {
	for _, d := range a.Doctors {
		if len(d.Slots) > 0 {
			return false
		}
	}
	return true
}

// Resolver answers "which slots can still be booked" questions. Read-only.
type Resolver struct {
	store  *Store
	clock  func() time.Time
	loc    *time.Location
	logger *logging.Logger
}

// NewResolver creates a resolver over the schedule store. loc anchors
// relative date forms to the clinic's local calendar.
func NewResolver(store *Store, loc *time.Location, logger *logging.Logger) *Resolver {
	if store == nil {
		panic("schedule: store cannot be nil")
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Resolver{
		store:  store,
		clock:  time.Now,
		loc:    loc,
		logger: logger,
	}
}

// WithClock overrides the time source. Tests only.
func (r *Resolver) WithClock(clock func() time.Time) *Resolver {
	r.clock = clock
	return r
}

// ListAvailable resolves the selector (specialization or doctor name) and
// raw date to the current set of open slots. Selecting by specialization
// aggregates every matching doctor; selecting by name takes the first match.
// An empty result is a normal outcome, not an error.
func (r *Resolver) ListAvailable(ctx context.Context, selector, rawDate string) (*Availability, error) {
	ctx, span := resolverTracer.Start(ctx, "schedule.list_available")
	defer span.End()

	date, err := dates.NormalizeDate(rawDate, r.clock().In(r.loc))
	if err != nil {
		return nil, err
	}

	doctors, err := r.store.DoctorsByField(ctx, selector)
	if err != nil {
		return nil, err
	}
	if len(doctors) == 0 {
		doc, err := r.store.DoctorByName(ctx, selector)
		if err != nil {
			return nil, err
		}
		doctors = []Doctor{*doc}
	}

	avail := &Availability{Date: date}
	for _, doc := range doctors {
		slots, err := r.store.SlotsFor(ctx, doc.ID, date)
		if err != nil {
			return nil, err
		}
		open := make([]Slot, 0, len(slots))
		for _, slot := range slots {
			if slot.Status == SlotOpen {
				open = append(open, slot)
			}
		}
		sort.SliceStable(open, func(i, j int) bool {
			return timeOfDayOrder(open[i].Time) < timeOfDayOrder(open[j].Time)
		})
		avail.Doctors = append(avail.Doctors, DoctorAvailability{Doctor: doc, Slots: open})
	}

	r.logger.Debug("availability resolved",
		"selector", selector, "date", date, "doctors", len(avail.Doctors), "empty", avail.Empty())
	return avail, nil
}
