package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/filipinovation/clinic-booking/internal/dates"
	"github.com/filipinovation/clinic-booking/pkg/logging"
)

func fixedClock() time.Time {
	return time.Date(2025, time.April, 1, 9, 0, 0, 0, time.UTC)
}

func newTestResolver(mock *mockDynamo) *Resolver {
	store := NewStore(mock, "doctors", "schedule_slots", logging.New("error"))
	return NewResolver(store, time.UTC, logging.New("error")).WithClock(fixedClock)
}

func TestResolver_OpenSlotsOnlySortedByTime(t *testing.T) {
	mock := &mockDynamo{
		scanOutput: &dynamodb.ScanOutput{Items: []map[string]types.AttributeValue{
			doctorItem(t, Doctor{ID: "D1", Name: "Dr. Reyes", Field: "Cardiology"}),
		}},
		queryOutput: &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{
			slotItem(t, Slot{DoctorID: "D1", SlotKey: "2025-05-10#2:00 PM", Date: "2025-05-10", Time: "2:00 PM", Status: SlotOpen}),
			slotItem(t, Slot{DoctorID: "D1", SlotKey: "2025-05-10#9:00 AM", Date: "2025-05-10", Time: "9:00 AM", Status: SlotOpen}),
			slotItem(t, Slot{DoctorID: "D1", SlotKey: "2025-05-10#10:00 AM", Date: "2025-05-10", Time: "10:00 AM", Status: SlotReserved}),
			slotItem(t, Slot{DoctorID: "D1", SlotKey: "2025-05-10#11:00 AM", Date: "2025-05-10", Time: "11:00 AM", Status: SlotOpen}),
		}},
	}
	resolver := newTestResolver(mock)

	avail, err := resolver.ListAvailable(context.Background(), "cardiology", "2025-05-10")
	if err != nil {
		t.Fatalf("ListAvailable returned error: %v", err)
	}
	if avail.Date != "2025-05-10" {
		t.Fatalf("expected canonical date, got %s", avail.Date)
	}
	if len(avail.Doctors) != 1 {
		t.Fatalf("expected one doctor, got %d", len(avail.Doctors))
	}

	slots := avail.Doctors[0].Slots
	if len(slots) != 3 {
		t.Fatalf("expected reserved slot filtered out, got %d slots", len(slots))
	}
	want := []string{"9:00 AM", "11:00 AM", "2:00 PM"}
	for i, w := range want {
		if slots[i].Time != w {
			t.Fatalf("slot %d = %s, want %s (order %v)", i, slots[i].Time, w, slots)
		}
	}
	for _, slot := range slots {
		if slot.Status != SlotOpen {
			t.Fatalf("resolver returned non-open slot: %#v", slot)
		}
	}
}

func TestResolver_AggregatesSpecializationMatches(t *testing.T) {
	mock := &mockDynamo{
		scanOutput: &dynamodb.ScanOutput{Items: []map[string]types.AttributeValue{
			doctorItem(t, Doctor{ID: "D1", Name: "Dr. Reyes", Field: "Cardiology"}),
			doctorItem(t, Doctor{ID: "D2", Name: "Dr. Cruz", Field: "Cardiology"}),
		}},
		queryOutput: &dynamodb.QueryOutput{},
	}
	resolver := newTestResolver(mock)

	avail, err := resolver.ListAvailable(context.Background(), "cardiology", "tomorrow")
	if err != nil {
		t.Fatalf("ListAvailable returned error: %v", err)
	}
	if len(avail.Doctors) != 2 {
		t.Fatalf("expected both cardiologists aggregated, got %d", len(avail.Doctors))
	}
	if avail.Date != "2025-04-02" {
		t.Fatalf("expected tomorrow resolved relative to clock, got %s", avail.Date)
	}
}

func TestResolver_FallsBackToNameMatch(t *testing.T) {
	mock := &mockDynamo{
		scanOutput: &dynamodb.ScanOutput{Items: []map[string]types.AttributeValue{
			doctorItem(t, Doctor{ID: "D1", Name: "Dr. Reyes", Field: "Cardiology"}),
		}},
		queryOutput: &dynamodb.QueryOutput{},
	}
	resolver := newTestResolver(mock)

	avail, err := resolver.ListAvailable(context.Background(), "reyes", "2025-05-10")
	if err != nil {
		t.Fatalf("ListAvailable returned error: %v", err)
	}
	if len(avail.Doctors) != 1 || avail.Doctors[0].Doctor.ID != "D1" {
		t.Fatalf("expected name match, got %#v", avail.Doctors)
	}
}

func TestResolver_NoneFoundIsNotAnError(t *testing.T) {
	mock := &mockDynamo{
		scanOutput: &dynamodb.ScanOutput{Items: []map[string]types.AttributeValue{
			doctorItem(t, Doctor{ID: "D1", Name: "Dr. Reyes", Field: "Cardiology"}),
		}},
		queryOutput: &dynamodb.QueryOutput{},
	}
	resolver := newTestResolver(mock)

	avail, err := resolver.ListAvailable(context.Background(), "cardiology", "2025-05-10")
	if err != nil {
		t.Fatalf("empty schedule should not error, got %v", err)
	}
	if !avail.Empty() {
		t.Fatalf("expected empty availability, got %#v", avail)
	}
}

func TestResolver_UnknownDoctor(t *testing.T) {
	mock := &mockDynamo{scanOutput: &dynamodb.ScanOutput{}}
	resolver := newTestResolver(mock)

	_, err := resolver.ListAvailable(context.Background(), "astrology", "2025-05-10")
	if !errors.Is(err, ErrDoctorNotFound) {
		t.Fatalf("expected ErrDoctorNotFound, got %v", err)
	}
}

func TestResolver_BadDate(t *testing.T) {
	resolver := newTestResolver(&mockDynamo{})

	if _, err := resolver.ListAvailable(context.Background(), "cardiology", "not a date"); !errors.Is(err, dates.ErrInvalidDateFormat) {
		t.Fatalf("expected ErrInvalidDateFormat, got %v", err)
	}
	if _, err := resolver.ListAvailable(context.Background(), "cardiology", "2024-01-01"); !errors.Is(err, dates.ErrPastDate) {
		t.Fatalf("expected ErrPastDate, got %v", err)
	}
}
