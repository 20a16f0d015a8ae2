package schedule

import "time"

// SlotStatus is the availability state of a single bookable slot.
type SlotStatus string

const (
	SlotOpen     SlotStatus = "open"
	SlotReserved SlotStatus = "reserved"
)

// Doctor is a directory entry with an attached schedule of slots.
type Doctor struct {
	ID        string   `dynamodbav:"doctor_id" json:"doctor_id"`
	Name      string   `dynamodbav:"name" json:"name"`
	Field     string   `dynamodbav:"field" json:"field"`
	Hospital  string   `dynamodbav:"hospital,omitempty" json:"hospital,omitempty"`
	Latitude  *float64 `dynamodbav:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude *float64 `dynamodbav:"longitude,omitempty" json:"longitude,omitempty"`
}

// HasCoordinates reports whether the doctor can participate in proximity search.
func (d *Doctor) HasCoordinates() bool {
	return d != nil && d.Latitude != nil && d.Longitude != nil
}

// Slot is one bookable (date, time) unit of a doctor's schedule. A slot is
// uniquely identified by (doctor_id, date, time); SlotKey is the storage sort
// key combining date and time.
type Slot struct {
	DoctorID string     `dynamodbav:"doctor_id" json:"doctor_id"`
	SlotKey  string     `dynamodbav:"slot_key" json:"-"`
	Date     string     `dynamodbav:"date" json:"date"`
	Time     string     `dynamodbav:"time" json:"time"`
	Status   SlotStatus `dynamodbav:"status" json:"status"`
}

// SlotKeyFor builds the sort key for a slot. date and timeOfDay must already
// be in canonical form.
func SlotKeyFor(date, timeOfDay string) string {
	return date + "#" + timeOfDay
}

// timeOfDayOrder converts a canonical "3:04 PM" time to minutes since
// midnight for ordering. Unparseable values sort last.
func timeOfDayOrder(timeOfDay string) int {
	t, err := time.Parse("3:04 PM", timeOfDay)
	if err != nil {
		return 24 * 60
	}
	return t.Hour()*60 + t.Minute()
}
