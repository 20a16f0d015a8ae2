package directory

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/filipinovation/clinic-booking/internal/schedule"
	"github.com/filipinovation/clinic-booking/pkg/logging"
)

type stubLister struct {
	doctors []schedule.Doctor
	err     error
}

func (s *stubLister) ListDoctors(ctx context.Context) ([]schedule.Doctor, error) {
	return s.doctors, s.err
}

func coords(lat, lng float64) (*float64, *float64) {
	return &lat, &lng
}

func TestNearestPicksClosest(t *testing.T) {
	manilaLat, manilaLng := coords(14.5995, 120.9842)
	cebuLat, cebuLng := coords(10.3157, 123.8854)
	lister := &stubLister{doctors: []schedule.Doctor{
		{ID: "D1", Name: "Dr. Reyes", Latitude: manilaLat, Longitude: manilaLng},
		{ID: "D2", Name: "Dr. Cruz", Latitude: cebuLat, Longitude: cebuLng},
		{ID: "D3", Name: "Dr. Santos"}, // no location registered
	}}
	svc := NewService(lister, logging.New("error"))

	// Query from Quezon City, next to Manila.
	res, err := svc.Nearest(context.Background(), 14.6760, 121.0437)
	if err != nil {
		t.Fatalf("Nearest returned error: %v", err)
	}
	if res.Doctor.ID != "D1" {
		t.Fatalf("expected the Manila doctor, got %s", res.Doctor.ID)
	}
	if res.DistanceKm <= 0 || res.DistanceKm > 20 {
		t.Fatalf("implausible distance: %f km", res.DistanceKm)
	}
}

func TestNearestNoLocations(t *testing.T) {
	lister := &stubLister{doctors: []schedule.Doctor{{ID: "D1", Name: "Dr. Reyes"}}}
	svc := NewService(lister, logging.New("error"))

	if _, err := svc.Nearest(context.Background(), 14.6, 121.0); !errors.Is(err, ErrNoDoctorsNearby) {
		t.Fatalf("expected ErrNoDoctorsNearby, got %v", err)
	}
}

func TestNearestListerFailure(t *testing.T) {
	lister := &stubLister{err: errors.New("throttled")}
	svc := NewService(lister, logging.New("error"))

	if _, err := svc.Nearest(context.Background(), 14.6, 121.0); err == nil {
		t.Fatal("expected error from lister")
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	// Manila to Cebu is roughly 570 km.
	got := haversineKm(14.5995, 120.9842, 10.3157, 123.8854)
	if math.Abs(got-570) > 15 {
		t.Fatalf("haversine off: got %f km", got)
	}
}
