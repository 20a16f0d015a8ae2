// Package directory answers location queries over the doctor roster.
package directory

import (
	"context"
	"errors"
	"math"

	"github.com/filipinovation/clinic-booking/internal/schedule"
	"github.com/filipinovation/clinic-booking/pkg/logging"
)

// ErrNoDoctorsNearby is returned when no doctor has a registered location.
var ErrNoDoctorsNearby = errors.New("no doctors with a registered location")

// DoctorLister is the slice of the schedule layer this package needs.
type DoctorLister interface {
	ListDoctors(ctx context.Context) ([]schedule.Doctor, error)
}

// NearestResult pairs a doctor with the distance from the query point.
type NearestResult struct {
	Doctor     schedule.Doctor `json:"doctor"`
	DistanceKm float64         `json:"distance_km"`
}

// Service finds doctors near a coordinate.
type Service struct {
	doctors DoctorLister
	logger  *logging.Logger
}

// NewService creates a directory service.
func NewService(doctors DoctorLister, logger *logging.Logger) *Service {
	if doctors == nil {
		panic("directory: doctor lister is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{doctors: doctors, logger: logger}
}

// Nearest returns the doctor closest to the given point. Doctors without
// coordinates are skipped. The roster is small enough that a linear scan
// beats maintaining a spatial index.
func (s *Service) Nearest(ctx context.Context, lat, lng float64) (*NearestResult, error) {
	doctors, err := s.doctors.ListDoctors(ctx)
	if err != nil {
		return nil, err
	}

	var best *NearestResult
	for _, d := range doctors {
		if !d.HasCoordinates() {
			continue
		}
		dist := haversineKm(lat, lng, *d.Latitude, *d.Longitude)
		if best == nil || dist < best.DistanceKm {
			best = &NearestResult{Doctor: d, DistanceKm: dist}
		}
	}
	if best == nil {
		return nil, ErrNoDoctorsNearby
	}
	return best, nil
}

const earthRadiusKm = 6371.0

func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLng := radians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
