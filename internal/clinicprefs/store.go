// Package clinicprefs stores per-clinic notification preferences in Redis.
package clinicprefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/filipinovation/clinic-booking/pkg/logging"
)

const keyPrefix = "clinic:prefs:"

// Prefs controls how a clinic is named and notified in outbound mail.
type Prefs struct {
	Name            string   `json:"name"`
	Timezone        string   `json:"timezone"`
	EmailEnabled    bool     `json:"email_enabled"`
	NotifyOnBooking bool     `json:"notify_on_booking"`
	CCRecipients    []string `json:"cc_recipients,omitempty"`
}

// DefaultPrefs returns the preferences used when nothing is stored.
func DefaultPrefs() Prefs {
	return Prefs{
		Name:            "Filipinovation Clinic",
		Timezone:        "Asia/Manila",
		EmailEnabled:    true,
		NotifyOnBooking: true,
	}
}

// Store reads and writes clinic preferences.
type Store struct {
	client *redis.Client
	logger *logging.Logger
}

// NewStore creates a preference store backed by Redis.
func NewStore(client *redis.Client, logger *logging.Logger) *Store {
	if client == nil {
		panic("clinicprefs: client is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{client: client, logger: logger}
}

// Get returns the stored preferences for a clinic, or the defaults when
// the clinic has never been configured.
func (s *Store) Get(ctx context.Context, clinicID string) (Prefs, error) {
	raw, err := s.client.Get(ctx, keyPrefix+clinicID).Result()
	if errors.Is(err, redis.Nil) {
		return DefaultPrefs(), nil
	}
	if err != nil {
		return Prefs{}, fmt.Errorf("clinicprefs: get %s: %w", clinicID, err)
	}

	var prefs Prefs
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		s.logger.Warn("stored preferences are corrupt, using defaults", "clinic_id", clinicID, "error", err)
		return DefaultPrefs(), nil
	}
	return prefs, nil
}

// Set stores preferences for a clinic.
func (s *Store) Set(ctx context.Context, clinicID string, prefs Prefs) error {
	raw, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("clinicprefs: marshal %s: %w", clinicID, err)
	}
	if err := s.client.Set(ctx, keyPrefix+clinicID, raw, 0).Err(); err != nil {
		return fmt.Errorf("clinicprefs: set %s: %w", clinicID, err)
	}
	return nil
}
