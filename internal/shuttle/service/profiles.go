package service

import (
	"sync"

	"shuttle-bot/internal/shuttle/domain"
	"shuttle-bot/pkg/logger"
)

// Profiles is the driver profile store: per-driver vehicle attributes
// collected once and reused across rides. Entries are never deleted and
// live for the process lifetime.
type Profiles struct {
	mu       sync.RWMutex
	byDriver map[int64]*domain.DriverProfile
	log      logger.Logger
}

func NewProfiles(log logger.Logger) *Profiles {
	return &Profiles{
		byDriver: make(map[int64]*domain.DriverProfile),
		log:      log,
	}
}

// Get returns a copy of the driver's profile. The second return is false
// when the driver has never stored a field.
func (s *Profiles) Get(driverID int64) (domain.DriverProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byDriver[driverID]
	if !ok {
		return domain.DriverProfile{}, false
	}
	return *p, true
}

// SetField writes one profile field, creating the profile on first write.
func (s *Profiles) SetField(driverID int64, field domain.ProfileField, value string) error {
	if !field.IsValid() {
		return domain.ErrInvalidField
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byDriver[driverID]
	if !ok {
		p = &domain.DriverProfile{}
		s.byDriver[driverID] = p
	}
	if err := p.Set(field, value); err != nil {
		return err
	}

	s.log.WithFields(logger.LogFields{
		"driver_id": driverID,
		"field":     string(field),
	}).Debug("profile_field_set", "Driver profile field updated")
	return nil
}
