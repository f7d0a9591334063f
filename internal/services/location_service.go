package services

import (
	"errors"

	"github.com/stwalsh4118/recordbook/internal/location"
	"github.com/stwalsh4118/recordbook/internal/logger"
)

// ErrStateNotFound is returned when a state is unknown or has no districts.
var ErrStateNotFound = location.ErrStateNotFound

// LocationService answers state and district lookups from the reference table.
type LocationService interface {
	// ListStates returns state names in file order.
	ListStates() []string

	// ListDistricts returns the districts of state, or ErrStateNotFound.
	ListDistricts(state string) ([]string, error)

	// ListAll returns the whole table; it marshals with keys in file order.
	ListAll() *location.Table
}

type locationService struct {
	table *location.Table
	log   *logger.Logger
}

// NewLocationService creates a LocationService over an already loaded table.
func NewLocationService(table *location.Table, log *logger.Logger) LocationService {
	return &locationService{table: table, log: log}
}

func (s *locationService) ListStates() []string {
	return s.table.States()
}

func (s *locationService) ListDistricts(state string) ([]string, error) {
	districts, err := s.table.Districts(state)
	if err != nil {
		if errors.Is(err, location.ErrStateNotFound) {
			s.log.Debug("Unknown state requested", map[string]interface{}{"state": state})
		}
		return nil, err
	}
	return districts, nil
}

func (s *locationService) ListAll() *location.Table {
	return s.table
}
