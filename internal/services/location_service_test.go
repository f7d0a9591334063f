package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stwalsh4118/recordbook/internal/location"
	"github.com/stwalsh4118/recordbook/internal/logger"
)

func TestLocationService(t *testing.T) {
	table, err := location.Parse(strings.NewReader(`{"Goa":["North Goa","South Goa"],"Ladakh":[]}`))
	require.NoError(t, err)
	svc := NewLocationService(table, logger.Nop())

	assert.Equal(t, []string{"Goa", "Ladakh"}, svc.ListStates())

	districts, err := svc.ListDistricts("Goa")
	require.NoError(t, err)
	assert.Equal(t, []string{"North Goa", "South Goa"}, districts)

	_, err = svc.ListDistricts("Atlantis")
	assert.ErrorIs(t, err, ErrStateNotFound)

	_, err = svc.ListDistricts("Ladakh")
	assert.ErrorIs(t, err, ErrStateNotFound)

	assert.Same(t, table, svc.ListAll())
}
