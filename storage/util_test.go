package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineDistance(t *testing.T) {
	nyc := [2]float64{40.7, -74.1}
	philly := [2]float64{40.0, -75.2}
	sf := [2]float64{37.8, -122.5}
	lon := [2]float64{51.5, -0.2}

	assert.InDelta(t, 121.438585, HaversineDistance(nyc[0], nyc[1], philly[0], philly[1]), 0.001)
	assert.InDelta(t, 4127.311071, HaversineDistance(nyc[0], nyc[1], sf[0], sf[1]), 0.001)
	assert.InDelta(t, 5572.804939, HaversineDistance(nyc[0], nyc[1], lon[0], lon[1]), 0.001)

	assert.Zero(t, HaversineDistance(nyc[0], nyc[1], nyc[0], nyc[1]))
	assert.Equal(t,
		HaversineDistance(philly[0], philly[1], sf[0], sf[1]),
		HaversineDistance(sf[0], sf[1], philly[0], philly[1]))
}
