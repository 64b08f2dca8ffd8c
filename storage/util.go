package storage

import (
	"math"
)

const earthRadiusKm = 6371

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Great-circle distance between two coordinates, in kilometers.
func HaversineDistance(aLat, aLon, bLat, bLon float64) float64 {
	deltaLat := radians(bLat - aLat)
	deltaLon := radians(bLon - aLon)

	h := math.Pow(math.Sin(deltaLat/2), 2) +
		math.Cos(radians(aLat))*math.Cos(radians(bLat))*math.Pow(math.Sin(deltaLon/2), 2)

	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
