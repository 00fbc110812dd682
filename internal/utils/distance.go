package utils

import (
	"fmt"
	"math"
)

func CalculateDistance(lat1, lon1, lat2, lon2 float64) float64 {
	return haversineDistance(lat1, lon1, lat2, lon2)
}

func haversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	// Convert to radians
	lat1Rad := lat1 * math.Pi / 180
	lon1Rad := lon1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	lon2Rad := lon2 * math.Pi / 180

	// Differences
	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	// Haversine formula
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	// Distance in kilometers
	return EarthRadiusKM * c
}

// FormatDistance renders a distance for operator display, two decimal places.
func FormatDistance(distanceKM float64) string {
	return fmt.Sprintf("%.2f", distanceKM)
}

func IsWithinRadius(centerLat, centerLon, pointLat, pointLon, radiusKM float64) bool {
	return CalculateDistance(centerLat, centerLon, pointLat, pointLon) <= radiusKM
}

func EstimateETAMinutes(distanceKM float64, averageSpeedKMH float64) int {
	if averageSpeedKMH <= 0 {
		averageSpeedKMH = AverageAmbulanceSpeed
	}

	timeHours := distanceKM / averageSpeedKMH
	minutes := int(math.Ceil(timeHours * 60))
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
