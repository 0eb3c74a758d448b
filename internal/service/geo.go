package service

import (
	"math"
	"time"

	"fleet_dispatch/internal/models"
)

const (
	earthRadiusMeters = 6371000

	minDistanceForSave   = 5.0  // meters
	minTimeDiffForSave   = 10.0 // seconds
	minSpeedForMoving    = 0.5  // m/s
	maxSpeedForStopped   = 1.0  // m/s
	periodicSaveInterval = 60 * time.Second
)

// classifyMovement decides whether a location fix is worth keeping in the
// trail and names the event it represents. last is nil for a driver's first fix.
func classifyMovement(last *models.TrackingData, distance, speed float64, at time.Time) (bool, string) {
	if last == nil {
		return true, models.EventInitial
	}
	if distance >= minDistanceForSave {
		return true, models.EventMove
	}
	elapsed := at.Sub(last.Timestamp).Seconds()
	if last.IsMoving && speed < maxSpeedForStopped && elapsed >= minTimeDiffForSave {
		return true, models.EventStopped
	}
	if !last.IsMoving && speed >= minSpeedForMoving && elapsed >= minTimeDiffForSave {
		return true, models.EventStarted
	}
	if at.Sub(last.Timestamp) >= periodicSaveInterval {
		return true, models.EventPeriodic
	}
	return false, ""
}

// haversine returns the great-circle distance between two points in meters.
func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// bearing returns the initial bearing from the first point to the second in
// degrees clockwise from north.
func bearing(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := toRadians(lat1)
	lat2Rad := toRadians(lat2)
	deltaLon := toRadians(lon2 - lon1)

	y := math.Sin(deltaLon) * math.Cos(lat2Rad)
	x := math.Cos(lat1Rad)*math.Sin(lat2Rad) -
		math.Sin(lat1Rad)*math.Cos(lat2Rad)*math.Cos(deltaLon)

	return math.Mod(toDegrees(math.Atan2(y, x))+360, 360)
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }

func toDegrees(rad float64) float64 { return rad * 180 / math.Pi }

func validCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180 &&
		!math.IsNaN(lat) && !math.IsNaN(lon)
}
