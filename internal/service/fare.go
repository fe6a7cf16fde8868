package service

import (
	"math"
	"time"

	"bikeshare/internal/redis"
)

const earthRadiusKm = 6371.0

// traceAdoptionCap rejects trace distances at or above this multiple of the
// straight-line distance as GPS noise.
const traceAdoptionCap = 3.0

// Haversine returns the great-circle distance in kilometers between two
// coordinates. Identical points yield 0; the result is symmetric.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// TraceDistance sums the consecutive-pair great-circle segments of a GPS
// trace. Fewer than two samples yield 0.
func TraceDistance(trace []redis.TracePoint) float64 {
	var total float64
	for i := 1; i < len(trace); i++ {
		total += Haversine(trace[i-1].Lat, trace[i-1].Lng, trace[i].Lat, trace[i].Lng)
	}
	return total
}

// ReconcileDistance picks between the straight-line distance and the summed
// trace distance. The trace value is adopted only when it is both larger
// than the straight line and under 3x it; anything else is treated as trace
// noise and the straight-line value stands.
func ReconcileDistance(straightLine float64, trace []redis.TracePoint) float64 {
	traced := TraceDistance(trace)
	if traced > straightLine && traced < straightLine*traceAdoptionCap {
		return traced
	}
	return straightLine
}

// TripDuration returns the elapsed whole minutes between start and end,
// rounded down. End must not precede start.
func TripDuration(start, end time.Time) (int, error) {
	if end.Before(start) {
		return 0, ErrInvalidTimeRange
	}
	return int(end.Sub(start).Seconds()) / 60, nil
}

// round2 rounds a monetary amount to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
