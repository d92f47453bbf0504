package geo

import "math"

// earthRadiusMeters is the mean radius used for great-circle distances.
const earthRadiusMeters = 6371000

// DefaultRadiusMeters is the fallback geofence radius around a venue.
const DefaultRadiusMeters = 100

// Distance returns the great-circle distance in meters between two
// coordinates using the haversine formula. Any non-finite input yields
// +Inf so callers treat the point as out of range instead of erroring.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	if !finite(lat1) || !finite(lng1) || !finite(lat2) || !finite(lng2) {
		return math.Inf(1)
	}

	phi1 := radians(lat1)
	phi2 := radians(lat2)
	dPhi := radians(lat2 - lat1)
	dLambda := radians(lng2 - lng1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// WithinRange reports whether the user coordinate lies within radiusMeters
// of the venue coordinate. A non-positive radius falls back to
// DefaultRadiusMeters.
func WithinRange(userLat, userLng, venueLat, venueLng, radiusMeters float64) bool {
	if radiusMeters <= 0 {
		radiusMeters = DefaultRadiusMeters
	}
	return Distance(userLat, userLng, venueLat, venueLng) <= radiusMeters
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
