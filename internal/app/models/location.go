package models

// Coordinates is a latitude/longitude pair in degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// IsZero reports whether no coordinate was supplied.
func (c Coordinates) IsZero() bool {
	return c.Latitude == 0 && c.Longitude == 0
}

// HasValidCoordinates reports whether lat/lng are in range and not the
// zero value that marks missing data.
func HasValidCoordinates(lat, lng float64) bool {
	if lat == 0 && lng == 0 {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// CenterPoint averages the valid points, or returns the fallback when none are valid.
func CenterPoint(points [][2]float64, fallbackLat, fallbackLng float64) (float64, float64) {
	var latSum, lngSum float64
	n := 0
	for _, p := range points {
		if !HasValidCoordinates(p[0], p[1]) {
			continue
		}
		latSum += p[0]
		lngSum += p[1]
		n++
	}
	if n == 0 {
		return fallbackLat, fallbackLng
	}
	return latSum / float64(n), lngSum / float64(n)
}
