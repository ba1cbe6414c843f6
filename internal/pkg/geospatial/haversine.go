package geospatial

import (
	"math"

	"github.com/chtimi59/getmaptiles/internal/core/domain"
)

const earthRadiusKm = 6371.0

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(a, b domain.GeoPoint) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c * 1000 // meters
}

// PathLength sums the great-circle length of every segment of path, in meters.
func PathLength(path []domain.GeoPoint) float64 {
	var total float64
	for i := 1; i < len(path); i++ {
		total += Haversine(path[i-1], path[i])
	}
	return total
}

// Size returns the width (along the first corner's parallel) and height of a
// rectangle in meters.
func Size(r domain.Rectangle) (width, height float64) {
	lat0, lng0, lat1, lng1 := r.Data[0], r.Data[1], r.Data[2], r.Data[3]
	width = Haversine(domain.GeoPoint{Lat: lat0, Lng: lng0}, domain.GeoPoint{Lat: lat0, Lng: lng1})
	height = Haversine(domain.GeoPoint{Lat: lat0, Lng: lng0}, domain.GeoPoint{Lat: lat1, Lng: lng0})
	return width, height
}

// BoundingBox returns the bounds around a point with the given radius in meters.
func BoundingBox(p domain.GeoPoint, radiusMeters float64) domain.Bounds {
	latDelta := radiusMeters / 111320.0
	lngDelta := radiusMeters / (111320.0 * math.Cos(toRad(p.Lat)))

	return domain.Bounds{
		MinLat: p.Lat - latDelta,
		MinLng: p.Lng - lngDelta,
		MaxLat: p.Lat + latDelta,
		MaxLng: p.Lng + lngDelta,
	}
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
