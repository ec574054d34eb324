package geo

import "math"

const earthRadiusKm = 6371.0

// AdminPoint is a tagged administrative point in the local index.
type AdminPoint struct {
	ID           string
	Name         string
	State        string
	District     string
	Municipality string
	Pincode      string
	Latitude     float64
	Longitude    float64
}

// Index answers nearest-neighbor queries over administrative points
// within a bounded radius. Lookups never touch the network.
type Index struct {
	points   []AdminPoint
	radiusKm float64
}

// NewIndex builds an index over the given points. Matches farther than
// radiusKm are discarded.
func NewIndex(points []AdminPoint, radiusKm float64) *Index {
	if radiusKm <= 0 {
		radiusKm = 10
	}
	return &Index{points: points, radiusKm: radiusKm}
}

// Nearest returns the closest point within the bounded radius.
func (idx *Index) Nearest(lat, lng float64) (AdminPoint, bool) {
	best := AdminPoint{}
	bestDist := math.Inf(1)
	for _, p := range idx.points {
		d := haversineKm(lat, lng, p.Latitude, p.Longitude)
		if d < bestDist {
			best = p
			bestDist = d
		}
	}
	if bestDist > idx.radiusKm {
		return AdminPoint{}, false
	}
	return best, true
}

// Size returns the number of indexed points.
func (idx *Index) Size() int {
	return len(idx.points)
}

func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
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
