package domain

import "math"

// earthRadiusKm is the mean Earth radius used for great-circle distances.
const earthRadiusKm = 6371.0

// GreatCircleKm returns the great-circle distance in kilometers between two
// points given in degrees, using the spherical law of cosines.
//
// The acos argument is clamped to [-1, 1]: for coincident or near-coincident
// points, floating-point rounding can produce a cosine sum like
// 1.0000000000000002, and math.Acos returns NaN outside the closed interval.
// The clamp also guarantees an exact 0 for identical inputs.
func GreatCircleKm(lat1, lon1, lat2, lon2 float64) float64 {
	la1 := lat1 * math.Pi / 180
	la2 := lat2 * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	cosine := math.Cos(la1)*math.Cos(la2)*math.Cos(dLon) + math.Sin(la1)*math.Sin(la2)
	cosine = math.Min(1, math.Max(-1, cosine))

	return earthRadiusKm * math.Acos(cosine)
}
