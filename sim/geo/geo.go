// Package geo provides the spherical-Earth geometry shared by the mission
// simulator: ECEF vectors, ground-site frames, look angles and slant range.
// It has no dependencies on sim/ so that trajectory providers and the engine
// can both import it.
package geo

import "math"

// EarthRadiusM is the mean Earth radius used for all geometry (metres).
const EarthRadiusM = 6_371_000.0

// Vec3 is an Earth-centred, Earth-fixed vector in metres (or m/s).
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z} }

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z} }

// Scale returns v * k.
func (v Vec3) Scale(k float64) Vec3 { return Vec3{X: v.X * k, Y: v.Y * k, Z: v.Z * k} }

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 { return math.Sqrt(v.Dot(v)) }

// IsFinite reports whether every component is a finite number.
func (v Vec3) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsNaN(v.Z) &&
		!math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0) && !math.IsInf(v.Z, 0)
}

// Site is a geodetic location on the spherical Earth.
type Site struct {
	LatDeg float64 // north positive
	LonDeg float64 // east positive
	AltM   float64 // above mean radius
}

// ECEF returns the site position in metres.
func (s Site) ECEF() Vec3 {
	lat, lon := DegToRad(s.LatDeg), DegToRad(s.LonDeg)
	r := EarthRadiusM + s.AltM
	return Vec3{
		X: r * math.Cos(lat) * math.Cos(lon),
		Y: r * math.Cos(lat) * math.Sin(lon),
		Z: r * math.Sin(lat),
	}
}

// enu returns the local east, north and up unit vectors at the site.
func (s Site) enu() (east, north, up Vec3) {
	lat, lon := DegToRad(s.LatDeg), DegToRad(s.LonDeg)
	sinLat, cosLat := math.Sin(lat), math.Cos(lat)
	sinLon, cosLon := math.Sin(lon), math.Cos(lon)
	east = Vec3{X: -sinLon, Y: cosLon, Z: 0}
	north = Vec3{X: -sinLat * cosLon, Y: -sinLat * sinLon, Z: cosLat}
	up = Vec3{X: cosLat * cosLon, Y: cosLat * sinLon, Z: sinLat}
	return east, north, up
}

// Look is a direction and distance from a ground site to a target.
// Azimuth: 0° = North, 90° = East. Elevation: 0° = horizon, 90° = zenith.
type Look struct {
	AzimuthDeg   float64
	ElevationDeg float64
	RangeM       float64
}

// LookAngles returns azimuth, elevation and slant range from the site to
// an ECEF target. A target coincident with the site is reported overhead at
// zero range.
func LookAngles(site Site, target Vec3) Look {
	v := target.Sub(site.ECEF())
	rng := v.Norm()
	if rng == 0 {
		return Look{AzimuthDeg: 0, ElevationDeg: 90, RangeM: 0}
	}
	east, north, up := site.enu()
	e, n, u := v.Dot(east), v.Dot(north), v.Dot(up)

	sinEl := clamp(u/rng, -1, 1)
	az := math.Atan2(e, n)
	if az < 0 {
		az += 2 * math.Pi
	}
	return Look{
		AzimuthDeg:   RadToDeg(az),
		ElevationDeg: RadToDeg(math.Asin(sinEl)),
		RangeM:       rng,
	}
}

// FromLookAngles is the inverse of LookAngles: it places a target at the
// given azimuth, elevation and range from the site.
func FromLookAngles(site Site, look Look) Vec3 {
	east, north, up := site.enu()
	az, el := DegToRad(look.AzimuthDeg), DegToRad(look.ElevationDeg)
	horiz := look.RangeM * math.Cos(el)
	offset := east.Scale(horiz * math.Sin(az)).
		Add(north.Scale(horiz * math.Cos(az))).
		Add(up.Scale(look.RangeM * math.Sin(el)))
	return site.ECEF().Add(offset)
}

// AngularSeparationDeg returns the angle between two look directions.
func AngularSeparationDeg(azA, elA, azB, elB float64) float64 {
	a1, e1 := DegToRad(azA), DegToRad(elA)
	a2, e2 := DegToRad(azB), DegToRad(elB)
	cosSep := math.Sin(e1)*math.Sin(e2) + math.Cos(e1)*math.Cos(e2)*math.Cos(a1-a2)
	return RadToDeg(math.Acos(clamp(cosSep, -1, 1)))
}

// SlantRangeM returns the slant range from a terminal to a satellite at the
// given elevation using the law of cosines.
func SlantRangeM(terminalAltM, satAltM, elevDeg float64) float64 {
	rt := EarthRadiusM + terminalAltM
	rs := EarthRadiusM + satAltM
	sinE := math.Sin(DegToRad(elevDeg))
	return -rt*sinE + math.Sqrt((rt*sinE)*(rt*sinE)+rs*rs-rt*rt)
}

// ElevationFromRangeDeg inverts SlantRangeM.
func ElevationFromRangeDeg(terminalAltM, satAltM, rangeM float64) float64 {
	rt := EarthRadiusM + terminalAltM
	rs := EarthRadiusM + satAltM
	sinE := (rs*rs - rt*rt - rangeM*rangeM) / (2 * rt * rangeM)
	return RadToDeg(math.Asin(clamp(sinE, -1, 1)))
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 { return deg * math.Pi / 180 }

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 { return rad * 180 / math.Pi }

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
