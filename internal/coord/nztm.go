package coord

import "math"

// GRS80 ellipsoid and NZTM2000 (EPSG:2193) projection parameters.
// See https://www.linz.govt.nz/guidance/geodetic-system/coordinate-systems-used-new-zealand/projections/new-zealand-transverse-mercator-2000-nztm2000
const (
	grs80A = 6378137.0
	grs80F = 1 / 298.257222101

	nztmOriginLat     = 0.0
	nztmOriginLon     = 173.0
	nztmFalseNorthing = 10_000_000.0
	nztmFalseEasting  = 1_600_000.0
	nztmScale         = 0.9996

	// Magnitudes below this cannot be NZTM2000 metres anywhere near New Zealand,
	// where eastings run ~1.0-2.1e6 and northings ~4.7-6.2e6.
	nztmMinMagnitude = 1_000_000.0
)

// Eccentricity powers and the meridian arc series coefficients derived from them.
const (
	grs80E2 = 2*grs80F - grs80F*grs80F
	grs80E4 = grs80E2 * grs80E2
	grs80E6 = grs80E4 * grs80E2

	arcA0 = 1 - grs80E2/4 - 3*grs80E4/64 - 5*grs80E6/256
	arcA2 = 3.0 / 8.0 * (grs80E2 + grs80E4/4 + 15*grs80E6/128)
	arcA4 = 15.0 / 256.0 * (grs80E4 + 3*grs80E6/4)
	arcA6 = 35.0 / 3072.0 * grs80E6
)

const (
	// FootPointIterations is the fixed number of corrections applied to the
	// foot-point latitude by ToLatLon and by a zero-Tolerance NZTM2000.
	FootPointIterations = 6

	// maxFootPointIterations caps the tolerance-driven solver.
	maxFootPointIterations = 32
)

// ToLatLon converts a catalog coordinate pair to WGS84 latitude/longitude in degrees.
//
// Catalog records store either NZTM2000 easting/northing or, for records without
// a survey fix, WGS84 longitude/latitude in the same two fields. A pair where
// either magnitude is below 1,000,000 is taken as WGS84 and returned swapped
// (lat = northing, lon = easting) without any arithmetic. Everything else is
// projected with the fixed six-iteration solver.
//
// ToLatLon never fails. Out-of-range input gives a well-defined but meaningless
// result, (0, 0) passes through as (0, 0), and NaN propagates. Callers that must
// not plot unset records filter them first.
func ToLatLon(easting, northing float64) (lat, lon float64) {
	if !IsNZTM(easting, northing) {
		return northing, easting
	}
	return nztmInverse(easting, northing, 0)
}

// IsNZTM reports whether ToLatLon treats the pair as projected NZTM2000 metres.
// Both magnitudes must be at least 1,000,000; the boundary itself projects.
// NaN compares false and is therefore classified as projected.
func IsNZTM(easting, northing float64) bool {
	return !(math.Abs(easting) < nztmMinMagnitude || math.Abs(northing) < nztmMinMagnitude)
}

// NZTM2000 implements the Projection interface for EPSG:2193 (New Zealand
// Transverse Mercator 2000). The inverse uses the meridian arc series with an
// iterated foot-point latitude and a three-term Redfearn expansion; the forward
// direction uses the matching Redfearn series.
//
// Unlike ToLatLon, ToWGS84 always projects; there is no WGS84 pass-through.
type NZTM2000 struct {
	// Tolerance, when positive, replaces the fixed six-iteration foot-point
	// solver with one that stops once a correction falls below Tolerance
	// radians (at most 32 iterations).
	Tolerance float64
}

func (p *NZTM2000) EPSG() int { return EPSGNZTM2000 }

// ToWGS84 converts NZTM2000 easting/northing to WGS84 longitude/latitude (degrees).
func (p *NZTM2000) ToWGS84(easting, northing float64) (lon, lat float64) {
	lat, lon = nztmInverse(easting, northing, p.Tolerance)
	return lon, lat
}

// FromWGS84 converts WGS84 longitude/latitude (degrees) to NZTM2000 easting/northing.
func (p *NZTM2000) FromWGS84(lon, lat float64) (easting, northing float64) {
	phi := lat * math.Pi / 180
	omega := (lon - nztmOriginLon) * math.Pi / 180

	sinPhi, cosPhi := math.Sincos(phi)
	rho, nu := radiiOfCurvature(sinPhi)
	psi := nu / rho
	t := math.Tan(phi)
	t2 := t * t
	t4 := t2 * t2
	t6 := t4 * t2

	w2 := omega * omega
	w4 := w2 * w2
	w6 := w4 * w2
	c2 := cosPhi * cosPhi
	c4 := c2 * c2
	c6 := c4 * c2

	m := meridianArc(phi) - meridianArc(nztmOriginLat)

	nsc := nu * sinPhi * cosPhi
	n1 := w2 / 2 * nsc
	n2 := w4 / 24 * nsc * c2 * (4*psi*psi + psi - t2)
	n3 := w6 / 720 * nsc * c4 * (8*math.Pow(psi, 4)*(11-24*t2) - 28*math.Pow(psi, 3)*(1-6*t2) +
		psi*psi*(1-32*t2) - psi*2*t2 + t4)
	n4 := w6 * w2 / 40320 * nsc * c6 * (1385 - 3111*t2 + 543*t4 - t6)
	northing = nztmFalseNorthing + nztmScale*(m+n1+n2+n3+n4)

	e1 := w2 / 6 * c2 * (psi - t2)
	e2 := w4 / 120 * c4 * (4*math.Pow(psi, 3)*(1-6*t2) + psi*psi*(1+8*t2) - psi*2*t2 + t4)
	e3 := w6 / 5040 * c6 * (61 - 479*t2 + 179*t4 - t6)
	easting = nztmFalseEasting + nztmScale*nu*omega*cosPhi*(1+e1+e2+e3)
	return easting, northing
}

// nztmInverse projects NZTM2000 metres to latitude/longitude in degrees.
// A non-positive tol selects the fixed-iteration foot-point solver.
func nztmInverse(easting, northing, tol float64) (lat, lon float64) {
	m := (northing - nztmFalseNorthing) / nztmScale
	phi := footPointLatitude(m, tol)

	rho, nu := radiiOfCurvature(math.Sin(phi))
	psi := nu / rho
	t := math.Tan(phi)
	t2 := t * t
	et := easting - nztmFalseEasting
	k := nztmScale

	tkr := t / (k * nu * rho)
	term1 := tkr * et * et / 2
	term2 := tkr * math.Pow(et, 4) / 24 / (k * k) / (nu * nu) *
		(5 + 3*t2 + psi - 9*t2*psi - 4*psi*psi)
	term3 := tkr * math.Pow(et, 6) / 720 / math.Pow(k, 4) / math.Pow(nu, 4) *
		(61 + 90*t2 + 45*t2*t2 + 46*psi - 252*t2*psi - 3*psi*psi)
	lat = (phi - term1 + term2 - term3) * 180 / math.Pi

	cosPhi := math.Cos(phi)
	lterm1 := et / (k * nu * cosPhi)
	lterm2 := math.Pow(et, 3) / (6 * math.Pow(k, 3) * math.Pow(nu, 3) * cosPhi) * (psi + 2*t2)
	lterm3 := math.Pow(et, 5) / (120 * math.Pow(k, 5) * math.Pow(nu, 5) * cosPhi) *
		(5 + 28*t2 + 24*t2*t2 + 6*psi + 8*t2*psi)
	lon = nztmOriginLon + (lterm1-lterm2+lterm3)*180/math.Pi
	return lat, lon
}

// footPointLatitude finds the latitude (radians) whose meridian arc length from
// the equator is m. The first guess treats the arc as circular; each step adds
// the remaining arc error scaled by the same circular approximation.
func footPointLatitude(m, tol float64) float64 {
	step := grs80A * arcA0
	phi := m / step
	if tol <= 0 {
		for i := 0; i < FootPointIterations; i++ {
			phi += (m - meridianArc(phi)) / step
		}
		return phi
	}
	for i := 0; i < maxFootPointIterations; i++ {
		d := (m - meridianArc(phi)) / step
		phi += d
		if math.Abs(d) < tol {
			break
		}
	}
	return phi
}

// meridianArc returns the distance along the meridian from the equator to phi (radians).
func meridianArc(phi float64) float64 {
	return grs80A * (arcA0*phi - arcA2*math.Sin(2*phi) + arcA4*math.Sin(4*phi) - arcA6*math.Sin(6*phi))
}

// radiiOfCurvature returns the meridian (rho) and prime vertical (nu) radii at
// the latitude with the given sine.
func radiiOfCurvature(sinPhi float64) (rho, nu float64) {
	w := 1 - grs80E2*sinPhi*sinPhi
	rho = grs80A * (1 - grs80E2) / math.Pow(w, 1.5)
	nu = grs80A / math.Sqrt(w)
	return rho, nu
}

// ProjectPath converts the vertices of one track line part with ToLatLon and
// returns them as [lat, lon] pairs. Vertices with fewer than two values are skipped.
func ProjectPath(points [][]float64) [][2]float64 {
	out := make([][2]float64, 0, len(points))
	for _, p := range points {
		if len(p) < 2 {
			continue
		}
		lat, lon := ToLatLon(p[0], p[1])
		out = append(out, [2]float64{lat, lon})
	}
	return out
}
