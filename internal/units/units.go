// Package units centralizes the conversions between the observational
// units of rotation curve tables (kpc, km/s) and the SI units the
// acceleration model works in. Every conversion in the codebase goes
// through this package so the constants live in exactly one place.
package units

// Conversion constants.
const (
	// KpcToM converts kiloparsecs to meters.
	KpcToM = 3.086e19

	// KmsToMs converts km/s to m/s.
	KmsToMs = 1000.0
)

// KpcToMeters converts a radius in kpc to meters.
func KpcToMeters(rKpc float64) float64 {
	return rKpc * KpcToM
}

// MetersToKpc converts a radius in meters to kpc.
func MetersToKpc(rM float64) float64 {
	return rM / KpcToM
}

// KmsToMps converts a velocity in km/s to m/s.
func KmsToMps(vKms float64) float64 {
	return vKms * KmsToMs
}

// MpsToKms converts a velocity in m/s to km/s.
func MpsToKms(vMs float64) float64 {
	return vMs / KmsToMs
}

// AccelToSI converts an acceleration from the native rotation-curve
// unit, (km/s)^2 per kpc, to m/s^2.
func AccelToSI(aNative float64) float64 {
	return aNative * KmsToMs * KmsToMs / KpcToM
}

// AccelFromSI converts an acceleration from m/s^2 back to
// (km/s)^2 per kpc.
func AccelFromSI(aSI float64) float64 {
	return aSI * KpcToM / (KmsToMs * KmsToMs)
}

// CircularAcceleration returns v^2/r in SI units for a velocity in
// km/s and a radius in kpc. The caller is responsible for clamping
// degenerate radii first.
func CircularAcceleration(vKms, rKpc float64) float64 {
	v := KmsToMps(vKms)
	r := KpcToMeters(rKpc)
	return v * v / r
}
