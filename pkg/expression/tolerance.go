package expression

import "math"

// Tolerance is the default absolute tolerance for accepting a residual as zero.
const Tolerance = 1e-10

// IsSolution reports whether |residual| < Tolerance.
func IsSolution(residual float64) bool {
	return IsSolutionWithin(residual, Tolerance)
}

// IsSolutionWithin reports whether |residual| < tol.
func IsSolutionWithin(residual, tol float64) bool {
	return math.Abs(residual) < tol
}
