package parser

// DefaultTolerance absorbs the sub-pixel drift between renderings of the same
// column on different pages.
const DefaultTolerance = 5.0

// IsApproximately reports whether a lies strictly within tolerance of b.
func IsApproximately(a, b, tolerance float64) bool {
	return b-tolerance < a && a < b+tolerance
}

func tolerance(t float64) float64 {
	if t <= 0 {
		return DefaultTolerance
	}
	return t
}
