package transform

// ScaleVariable multiplies every value of a single variable's time
// series by a constant factor, used for unit conversions (e.g.
// pressure Pa -> psi) distinct from the geometric CoordinateTransform's
// scale, which only ever applies to node coordinates.
func ScaleVariable(values []float64, factor float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v * factor
	}
	return out
}
