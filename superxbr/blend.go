package superxbr

import "math"

const (
	wgt1 float64 = 0.129633
	wgt2 float64 = 0.175068
)

// blendWeights weight the outer and inner corner pair of the chosen diagonal.
// Each pair sums to 0.5, so the four taps always total 1.
type blendWeights struct {
	outer float64
	inner float64
}

var (
	diagonalBlend = blendWeights{outer: -wgt1, inner: wgt1 + 0.5}
	crossBlend    = blendWeights{outer: -wgt2, inner: wgt2 + 0.5}
)

// apply blends one channel along the diagonal selected by edge, clamps the
// result to [lo, hi] to suppress ringing, rounds up and re-quantizes.
// The order blend, local clamp, ceil, [0,255] clamp is significant.
func (w blendWeights) apply(m *matrix, edge, lo, hi float64) uint8 {
	var v float64
	if edge <= 0 {
		v = float64(w.outer*(m[0][3]+m[3][0])) + float64(w.inner*(m[1][2]+m[2][1]))
	} else {
		v = float64(w.outer*(m[0][0]+m[3][3])) + float64(w.inner*(m[1][1]+m[2][2]))
	}
	v = clamp(v, lo, hi)
	return uint8(clamp(math.Ceil(v), 0, 255))
}
