package superxbr

import (
	"cmp"
	"math"
)

func diff(a, b float64) float64 {
	return math.Abs(a - b)
}

// clamp limits x to [low, high]. The upper bound is applied first, so for an
// empty range the result is low.
func clamp[T cmp.Ordered](x, low, high T) T {
	return max(min(x, high), low)
}
