package superxbr

// edgeWeights scale the six difference terms of the diagonal edge estimator:
// direct diagonal neighbors, far corners, near corners, center pair, outer
// corners and anti-diagonal pairs.
type edgeWeights [6]float64

var (
	// fullWeights drive the diagonal and refinement passes.
	fullWeights = edgeWeights{2, 1, -1, 4, -1, 1}
	// centerWeights keep only the dominant term; used by the cross pass.
	centerWeights = edgeWeights{2, 0, 0, 0, 0, 0}
)

// diagonalEdge compares the luma variation along the two diagonals through
// the center 2x2 block. A result <= 0 means the positive-slope diagonal
// (m[0][3]..m[3][0]) is dominant; only the sign is meaningful.
func diagonalEdge(m *matrix, wp *edgeWeights) float64 {
	dw1 := float64(wp[0]*(diff(m[0][2], m[1][1])+diff(m[1][1], m[2][0])+
		diff(m[1][3], m[2][2])+diff(m[2][2], m[3][1]))) +
		float64(wp[1]*(diff(m[0][3], m[1][2])+diff(m[2][1], m[3][0]))) +
		float64(wp[2]*(diff(m[0][3], m[2][1])+diff(m[1][2], m[3][0]))) +
		float64(wp[3]*diff(m[1][2], m[2][1])) +
		float64(wp[4]*(diff(m[0][2], m[2][0])+diff(m[1][3], m[3][1]))) +
		float64(wp[5]*(diff(m[0][1], m[1][0])+diff(m[2][3], m[3][2])))

	dw2 := float64(wp[0]*(diff(m[0][1], m[1][2])+diff(m[1][2], m[2][3])+
		diff(m[1][0], m[2][1])+diff(m[2][1], m[3][2]))) +
		float64(wp[1]*(diff(m[0][0], m[1][1])+diff(m[2][2], m[3][3]))) +
		float64(wp[2]*(diff(m[0][0], m[2][2])+diff(m[1][1], m[3][3]))) +
		float64(wp[3]*diff(m[1][1], m[2][2])) +
		float64(wp[4]*(diff(m[1][0], m[3][2])+diff(m[0][1], m[2][3]))) +
		float64(wp[5]*(diff(m[0][2], m[1][3])+diff(m[2][0], m[3][1])))

	return dw1 - dw2
}
