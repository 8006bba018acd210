package superxbr

// matrix holds one 4x4 sample grid. The first index follows x, the second y.
type matrix [4][4]float64

// Channel order inside a neighborhood.
const (
	chanR = iota
	chanG
	chanB
	chanA
	numChannels
)

// Rec. 709 luma coefficients.
const (
	lumaR = 0.2126
	lumaG = 0.7152
	lumaB = 0.0722
)

// neighborhood is the 4x4 window around one evaluation point: a matrix per
// channel plus the derived luma matrix the edge estimator reads.
type neighborhood struct {
	ch   [numChannels]matrix
	luma matrix
}

// offsetRule maps matrix cell (i, j) of a window anchored at (x, y) to an
// unclamped buffer coordinate.
type offsetRule func(x, y, i, j int) (int, int)

// sourceWindow spans [-1, 2] around the anchor. Used by the diagonal pass,
// where the anchor is the source pixel whose lower-right corner is evaluated.
func sourceWindow(x, y, i, j int) (int, int) {
	return x + i - 1, y + j - 1
}

// trailingWindow spans [-2, 1] around the anchor. Used by the refinement pass.
func trailingWindow(x, y, i, j int) (int, int) {
	return x + i - 2, y + j - 2
}

// rotatedRight walks the 45 degree lattice centered between the anchor block's
// top-left and top-right cells.
func rotatedRight(x, y, i, j int) (int, int) {
	sx, sy := i-1, j-1
	return x + sx + sy, y + sx - sy
}

// rotatedBelow is rotatedRight shifted to the block's bottom-left cell.
func rotatedBelow(x, y, i, j int) (int, int) {
	sx, sy := i-1, j-1
	return x + sx + sy - 1, y + sx - sy + 1
}

// gather fills the neighborhood from buf. Coordinates are clamped by
// Buffer.At, so windows overlapping the border replicate edge pixels.
func (n *neighborhood) gather(buf *Buffer, x, y int, at offsetRule) {
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			p := buf.At(at(x, y, i, j))
			r, g, b := float64(p.R()), float64(p.G()), float64(p.B())
			n.ch[chanR][i][j] = r
			n.ch[chanG][i][j] = g
			n.ch[chanB][i][j] = b
			n.ch[chanA][i][j] = float64(p.A())
			// Explicit conversions keep the compiler from fusing
			// multiply-adds, which would change results on FMA targets.
			n.luma[i][j] = float64(lumaR*r) + float64(lumaG*g) + float64(lumaB*b)
		}
	}
}

// sampleRange is the per-channel min/max of the four innermost samples.
type sampleRange struct {
	lo, hi [numChannels]float64
}

func (n *neighborhood) innerRange() sampleRange {
	var s sampleRange
	for c := range n.ch {
		m := &n.ch[c]
		s.lo[c] = min(m[1][1], m[2][1], m[1][2], m[2][2])
		s.hi[c] = max(m[1][1], m[2][1], m[1][2], m[2][2])
	}
	return s
}

// interpolate produces one output pixel from the gathered window. The edge
// direction comes from the luma matrix; each channel is then blended and
// clamped to rng independently.
func (n *neighborhood) interpolate(wp *edgeWeights, bw blendWeights, rng sampleRange) Pixel {
	edge := diagonalEdge(&n.luma, wp)
	var out [numChannels]uint8
	for c := range n.ch {
		out[c] = bw.apply(&n.ch[c], edge, rng.lo[c], rng.hi[c])
	}
	return PackRGBA(out[chanR], out[chanG], out[chanB], out[chanA])
}
