package superxbr

// interpolateDiagonals runs the first pass for source rows [rowStart, rowEnd).
// Each source pixel fills the top-left, top-right and bottom-left cells of its
// output block verbatim; the bottom-right cell is interpolated from src.
// Rows only touch their own output block rows, so disjoint ranges may run
// concurrently.
func interpolateDiagonals(src, dst *Buffer, rowStart, rowEnd int) {
	var n neighborhood
	for cy := rowStart; cy < rowEnd; cy++ {
		y := cy * 2
		for cx := 0; cx < src.Width; cx++ {
			x := cx * 2
			n.gather(src, cx, cy, sourceWindow)
			orig := src.Pix[cy*src.Width+cx]
			dst.Set(x, y, orig)
			dst.Set(x+1, y, orig)
			dst.Set(x, y+1, orig)
			dst.Set(x+1, y+1, n.interpolate(&fullWeights, diagonalBlend, n.innerRange()))
		}
	}
}

// fillCross runs the second pass in place over the output buffer, replacing
// the top-right and bottom-left cell of every block.
//
// Both windows of a block use the local range of the top-right window.
// Clamped border coordinates can land on cells rewritten earlier in this
// pass, so the raster order matters and the pass runs sequentially.
func fillCross(out *Buffer) {
	var n neighborhood
	for y := 0; y < out.Height; y += 2 {
		for x := 0; x < out.Width; x += 2 {
			n.gather(out, x, y, rotatedRight)
			rng := n.innerRange()
			out.Set(x+1, y, n.interpolate(&centerWeights, crossBlend, rng))

			n.gather(out, x, y, rotatedBelow)
			out.Set(x, y+1, n.interpolate(&centerWeights, crossBlend, rng))
		}
	}
}

// refine runs the third pass: a backward sweep that rewrites every output
// pixel in place. Each window includes pixels already rewritten by this
// sweep, so it must stay sequential.
func refine(out *Buffer) {
	var n neighborhood
	for y := out.Height - 1; y >= 0; y-- {
		for x := out.Width - 1; x >= 0; x-- {
			n.gather(out, x, y, trailingWindow)
			out.Set(x, y, n.interpolate(&fullWeights, diagonalBlend, n.innerRange()))
		}
	}
}
