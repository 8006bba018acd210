package superxbr

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// minBandRows is the smallest number of source rows handed to one worker in
// the diagonal pass. Smaller images run on the calling goroutine.
const minBandRows = 16

// Scaler doubles images with the Super-xBR filter. A Scaler holds no
// per-image state and is safe for concurrent use.
type Scaler struct {
	workers int
}

// NewScaler returns a scaler that splits the diagonal pass across up to
// workers goroutines. If workers <= 0, GOMAXPROCS is used. The output does
// not depend on the worker count.
func NewScaler(workers int) *Scaler {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Scaler{workers: workers}
}

// Workers returns the configured parallelism.
func (s *Scaler) Workers() int {
	return s.workers
}

var sequential = &Scaler{workers: 1}

// Scale doubles a packed RGBA image of width x height pixels and returns a
// new buffer of (2*width) x (2*height) pixels, row-major.
func Scale(pix []uint32, width, height int) ([]uint32, error) {
	return sequential.Scale(pix, width, height)
}

// ScaleBuffer is Scale on a Buffer.
func ScaleBuffer(src *Buffer) (*Buffer, error) {
	return sequential.ScaleBuffer(src)
}

// Scale is like the package-level Scale but uses s's parallelism.
func (s *Scaler) Scale(pix []uint32, width, height int) ([]uint32, error) {
	src, err := FromUint32(pix, width, height)
	if err != nil {
		return nil, err
	}
	out, err := s.ScaleBuffer(src)
	if err != nil {
		return nil, err
	}
	return out.Uint32(), nil
}

// ScaleBuffer doubles src into a newly allocated buffer. src is not modified.
func (s *Scaler) ScaleBuffer(src *Buffer) (*Buffer, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}

	out := NewBuffer(src.Width*2, src.Height*2)
	if err := s.diagonalPass(src, out); err != nil {
		return nil, err
	}
	fillCross(out)
	refine(out)
	return out, nil
}

// ScaleTimes applies ScaleBuffer passes times, growing each dimension by
// 2^passes.
func (s *Scaler) ScaleTimes(src *Buffer, passes int) (*Buffer, error) {
	if passes < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPasses, passes)
	}
	cur := src
	for i := 0; i < passes; i++ {
		next, err := s.ScaleBuffer(cur)
		if err != nil {
			return nil, fmt.Errorf("pass %d: %w", i+1, err)
		}
		cur = next
	}
	return cur, nil
}

// diagonalPass splits the first pass into row bands. It returns once every
// band is written, which is the barrier the cross pass depends on.
func (s *Scaler) diagonalPass(src, out *Buffer) error {
	if s.workers <= 1 || src.Height < 2*minBandRows {
		interpolateDiagonals(src, out, 0, src.Height)
		return nil
	}

	band := max(minBandRows, (src.Height+s.workers-1)/s.workers)

	var g errgroup.Group
	g.SetLimit(s.workers)
	for start := 0; start < src.Height; start += band {
		end := min(start+band, src.Height)
		g.Go(func() error {
			interpolateDiagonals(src, out, start, end)
			return nil
		})
	}
	return g.Wait()
}
