package superxbr

import (
	"fmt"
	"math"
)

// Buffer is a row-major grid of packed pixels. index(x, y) = y*Width + x.
type Buffer struct {
	Width  int
	Height int
	Pix    []Pixel
}

// NewBuffer allocates a zeroed buffer. It panics on non-positive dimensions;
// callers holding untrusted sizes should go through Validate first.
func NewBuffer(width, height int) *Buffer {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("superxbr: invalid buffer size %dx%d", width, height))
	}
	return &Buffer{
		Width:  width,
		Height: height,
		Pix:    make([]Pixel, width*height),
	}
}

// FromUint32 copies a packed uint32 slice into a new Buffer after checking
// the dimensions against its length.
func FromUint32(pix []uint32, width, height int) (*Buffer, error) {
	if err := checkDimensions(width, height, len(pix)); err != nil {
		return nil, err
	}
	b := &Buffer{Width: width, Height: height, Pix: make([]Pixel, len(pix))}
	for i, v := range pix {
		b.Pix[i] = Pixel(v)
	}
	return b, nil
}

// Uint32 returns a copy of the pixels as packed uint32 values.
func (b *Buffer) Uint32() []uint32 {
	out := make([]uint32, len(b.Pix))
	for i, p := range b.Pix {
		out[i] = uint32(p)
	}
	return out
}

// Validate reports whether the buffer can be scaled.
func (b *Buffer) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil buffer", ErrInvalidDimensions)
	}
	return checkDimensions(b.Width, b.Height, len(b.Pix))
}

func checkDimensions(width, height, length int) error {
	if width < 1 || height < 1 {
		return fmt.Errorf("%w: got %dx%d", ErrInvalidDimensions, width, height)
	}
	// The output holds 4*width*height pixels; that product must fit in an int.
	if width > math.MaxInt/4/height {
		return fmt.Errorf("%w: %dx%d overflows the output size", ErrInvalidDimensions, width, height)
	}
	if length != width*height {
		return fmt.Errorf("%w: have %d pixels, want %d for %dx%d",
			ErrBufferLength, length, width*height, width, height)
	}
	return nil
}

// At returns the pixel at (x, y) with both coordinates clamped to the
// buffer, so out-of-range reads replicate the nearest edge pixel.
func (b *Buffer) At(x, y int) Pixel {
	x = clamp(x, 0, b.Width-1)
	y = clamp(y, 0, b.Height-1)
	return b.Pix[y*b.Width+x]
}

// Set writes p at (x, y). Coordinates must be in range.
func (b *Buffer) Set(x, y int, p Pixel) {
	b.Pix[y*b.Width+x] = p
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	c := &Buffer{Width: b.Width, Height: b.Height, Pix: make([]Pixel, len(b.Pix))}
	copy(c.Pix, b.Pix)
	return c
}
