package superxbr

// Pixel is a packed 8-bit-per-channel color laid out as a<<24 | b<<16 | g<<8 | r.
type Pixel uint32

// PackRGBA packs four straight (non-premultiplied) channels into a Pixel.
func PackRGBA(r, g, b, a uint8) Pixel {
	return Pixel(uint32(a)<<24 | uint32(b)<<16 | uint32(g)<<8 | uint32(r))
}

func (p Pixel) R() uint8 { return uint8(p) }
func (p Pixel) G() uint8 { return uint8(p >> 8) }
func (p Pixel) B() uint8 { return uint8(p >> 16) }
func (p Pixel) A() uint8 { return uint8(p >> 24) }

// RGBA returns all four channels.
func (p Pixel) RGBA() (r, g, b, a uint8) {
	return p.R(), p.G(), p.B(), p.A()
}
