package upscale

const (
	DefaultPasses   = 1
	MaxPasses       = 3
	MaxOutputPixels = 64 << 20
	DefaultFormat   = "png"
	JPEGQuality     = 95
)
