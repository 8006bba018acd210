package upscale

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/Tutortoise/superxbr-service/models"
	"github.com/Tutortoise/superxbr-service/superxbr"
)

var (
	ErrEmptyImage        = errors.New("upscale: image has no pixels")
	ErrTooLarge          = errors.New("upscale: output exceeds pixel limit")
	ErrInvalidPasses     = errors.New("upscale: invalid pass count")
	ErrUnsupportedFormat = errors.New("upscale: unsupported format")
)

// Pipeline stages, as reported by ProcessingError.
const (
	StagePack   = "pack"
	StageScale  = "scale"
	StageUnpack = "unpack"
)

type ProcessingError struct {
	Stage string
	Cause error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Cause)
}

func (e *ProcessingError) Unwrap() error {
	return e.Cause
}

// Options controls one Process call. Zero values select the defaults.
type Options struct {
	Passes          int
	MaxOutputPixels int
	Workers         int
}

func (o Options) withDefaults() Options {
	if o.Passes == 0 {
		o.Passes = DefaultPasses
	}
	if o.MaxOutputPixels <= 0 {
		o.MaxOutputPixels = MaxOutputPixels
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers()
	}
	return o
}

// CheckSize reports whether a width x height image can be doubled passes
// times within maxPixels.
func CheckSize(width, height, passes, maxPixels int) error {
	if passes < 1 || passes > MaxPasses {
		return fmt.Errorf("%w: %d (allowed 1..%d)", ErrInvalidPasses, passes, MaxPasses)
	}
	if width <= 0 || height <= 0 {
		return ErrEmptyImage
	}
	factor := 1 << passes
	if width > maxPixels/factor || height > maxPixels/factor/(width*factor) {
		return fmt.Errorf("%w: %dx%d at %dx exceeds %d pixels",
			ErrTooLarge, width, height, factor, maxPixels)
	}
	return nil
}

// Process upscales img by 2^opts.Passes using scaler. ctx is checked between
// passes; a single pass is not interruptible.
func Process(ctx context.Context, img image.Image, scaler *superxbr.Scaler, opts Options, timings *models.ProcessingTimings) (*image.NRGBA, error) {
	opts = opts.withDefaults()
	b := img.Bounds()
	if err := CheckSize(b.Dx(), b.Dy(), opts.Passes, opts.MaxOutputPixels); err != nil {
		return nil, err
	}

	packStart := time.Now()
	buf, err := Pack(img, opts.Workers)
	if err != nil {
		return nil, &ProcessingError{Stage: StagePack, Cause: err}
	}
	timings.Pack = time.Since(packStart)

	scaleStart := time.Now()
	for pass := 1; pass <= opts.Passes; pass++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		buf, err = scaler.ScaleBuffer(buf)
		if err != nil {
			return nil, &ProcessingError{Stage: StageScale, Cause: fmt.Errorf("pass %d: %w", pass, err)}
		}
	}
	timings.Scale = time.Since(scaleStart)

	unpackStart := time.Now()
	out := Unpack(buf, opts.Workers)
	timings.Unpack = time.Since(unpackStart)

	return out, nil
}
