package upscale

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/samber/lo"

	_ "golang.org/x/image/webp"
)

// OutputFormats are the encodings Encode can produce.
var OutputFormats = []string{"png", "jpeg", "gif", "bmp", "tiff"}

// InputFormats are the encodings Decode accepts.
var InputFormats = lo.Union(OutputFormats, []string{"webp"})

// Decode decodes an image, applying any EXIF orientation, and returns the
// name of the source format. The header dimensions are checked against
// CheckSize before any pixel data is decoded; maxPixels <= 0 selects
// MaxOutputPixels.
func Decode(data []byte, passes, maxPixels int) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmptyImage
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode config: %w", err)
	}
	if maxPixels <= 0 {
		maxPixels = MaxOutputPixels
	}
	// EXIF rotation may swap the sides but keeps the pixel count.
	if err := CheckSize(cfg.Width, cfg.Height, passes, maxPixels); err != nil {
		return nil, format, err
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("decode %s: %w", format, err)
	}
	return img, format, nil
}

// ResolveFormat picks the output encoding: the requested one if given,
// otherwise the source format when it can be written, otherwise PNG.
func ResolveFormat(requested, source string) (imaging.Format, error) {
	name := strings.ToLower(strings.TrimPrefix(requested, "."))
	if name == "" {
		name = strings.ToLower(source)
		if name == "jpg" {
			name = "jpeg"
		}
		if !lo.Contains(OutputFormats, name) {
			name = DefaultFormat
		}
	}
	f, err := imaging.FormatFromExtension(name)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, requested)
	}
	return f, nil
}

// ContentType returns the MIME type for f.
func ContentType(f imaging.Format) string {
	return "image/" + strings.ToLower(f.String())
}

// Encode writes img in format f.
func Encode(w io.Writer, img image.Image, f imaging.Format) error {
	if err := imaging.Encode(w, img, f, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return fmt.Errorf("encode %s: %w", f, err)
	}
	return nil
}

// Open reads and decodes an image file with the same limits as Decode.
func Open(path string, passes, maxPixels int) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	img, _, err := Decode(data, passes, maxPixels)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return img, nil
}

// OutputFormat picks the encoding for an output file: the requested format
// if given, otherwise the one named by path's extension.
func OutputFormat(path, requested string) (imaging.Format, error) {
	if requested != "" {
		return ResolveFormat(requested, "")
	}
	f, err := imaging.FormatFromFilename(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	return f, nil
}

// Save encodes img in format f and writes it to path.
func Save(img image.Image, path string, f imaging.Format) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("save %s: %w", path, cerr)
		}
	}()
	return Encode(file, img, f)
}

func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) && n.Stride == 4*n.Rect.Dx() {
		return n
	}
	return imaging.Clone(img)
}
