package upscale

import (
	"image"
	"runtime"
	"sync"

	"github.com/Tutortoise/superxbr-service/superxbr"
)

// channelProcessor converts between *image.NRGBA and packed buffers, splitting
// rows across workers.
type channelProcessor struct {
	width, height int
	numWorkers    int
}

func newChannelProcessor(width, height, workers int) *channelProcessor {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &channelProcessor{
		width:      width,
		height:     height,
		numWorkers: min(workers, height),
	}
}

func (cp *channelProcessor) pack(img *image.NRGBA, buf *superxbr.Buffer) {
	cp.processParallel(func(y int) {
		row := img.Pix[y*img.Stride:]
		offset := y * cp.width
		for x := 0; x < cp.width; x++ {
			i := x * 4
			buf.Pix[offset+x] = superxbr.PackRGBA(row[i], row[i+1], row[i+2], row[i+3])
		}
	})
}

func (cp *channelProcessor) unpack(buf *superxbr.Buffer, img *image.NRGBA) {
	cp.processParallel(func(y int) {
		row := img.Pix[y*img.Stride:]
		offset := y * cp.width
		for x := 0; x < cp.width; x++ {
			i := x * 4
			row[i], row[i+1], row[i+2], row[i+3] = buf.Pix[offset+x].RGBA()
		}
	})
}

func (cp *channelProcessor) processParallel(processRow func(y int)) {
	rowsPerWorker := cp.height / cp.numWorkers

	var wg sync.WaitGroup
	wg.Add(cp.numWorkers)

	for w := 0; w < cp.numWorkers; w++ {
		startRow := w * rowsPerWorker
		endRow := (w + 1) * rowsPerWorker
		if w == cp.numWorkers-1 {
			endRow = cp.height
		}

		go func(start, end int) {
			defer wg.Done()
			for y := start; y < end; y++ {
				processRow(y)
			}
		}(startRow, endRow)
	}

	wg.Wait()
}

// Pack converts img to straight RGBA and packs it into a new buffer.
func Pack(img image.Image, workers int) (*superxbr.Buffer, error) {
	nrgba := toNRGBA(img)
	w, h := nrgba.Rect.Dx(), nrgba.Rect.Dy()
	if w == 0 || h == 0 {
		return nil, ErrEmptyImage
	}
	buf := superxbr.NewBuffer(w, h)
	newChannelProcessor(w, h, workers).pack(nrgba, buf)
	return buf, nil
}

// Unpack expands a packed buffer into a new *image.NRGBA.
func Unpack(buf *superxbr.Buffer, workers int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, buf.Width, buf.Height))
	newChannelProcessor(buf.Width, buf.Height, workers).unpack(buf, img)
	return img
}
