package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Tutortoise/superxbr-service/models"
	"github.com/Tutortoise/superxbr-service/superxbr"
	"github.com/Tutortoise/superxbr-service/upscale"
)

type options struct {
	debug     bool
	passes    int
	workers   int
	maxPixels int
	format    string
	width     int
	height    int
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "superxbr",
		Short:         "Edge-directed 2x image upscaling with Super-xBR",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().IntVar(&opts.workers, "workers", upscale.DefaultWorkers(), "goroutines used by the diagonal pass")

	root.AddCommand(newScaleCmd(opts), newRawCmd(opts), newFormatsCmd())
	return root
}

func newScaleCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scale IN OUT",
		Short: "Upscale an image file; the output format follows --format or OUT's extension",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScale(cmd.Context(), initLogger(cmd.ErrOrStderr(), opts.debug), opts, args[0], args[1])
		},
	}
	cmd.Flags().IntVarP(&opts.passes, "passes", "p", upscale.DefaultPasses,
		fmt.Sprintf("number of 2x passes (1..%d)", upscale.MaxPasses))
	cmd.Flags().IntVar(&opts.maxPixels, "max-pixels", upscale.MaxOutputPixels, "largest allowed output in pixels")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "",
		fmt.Sprintf("output format (%s); defaults to OUT's extension", strings.Join(upscale.OutputFormats, ", ")))
	return cmd
}

func newRawCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "raw IN OUT",
		Short: "Upscale a raw buffer of little-endian packed RGBA uint32 pixels (a<<24|b<<16|g<<8|r)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRaw(initLogger(cmd.ErrOrStderr(), opts.debug), opts, args[0], args[1])
		},
	}
	cmd.Flags().IntVar(&opts.width, "width", 0, "input width in pixels")
	cmd.Flags().IntVar(&opts.height, "height", 0, "input height in pixels")
	_ = cmd.MarkFlagRequired("width")
	_ = cmd.MarkFlagRequired("height")
	return cmd
}

func newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported image formats",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			upper := func(s string, _ int) string { return strings.ToUpper(s) }
			fmt.Fprintf(cmd.OutOrStdout(), "input:  %s\n", strings.Join(lo.Map(upscale.InputFormats, upper), ", "))
			fmt.Fprintf(cmd.OutOrStdout(), "output: %s\n", strings.Join(lo.Map(upscale.OutputFormats, upper), ", "))
		},
	}
}

func initLogger(w io.Writer, debugMode bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
	return logger
}

func runScale(ctx context.Context, logger *logrus.Logger, opts *options, in, out string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	format, err := upscale.OutputFormat(out, opts.format)
	if err != nil {
		return err
	}

	start := time.Now()
	timings := &models.ProcessingTimings{RequestID: in}

	img, err := upscale.Open(in, opts.passes, opts.maxPixels)
	if err != nil {
		return err
	}
	timings.ImageDecode = time.Since(start)

	result, err := upscale.Process(ctx, img, superxbr.NewScaler(opts.workers), upscale.Options{
		Passes:          opts.passes,
		MaxOutputPixels: opts.maxPixels,
		Workers:         opts.workers,
	}, timings)
	if err != nil {
		return err
	}

	encodeStart := time.Now()
	if err := upscale.Save(result, out, format); err != nil {
		return err
	}
	timings.Encode = time.Since(encodeStart)
	timings.Total = time.Since(start)

	logger.WithFields(logrus.Fields{
		"input":  in,
		"output": out,
		"format": format,
		"size":   fmt.Sprintf("%dx%d", result.Rect.Dx(), result.Rect.Dy()),
		"passes": opts.passes,
		"scale":  timings.Scale,
		"total":  timings.Total,
	}).Info("Upscaled image")
	return nil
}

func runRaw(logger *logrus.Logger, opts *options, in, out string) error {
	data, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("read %s: %w", in, err)
	}
	pix, err := decodeRaw(data)
	if err != nil {
		return fmt.Errorf("read %s: %w", in, err)
	}

	start := time.Now()
	scaled, err := superxbr.NewScaler(opts.workers).Scale(pix, opts.width, opts.height)
	if err != nil {
		return err
	}

	if err := os.WriteFile(out, encodeRaw(scaled), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	logger.WithFields(logrus.Fields{
		"input":  in,
		"output": out,
		"size":   fmt.Sprintf("%dx%d", opts.width*2, opts.height*2),
		"scale":  time.Since(start),
	}).Info("Upscaled raw buffer")
	return nil
}

func decodeRaw(data []byte) ([]uint32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("length %d is not a multiple of 4", len(data))
	}
	pix := make([]uint32, len(data)/4)
	for i := range pix {
		pix[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return pix, nil
}

func encodeRaw(pix []uint32) []byte {
	data := make([]byte, len(pix)*4)
	for i, p := range pix {
		binary.LittleEndian.PutUint32(data[i*4:], p)
	}
	return data
}
