package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/klauspost/compress/gzhttp"
	"github.com/sirupsen/logrus"

	"github.com/Tutortoise/superxbr-service/models"
	"github.com/Tutortoise/superxbr-service/upscale"
)

type AppState struct {
	Config Config
	Pool   *ScalerPool
	Logger *logrus.Logger
	CPU    upscale.CPUInfo
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// StatusClientClosedRequest is the nginx convention for a request the client
// abandoned before a response was written.
const StatusClientClosedRequest = 499

var errNoImage = errors.New("request contains no image")

func initLogger(debugMode bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
	return logger
}

func (s *AppState) logTimings(t *models.ProcessingTimings, result models.UpscaleResult) {
	s.Logger.WithFields(logrus.Fields{
		"request_id": t.RequestID,
		"decode":     t.ImageDecode,
		"pack":       t.Pack,
		"scale":      t.Scale,
		"unpack":     t.Unpack,
		"encode":     t.Encode,
		"total":      t.Total,
		"source":     fmt.Sprintf("%dx%d %s", result.Source.Width, result.Source.Height, result.Source.Format),
		"output":     fmt.Sprintf("%dx%d %s", result.Output.Width, result.Output.Height, result.Output.Format),
		"passes":     result.Passes,
	}).Debug("Upscale completed")
}

func main() {
	cfg, err := LoadConfig()
	logger := initLogger(cfg.Debug)
	if err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}

	cpuInfo := upscale.DetectCPU()
	logger.WithFields(logrus.Fields{
		"arch":     cpuInfo.Arch,
		"features": cpuInfo.Features,
		"workers":  cfg.Workers,
		"pool":     cfg.PoolSize,
	}).Info("Starting upscale service")

	pool := NewScalerPool(cfg.PoolSize, cfg.Workers, AcquireTimeout)
	defer pool.Close()

	state := &AppState{
		Config: cfg,
		Pool:   pool,
		Logger: logger,
		CPU:    cpuInfo,
	}

	handler, err := state.routes()
	if err != nil {
		logger.WithError(err).Fatal("Failed to build routes")
	}

	srv := &http.Server{
		Handler:      handler,
		Addr:         cfg.Addr,
		WriteTimeout: cfg.RequestTimeout,
		ReadTimeout:  cfg.RequestTimeout,
	}

	logger.Infof("Listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil {
		logger.WithError(err).Fatal("Server stopped")
	}
}

func (s *AppState) routes() (http.Handler, error) {
	r := mux.NewRouter()
	r.HandleFunc("/upscale", s.handleUpscale).Methods("POST")
	r.HandleFunc("/healthz", handleHealth).Methods("GET")
	s.addMonitoringRoutes(r)
	r.PathPrefix("/").Handler(http.FileServer(staticFS())).Methods("GET")

	// Encoded PNG/JPEG/GIF gain nothing from gzip; BMP, TIFF and JSON do.
	gz, err := gzhttp.NewWrapper(
		gzhttp.MinSize(1024),
		gzhttp.ExceptContentTypes([]string{"image/png", "image/jpeg", "image/gif"}),
	)
	if err != nil {
		return nil, fmt.Errorf("gzip wrapper: %w", err)
	}
	return gz(r), nil
}

func (s *AppState) handleUpscale(w http.ResponseWriter, r *http.Request) {
	startTotal := time.Now()
	requestID := fmt.Sprintf("%d", time.Now().UnixNano())
	timings := &models.ProcessingTimings{RequestID: requestID}

	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, s.Config.MaxUploadBytes)

	passes, err := s.parsePasses(r)
	if err != nil {
		sendErrorResponse(w, "invalid_request", err.Error(), http.StatusBadRequest)
		return
	}

	imgBytes, err := readImageBytes(r)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			sendErrorResponse(w, "too_large", MsgTooLarge, http.StatusRequestEntityTooLarge)
			return
		}
		sendErrorResponse(w, "invalid_request", MsgInvalidRequest, http.StatusBadRequest)
		return
	}

	decodeStart := time.Now()
	img, sourceFormat, err := upscale.Decode(imgBytes, passes, s.Config.MaxOutputPixels)
	timings.ImageDecode = time.Since(decodeStart)
	if err != nil {
		if errors.Is(err, upscale.ErrTooLarge) || errors.Is(err, upscale.ErrEmptyImage) {
			s.sendProcessingError(w, err)
			return
		}
		sendErrorResponse(w, "invalid_image", MsgInvalidImage, http.StatusBadRequest)
		return
	}

	format, err := upscale.ResolveFormat(r.URL.Query().Get("format"), sourceFormat)
	if err != nil {
		sendErrorResponse(w, "unsupported_format", MsgUnsupportedFormat, http.StatusBadRequest)
		return
	}
	b := img.Bounds()

	scaler, err := s.Pool.Acquire(ctx)
	if err != nil {
		s.sendProcessingError(w, err)
		return
	}
	defer s.Pool.Release(scaler)

	out, err := upscale.Process(ctx, img, scaler, upscale.Options{
		Passes:          passes,
		MaxOutputPixels: s.Config.MaxOutputPixels,
		Workers:         s.Config.Workers,
	}, timings)
	if err != nil {
		s.sendProcessingError(w, err)
		return
	}

	encodeStart := time.Now()
	var body bytes.Buffer
	if err := upscale.Encode(&body, out, format); err != nil {
		s.sendProcessingError(w, err)
		return
	}
	timings.Encode = time.Since(encodeStart)
	timings.Total = time.Since(startTotal)

	result := models.UpscaleResult{
		Source: models.ImageInfo{Width: b.Dx(), Height: b.Dy(), Format: sourceFormat},
		Output: models.ImageInfo{Width: out.Rect.Dx(), Height: out.Rect.Dy(), Format: format.String()},
		Passes: passes,
	}
	s.logTimings(timings, result)

	w.Header().Set("Content-Type", upscale.ContentType(format))
	w.Header().Set("X-Request-ID", requestID)
	w.Header().Set("X-Output-Size", fmt.Sprintf("%dx%d", result.Output.Width, result.Output.Height))
	w.WriteHeader(http.StatusOK)
	_, _ = body.WriteTo(w)
}

func (s *AppState) parsePasses(r *http.Request) (int, error) {
	v := r.URL.Query().Get("passes")
	if v == "" {
		return upscale.DefaultPasses, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > s.Config.MaxPasses {
		return 0, fmt.Errorf("passes must be between 1 and %d", s.Config.MaxPasses)
	}
	return n, nil
}

func (s *AppState) sendProcessingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, upscale.ErrTooLarge):
		sendErrorResponse(w, "too_large", MsgTooLarge, http.StatusRequestEntityTooLarge)
	case errors.Is(err, upscale.ErrInvalidPasses), errors.Is(err, upscale.ErrEmptyImage):
		sendErrorResponse(w, "invalid_image", err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrPoolTimeout), errors.Is(err, ErrPoolClosed):
		sendErrorResponse(w, "busy", MsgBusy, http.StatusServiceUnavailable)
	case errors.Is(err, context.Canceled):
		s.Logger.WithError(err).Debug("Client went away")
		sendErrorResponse(w, "canceled", MsgCanceled, StatusClientClosedRequest)
	case errors.Is(err, context.DeadlineExceeded):
		s.Logger.WithError(err).Debug("Request timed out")
		sendErrorResponse(w, "timeout", MsgTimeout, http.StatusServiceUnavailable)
	default:
		s.Logger.WithError(err).Error("Upscale failed")
		sendErrorResponse(w, "processing_error", err.Error(), http.StatusInternalServerError)
	}
}

func (s *AppState) addMonitoringRoutes(r *mux.Router) {
	r.HandleFunc("/metrics", s.handleMetrics).Methods("GET")
}

func (s *AppState) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	response := map[string]interface{}{
		"pool": s.Pool.GetMetrics(),
		"cpu":  s.CPU,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func readImageBytes(r *http.Request) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var data []byte
	var err error
	switch mediaType {
	case "application/json":
		data, err = handleJSONRequest(r)
	case "multipart/form-data":
		data, err = handleMultipartRequest(r)
	default:
		data, err = handleRawRequest(r)
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errNoImage
	}
	return data, nil
}

func handleJSONRequest(r *http.Request) ([]byte, error) {
	var req struct {
		Image string `json:"image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, err
	}
	return base64.StdEncoding.DecodeString(req.Image)
}

func handleMultipartRequest(r *http.Request) ([]byte, error) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		return nil, err
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}

func handleRawRequest(r *http.Request) ([]byte, error) {
	return io.ReadAll(r.Body)
}

func sendErrorResponse(w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Code:    code,
		Message: message,
	})
}
