package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tutortoise/superxbr-service/upscale"
)

func newTestState(t *testing.T) *AppState {
	t.Helper()
	cfg := defaultConfig()
	cfg.Workers = 2

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	pool := NewScalerPool(2, cfg.Workers, 100*time.Millisecond)
	t.Cleanup(pool.Close)

	return &AppState{Config: cfg, Pool: pool, Logger: logger, CPU: upscale.DetectCPU()}
}

func newTestServer(t *testing.T, state *AppState) *httptest.Server {
	t.Helper()
	handler, err := state.routes()
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 40), G: uint8(y * 40), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// pngHeader returns a PNG that declares a w x h gray image but carries no
// pixel data. Only DecodeConfig can read it.
func pngHeader(w, h uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	chunk := func(typ string, data []byte) {
		var n [4]byte
		binary.BigEndian.PutUint32(n[:], uint32(len(data)))
		buf.Write(n[:])
		body := append([]byte(typ), data...)
		buf.Write(body)
		binary.BigEndian.PutUint32(n[:], crc32.ChecksumIEEE(body))
		buf.Write(n[:])
	}
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8] = 8 // bit depth, color type 0 (gray)
	chunk("IHDR", ihdr)
	chunk("IEND", nil)
	return buf.Bytes()
}

func decodeBody(t *testing.T, resp *http.Response) image.Image {
	t.Helper()
	img, _, err := image.Decode(resp.Body)
	require.NoError(t, err)
	return img
}

func decodeError(t *testing.T, resp *http.Response) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	return e
}

func TestUpscaleRawBody(t *testing.T) {
	srv := newTestServer(t, newTestState(t))

	resp, err := http.Post(srv.URL+"/upscale", "image/png", bytes.NewReader(encodePNG(t, 5, 3)))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, "10x6", resp.Header.Get("X-Output-Size"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Equal(t, image.Rect(0, 0, 10, 6), decodeBody(t, resp).Bounds())
}

func TestUpscaleJSONBody(t *testing.T) {
	srv := newTestServer(t, newTestState(t))

	payload, err := json.Marshal(map[string]string{
		"image": base64.StdEncoding.EncodeToString(encodePNG(t, 4, 4)),
	})
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/upscale?passes=2&format=jpeg", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
	assert.Equal(t, image.Rect(0, 0, 16, 16), decodeBody(t, resp).Bounds())
}

func TestUpscaleMultipart(t *testing.T) {
	srv := newTestServer(t, newTestState(t))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "in.png")
	require.NoError(t, err)
	_, err = part.Write(encodePNG(t, 3, 2))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/upscale", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, image.Rect(0, 0, 6, 4), decodeBody(t, resp).Bounds())
}

func TestUpscaleErrors(t *testing.T) {
	state := newTestState(t)
	state.Config.MaxOutputPixels = 100
	state.Config.MaxUploadBytes = 4096
	srv := newTestServer(t, state)

	tests := []struct {
		name       string
		query      string
		body       []byte
		wantStatus int
		wantCode   string
	}{
		{"empty body", "", nil, http.StatusBadRequest, "invalid_request"},
		{"not an image", "", []byte("hello"), http.StatusBadRequest, "invalid_image"},
		{"bad passes", "?passes=9", encodePNG(t, 2, 2), http.StatusBadRequest, "invalid_request"},
		{"bad format", "?format=webp", encodePNG(t, 2, 2), http.StatusBadRequest, "unsupported_format"},
		{"output too large", "?passes=2", encodePNG(t, 4, 4), http.StatusRequestEntityTooLarge, "too_large"},
		{"upload too large", "", bytes.Repeat([]byte{0}, 8192), http.StatusRequestEntityTooLarge, "too_large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/upscale"+tt.query, "application/octet-stream", bytes.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantCode, decodeError(t, resp).Code)
		})
	}
}

func TestUpscaleRejectsHugeDimensionsBeforeDecode(t *testing.T) {
	srv := newTestServer(t, newTestState(t))

	body := pngHeader(12000, 12000)
	_, _, err := image.DecodeConfig(bytes.NewReader(body))
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/upscale", "image/png", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	// A full decode of this body fails, so 413 shows the header check ran first.
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Equal(t, "too_large", decodeError(t, resp).Code)
}

func TestSendProcessingErrorContext(t *testing.T) {
	state := newTestState(t)

	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{context.Canceled, StatusClientClosedRequest, "canceled"},
		{fmt.Errorf("acquire: %w", context.Canceled), StatusClientClosedRequest, "canceled"},
		{context.DeadlineExceeded, http.StatusServiceUnavailable, "timeout"},
		{ErrPoolTimeout, http.StatusServiceUnavailable, "busy"},
		{errors.New("boom"), http.StatusInternalServerError, "processing_error"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		state.sendProcessingError(rec, tt.err)

		var e ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&e))
		assert.Equal(t, tt.wantStatus, rec.Code, "%v", tt.err)
		assert.Equal(t, tt.wantCode, e.Code, "%v", tt.err)
	}
}

func TestUpscalePoolBusy(t *testing.T) {
	state := newTestState(t)
	srv := newTestServer(t, state)

	// Hold every scaler so the request times out waiting.
	for i := 0; i < state.Pool.Size(); i++ {
		s, err := state.Pool.Acquire(t.Context())
		require.NoError(t, err)
		defer state.Pool.Release(s)
	}

	resp, err := http.Post(srv.URL+"/upscale", "image/png", bytes.NewReader(encodePNG(t, 2, 2)))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "busy", decodeError(t, resp).Code)
}

func TestMetricsAndHealth(t *testing.T) {
	srv := newTestServer(t, newTestState(t))

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/upscale", "image/png", bytes.NewReader(encodePNG(t, 2, 2)))
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	var got struct {
		Pool PoolStats       `json:"pool"`
		CPU  upscale.CPUInfo `json:"cpu"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, 2, got.Pool.PoolSize)
	assert.Equal(t, int64(1), got.Pool.TotalAcquired)
	assert.Equal(t, int64(1), got.Pool.TotalReleased)
	assert.Equal(t, 0, got.Pool.InUse)
	assert.NotEmpty(t, got.CPU.Arch)
}

func TestIndexPage(t *testing.T) {
	srv := newTestServer(t, newTestState(t))

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Super-xBR upscaler")
}
