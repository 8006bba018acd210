package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Tutortoise/superxbr-service/upscale"
)

// Config is read from the environment; every key has a default.
type Config struct {
	Addr            string
	Debug           bool
	PoolSize        int
	Workers         int
	MaxPasses       int
	MaxOutputPixels int
	MaxUploadBytes  int64
	RequestTimeout  time.Duration
}

func defaultConfig() Config {
	return Config{
		Addr:            "127.0.0.1:8080",
		PoolSize:        DefaultPoolSize,
		Workers:         upscale.DefaultWorkers(),
		MaxPasses:       upscale.MaxPasses,
		MaxOutputPixels: upscale.MaxOutputPixels,
		MaxUploadBytes:  10 << 20,
		RequestTimeout:  60 * time.Second,
	}
}

func LoadConfig() (Config, error) {
	cfg := defaultConfig()

	if v := os.Getenv("ADDR"); v != "" {
		cfg.Addr = v
	}
	cfg.Debug = os.Getenv("DEBUG") == "true"

	ints := []struct {
		key string
		dst *int
	}{
		{"POOL_SIZE", &cfg.PoolSize},
		{"WORKERS", &cfg.Workers},
		{"MAX_PASSES", &cfg.MaxPasses},
		{"MAX_OUTPUT_PIXELS", &cfg.MaxOutputPixels},
	}
	for _, e := range ints {
		v := os.Getenv(e.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("%s: want a positive integer, got %q", e.key, v)
		}
		*e.dst = n
	}

	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("MAX_UPLOAD_BYTES: want a positive integer, got %q", v)
		}
		cfg.MaxUploadBytes = n
	}

	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("REQUEST_TIMEOUT: want a positive duration, got %q", v)
		}
		cfg.RequestTimeout = d
	}

	if cfg.MaxPasses > upscale.MaxPasses {
		return Config{}, fmt.Errorf("MAX_PASSES: at most %d, got %d", upscale.MaxPasses, cfg.MaxPasses)
	}
	return cfg, nil
}
