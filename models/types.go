package models

import "time"

type ImageInfo struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
}

type UpscaleResult struct {
	Source ImageInfo `json:"source"`
	Output ImageInfo `json:"output"`
	Passes int       `json:"passes"`
}

type ProcessingTimings struct {
	RequestID   string
	ImageDecode time.Duration
	Pack        time.Duration
	Scale       time.Duration
	Unpack      time.Duration
	Encode      time.Duration
	Total       time.Duration
}
