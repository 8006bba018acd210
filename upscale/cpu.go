package upscale

import (
	"runtime"
)

// CPUInfo describes the host as seen by the scaler.
type CPUInfo struct {
	Arch     string   `json:"arch"`
	Workers  int      `json:"workers"`
	Features []string `json:"features"`
	// HasFMA reports fused multiply-add support. The filter avoids fused
	// operations, so results are identical either way.
	HasFMA bool `json:"has_fma"`
}

// DetectCPU reports the vector extensions available on this machine.
func DetectCPU() CPUInfo {
	features, fma := vectorFeatures()
	return CPUInfo{
		Arch:     runtime.GOARCH,
		Workers:  DefaultWorkers(),
		Features: features,
		HasFMA:   fma,
	}
}

// DefaultWorkers is the worker count used when none is configured.
func DefaultWorkers() int {
	return runtime.GOMAXPROCS(0)
}
