package upscale

import "golang.org/x/sys/cpu"

func vectorFeatures() ([]string, bool) {
	var features []string
	if cpu.ARM64.HasASIMD {
		features = append(features, "asimd")
	}
	if cpu.ARM64.HasSVE {
		features = append(features, "sve")
	}
	// Advanced SIMD always includes FMLA.
	return features, cpu.ARM64.HasASIMD
}
