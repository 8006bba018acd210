package upscale

import "golang.org/x/sys/cpu"

func vectorFeatures() ([]string, bool) {
	var features []string
	if cpu.X86.HasSSE41 {
		features = append(features, "sse4.1")
	}
	if cpu.X86.HasAVX2 {
		features = append(features, "avx2")
	}
	if cpu.X86.HasAVX512F {
		features = append(features, "avx512f")
	}
	return features, cpu.X86.HasFMA
}
