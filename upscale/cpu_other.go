//go:build !amd64 && !arm64

package upscale

func vectorFeatures() ([]string, bool) {
	return nil, false
}
