package superxbr

import "errors"

var (
	ErrInvalidDimensions = errors.New("superxbr: width and height must be positive")
	ErrBufferLength      = errors.New("superxbr: buffer length does not match dimensions")
	ErrInvalidPasses     = errors.New("superxbr: pass count must be positive")
)
