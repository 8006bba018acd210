// Package superxbr implements the Super-xBR edge-directed 2x image upscaler.
//
// The scaler takes a row-major buffer of packed RGBA pixels and produces a
// buffer with exactly twice the width and twice the height. New pixels are
// interpolated along the dominant local diagonal so that diagonal edges stay
// sharp instead of being blurred or staircased.
//
// Scaling runs in three dependent passes over one output buffer:
//  1. Diagonal pass: every source pixel is copied into three cells of its
//     2x2 output block and the fourth (bottom-right) cell is interpolated
//     from a 4x4 source neighborhood.
//  2. Cross pass: the remaining top-right and bottom-left cells of each block
//     are interpolated from a 45 degree rotated neighborhood of the pass 1
//     result.
//  3. Refinement pass: a backward sweep rewrites every output pixel in place,
//     each write reading neighbors already rewritten earlier in the sweep.
//
// Pixels are packed as a<<24 | b<<16 | g<<8 | r. All arithmetic is float64
// and every result is clamped to the local dynamic range, rounded up and
// re-quantized to 8 bits per channel.
//
// Larger factors are obtained by repeated invocation (see [Scaler.ScaleTimes]).
package superxbr
