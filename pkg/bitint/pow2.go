// SPDX-License-Identifier: MIT

// Package bitint provides power-of-two helpers used for block and FFT
// sizing. All operations are O(1), allocation-free, and safe to call
// from real-time code.
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of 2 >= size.
// Powers of 2 are returned unchanged; non-positive sizes return 1.
//
// The size-1 subtraction is what preserves exact powers of 2: for
// input 8, bits.Len64(7) is 3 and 1<<3 is 8 again, whereas without
// the subtraction bits.Len64(8) would be 4 and the result 16.
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return int(1 << bits.Len64(uint64(size-1)))
}

// IsPowerOfTwo reports whether n is a positive power of 2.
// A power of 2 has exactly one bit set, so n&(n-1) clears it to zero.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
