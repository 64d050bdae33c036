// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package biosimd

import (
	"github.com/grailbio/base/simd"
)

// MaskLowQualEnds8 replaces the leading and trailing runs of bases whose
// quality is <= maxLowQual with 'N'.  If every quality is low, the whole read
// is masked.  Interior low-quality bases are left alone.
//
// It panics if len(qual) != len(ascii8).
func MaskLowQualEnds8(ascii8, qual []byte, maxLowQual byte) {
	nByte := len(ascii8)
	if len(qual) != nByte {
		panic("MaskLowQualEnds8 requires len(qual) == len(ascii8).")
	}
	left := 0
	for left < nByte && qual[left] <= maxLowQual {
		left++
	}
	if left == nByte {
		simd.Memset8(ascii8, 'N')
		return
	}
	right := nByte - 1
	for qual[right] <= maxLowQual {
		right--
	}
	simd.Memset8(ascii8[:left], 'N')
	simd.Memset8(ascii8[right+1:], 'N')
}
