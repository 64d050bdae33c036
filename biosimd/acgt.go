// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package biosimd

// NonACGT is the BaseIndex result for anything other than a capital A, C, G
// or T.
const NonACGT = -1

var baseIndexTable = func() (t [256]int8) {
	for i := range t {
		t[i] = NonACGT
	}
	t['A'] = 0
	t['C'] = 1
	t['G'] = 2
	t['T'] = 3
	return
}()

// BaseIndex returns 0, 1, 2 or 3 for 'A', 'C', 'G' or 'T' respectively, and
// NonACGT for every other byte (including lowercase bases).
func BaseIndex(ascii8 byte) int {
	return int(baseIndexTable[ascii8])
}

// BaseFromIndex is the inverse of BaseIndex on {0, 1, 2, 3}.
func BaseFromIndex(index int) byte {
	return "ACGT"[index&3]
}

// IsNonACGTPresent returns true iff there is a non-capital-ACGT character in
// the slice.
func IsNonACGTPresent(ascii8 []byte) bool {
	for _, ascii8Byte := range ascii8 {
		if baseIndexTable[ascii8Byte] < 0 {
			return true
		}
	}
	return false
}
