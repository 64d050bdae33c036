// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package covariate

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/grailbio/bqsr/biosimd"
)

// numberOfRepetitions counts the consecutive copies of unit at the start of s
// (leading) or at its end (!leading).
func numberOfRepetitions(unit, s []byte, leading bool) int {
	u := len(unit)
	if u == 0 || u > len(s) {
		return 0
	}
	n := 0
	if leading {
		for start := 0; start+u <= len(s); start += u {
			if !bytes.Equal(s[start:start+u], unit) {
				break
			}
			n++
		}
		return n
	}
	for end := len(s); end-u >= 0; end -= u {
		if !bytes.Equal(s[end-u:end], unit) {
			break
		}
		n++
	}
	return n
}

// FindTandemRepeatUnits returns the tandem repeat that bases[offset] belongs
// to, as the repeat unit and the number of copies (clamped to
// maxRepeatLength).  bases must be in sequencing order.
//
// The smallest unit ending at offset that occurs more than once is combined
// with the smallest unit starting at offset+1 that does.  When the two units
// differ, the forward unit wins and its copies are recounted backward from
// offset.  The returned unit aliases bases.
func FindTandemRepeatUnits(bases []byte, offset, maxUnitLength, maxRepeatLength int) (unit []byte, length int) {
	prefix := bases[:offset+1]
	bestBW := bases[offset : offset+1]
	maxBW := 0
	for u := 1; u <= maxUnitLength; u++ {
		if offset+1-u < 0 {
			break
		}
		candidate := bases[offset+1-u : offset+1]
		maxBW = numberOfRepetitions(candidate, prefix, false)
		if maxBW > 1 {
			bestBW = candidate
			break
		}
	}
	unit, length = bestBW, maxBW

	if offset < len(bases)-1 {
		suffix := bases[offset+1:]
		bestFW := bases[offset+1 : offset+2]
		maxFW := 0
		for u := 1; u <= maxUnitLength; u++ {
			if offset+u+1 > len(bases) {
				break
			}
			candidate := bases[offset+1 : offset+u+1]
			maxFW = numberOfRepetitions(candidate, suffix, true)
			if maxFW > 1 {
				bestFW = candidate
				break
			}
		}
		if bytes.Equal(bestFW, bestBW) {
			length = maxBW + maxFW
		} else {
			// E.g. TTCTT(C)CCC: the backward unit is TTC, the forward unit is C,
			// and the run around offset is really C x 4.
			length = maxFW + numberOfRepetitions(bestFW, prefix, false)
		}
		unit = bestFW
	}

	if length > maxRepeatLength {
		length = maxRepeatLength
	}
	return unit, length
}

// SplitRepeatUnitAndLength parses a RepeatUnitAndLength value, e.g. "ATG4"
// yields ("ATG", 4).
func SplitRepeatUnitAndLength(value string) (unit string, n int, err error) {
	k := 0
	for k < len(value) && biosimd.BaseIndex(value[k]) != biosimd.NonACGT {
		k++
	}
	if k == len(value) {
		return "", 0, configErrorf("repeat value %q has no repeat count", value)
	}
	n, err = strconv.Atoi(value[k:])
	if err != nil || n <= 0 {
		return "", 0, configErrorf("repeat value %q is not a repeat unit followed by a positive count", value)
	}
	return value[:k], n, nil
}

// RepeatBases expands a repeat unit into its bases, e.g. ("AGC", 3) yields
// "AGCAGCAGC".
func RepeatBases(unit string, n int) string {
	return strings.Repeat(unit, n)
}
