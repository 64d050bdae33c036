// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package covariate

import (
	"github.com/grailbio/bqsr/biosimd"
	"github.com/grailbio/hts/sam"
)

var (
	rgTag = sam.Tag{'R', 'G'}
	biTag = sam.Tag{'B', 'I'}
	bdTag = sam.Tag{'B', 'D'}
)

func isReverse(r *sam.Record) bool {
	return r.Flags&sam.Reverse != 0
}

// isSecondOfPair is false for unpaired reads regardless of the Read2 bit.
func isSecondOfPair(r *sam.Record) bool {
	return r.Flags&sam.Paired != 0 && r.Flags&sam.Read2 != 0
}

// ValidateRead checks the invariants every covariate relies on.
func ValidateRead(r *sam.Record) error {
	if r.Seq.Length != len(r.Qual) {
		return malformedReadf("read %s has %d bases but %d qualities", r.Name, r.Seq.Length, len(r.Qual))
	}
	return nil
}

func checkStorage(r *sam.Record, values *ReadCovariates) error {
	if values.ReadLength() != r.Seq.Length {
		return storageErrorf("storage sized for %d bases, read %s has %d", values.ReadLength(), r.Name, r.Seq.Length)
	}
	return nil
}

// ReadGroupID returns the value of the read's RG aux tag.
func ReadGroupID(r *sam.Record) (string, bool) {
	aux := r.AuxFields.Get(rgTag)
	if aux == nil {
		return "", false
	}
	id, ok := aux.Value().(string)
	return id, ok
}

func findReadGroup(header *sam.Header, id string) *sam.ReadGroup {
	if header == nil {
		return nil
	}
	for _, rg := range header.RGs() {
		if rg.Name() == id {
			return rg
		}
	}
	return nil
}

// sequencingOffset maps an offset in reference orientation to the offset in
// the order the bases were sequenced.  The mapping is its own inverse.
func sequencingOffset(offset, readLength int, reverse bool) int {
	if reverse {
		return readLength - 1 - offset
	}
	return offset
}

// cycleTransform maps an offset in reference orientation to a signed
// sequencing cycle.  Cycles are 1-based and negative for the second read of a
// pair.
type cycleTransform struct {
	first, increment int
}

func newCycleTransform(r *sam.Record, readLength int) cycleTransform {
	readOrder := 1
	if isSecondOfPair(r) {
		readOrder = -1
	}
	if isReverse(r) {
		return cycleTransform{first: readLength * readOrder, increment: -readOrder}
	}
	return cycleTransform{first: readOrder, increment: readOrder}
}

func (t cycleTransform) cycle(offset int) int {
	return t.first + offset*t.increment
}

// strandedBases returns a private copy of the read's bases in sequencing
// order.  If maskLowQual is set, low-quality read ends are replaced with 'N'
// first.  The read itself is never modified.
func strandedBases(r *sam.Record, maskLowQual bool, lowQualTail byte) []byte {
	bases := r.Seq.Expand()
	if maskLowQual {
		biosimd.MaskLowQualEnds8(bases, r.Qual, lowQualTail)
	}
	if isReverse(r) {
		biosimd.ReverseComp8Inplace(bases)
	}
	return bases
}
