// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package covariate

import (
	"fmt"
)

// Opts holds the settings read by Covariate.Initialize.
type Opts struct {
	// ForceReadGroup, if nonempty, replaces the read group of every read.
	ForceReadGroup string
	// LowQualTail is the largest quality treated as part of a low-quality read
	// end.  Such ends are masked with 'N' before computing contexts.
	LowQualTail byte
	// MismatchesContextSize is the k-mer length used for mismatch contexts.
	MismatchesContextSize int
	// IndelsContextSize is the k-mer length used for insertion and deletion
	// contexts.
	IndelsContextSize int
	// MaxSTRUnitLength bounds the tandem repeat unit length.
	MaxSTRUnitLength int
	// MaxRepeatLength clamps the number of repeat units reported.
	MaxRepeatLength int
	// MaximumCycleValue is the largest cycle (= read length) accepted.
	MaximumCycleValue int
	// CushionForIndels is the number of bases at either end of a read that get
	// no cycle key for insertion and deletion events.
	CushionForIndels int
}

// DefaultOpts are the standard recalibration settings.
var DefaultOpts = Opts{
	ForceReadGroup:        "",
	LowQualTail:           2,
	MismatchesContextSize: 2,
	IndelsContextSize:     3,
	MaxSTRUnitLength:      8,
	MaxRepeatLength:       20,
	MaximumCycleValue:     500,
	CushionForIndels:      4,
}

// maxContextSize is the largest context that fits in a packed key.
const maxContextSize = 13

func (o *Opts) validateContext() error {
	if o.MismatchesContextSize <= 0 || o.MismatchesContextSize > maxContextSize {
		return configErrorf("mismatches context size must be in [1, %d], got %d", maxContextSize, o.MismatchesContextSize)
	}
	if o.IndelsContextSize <= 0 || o.IndelsContextSize > maxContextSize {
		return configErrorf("indels context size must be in [1, %d], got %d", maxContextSize, o.IndelsContextSize)
	}
	return nil
}

func (o *Opts) validateCycle() error {
	if o.MaximumCycleValue <= 0 {
		return configErrorf("maximum cycle value must be positive, got %d", o.MaximumCycleValue)
	}
	if o.CushionForIndels < 0 {
		return configErrorf("indel cushion must be nonnegative, got %d", o.CushionForIndels)
	}
	return nil
}

func (o *Opts) validateRepeat() error {
	if o.MaxSTRUnitLength <= 0 {
		return configErrorf("max STR unit length must be positive, got %d", o.MaxSTRUnitLength)
	}
	if o.MaxRepeatLength <= 0 {
		return configErrorf("max repeat length must be positive, got %d", o.MaxRepeatLength)
	}
	return nil
}

func (o Opts) String() string {
	return fmt.Sprintf("{rg:%q lowQualTail:%d ctx:%d/%d str:%d/%d maxCycle:%d cushion:%d}",
		o.ForceReadGroup, o.LowQualTail, o.MismatchesContextSize, o.IndelsContextSize,
		o.MaxSTRUnitLength, o.MaxRepeatLength, o.MaximumCycleValue, o.CushionForIndels)
}
