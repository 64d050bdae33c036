// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package covariate

import (
	"strconv"

	"github.com/grailbio/base/log"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/bqsr/biosimd"
	"github.com/grailbio/hts/sam"
)

// RepeatCovariate keys each base by the tandem repeat it belongs to.  The
// covariate's kind selects what is reported:
//
//	KindRepeatUnit:          the repeat unit, e.g. "AT"
//	KindRepeatLength:        the number of copies, e.g. "3"
//	KindRepeatUnitAndLength: both, e.g. "AT3"
//
// Reads containing anything other than A, C, G or T are not recorded.
type RepeatCovariate struct {
	kind            Kind
	dict            lockedDict
	maxUnitLength   int
	maxRepeatLength int
}

func newRepeatCovariate(kind Kind) *RepeatCovariate {
	return &RepeatCovariate{kind: kind, dict: newLockedDict()}
}

func (c *RepeatCovariate) Kind() Kind   { return c.kind }
func (c *RepeatCovariate) Name() string { return c.kind.String() }

// Initialize implements Covariate.
func (c *RepeatCovariate) Initialize(opts *Opts) error {
	if err := opts.validateRepeat(); err != nil {
		return err
	}
	c.maxUnitLength = opts.MaxSTRUnitLength
	c.maxRepeatLength = opts.MaxRepeatLength
	return nil
}

// RepeatValue formats a repeat the way this covariate reports it.
func (c *RepeatCovariate) RepeatValue(unit []byte, length int) string {
	switch c.kind {
	case KindRepeatUnit:
		return string(unit)
	case KindRepeatLength:
		return strconv.Itoa(length)
	}
	return string(unit) + strconv.Itoa(length)
}

// RecordValues implements Covariate.
func (c *RepeatCovariate) RecordValues(r *sam.Record, header *sam.Header, values *ReadCovariates) error {
	if err := checkStorage(r, values); err != nil {
		return err
	}
	bases := strandedBases(r, false, 0)
	if biosimd.IsNonACGTPresent(bases) {
		log.Debug.Printf("%s: skipping read %s with non-ACGT bases", c.Name(), r.Name)
		return nil
	}
	readLength := len(bases)
	reverse := isReverse(r)
	for i := 0; i < readLength; i++ {
		unit, length := FindTandemRepeatUnits(bases, i, c.maxUnitLength, c.maxRepeatLength)
		key := c.dict.id(c.RepeatValue(unit, length))
		values.AddCovariate(key, key, key, sequencingOffset(i, readLength, reverse))
	}
	return nil
}

// FormatKey implements Covariate.
func (c *RepeatCovariate) FormatKey(key int) (string, bool) {
	return c.dict.name(key)
}

// KeyFromValue implements Covariate.  The value must be well formed for the
// covariate's kind; unseen values are assigned a new key.
func (c *RepeatCovariate) KeyFromValue(value string) (int, error) {
	switch c.kind {
	case KindRepeatUnit:
		if value == "" || biosimd.IsNonACGTPresent(gunsafe.StringToBytes(value)) {
			return 0, configErrorf("invalid repeat unit %q", value)
		}
	case KindRepeatLength:
		if n, err := strconv.Atoi(value); err != nil || n < 0 {
			return 0, configErrorf("invalid repeat length %q", value)
		}
	default:
		if _, _, err := SplitRepeatUnitAndLength(value); err != nil {
			return 0, err
		}
	}
	return c.dict.id(value), nil
}

// MaximumKeyValue implements Covariate.
func (c *RepeatCovariate) MaximumKeyValue() int {
	return c.dict.maxID()
}

func (c *RepeatCovariate) keys() *lockedDict { return &c.dict }
