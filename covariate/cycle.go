// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package covariate

import (
	"strconv"

	"github.com/grailbio/hts/sam"
)

// CycleCovariate keys each base by its sequencing cycle.  Cycles count from 1
// in sequencing order, and are negated for the second read of a pair.
//
// Insertion and deletion keys are NoKey within CushionForIndels bases of
// either read end.
type CycleCovariate struct {
	noDict
	maxCycle int
	cushion  int
}

func (c *CycleCovariate) Kind() Kind   { return KindCycle }
func (c *CycleCovariate) Name() string { return KindCycle.String() }

// Initialize implements Covariate.
func (c *CycleCovariate) Initialize(opts *Opts) error {
	if err := opts.validateCycle(); err != nil {
		return err
	}
	c.maxCycle = opts.MaximumCycleValue
	c.cushion = opts.CushionForIndels
	return nil
}

// KeyFromCycle encodes a signed cycle as a non-negative key: the magnitude is
// shifted left by one and the low bit records the sign.
func (c *CycleCovariate) KeyFromCycle(cycle int) (int, error) {
	abs := cycle
	if abs < 0 {
		abs = -abs
	}
	if abs > c.maxCycle {
		return 0, configErrorf("cycle %d exceeds the maximum cycle value %d; increase the maximum cycle value", cycle, c.maxCycle)
	}
	key := abs << 1
	if cycle < 0 {
		key++
	}
	return key, nil
}

// CycleFromKey is the inverse of KeyFromCycle.
func CycleFromKey(key int) int {
	cycle := key >> 1
	if key&1 != 0 {
		return -cycle
	}
	return cycle
}

// RecordValues implements Covariate.
func (c *CycleCovariate) RecordValues(r *sam.Record, header *sam.Header, values *ReadCovariates) error {
	if err := checkStorage(r, values); err != nil {
		return err
	}
	readLength := r.Seq.Length
	if readLength > c.maxCycle {
		return configErrorf("read %s has length %d, longer than the maximum cycle value %d", r.Name, readLength, c.maxCycle)
	}
	xform := newCycleTransform(r, readLength)
	for i := 0; i < readLength; i++ {
		key, err := c.KeyFromCycle(xform.cycle(i))
		if err != nil {
			return err
		}
		indelKey := key
		if i < c.cushion || i > readLength-c.cushion-1 {
			indelKey = NoKey
		}
		values.AddCovariate(key, indelKey, indelKey, i)
	}
	return nil
}

// FormatKey implements Covariate.
func (c *CycleCovariate) FormatKey(key int) (string, bool) {
	if key < 0 || key > c.MaximumKeyValue() {
		return "", false
	}
	return strconv.Itoa(CycleFromKey(key)), true
}

// KeyFromValue implements Covariate.
func (c *CycleCovariate) KeyFromValue(value string) (int, error) {
	cycle, err := strconv.Atoi(value)
	if err != nil {
		return 0, configErrorf("invalid cycle %q", value)
	}
	return c.KeyFromCycle(cycle)
}

// MaximumKeyValue implements Covariate.
func (c *CycleCovariate) MaximumKeyValue() int {
	return c.maxCycle<<1 + 1
}
