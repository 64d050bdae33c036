// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package covariate

import (
	"github.com/grailbio/hts/sam"
)

// ReadGroupCovariate keys a read by its read group.  The reported value is
// the read group's platform unit when the header defines one, and the read
// group ID otherwise.  Every offset and event type gets the same key.
type ReadGroupCovariate struct {
	dict  lockedDict
	force string
}

// NewReadGroupCovariate returns an uninitialized read group covariate.
func NewReadGroupCovariate() *ReadGroupCovariate {
	return &ReadGroupCovariate{dict: newLockedDict()}
}

func (c *ReadGroupCovariate) Kind() Kind   { return KindReadGroup }
func (c *ReadGroupCovariate) Name() string { return KindReadGroup.String() }

// Initialize implements Covariate.
func (c *ReadGroupCovariate) Initialize(opts *Opts) error {
	c.force = opts.ForceReadGroup
	return nil
}

// ReadGroupValue returns the value reported for the read's read group.
func (c *ReadGroupCovariate) ReadGroupValue(r *sam.Record, header *sam.Header) (string, error) {
	if c.force != "" {
		return c.force, nil
	}
	id, ok := ReadGroupID(r)
	if !ok {
		return "", configErrorf("read %s has no read group and no read group override was given", r.Name)
	}
	if rg := findReadGroup(header, id); rg != nil && rg.PlatformUnit() != "" {
		return rg.PlatformUnit(), nil
	}
	return id, nil
}

// RecordValues implements Covariate.
func (c *ReadGroupCovariate) RecordValues(r *sam.Record, header *sam.Header, values *ReadCovariates) error {
	if err := checkStorage(r, values); err != nil {
		return err
	}
	value, err := c.ReadGroupValue(r, header)
	if err != nil {
		return err
	}
	key := c.dict.id(value)
	for i := 0; i < r.Seq.Length; i++ {
		values.AddCovariate(key, key, key, i)
	}
	return nil
}

// FormatKey implements Covariate.
func (c *ReadGroupCovariate) FormatKey(key int) (string, bool) {
	return c.dict.name(key)
}

// KeyFromValue implements Covariate.  Unseen values are assigned a new key.
func (c *ReadGroupCovariate) KeyFromValue(value string) (int, error) {
	return c.dict.id(value), nil
}

// MaximumKeyValue implements Covariate.
func (c *ReadGroupCovariate) MaximumKeyValue() int {
	return c.dict.maxID()
}

func (c *ReadGroupCovariate) keys() *lockedDict { return &c.dict }
