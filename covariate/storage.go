// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package covariate

import (
	"fmt"
)

// EventType is one of the three error models recalibration tracks.
type EventType int

const (
	// EventMismatch is a base substitution.
	EventMismatch EventType = iota
	// EventInsertion is an insertion in the read.
	EventInsertion
	// EventDeletion is a deletion from the read.
	EventDeletion
	// NumEventTypes is the number of event types.
	NumEventTypes
)

var eventTypeNames = [NumEventTypes]string{"M", "I", "D"}

// String returns the one-letter representation used in reports.
func (e EventType) String() string {
	if e < 0 || e >= NumEventTypes {
		return fmt.Sprintf("EventType(%d)", int(e))
	}
	return eventTypeNames[e]
}

// NoKey marks a (covariate, event, offset) cell that has no value.
const NoKey = -1

// ReadCovariates holds the keys computed for one read.  It is a dense
// [covariate][event type][read offset] grid.  Covariates write into it through
// AddCovariate after the owner selects their slot with SetCovariateIndex.
//
// A ReadCovariates belongs to the goroutine processing its read.
type ReadCovariates struct {
	keys          []int
	readLength    int
	numCovariates int
	current       int
}

// NewReadCovariates allocates a grid for a read of the given length, with
// every cell set to NoKey.
func NewReadCovariates(readLength, numCovariates int) *ReadCovariates {
	rc := &ReadCovariates{
		keys:          make([]int, readLength*numCovariates*int(NumEventTypes)),
		readLength:    readLength,
		numCovariates: numCovariates,
	}
	rc.Clear()
	return rc
}

// ReadLength returns the number of offsets per (covariate, event) row.
func (rc *ReadCovariates) ReadLength() int { return rc.readLength }

// NumCovariates returns the number of covariate slots.
func (rc *ReadCovariates) NumCovariates() int { return rc.numCovariates }

// Clear resets every cell to NoKey.
func (rc *ReadCovariates) Clear() {
	for i := range rc.keys {
		rc.keys[i] = NoKey
	}
	rc.current = 0
}

// SetCovariateIndex selects the slot written by subsequent AddCovariate calls.
func (rc *ReadCovariates) SetCovariateIndex(index int) {
	if index < 0 || index >= rc.numCovariates {
		panic(fmt.Sprintf("ReadCovariates.SetCovariateIndex: index %d out of range [0, %d)", index, rc.numCovariates))
	}
	rc.current = index
}

func (rc *ReadCovariates) row(cov int, event EventType) int {
	return (cov*int(NumEventTypes) + int(event)) * rc.readLength
}

// AddCovariate stores the keys of the current covariate for the three event
// types at readOffset.
func (rc *ReadCovariates) AddCovariate(mismatch, insertion, deletion, readOffset int) {
	rc.keys[rc.row(rc.current, EventMismatch)+readOffset] = mismatch
	rc.keys[rc.row(rc.current, EventInsertion)+readOffset] = insertion
	rc.keys[rc.row(rc.current, EventDeletion)+readOffset] = deletion
}

// Key returns one cell of the grid.
func (rc *ReadCovariates) Key(cov int, event EventType, readOffset int) int {
	return rc.keys[rc.row(cov, event)+readOffset]
}

// EventKeys returns the keys of one covariate for one event type, indexed by
// read offset.  The result aliases the grid.
func (rc *ReadCovariates) EventKeys(cov int, event EventType) []int {
	start := rc.row(cov, event)
	return rc.keys[start : start+rc.readLength : start+rc.readLength]
}

// KeySet appends the keys of every covariate at readOffset for the given
// event type to dst[:0], in covariate order.
func (rc *ReadCovariates) KeySet(event EventType, readOffset int, dst []int) []int {
	dst = dst[:0]
	for cov := 0; cov < rc.numCovariates; cov++ {
		dst = append(dst, rc.Key(cov, event, readOffset))
	}
	return dst
}

// Equal reports whether two grids have the same shape and contents.
func (rc *ReadCovariates) Equal(other *ReadCovariates) bool {
	if rc.readLength != other.readLength || rc.numCovariates != other.numCovariates {
		return false
	}
	for i, key := range rc.keys {
		if other.keys[i] != key {
			return false
		}
	}
	return true
}
