// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package covariate

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/grailbio/hts/sam"
)

// Kind identifies a covariate variant.
type Kind int

const (
	KindReadGroup Kind = iota
	KindQualityScore
	KindContext
	KindCycle
	KindRepeatUnit
	KindRepeatLength
	KindRepeatUnitAndLength
	numKinds
)

var kindNames = [numKinds]string{
	"ReadGroup",
	"QualityScore",
	"Context",
	"Cycle",
	"RepeatUnit",
	"RepeatLength",
	"RepeatUnitAndLength",
}

// String returns the name used in reports, e.g. "Cycle".
func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ClassName returns the long form of the name, e.g. "CycleCovariate".
func (k Kind) ClassName() string {
	return k.String() + "Covariate"
}

// ParseKind is the inverse of Kind.String.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return 0, false
}

// Covariate converts (read, offset, event type) into a key.
//
// The set of implementations is closed; use New to create one.
type Covariate interface {
	// Kind identifies the variant.
	Kind() Kind
	// Name returns the report name, Kind().String().
	Name() string
	// Initialize reads the variant's settings.  It must be called before the
	// first RecordValues call.
	Initialize(opts *Opts) error
	// RecordValues writes this covariate's keys for every offset of read into
	// the currently selected slot of values.
	RecordValues(read *sam.Record, header *sam.Header, values *ReadCovariates) error
	// FormatKey returns the value that key stands for, or false if key was
	// never produced.
	FormatKey(key int) (string, bool)
	// KeyFromValue returns the key for a formatted value, assigning one if the
	// variant allocates keys dynamically.
	KeyFromValue(value string) (int, error)
	// MaximumKeyValue returns the largest key the covariate can currently
	// produce.  For dynamically keyed variants it grows as new values are seen.
	MaximumKeyValue() int

	// keys returns the dictionary behind dynamically assigned keys, or nil.
	keys() *lockedDict
}

// New creates an uninitialized covariate of the given kind.
func New(kind Kind) Covariate {
	switch kind {
	case KindReadGroup:
		return NewReadGroupCovariate()
	case KindQualityScore:
		return &QualityScoreCovariate{}
	case KindContext:
		return &ContextCovariate{}
	case KindCycle:
		return &CycleCovariate{}
	case KindRepeatUnit:
		return newRepeatCovariate(KindRepeatUnit)
	case KindRepeatLength:
		return newRepeatCovariate(KindRepeatLength)
	case KindRepeatUnitAndLength:
		return newRepeatCovariate(KindRepeatUnitAndLength)
	}
	panic(fmt.Sprintf("covariate.New: unknown kind %d", int(kind)))
}

// MergeKeys folds src's dynamically assigned keys into dst, and returns a
// table that maps each src key to the equivalent dst key.  It returns nil when
// the variant's keys are computed rather than assigned, in which case keys are
// already comparable across instances.  Concurrent merges are safe in any
// direction.
func MergeKeys(dst, src Covariate) ([]int, error) {
	if dst.Kind() != src.Kind() {
		return nil, configErrorf("cannot merge %v keys into %v", src.Kind(), dst.Kind())
	}
	srcKeys, dstKeys := src.keys(), dst.keys()
	if srcKeys == nil {
		return nil, nil
	}
	if srcKeys == dstKeys {
		srcKeys.mu.Lock()
		defer srcKeys.mu.Unlock()
		remap := make([]int, srcKeys.dict.Len())
		for i := range remap {
			remap[i] = i
		}
		return remap, nil
	}
	// Locks are always taken in creation order.
	first, second := srcKeys, dstKeys
	if second.seq < first.seq {
		first, second = second, first
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()
	return dstKeys.dict.Merge(srcKeys.dict), nil
}

// lockedDict is a KeyDict whose mutation is serialized.
type lockedDict struct {
	mu   sync.Mutex
	dict *KeyDict
	// seq orders lock acquisition across dictionaries.
	seq uint64
}

var lockedDictSeq uint64

func newLockedDict() lockedDict {
	return lockedDict{dict: NewKeyDict(), seq: atomic.AddUint64(&lockedDictSeq, 1)}
}

func (l *lockedDict) id(value string) int {
	l.mu.Lock()
	id := l.dict.ID(value)
	l.mu.Unlock()
	return id
}

func (l *lockedDict) name(id int) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dict.Name(id)
}

func (l *lockedDict) maxID() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dict.MaxID()
}

// noDict is embedded by covariates whose keys are computed.
type noDict struct{}

func (noDict) keys() *lockedDict { return nil }
