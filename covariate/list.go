// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package covariate

import (
	"fmt"
	"strings"

	"github.com/grailbio/hts/sam"
)

// standardKinds is the fixed order of the required covariates.  Report
// consumers depend on these positions.
var standardKinds = []Kind{KindReadGroup, KindQualityScore, KindContext, KindCycle}

// CovariateList is the ordered set of covariates recorded for every read.
// The first four entries are always ReadGroup, QualityScore, Context and
// Cycle, in that order.  The list itself is immutable after construction.
type CovariateList struct {
	covariates []Covariate
}

// NewStandardCovariateList returns the four required covariates.
func NewStandardCovariateList() *CovariateList {
	l, err := NewCovariateList()
	if err != nil {
		panic(err)
	}
	return l
}

// NewCovariateList returns the four required covariates followed by extra.
// Each kind may appear only once.
func NewCovariateList(extra ...Kind) (*CovariateList, error) {
	l := &CovariateList{}
	seen := make(map[Kind]bool)
	for _, kind := range append(append([]Kind(nil), standardKinds...), extra...) {
		if kind < 0 || kind >= numKinds {
			return nil, configErrorf("unknown covariate kind %d", int(kind))
		}
		if seen[kind] {
			return nil, configErrorf("covariate %v listed more than once", kind)
		}
		seen[kind] = true
		l.covariates = append(l.covariates, New(kind))
	}
	return l, nil
}

// Len returns the number of covariates.
func (l *CovariateList) Len() int { return len(l.covariates) }

// Get returns the i'th covariate.  It panics if i is out of range.
func (l *CovariateList) Get(i int) Covariate {
	if i < 0 || i >= len(l.covariates) {
		panic(fmt.Sprintf("CovariateList.Get: index %d out of range [0, %d)", i, len(l.covariates)))
	}
	return l.covariates[i]
}

// Covariates returns the covariates in order.  The caller must not modify the
// result.
func (l *CovariateList) Covariates() []Covariate { return l.covariates }

// IndexOf returns the position of the covariate of the given kind, or -1.
func (l *CovariateList) IndexOf(kind Kind) int {
	for i, c := range l.covariates {
		if c.Kind() == kind {
			return i
		}
	}
	return -1
}

// InitializeAll initializes every covariate from opts, stopping at the first
// error.
func (l *CovariateList) InitializeAll(opts *Opts) error {
	for _, c := range l.covariates {
		if err := c.Initialize(opts); err != nil {
			return err
		}
	}
	return nil
}

// RecordAllValuesInStorage validates the read, then has each covariate record
// its keys into its own slot of values.
func (l *CovariateList) RecordAllValuesInStorage(r *sam.Record, header *sam.Header, values *ReadCovariates) error {
	if err := ValidateRead(r); err != nil {
		return err
	}
	if values.NumCovariates() != len(l.covariates) {
		return storageErrorf("storage has %d covariate slots, list has %d covariates", values.NumCovariates(), len(l.covariates))
	}
	for i, c := range l.covariates {
		values.SetCovariateIndex(i)
		if err := c.RecordValues(r, header, values); err != nil {
			return err
		}
	}
	return nil
}

// Names returns the covariate names in order, e.g. "ReadGroup".
func (l *CovariateList) Names() []string {
	names := make([]string, len(l.covariates))
	for i, c := range l.covariates {
		names[i] = c.Name()
	}
	return names
}

// CovariateNames returns the comma-joined long names in order, e.g.
// "ReadGroupCovariate,QualityScoreCovariate,ContextCovariate,CycleCovariate".
func (l *CovariateList) CovariateNames() string {
	names := make([]string, len(l.covariates))
	for i, c := range l.covariates {
		names[i] = c.Kind().ClassName()
	}
	return strings.Join(names, ",")
}

// ByParsedName returns the covariate whose Name is name, or nil.
func (l *CovariateList) ByParsedName(name string) Covariate {
	for _, c := range l.covariates {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

// ReadGroup returns the read group covariate.
func (l *CovariateList) ReadGroup() *ReadGroupCovariate {
	return l.covariates[0].(*ReadGroupCovariate)
}

// QualityScore returns the quality score covariate.
func (l *CovariateList) QualityScore() *QualityScoreCovariate {
	return l.covariates[1].(*QualityScoreCovariate)
}

// Additional returns the covariates after ReadGroup and QualityScore.
func (l *CovariateList) Additional() []Covariate {
	return l.covariates[2:]
}

// NewReadCovariates allocates storage sized for r and this list.
func (l *CovariateList) NewReadCovariates(r *sam.Record) *ReadCovariates {
	return NewReadCovariates(r.Seq.Length, len(l.covariates))
}
