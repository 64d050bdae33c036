// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package recal

import (
	"io"
	"sort"
	"strconv"

	"github.com/grailbio/base/tsv"
	"github.com/grailbio/bqsr/covariate"
)

// Census counts how often each covariate key was recorded, separately for
// each event type.  A Census belongs to one goroutine.
type Census struct {
	covariates *covariate.CovariateList
	// counts[cov*NumEventTypes+event] holds the counts of one row.
	counts []keyCounts
	// noKey[cov*NumEventTypes+event] counts offsets without a key.
	noKey []int64

	filterNames []string
	// Filtered[i] is the number of reads rejected by filter i.  Each read is
	// charged to the first filter that rejects it.
	Filtered []int64
	// Reads is the number of reads recorded.
	Reads int64
	// Bases is the number of bases in the recorded reads.
	Bases int64
}

func newCensus(covariates *covariate.CovariateList, filters []NamedFilter) *Census {
	n := covariates.Len() * int(covariate.NumEventTypes)
	c := &Census{
		covariates:  covariates,
		counts:      make([]keyCounts, n),
		noKey:       make([]int64, n),
		filterNames: make([]string, len(filters)),
		Filtered:    make([]int64, len(filters)),
	}
	for i, f := range filters {
		c.filterNames[i] = f.Name
	}
	return c
}

// denseKeyLimit bounds the keys counted in keyCounts.dense.  Dictionary keys,
// qualities and cycles of normal reads fall below it; long contexts and
// cycles do not.
const denseKeyLimit = 1 << 12

// keyCounts maps keys to counts.  Keys below denseKeyLimit are stored in a
// slice that grows on demand, larger ones in a map.
type keyCounts struct {
	dense  []int64
	sparse map[int]int64
}

func (k *keyCounts) add(key int, n int64) {
	if key >= denseKeyLimit {
		if k.sparse == nil {
			k.sparse = make(map[int]int64)
		}
		k.sparse[key] += n
		return
	}
	if key >= len(k.dense) {
		grown := make([]int64, key+1, 2*(key+1))
		copy(grown, k.dense)
		k.dense = grown
	}
	k.dense[key] += n
}

func (k *keyCounts) get(key int) int64 {
	if key < 0 {
		return 0
	}
	if key < len(k.dense) {
		return k.dense[key]
	}
	return k.sparse[key]
}

// forEach calls fn for every nonzero count in increasing key order, stopping
// at the first error.
func (k *keyCounts) forEach(fn func(key int, n int64) error) error {
	for key, n := range k.dense {
		if n == 0 {
			continue
		}
		if err := fn(key, n); err != nil {
			return err
		}
	}
	if len(k.sparse) == 0 {
		return nil
	}
	keys := make([]int, 0, len(k.sparse))
	for key := range k.sparse {
		keys = append(keys, key)
	}
	sort.Ints(keys)
	for _, key := range keys {
		if err := fn(key, k.sparse[key]); err != nil {
			return err
		}
	}
	return nil
}

func (c *Census) row(cov int, event covariate.EventType) int {
	return cov*int(covariate.NumEventTypes) + int(event)
}

// add tallies every cell of values.
func (c *Census) add(values *covariate.ReadCovariates) {
	c.Reads++
	c.Bases += int64(values.ReadLength())
	for cov := 0; cov < values.NumCovariates(); cov++ {
		for event := covariate.EventType(0); event < covariate.NumEventTypes; event++ {
			row := c.row(cov, event)
			for _, key := range values.EventKeys(cov, event) {
				if key == covariate.NoKey {
					c.noKey[row]++
					continue
				}
				c.counts[row].add(key, 1)
			}
		}
	}
}

// merge adds src into c.  remaps[cov], if non-nil, translates src keys of
// covariate cov into c's keys.
func (c *Census) merge(src *Census, remaps [][]int) {
	c.Reads += src.Reads
	c.Bases += src.Bases
	for i, n := range src.Filtered {
		c.Filtered[i] += n
	}
	for cov := 0; cov < c.covariates.Len(); cov++ {
		remap := remaps[cov]
		for event := covariate.EventType(0); event < covariate.NumEventTypes; event++ {
			row := c.row(cov, event)
			c.noKey[row] += src.noKey[row]
			counts := &c.counts[row]
			_ = src.counts[row].forEach(func(key int, n int64) error {
				if remap != nil {
					key = remap[key]
				}
				counts.add(key, n)
				return nil
			})
		}
	}
}

// Covariates returns the covariates whose keys the census holds.
func (c *Census) Covariates() *covariate.CovariateList { return c.covariates }

// Count returns the number of times key was recorded for the covariate at
// index cov and the given event type.
func (c *Census) Count(cov int, event covariate.EventType, key int) int64 {
	return c.counts[c.row(cov, event)].get(key)
}

// NoKeyCount returns the number of offsets that had no key.
func (c *Census) NoKeyCount(cov int, event covariate.EventType) int64 {
	return c.noKey[c.row(cov, event)]
}

// FilterNames returns the names of the filters, in the order of Filtered.
func (c *Census) FilterNames() []string { return c.filterNames }

// TotalFiltered returns the number of reads rejected by any filter.
func (c *Census) TotalFiltered() int64 {
	var total int64
	for _, n := range c.Filtered {
		total += n
	}
	return total
}

// WriteTSV writes one line per nonzero (covariate, event, key) count, in
// covariate order, then event order, then key order.  Columns are
// COVARIATE, EVENT, KEY, VALUE, COUNT.
func (c *Census) WriteTSV(w io.Writer) error {
	tw := tsv.NewWriter(w)
	tw.WriteString("#COVARIATE\tEVENT\tKEY\tVALUE\tCOUNT")
	if err := tw.EndLine(); err != nil {
		return err
	}
	for cov, cv := range c.covariates.Covariates() {
		for event := covariate.EventType(0); event < covariate.NumEventTypes; event++ {
			err := c.counts[c.row(cov, event)].forEach(func(key int, n int64) error {
				value, ok := cv.FormatKey(key)
				if !ok {
					value = "?" + strconv.Itoa(key)
				}
				tw.WriteString(cv.Name())
				tw.WriteString(event.String())
				tw.WriteInt64(int64(key))
				tw.WriteString(value)
				tw.WriteInt64(n)
				return tw.EndLine()
			})
			if err != nil {
				return err
			}
		}
	}
	return tw.Flush()
}
