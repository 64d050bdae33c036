// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package recal

import (
	"context"
	"io"
	"runtime"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/bqsr/covariate"
	"github.com/grailbio/hts/sam"
)

// Collector records covariates for batches of reads and accumulates their
// keys.  Add may be called repeatedly; the result is the same as a single
// call with the concatenated batches.
type Collector struct {
	header  *sam.Header
	opts    Opts
	filters []NamedFilter
	census  *Census
}

// NewCollector validates opts and returns an empty Collector.
func NewCollector(header *sam.Header, opts *Opts) (*Collector, error) {
	filters, err := StandardFilters(opts)
	if err != nil {
		return nil, err
	}
	c := &Collector{
		header:  header,
		opts:    *opts,
		filters: filters,
	}
	if c.opts.Parallelism <= 0 {
		c.opts.Parallelism = runtime.NumCPU()
	}
	list, err := c.newCovariateList()
	if err != nil {
		return nil, err
	}
	c.census = newCensus(list, filters)
	return c, nil
}

func (c *Collector) newCovariateList() (*covariate.CovariateList, error) {
	list, err := covariate.NewCovariateList(c.opts.Extra...)
	if err != nil {
		return nil, err
	}
	if err := list.InitializeAll(&c.opts.Covariates); err != nil {
		return nil, err
	}
	return list, nil
}

// accept returns the index of the first filter rejecting r, or -1.
func (c *Collector) accept(r *sam.Record) int {
	for i, f := range c.filters {
		if !f.Accept(r) {
			return i
		}
	}
	return -1
}

// processShard records the reads with a fresh set of covariates, so that the
// shard's dictionary keys follow the shard's read order.
func (c *Collector) processShard(reads []*sam.Record) (*Census, error) {
	list, err := c.newCovariateList()
	if err != nil {
		return nil, err
	}
	census := newCensus(list, c.filters)
	var values *covariate.ReadCovariates
	for _, r := range reads {
		if i := c.accept(r); i >= 0 {
			census.Filtered[i]++
			continue
		}
		if values == nil || values.ReadLength() != r.Seq.Length {
			values = list.NewReadCovariates(r)
		} else {
			values.Clear()
		}
		if err := list.RecordAllValuesInStorage(r, c.header, values); err != nil {
			return nil, errors.E(err, "read", r.Name)
		}
		census.add(values)
	}
	return census, nil
}

// Add records a batch of reads.  The batch is split into contiguous shards
// that are processed in parallel and merged in order.
func (c *Collector) Add(reads []*sam.Record) error {
	if len(reads) == 0 {
		return nil
	}
	parallelism := c.opts.Parallelism
	if parallelism > len(reads) {
		parallelism = len(reads)
	}
	shards := make([]*Census, parallelism)
	err := traverse.Each(parallelism, func(jobIdx int) error {
		startIdx := (jobIdx * len(reads)) / parallelism
		endIdx := ((jobIdx + 1) * len(reads)) / parallelism
		var err error
		shards[jobIdx], err = c.processShard(reads[startIdx:endIdx])
		return err
	})
	if err != nil {
		return err
	}
	dst := c.census.covariates
	remaps := make([][]int, dst.Len())
	for _, shard := range shards {
		for cov := range remaps {
			if remaps[cov], err = covariate.MergeKeys(dst.Get(cov), shard.covariates.Get(cov)); err != nil {
				return err
			}
		}
		c.census.merge(shard, remaps)
	}
	return nil
}

// Census returns the accumulated counts.  It must not be called concurrently
// with Add.
func (c *Collector) Census() *Census { return c.census }

// logSummary prints the read counts, one line per rejecting filter.
func logSummary(census *Census) {
	log.Printf("recal: recorded %d read(s), %d base(s); %d read(s) filtered",
		census.Reads, census.Bases, census.TotalFiltered())
	for i, name := range census.FilterNames() {
		if n := census.Filtered[i]; n > 0 {
			log.Printf("recal: %s rejected %d read(s)", name, n)
		}
	}
}

// Collect records every read in reads.
func Collect(header *sam.Header, reads []*sam.Record, opts *Opts) (*Census, error) {
	c, err := NewCollector(header, opts)
	if err != nil {
		return nil, err
	}
	if err := c.Add(reads); err != nil {
		return nil, err
	}
	logSummary(c.census)
	return c.census, nil
}

// Reader is a stream of reads.  *bam.Reader and *sam.Reader satisfy it.
type Reader interface {
	Read() (*sam.Record, error)
}

// CollectReader records every read produced by r, Opts.BatchSize reads at a
// time.  Records are returned to the sam free pool after use.
func CollectReader(ctx context.Context, header *sam.Header, r Reader, opts *Opts) (*Census, error) {
	c, err := NewCollector(header, opts)
	if err != nil {
		return nil, err
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultOpts.BatchSize
	}
	batch := make([]*sam.Record, 0, batchSize)
	flush := func() error {
		err := c.Add(batch)
		for i, rec := range batch {
			sam.PutInFreePool(rec)
			batch[i] = nil
		}
		batch = batch[:0]
		return err
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		batch = append(batch, rec)
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	logSummary(c.census)
	return c.census, nil
}
