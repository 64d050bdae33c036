// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package recal

import (
	"github.com/grailbio/bqsr/covariate"
)

// Opts configures a Collector.
type Opts struct {
	// Covariates holds the settings passed to Covariate.Initialize.
	Covariates covariate.Opts
	// Extra lists covariates recorded after the standard four.
	Extra []covariate.Kind
	// Parallelism is the number of shards each batch is split into.
	// 0 = runtime.NumCPU().
	Parallelism int
	// BatchSize is the number of reads CollectReader buffers before handing
	// them to Collector.Add.
	BatchSize int
	// MinMapQ is the smallest mapping quality accepted.  Reads with MAPQ 255
	// (unavailable) are always rejected.
	MinMapQ int
	// MaxInsertSize, if positive, rejects paired reads whose template length
	// exceeds it in absolute value.
	MaxInsertSize int
	// Filter is an optional expression each read must satisfy; see
	// ParseFilter.
	Filter string
	// BedPath, if nonempty, restricts recording to reads overlapping the BED
	// intervals.  At most one of BedPath and Region may be set.
	BedPath string
	// Region, if nonempty, restricts recording to reads overlapping the
	// region, formatted as <contig>:<1-based first pos>-<last pos>,
	// <contig>:<1-based pos>, or <contig>.
	Region string
}

// DefaultOpts is the standard setup.
var DefaultOpts = Opts{
	Covariates:  covariate.DefaultOpts,
	Parallelism: 0,
	BatchSize:   1 << 16,
	MinMapQ:     1,
}
