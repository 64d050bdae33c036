// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

/*
Package covariate computes the per-base covariates used by base quality score
recalibration (BQSR).

A covariate converts some feature of a read at a given position (its read
group, the sequencing cycle, the preceding bases, the surrounding tandem
repeat) into a small non-negative integer key.  Keys are written into a
ReadCovariates grid indexed by [covariate][event type][read offset], which a
downstream aggregator turns into error-rate tables.

Typical usage:

	list := covariate.NewStandardCovariateList()
	if err := list.InitializeAll(&covariate.DefaultOpts); err != nil {
	  ...
	}
	for each read {
	  values := covariate.NewReadCovariates(len(read.Qual), list.Len())
	  if err := list.RecordAllValuesInStorage(read, header, values); err != nil {
	    ...
	  }
	  // consume values
	}

Covariates whose keys are assigned dynamically (read group, repeat) own a
KeyDict.  Key values then depend on the order in which values are first
observed, so a covariate instance that is shared between goroutines produces
run-order-dependent keys.  The dictionary mutation is locked, so sharing is
memory-safe, but callers that need reproducible keys should give each
goroutine its own CovariateList and combine the results with MergeKeys, as
package recal does.
*/
package covariate
