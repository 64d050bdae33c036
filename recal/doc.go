// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

/*
Package recal drives covariate recording over many reads.  It filters reads
the way a base quality recalibration walker does, records every covariate
for the survivors, and tallies the resulting keys into a Census.

Reads are split into contiguous shards that are processed in parallel, each
with its own covariate instances.  Shard results are merged in shard order,
so dictionary keys (read groups, repeat units) are assigned in the order the
values first appear in the input no matter how many workers ran.
*/
package recal
