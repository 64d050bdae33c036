// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

/*
bio-bqsr-covariates records base quality recalibration covariates for every
read in a BAM or SAM file and writes a census of the resulting keys.

Usage:

	bio-bqsr-covariates [OPTIONS] input.{bam,sam,sam.gz}

Reads go through the standard recalibration filters (mapped, primary, not
duplicate, passing vendor QC, MAPQ available and nonzero, no N CIGAR
operators, has a read group), then optional -min-mapq, -max-insert-size,
-bed/-region and -filter restrictions.  For each surviving read the
ReadGroup, QualityScore, Context and Cycle covariates, plus any listed in
-covariates, are computed at every base for the mismatch, insertion and
deletion events.

The output TSV has one line per (covariate, event, key) that was seen:

	#COVARIATE  EVENT  KEY  VALUE  COUNT
	ReadGroup   M      0    HXXXX.1  1520000
	Context     M      37   CA     81235
	...

VALUE is the key's human-readable form.  Keys of dictionary-backed
covariates (ReadGroup and the repeat covariates) are numbered in the order
their values first appear in the input, independent of -parallelism.  An
output path ending in .gz is BGZF-compressed.
*/
package main
