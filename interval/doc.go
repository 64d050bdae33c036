// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package interval holds the target regions that restrict which reads are
// recorded.  Targets come from BED files or region strings; overlapping and
// touching intervals are merged, so a Targets value is a union, not a list.
// It assumes every position fits in a PosType, which is int32 since that's
// what BAM files are limited to.
package interval
