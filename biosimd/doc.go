// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package biosimd provides table-driven operations on ASCII base and phred
// quality arrays that run once per read in the covariate inner loops:
// reverse-complementing, ACGT validation and 2-bit coding, and masking of
// low-quality read ends.
//
// All functions operate on plain slices and never allocate.  See
// base/simd/doc.go for the conventions shared with the byte-array helpers
// used here.
package biosimd
