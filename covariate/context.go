// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package covariate

import (
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/bqsr/biosimd"
	"github.com/grailbio/hts/sam"
)

// Context keys pack a k-mer into an int.  The low contextLengthBits bits hold
// k, and base j of the k-mer occupies the two bits starting at
// contextLengthBits+2*j, coded A=0 C=1 G=2 T=3.
const (
	contextLengthBits = 4
	contextLengthMask = 1<<contextLengthBits - 1
)

// ContextCovariate keys each base by the k bases ending at it, in sequencing
// order.  Mismatch and indel events use separate k.  Low-quality read ends are
// masked before the k-mers are taken, so any window touching them, or
// starting before the first base, has NoKey.
type ContextCovariate struct {
	noDict
	mismatchesSize int
	indelsSize     int
	lowQualTail    byte
}

func (c *ContextCovariate) Kind() Kind   { return KindContext }
func (c *ContextCovariate) Name() string { return KindContext.String() }

// Initialize implements Covariate.
func (c *ContextCovariate) Initialize(opts *Opts) error {
	if err := opts.validateContext(); err != nil {
		return err
	}
	c.mismatchesSize = opts.MismatchesContextSize
	c.indelsSize = opts.IndelsContextSize
	c.lowQualTail = opts.LowQualTail
	return nil
}

// contextKey returns the key of the k-mer ending at bases[end], or NoKey.
func contextKey(bases []byte, end, k int) int {
	start := end - k + 1
	if start < 0 {
		return NoKey
	}
	key := k
	for j, b := range bases[start : end+1] {
		code := biosimd.BaseIndex(b)
		if code == biosimd.NonACGT {
			return NoKey
		}
		key |= code << uint(contextLengthBits+2*j)
	}
	return key
}

// RecordValues implements Covariate.
func (c *ContextCovariate) RecordValues(r *sam.Record, header *sam.Header, values *ReadCovariates) error {
	if err := checkStorage(r, values); err != nil {
		return err
	}
	if err := ValidateRead(r); err != nil {
		return err
	}
	readLength := r.Seq.Length
	reverse := isReverse(r)
	bases := strandedBases(r, true, c.lowQualTail)
	for i := 0; i < readLength; i++ {
		mismatch := contextKey(bases, i, c.mismatchesSize)
		indel := contextKey(bases, i, c.indelsSize)
		values.AddCovariate(mismatch, indel, indel, sequencingOffset(i, readLength, reverse))
	}
	return nil
}

// FormatKey implements Covariate.
func (c *ContextCovariate) FormatKey(key int) (string, bool) {
	if key < 0 {
		return "", false
	}
	k := key & contextLengthMask
	if k == 0 || k > maxContextSize || key>>uint(contextLengthBits+2*k) != 0 {
		return "", false
	}
	kmer := make([]byte, k)
	for j := range kmer {
		kmer[j] = biosimd.BaseFromIndex(key >> uint(contextLengthBits+2*j))
	}
	return gunsafe.BytesToString(kmer), true
}

// KeyFromValue implements Covariate.
func (c *ContextCovariate) KeyFromValue(value string) (int, error) {
	kmer := gunsafe.StringToBytes(value)
	if len(kmer) == 0 || len(kmer) > maxContextSize || biosimd.IsNonACGTPresent(kmer) {
		return 0, configErrorf("invalid context %q", value)
	}
	return contextKey(kmer, len(kmer)-1, len(kmer)), nil
}

// MaximumKeyValue implements Covariate.
func (c *ContextCovariate) MaximumKeyValue() int {
	k := c.mismatchesSize
	if c.indelsSize > k {
		k = c.indelsSize
	}
	return k | (1<<uint(2*k)-1)<<contextLengthBits
}
