// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package covariate

import (
	"math/rand"
	"testing"

	"github.com/grailbio/bqsr/biosimd"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func contextOpts(mismatch, indel int) Opts {
	opts := DefaultOpts
	opts.MismatchesContextSize = mismatch
	opts.IndelsContextSize = indel
	return opts
}

func formatted(t *testing.T, c Covariate, keys []int) []string {
	out := make([]string, len(keys))
	for i, key := range keys {
		if key == NoKey {
			out[i] = "-"
			continue
		}
		s, ok := c.FormatKey(key)
		assert.True(t, ok, "key=%d", key)
		out[i] = s
	}
	return out
}

func TestContextBasic(t *testing.T) {
	c := initialized(t, KindContext, contextOpts(3, 3))
	values := record(t, c, newRead(t, "ACGTACGT"), nil)
	keys := values.EventKeys(0, EventMismatch)
	expect.EQ(t, keys[0], NoKey)
	expect.EQ(t, keys[1], NoKey)
	s, ok := c.FormatKey(keys[2])
	expect.True(t, ok)
	expect.EQ(t, s, "ACG")
	expect.EQ(t, formatted(t, c, keys), []string{"-", "-", "ACG", "CGT", "GTA", "TAC", "ACG", "CGT"})
	expect.EQ(t, values.EventKeys(0, EventInsertion), keys)
	expect.EQ(t, values.EventKeys(0, EventDeletion), keys)
}

func TestContextSeparateSizes(t *testing.T) {
	c := initialized(t, KindContext, DefaultOpts)
	values := record(t, c, newRead(t, "ACGTA"), nil)
	expect.EQ(t, formatted(t, c, values.EventKeys(0, EventMismatch)), []string{"-", "AC", "CG", "GT", "TA"})
	expect.EQ(t, formatted(t, c, values.EventKeys(0, EventInsertion)), []string{"-", "-", "ACG", "CGT", "GTA"})
}

func TestContextReverse(t *testing.T) {
	c := initialized(t, KindContext, contextOpts(2, 2))
	r := newRead(t, "AACGT", withFlags(sam.Reverse))
	values := record(t, c, r, nil)
	// Sequenced bases are ACGTT; read offset i is sequencing offset 4-i.
	expect.EQ(t, formatted(t, c, values.EventKeys(0, EventMismatch)), []string{"TT", "GT", "CG", "AC", "-"})
	expect.EQ(t, string(r.Seq.Expand()), "AACGT")
}

func TestContextLowQualityEnds(t *testing.T) {
	c := initialized(t, KindContext, contextOpts(2, 2))
	r := newRead(t, "ACGTACGT")
	r.Qual = []byte{2, 1, 30, 30, 2, 30, 30, 2}
	values := record(t, c, r, nil)
	expect.EQ(t, formatted(t, c, values.EventKeys(0, EventMismatch)), []string{"-", "-", "-", "GT", "TA", "AC", "CG", "-"})
	expect.EQ(t, string(r.Seq.Expand()), "ACGTACGT")

	for i := range r.Qual {
		r.Qual[i] = 2
	}
	values = record(t, c, r, nil)
	expect.EQ(t, formatted(t, c, values.EventKeys(0, EventMismatch)), []string{"-", "-", "-", "-", "-", "-", "-", "-"})
}

func TestContextNonACGT(t *testing.T) {
	c := initialized(t, KindContext, contextOpts(2, 3))
	values := record(t, c, newRead(t, "ACNTAC"), nil)
	expect.EQ(t, formatted(t, c, values.EventKeys(0, EventMismatch)), []string{"-", "AC", "-", "-", "TA", "AC"})
	expect.EQ(t, formatted(t, c, values.EventKeys(0, EventInsertion)), []string{"-", "-", "-", "-", "-", "TAC"})
}

func TestContextRandomReads(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for _, k := range []int{1, 2, 3, 6, 13} {
		c := initialized(t, KindContext, contextOpts(k, k))
		for iter := 0; iter < 50; iter++ {
			bases := randomBases(rnd, 1+rnd.Intn(100))
			var opts []readOpt
			reverse := rnd.Intn(2) == 1
			if reverse {
				opts = append(opts, withFlags(sam.Reverse))
			}
			values := record(t, c, newRead(t, bases, opts...), nil)

			seq := []byte(bases)
			if reverse {
				biosimd.ReverseComp8Inplace(seq)
			}
			for i := range seq {
				offset := i
				if reverse {
					offset = len(seq) - 1 - i
				}
				got := values.Key(0, EventMismatch, offset)
				if i < k-1 {
					expect.EQ(t, got, NoKey, "bases=%s k=%d i=%d", bases, k, i)
					continue
				}
				want, err := c.KeyFromValue(string(seq[i-k+1 : i+1]))
				assert.NoError(t, err)
				expect.EQ(t, got, want, "bases=%s k=%d i=%d", bases, k, i)
				expect.True(t, got <= c.MaximumKeyValue())
			}
		}
	}
}

func TestContextKeys(t *testing.T) {
	c := initialized(t, KindContext, DefaultOpts)
	expect.EQ(t, c.MaximumKeyValue(), 1011)
	key, err := c.KeyFromValue("TTT")
	assert.NoError(t, err)
	expect.EQ(t, key, 1011)
	key, err = c.KeyFromValue("A")
	assert.NoError(t, err)
	expect.EQ(t, key, 1)
	key, err = c.KeyFromValue("CA")
	assert.NoError(t, err)
	expect.EQ(t, key, 2|1<<4)

	for _, bad := range []string{"", "ACGN", "acg", "ACGTACGTACGTAC"} {
		_, err := c.KeyFromValue(bad)
		expect.True(t, IsConfigError(err), "value=%q", bad)
	}
	for _, bad := range []int{-1, 0, 2 | 1<<8, 14} {
		_, ok := c.FormatKey(bad)
		expect.False(t, ok, "key=%d", bad)
	}
}

func TestContextInitialize(t *testing.T) {
	for _, sizes := range [][2]int{{0, 3}, {2, 0}, {14, 3}, {2, 14}} {
		opts := contextOpts(sizes[0], sizes[1])
		expect.True(t, IsConfigError(New(KindContext).Initialize(&opts)), "sizes=%v", sizes)
	}
}

func TestContextMalformedRead(t *testing.T) {
	c := initialized(t, KindContext, DefaultOpts)
	r := newRead(t, "ACGT")
	r.Qual = r.Qual[:3]
	err := c.RecordValues(r, nil, NewReadCovariates(4, 1))
	expect.True(t, IsMalformedRead(err), "err=%v", err)
}
