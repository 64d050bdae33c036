// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package covariate

import (
	"math/rand"
	"testing"
	"time"

	"github.com/grailbio/hts/sam"
	"github.com/grailbio/testutil/assert"
)

type readOpt func(t *testing.T, r *sam.Record)

func withFlags(flags sam.Flags) readOpt {
	return func(t *testing.T, r *sam.Record) { r.Flags |= flags }
}

func withAux(tag string, value interface{}) readOpt {
	return func(t *testing.T, r *sam.Record) {
		aux, err := sam.NewAux(sam.NewTag(tag), value)
		assert.NoError(t, err)
		r.AuxFields = append(r.AuxFields, aux)
	}
}

func withRG(id string) readOpt { return withAux("RG", id) }

// newRead returns an unaligned read with the given bases and all qualities
// set to 30.
func newRead(t *testing.T, bases string, opts ...readOpt) *sam.Record {
	qual := make([]byte, len(bases))
	for i := range qual {
		qual[i] = 30
	}
	r := &sam.Record{
		Name: "read",
		Seq:  sam.NewSeq([]byte(bases)),
		Qual: qual,
	}
	for _, opt := range opts {
		opt(t, r)
	}
	return r
}

func newHeader(t *testing.T, rgs ...[2]string) *sam.Header {
	h, err := sam.NewHeader(nil, nil)
	assert.NoError(t, err)
	for _, idPU := range rgs {
		rg, err := sam.NewReadGroup(idPU[0], "", "", "", "", "ILLUMINA", idPU[1], "sample", "", "", time.Time{}, 0)
		assert.NoError(t, err)
		assert.NoError(t, h.AddReadGroup(rg))
	}
	return h
}

const acgt = "ACGT"

func randomBases(rnd *rand.Rand, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = acgt[rnd.Intn(4)]
	}
	return string(b)
}

func initialized(t *testing.T, kind Kind, opts Opts) Covariate {
	c := New(kind)
	assert.NoError(t, c.Initialize(&opts))
	return c
}

func record(t *testing.T, c Covariate, r *sam.Record, h *sam.Header) *ReadCovariates {
	values := NewReadCovariates(r.Seq.Length, 1)
	assert.NoError(t, c.RecordValues(r, h, values))
	return values
}
