// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package recal

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/grailbio/hts/sam"
	"github.com/stretchr/testify/require"
)

var (
	chr1, chr2 *sam.Reference
	testHeader *sam.Header
)

func init() {
	var err error
	if chr1, err = sam.NewReference("chr1", "", "", 10000, nil, nil); err != nil {
		panic(err)
	}
	if chr2, err = sam.NewReference("chr2", "", "", 10000, nil, nil); err != nil {
		panic(err)
	}
	if testHeader, err = sam.NewHeader(nil, []*sam.Reference{chr1, chr2}); err != nil {
		panic(err)
	}
	for _, idPU := range [][2]string{{"rg1", "flowcell.1"}, {"rg2", ""}, {"rg3", "flowcell.3"}} {
		rg, err := sam.NewReadGroup(idPU[0], "", "", "", "", "ILLUMINA", idPU[1], "sample", "", "", time.Time{}, 0)
		if err != nil {
			panic(err)
		}
		if err := testHeader.AddReadGroup(rg); err != nil {
			panic(err)
		}
	}
}

// newMappedRead returns a forward-strand read on chr1 with MAPQ 60, a full
// match CIGAR, qualities of 30 and read group rg ("" = no RG tag).
func newMappedRead(t *testing.T, name string, pos int, bases, rg string) *sam.Record {
	qual := make([]byte, len(bases))
	for i := range qual {
		qual[i] = 30
	}
	r := &sam.Record{
		Name:    name,
		Ref:     chr1,
		Pos:     pos,
		MateRef: nil,
		MatePos: -1,
		MapQ:    60,
		Cigar:   sam.Cigar{sam.NewCigarOp(sam.CigarMatch, len(bases))},
		Seq:     sam.NewSeq([]byte(bases)),
		Qual:    qual,
	}
	if rg != "" {
		aux, err := sam.NewAux(sam.NewTag("RG"), rg)
		require.NoError(t, err)
		r.AuxFields = append(r.AuxFields, aux)
	}
	return r
}

// randomReads returns n reads spread over three read groups with random
// bases, lengths, strands and mate order.
func randomReads(t *testing.T, seed int64, n int) []*sam.Record {
	rnd := rand.New(rand.NewSource(seed))
	rgs := []string{"rg1", "rg2", "rg3"}
	reads := make([]*sam.Record, n)
	for i := range reads {
		length := 20 + rnd.Intn(60)
		bases := make([]byte, length)
		for j := range bases {
			bases[j] = "ACGT"[rnd.Intn(4)]
		}
		// Read groups appear in a shuffled order to exercise key merging.
		rg := rgs[(i/7+rnd.Intn(2))%len(rgs)]
		r := newMappedRead(t, fmt.Sprintf("read%d", i), rnd.Intn(5000), string(bases), rg)
		for j := range r.Qual {
			r.Qual[j] = byte(rnd.Intn(41))
		}
		if rnd.Intn(2) == 0 {
			r.Flags |= sam.Reverse
		}
		if rnd.Intn(2) == 0 {
			r.Flags |= sam.Paired | sam.Read2
		} else {
			r.Flags |= sam.Paired | sam.Read1
		}
		if rnd.Intn(10) == 0 {
			r.Flags |= sam.Duplicate
		}
		reads[i] = r
	}
	return reads
}
