// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package interval

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/hts/sam"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/klauspost/compress/gzip"
)

const testBED = `track name=test
# comment
chr1	10	20
chr1	15	30
chr1	40	50
chr2	0	5

chr1	30	35
`

func TestReadBEDAndMerge(t *testing.T) {
	regions, err := ReadBED(strings.NewReader(testBED))
	assert.NoError(t, err)
	expect.EQ(t, len(regions), 5)
	targets, err := NewTargets(regions)
	assert.NoError(t, err)
	expect.EQ(t, targets.refs["chr1"], []PosType{10, 35, 40, 50})
	expect.EQ(t, targets.refs["chr2"], []PosType{0, 5})
	expect.EQ(t, targets.Bases(), int64(25+10+5))
	expect.EQ(t, targets.RefNames(), []string{"chr1", "chr2"})
}

func TestReadBEDErrors(t *testing.T) {
	for _, in := range []string{
		"chr1\t10\n",
		"chr1\tx\t20\n",
		"chr1\t20\t10\n",
		"chr1\t-1\t10\n",
	} {
		_, err := ReadBED(strings.NewReader(in))
		expect.True(t, err != nil, "input %q", in)
	}
}

func TestContainsOverlaps(t *testing.T) {
	targets, err := NewTargets([]Region{
		{"chr1", 10, 20},
		{"chr1", 30, 40},
	})
	assert.NoError(t, err)
	expect.False(t, targets.Contains("chr1", 9))
	expect.True(t, targets.Contains("chr1", 10))
	expect.True(t, targets.Contains("chr1", 19))
	expect.False(t, targets.Contains("chr1", 20))
	expect.False(t, targets.Contains("chr2", 15))

	expect.True(t, targets.Overlaps("chr1", 0, 11))
	expect.False(t, targets.Overlaps("chr1", 0, 10))
	expect.False(t, targets.Overlaps("chr1", 20, 30))
	expect.True(t, targets.Overlaps("chr1", 20, 31))
	expect.True(t, targets.Overlaps("chr1", 15, 16))
	expect.True(t, targets.Overlaps("chr1", 5, 50))
	expect.False(t, targets.Overlaps("chr1", 40, 100))
	expect.False(t, targets.Overlaps("chr1", 15, 15))
}

func TestOverlapsRead(t *testing.T) {
	ref, err := sam.NewReference("chr1", "", "", 1000, nil, nil)
	assert.NoError(t, err)
	targets, err := NewTargets([]Region{{"chr1", 100, 200}})
	assert.NoError(t, err)

	newRead := func(pos int, flags sam.Flags) *sam.Record {
		r, err := sam.NewRecord("r", ref, nil, pos, -1, 0, 60,
			[]sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, 10)},
			[]byte("ACGTACGTAC"), []byte{30, 30, 30, 30, 30, 30, 30, 30, 30, 30}, nil)
		assert.NoError(t, err)
		r.Flags = flags
		return r
	}
	expect.True(t, targets.OverlapsRead(newRead(95, 0)))
	expect.False(t, targets.OverlapsRead(newRead(90, 0)))
	expect.True(t, targets.OverlapsRead(newRead(199, 0)))
	expect.False(t, targets.OverlapsRead(newRead(200, 0)))
	expect.False(t, targets.OverlapsRead(newRead(150, sam.Unmapped)))
}

func TestNewTargetsFromPath(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	plainPath := filepath.Join(tmpdir, "targets.bed")
	assert.NoError(t, ioutil.WriteFile(plainPath, []byte(testBED), 0644))

	gzPath := filepath.Join(tmpdir, "targets.bed.gz")
	f, err := os.Create(gzPath)
	assert.NoError(t, err)
	w := gzip.NewWriter(f)
	_, err = w.Write([]byte(testBED))
	assert.NoError(t, err)
	assert.NoError(t, w.Close())
	assert.NoError(t, f.Close())

	for _, path := range []string{plainPath, gzPath} {
		targets, err := NewTargetsFromPath(path)
		assert.NoError(t, err)
		expect.EQ(t, targets.refs["chr1"], []PosType{10, 35, 40, 50})
	}
}

func TestParseRegionString(t *testing.T) {
	tests := []struct {
		region string
		want   Region
		ok     bool
	}{
		{"chr1:1,001-2,000", Region{"chr1", 1000, 2000}, true},
		{"chr1:5", Region{"chr1", 4, 5}, true},
		{"chrX", Region{"chrX", 0, posTypeMax - 1}, true},
		{"HLA-A*01:01:01:01", Region{"HLA-A*01:01:01", 0, 1}, true},
		{"chr1:0", Region{}, false},
		{"chr1:10-5", Region{}, false},
		{":1-5", Region{}, false},
		{"", Region{}, false},
	}
	for _, tt := range tests {
		got, err := ParseRegionString(tt.region)
		if !tt.ok {
			expect.True(t, err != nil, "region %q", tt.region)
			continue
		}
		assert.NoError(t, err)
		expect.EQ(t, got, tt.want)
	}
}
