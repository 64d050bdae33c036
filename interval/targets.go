// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package interval

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hts/sam"
	"github.com/klauspost/compress/gzip"
)

// PosType is the coordinate type.
type PosType int32

const posTypeMax = math.MaxInt32

// Region is a single interval, with 0-based half-open coordinates.
type Region struct {
	RefName string
	Start0  PosType
	End     PosType
}

func (r Region) String() string {
	return fmt.Sprintf("%s:%d-%d", r.RefName, r.Start0+1, r.End)
}

// Targets is a union of intervals.  For each reference, the merged intervals
// are stored as a flat sorted endpoint list: interval k is
// [ends[2k], ends[2k+1]).  A position is covered iff the number of endpoints
// <= it is odd.
//
// Targets is immutable after construction and safe for concurrent use.
type Targets struct {
	refs  map[string][]PosType
	bases int64
}

// NewTargets builds the union of the given regions, in any order.
func NewTargets(regions []Region) (*Targets, error) {
	sorted := make([]Region, 0, len(regions))
	for _, r := range regions {
		if r.Start0 < 0 || r.End < r.Start0 || r.End >= posTypeMax {
			return nil, fmt.Errorf("interval.NewTargets: invalid region %v", r)
		}
		if r.End > r.Start0 {
			sorted = append(sorted, r)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].RefName != sorted[j].RefName {
			return sorted[i].RefName < sorted[j].RefName
		}
		return sorted[i].Start0 < sorted[j].Start0
	})
	t := &Targets{refs: make(map[string][]PosType)}
	for _, r := range sorted {
		ends := t.refs[r.RefName]
		if n := len(ends); n > 0 && r.Start0 <= ends[n-1] {
			if r.End > ends[n-1] {
				t.bases += int64(r.End - ends[n-1])
				ends[n-1] = r.End
			}
			continue
		}
		t.refs[r.RefName] = append(ends, r.Start0, r.End)
		t.bases += int64(r.End - r.Start0)
	}
	return t, nil
}

// getTokens identifies up to the first len(tokens) tokens from curLine,
// returning the number of tokens saved.  Any (group of) characters <= ' ' is
// treated as a delimiter.
func getTokens(tokens [][]byte, curLine []byte) int {
	posEnd := 0
	lineLen := len(curLine)
	for tokenIdx := range tokens {
		pos := posEnd
		for ; pos != lineLen; pos++ {
			if curLine[pos] > ' ' {
				break
			}
		}
		if pos == lineLen {
			return tokenIdx
		}
		posEnd = pos
		for ; posEnd != lineLen; posEnd++ {
			if curLine[posEnd] <= ' ' {
				break
			}
		}
		tokens[tokenIdx] = curLine[pos:posEnd]
	}
	return len(tokens)
}

// ReadBED parses the first three columns of a BED file.  Header, track and
// comment lines are skipped.  Lines need not be sorted.
func ReadBED(reader io.Reader) ([]Region, error) {
	scanner := bufio.NewScanner(reader)
	var (
		tokens  [3][]byte
		regions []Region
	)
	lineIdx := 0
	for scanner.Scan() {
		lineIdx++
		curLine := scanner.Bytes()
		if len(curLine) > 0 && curLine[0] == '#' {
			continue
		}
		nToken := getTokens(tokens[:], curLine)
		if nToken == 0 {
			continue
		}
		if s := gunsafe.BytesToString(tokens[0]); s == "track" || s == "browser" {
			continue
		}
		if nToken != 3 {
			return nil, fmt.Errorf("interval.ReadBED: line %d has fewer tokens than expected", lineIdx)
		}
		start, err := strconv.Atoi(gunsafe.BytesToString(tokens[1]))
		if err != nil {
			return nil, fmt.Errorf("interval.ReadBED: line %d: %v", lineIdx, err)
		}
		end, err := strconv.Atoi(gunsafe.BytesToString(tokens[2]))
		if err != nil {
			return nil, fmt.Errorf("interval.ReadBED: line %d: %v", lineIdx, err)
		}
		if start < 0 || end < start || end >= posTypeMax {
			return nil, fmt.Errorf("interval.ReadBED: invalid coordinate pair on line %d", lineIdx)
		}
		regions = append(regions, Region{
			// Copy; tokens point into the scanner's buffer.
			RefName: string(tokens[0]),
			Start0:  PosType(start),
			End:     PosType(end),
		})
	}
	return regions, scanner.Err()
}

// NewTargetsFromPath loads a BED file, which may be gzipped.
func NewTargetsFromPath(path string) (t *Targets, err error) {
	ctx := vcontext.Background()
	var infile file.File
	if infile, err = file.Open(ctx, path); err != nil {
		return
	}
	defer file.CloseAndReport(ctx, infile, &err)
	reader := io.Reader(infile.Reader(ctx))
	if fileio.DetermineType(path) == fileio.Gzip {
		if reader, err = gzip.NewReader(reader); err != nil {
			return
		}
	}
	var regions []Region
	if regions, err = ReadBED(reader); err != nil {
		return
	}
	if t, err = NewTargets(regions); err != nil {
		return
	}
	log.Printf("%s: %d target base(s) on %d reference(s)", path, t.bases, len(t.refs))
	return
}

// ParseRegionString parses a region string of one of the forms
//
//	[contig ID]:[1-based first pos]-[last pos]
//	[contig ID]:[1-based pos]
//	[contig ID]
//
// returning a contig ID and 0-based interval boundaries.  The interval
// [0, posTypeMax - 1] is returned if there is no positional restriction.
func ParseRegionString(region string) (result Region, err error) {
	if len(region) == 0 {
		err = fmt.Errorf("interval.ParseRegionString: empty region string")
		return
	}
	colonPos := strings.LastIndexByte(region, ':')
	if colonPos == -1 {
		result.RefName = region
		result.End = posTypeMax - 1
		return
	}
	if colonPos == 0 {
		err = fmt.Errorf("interval.ParseRegionString: empty contig ID")
		return
	}
	result.RefName = region[:colonPos]
	rangeStr := strings.Replace(region[colonPos+1:], ",", "", -1)
	dashPos := strings.IndexByte(rangeStr, '-')
	if dashPos == -1 {
		var pos1 int
		if pos1, err = strconv.Atoi(rangeStr); err != nil {
			return
		}
		if pos1 <= 0 || pos1 >= posTypeMax {
			err = fmt.Errorf("interval.ParseRegionString: position %v in region string out of range", rangeStr)
			return
		}
		result.Start0 = PosType(pos1 - 1)
		result.End = PosType(pos1)
		return
	}
	var start1, end int
	if start1, err = strconv.Atoi(rangeStr[:dashPos]); err != nil {
		return
	}
	if end, err = strconv.Atoi(rangeStr[dashPos+1:]); err != nil {
		return
	}
	if start1 <= 0 || end < start1 || end >= posTypeMax {
		err = fmt.Errorf("interval.ParseRegionString: invalid range string %v", rangeStr)
		return
	}
	result.Start0 = PosType(start1 - 1)
	result.End = PosType(end)
	return
}

// Bases returns the number of positions covered.
func (t *Targets) Bases() int64 { return t.bases }

// RefNames returns the references with at least one interval, sorted.
func (t *Targets) RefNames() []string {
	names := make([]string, 0, len(t.refs))
	for name := range t.refs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Contains reports whether the 0-based position pos on refName is covered.
func (t *Targets) Contains(refName string, pos PosType) bool {
	ends := t.refs[refName]
	idx := sort.Search(len(ends), func(i int) bool { return ends[i] > pos })
	return idx&1 == 1
}

// Overlaps reports whether [start0, end) on refName intersects the union.
func (t *Targets) Overlaps(refName string, start0, end PosType) bool {
	if end <= start0 {
		return false
	}
	ends := t.refs[refName]
	idx := sort.Search(len(ends), func(i int) bool { return ends[i] > start0 })
	if idx&1 == 1 {
		return true
	}
	return idx < len(ends) && ends[idx] < end
}

// OverlapsRead reports whether the read's reference span intersects the
// union.  Unmapped reads never overlap.
func (t *Targets) OverlapsRead(r *sam.Record) bool {
	if r.Ref == nil || r.Flags&sam.Unmapped != 0 {
		return false
	}
	return t.Overlaps(r.Ref.Name(), PosType(r.Pos), PosType(r.End()))
}
