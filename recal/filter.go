// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package recal

import (
	"fmt"

	"github.com/grailbio/bqsr/covariate"
	"github.com/grailbio/bqsr/interval"
	"github.com/grailbio/hts/sam"
)

// ReadFilter reports whether a read should be recorded.
type ReadFilter func(r *sam.Record) bool

// NamedFilter is a ReadFilter with a name used in rejection counts.
type NamedFilter struct {
	Name   string
	Accept ReadFilter
}

// mapQUnavailable is the MAPQ value meaning "not computed".
const mapQUnavailable = 255

// Mapped rejects unmapped reads, including those placed next to their mate.
func Mapped(r *sam.Record) bool {
	return r.Flags&sam.Unmapped == 0 && r.Ref != nil && r.Pos >= 0
}

// PrimaryAlignment rejects secondary alignments.
func PrimaryAlignment(r *sam.Record) bool {
	return r.Flags&sam.Secondary == 0
}

// NotSupplementary rejects supplementary alignments.
func NotSupplementary(r *sam.Record) bool {
	return r.Flags&sam.Supplementary == 0
}

// NotDuplicate rejects reads marked as duplicates.
func NotDuplicate(r *sam.Record) bool {
	return r.Flags&sam.Duplicate == 0
}

// PassesVendorQualityCheck rejects reads that failed platform QC.
func PassesVendorQualityCheck(r *sam.Record) bool {
	return r.Flags&sam.QCFail == 0
}

// MappingQualityAvailable rejects reads with MAPQ 255.
func MappingQualityAvailable(r *sam.Record) bool {
	return r.MapQ != mapQUnavailable
}

// MappingQualityNotZero rejects reads with MAPQ 0.
func MappingQualityNotZero(r *sam.Record) bool {
	return r.MapQ != 0
}

// MinMappingQuality rejects reads with MAPQ below minMapQ.
func MinMappingQuality(minMapQ int) ReadFilter {
	return func(r *sam.Record) bool {
		return int(r.MapQ) >= minMapQ
	}
}

// ValidAlignmentStart rejects mapped reads with a negative position.
func ValidAlignmentStart(r *sam.Record) bool {
	return r.Flags&sam.Unmapped != 0 || r.Pos >= 0
}

// ValidAlignmentEnd rejects mapped reads that extend past the end of their
// reference.
func ValidAlignmentEnd(r *sam.Record) bool {
	if r.Flags&sam.Unmapped != 0 || r.Ref == nil || r.Ref.Len() <= 0 {
		return true
	}
	return r.End() <= r.Ref.Len()
}

// HasReadGroup rejects reads without an RG tag.
func HasReadGroup(r *sam.Record) bool {
	_, ok := covariate.ReadGroupID(r)
	return ok
}

// HasMatchingBasesAndQuals rejects reads whose base and quality counts
// differ.
func HasMatchingBasesAndQuals(r *sam.Record) bool {
	return covariate.ValidateRead(r) == nil
}

// SeqIsStored rejects reads with no bases ("*" in SAM).
func SeqIsStored(r *sam.Record) bool {
	return r.Seq.Length > 0
}

// unstoredQual is the quality value hts fills in for every base of a read
// whose qualities are "*".
const unstoredQual = 0xff

// QualsAreStored rejects reads whose qualities are "*".
func QualsAreStored(r *sam.Record) bool {
	return len(r.Qual) == 0 || r.Qual[0] != unstoredQual
}

// CigarIsSupported rejects reads whose CIGAR contains N (skipped reference)
// operators.
func CigarIsSupported(r *sam.Record) bool {
	for _, op := range r.Cigar {
		if op.Type() == sam.CigarSkipped {
			return false
		}
	}
	return true
}

// CigarMatchesSequence rejects mapped reads whose CIGAR query length differs
// from the number of bases.
func CigarMatchesSequence(r *sam.Record) bool {
	if len(r.Cigar) == 0 {
		return true
	}
	_, qlen := r.Cigar.Lengths()
	return qlen == r.Seq.Length
}

// MaxInsertSize rejects paired reads with |TLEN| > maxInsertSize.
func MaxInsertSize(maxInsertSize int) ReadFilter {
	return func(r *sam.Record) bool {
		if r.Flags&sam.Paired == 0 {
			return true
		}
		tlen := r.TempLen
		if tlen < 0 {
			tlen = -tlen
		}
		return tlen <= maxInsertSize
	}
}

// OverlapsTargets rejects reads that do not overlap targets.
func OverlapsTargets(targets *interval.Targets) ReadFilter {
	return targets.OverlapsRead
}

// And returns a filter that accepts a read iff every filter does.
func And(filters ...ReadFilter) ReadFilter {
	return func(r *sam.Record) bool {
		for _, f := range filters {
			if !f(r) {
				return false
			}
		}
		return true
	}
}

// Wellformed combines the structural checks a read must pass before its
// covariates can be computed.
func Wellformed(r *sam.Record) bool {
	return ValidAlignmentStart(r) && ValidAlignmentEnd(r) && HasMatchingBasesAndQuals(r) &&
		SeqIsStored(r) && QualsAreStored(r) && CigarMatchesSequence(r)
}

// StandardFilters returns the filters applied to every read, in evaluation
// order.  The read group requirement is dropped when the read group is
// forced.
func StandardFilters(opts *Opts) ([]NamedFilter, error) {
	filters := []NamedFilter{
		{"Wellformed", Wellformed},
		{"Mapped", Mapped},
		{"PrimaryAlignment", PrimaryAlignment},
		{"NotSupplementary", NotSupplementary},
		{"NotDuplicate", NotDuplicate},
		{"PassesVendorQualityCheck", PassesVendorQualityCheck},
		{"MappingQualityAvailable", MappingQualityAvailable},
		{"MappingQualityNotZero", MappingQualityNotZero},
		{"CigarIsSupported", CigarIsSupported},
	}
	if opts.MinMapQ > 1 {
		filters = append(filters, NamedFilter{fmt.Sprintf("MinMappingQuality(%d)", opts.MinMapQ), MinMappingQuality(opts.MinMapQ)})
	}
	if opts.Covariates.ForceReadGroup == "" {
		filters = append(filters, NamedFilter{"HasReadGroup", HasReadGroup})
	}
	if opts.MaxInsertSize > 0 {
		filters = append(filters, NamedFilter{fmt.Sprintf("MaxInsertSize(%d)", opts.MaxInsertSize), MaxInsertSize(opts.MaxInsertSize)})
	}
	targets, err := loadTargets(opts)
	if err != nil {
		return nil, err
	}
	if targets != nil {
		filters = append(filters, NamedFilter{"OverlapsTargets", OverlapsTargets(targets)})
	}
	if opts.Filter != "" {
		expr, err := ParseFilter(opts.Filter)
		if err != nil {
			return nil, err
		}
		filters = append(filters, NamedFilter{"Filter", expr})
	}
	return filters, nil
}

func loadTargets(opts *Opts) (*interval.Targets, error) {
	switch {
	case opts.BedPath != "" && opts.Region != "":
		return nil, fmt.Errorf("recal: at most one of BedPath and Region may be set")
	case opts.BedPath != "":
		return interval.NewTargetsFromPath(opts.BedPath)
	case opts.Region != "":
		region, err := interval.ParseRegionString(opts.Region)
		if err != nil {
			return nil, err
		}
		return interval.NewTargets([]interval.Region{region})
	}
	return nil, nil
}
