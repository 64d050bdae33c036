// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package covariate

import (
	"strconv"

	"github.com/grailbio/hts/sam"
)

const (
	// MaxQuality is the largest phred score a quality key can hold.
	MaxQuality = 93
	// DefaultIndelQuality is used for insertion and deletion events when the
	// read has no BI/BD tag.
	DefaultIndelQuality = 45
)

// QualityScoreCovariate keys each base by its reported quality.  Insertion and
// deletion keys come from the BI and BD aux tags when present.
type QualityScoreCovariate struct {
	noDict
}

func (c *QualityScoreCovariate) Kind() Kind   { return KindQualityScore }
func (c *QualityScoreCovariate) Name() string { return KindQualityScore.String() }

// Initialize implements Covariate.
func (c *QualityScoreCovariate) Initialize(opts *Opts) error { return nil }

// indelQuals returns the qualities stored in a BI/BD style tag (phred+33
// string), or nil if the tag is absent.
func indelQuals(r *sam.Record, tag sam.Tag) ([]byte, error) {
	aux := r.AuxFields.Get(tag)
	if aux == nil {
		return nil, nil
	}
	s, ok := aux.Value().(string)
	if !ok || len(s) != r.Seq.Length {
		return nil, malformedReadf("read %s: %s tag must be a string of %d qualities", r.Name, tag, r.Seq.Length)
	}
	q := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		q[i] = s[i] - 33
	}
	return q, nil
}

// RecordValues implements Covariate.
func (c *QualityScoreCovariate) RecordValues(r *sam.Record, header *sam.Header, values *ReadCovariates) error {
	if err := checkStorage(r, values); err != nil {
		return err
	}
	ins, err := indelQuals(r, biTag)
	if err != nil {
		return err
	}
	del, err := indelQuals(r, bdTag)
	if err != nil {
		return err
	}
	for i, q := range r.Qual {
		if q > MaxQuality {
			return malformedReadf("read %s has quality %d at offset %d", r.Name, q, i)
		}
		insKey, delKey := DefaultIndelQuality, DefaultIndelQuality
		if ins != nil {
			insKey = int(ins[i])
		}
		if del != nil {
			delKey = int(del[i])
		}
		values.AddCovariate(int(q), insKey, delKey, i)
	}
	return nil
}

// FormatKey implements Covariate.
func (c *QualityScoreCovariate) FormatKey(key int) (string, bool) {
	if key < 0 || key > MaxQuality {
		return "", false
	}
	return strconv.Itoa(key), true
}

// KeyFromValue implements Covariate.
func (c *QualityScoreCovariate) KeyFromValue(value string) (int, error) {
	q, err := strconv.Atoi(value)
	if err != nil || q < 0 || q > MaxQuality {
		return 0, configErrorf("invalid quality score %q", value)
	}
	return q, nil
}

// MaximumKeyValue implements Covariate.
func (c *QualityScoreCovariate) MaximumKeyValue() int { return MaxQuality }
