// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package covariate

import (
	"testing"

	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestQualityScoreValues(t *testing.T) {
	c := initialized(t, KindQualityScore, DefaultOpts)
	r := newRead(t, "ACGT")
	r.Qual = []byte{10, 20, 30, 40}
	values := record(t, c, r, nil)
	expect.EQ(t, values.EventKeys(0, EventMismatch), []int{10, 20, 30, 40})
	expect.EQ(t, values.EventKeys(0, EventInsertion), []int{45, 45, 45, 45})
	expect.EQ(t, values.EventKeys(0, EventDeletion), []int{45, 45, 45, 45})

	// BI/BD hold phred+33 qualities.
	r = newRead(t, "ACGT", withAux("BI", "+5?I"), withAux("BD", "IIII"))
	values = record(t, c, r, nil)
	expect.EQ(t, values.EventKeys(0, EventInsertion), []int{10, 20, 30, 40})
	expect.EQ(t, values.EventKeys(0, EventDeletion), []int{40, 40, 40, 40})
}

func TestQualityScoreMalformed(t *testing.T) {
	c := initialized(t, KindQualityScore, DefaultOpts)
	r := newRead(t, "ACGT", withAux("BI", "II"))
	err := c.RecordValues(r, nil, NewReadCovariates(4, 1))
	expect.True(t, IsMalformedRead(err), "err=%v", err)

	r = newRead(t, "ACGT")
	r.Qual[2] = 0xff
	err = c.RecordValues(r, nil, NewReadCovariates(4, 1))
	expect.True(t, IsMalformedRead(err), "err=%v", err)
}

func TestQualityScoreKeys(t *testing.T) {
	c := initialized(t, KindQualityScore, DefaultOpts)
	expect.EQ(t, c.MaximumKeyValue(), 93)
	for _, q := range []int{0, 1, 45, 93} {
		s, ok := c.FormatKey(q)
		expect.True(t, ok)
		key, err := c.KeyFromValue(s)
		assert.NoError(t, err)
		expect.EQ(t, key, q)
	}
	_, ok := c.FormatKey(94)
	expect.False(t, ok)
	_, err := c.KeyFromValue("94")
	expect.True(t, IsConfigError(err))
	_, err = c.KeyFromValue("q")
	expect.True(t, IsConfigError(err))
}
