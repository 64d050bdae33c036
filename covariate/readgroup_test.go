// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package covariate

import (
	"sync"
	"testing"

	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestReadGroupValues(t *testing.T) {
	h := newHeader(t, [2]string{"rg1", "PU1"}, [2]string{"rg2", ""})
	c := initialized(t, KindReadGroup, DefaultOpts)

	tests := []struct {
		rg, value string
		key       int
	}{
		{"rg1", "PU1", 0},
		{"rg2", "rg2", 1},
		{"rg3", "rg3", 2},
		{"rg1", "PU1", 0},
	}
	for _, test := range tests {
		values := record(t, c, newRead(t, "ACGTA", withRG(test.rg)), h)
		for _, event := range []EventType{EventMismatch, EventInsertion, EventDeletion} {
			expect.EQ(t, values.EventKeys(0, event), []int{test.key, test.key, test.key, test.key, test.key}, "rg=%s", test.rg)
		}
		s, ok := c.FormatKey(test.key)
		expect.True(t, ok)
		expect.EQ(t, s, test.value)
	}
	expect.EQ(t, c.MaximumKeyValue(), 2)
	_, ok := c.FormatKey(3)
	expect.False(t, ok)

	key, err := c.KeyFromValue("PU1")
	assert.NoError(t, err)
	expect.EQ(t, key, 0)
	key, err = c.KeyFromValue("new")
	assert.NoError(t, err)
	expect.EQ(t, key, 3)
	expect.EQ(t, c.MaximumKeyValue(), 3)
}

func TestReadGroupForced(t *testing.T) {
	opts := DefaultOpts
	opts.ForceReadGroup = "forced"
	c := initialized(t, KindReadGroup, opts)
	h := newHeader(t, [2]string{"rg1", "PU1"})
	values := record(t, c, newRead(t, "AC", withRG("rg1")), h)
	expect.EQ(t, values.EventKeys(0, EventMismatch), []int{0, 0})
	values = record(t, c, newRead(t, "AC"), nil)
	expect.EQ(t, values.EventKeys(0, EventMismatch), []int{0, 0})
	s, _ := c.FormatKey(0)
	expect.EQ(t, s, "forced")
	expect.EQ(t, c.MaximumKeyValue(), 0)
}

func TestReadGroupMissing(t *testing.T) {
	c := initialized(t, KindReadGroup, DefaultOpts)
	err := c.RecordValues(newRead(t, "AC"), nil, NewReadCovariates(2, 1))
	expect.True(t, IsConfigError(err), "err=%v", err)
}

func TestReadGroupConcurrentKeys(t *testing.T) {
	c := initialized(t, KindReadGroup, DefaultOpts)
	names := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				for _, name := range names {
					_, err := c.KeyFromValue(name)
					expect.NoError(t, err)
				}
			}
		}()
	}
	wg.Wait()
	expect.EQ(t, c.MaximumKeyValue(), len(names)-1)
	seen := map[string]bool{}
	for key := 0; key < len(names); key++ {
		s, ok := c.FormatKey(key)
		expect.True(t, ok)
		seen[s] = true
	}
	expect.EQ(t, len(seen), len(names))
}
