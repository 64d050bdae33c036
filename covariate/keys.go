// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package covariate

// KeyDict is an append-only bijection between string values and small
// non-negative integer keys.  Keys are assigned in first-seen order starting
// at 0 and are never reused or reassigned.
//
// KeyDict is not thread-safe.
type KeyDict struct {
	ids   map[string]int
	names []string
}

// NewKeyDict returns an empty dictionary.
func NewKeyDict() *KeyDict {
	return &KeyDict{ids: make(map[string]int)}
}

// ID returns the key for value, assigning the next unused key if value has
// not been seen before.
func (d *KeyDict) ID(value string) int {
	if id, ok := d.ids[value]; ok {
		return id
	}
	id := len(d.names)
	d.ids[value] = id
	d.names = append(d.names, value)
	return id
}

// Lookup returns the key for value without assigning one.
func (d *KeyDict) Lookup(value string) (int, bool) {
	id, ok := d.ids[value]
	return id, ok
}

// Name returns the value that was assigned key id.
func (d *KeyDict) Name(id int) (string, bool) {
	if id < 0 || id >= len(d.names) {
		return "", false
	}
	return d.names[id], true
}

// MaxID returns the largest assigned key, or -1 if the dictionary is empty.
func (d *KeyDict) MaxID() int {
	return len(d.names) - 1
}

// Len returns the number of distinct values.
func (d *KeyDict) Len() int {
	return len(d.names)
}

// Names returns a copy of the values, indexed by key.
func (d *KeyDict) Names() []string {
	return append([]string(nil), d.names...)
}

// Clear forgets every assignment.  Only tests should need this.
func (d *KeyDict) Clear() {
	d.ids = make(map[string]int)
	d.names = nil
}

// Merge adds src's values to d in src key order, and returns a table mapping
// each src key to the corresponding key in d.
func (d *KeyDict) Merge(src *KeyDict) []int {
	remap := make([]int, len(src.names))
	for srcID, name := range src.names {
		remap[srcID] = d.ID(name)
	}
	return remap
}
