// Copyright 2025 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dataset

// FreqDict maps external string ids to dense int32 indices in order of
// first appearance and counts how often each id was added.
type FreqDict struct {
	si  map[string]int32
	is  []string
	cnt []int
}

func NewFreqDict() (d *FreqDict) {
	d = &FreqDict{map[string]int32{}, []string{}, []int{}}
	return
}

// NewFreqDictFromStrings rebuilds a dictionary, with zero frequencies, from
// its ordered strings.
func NewFreqDictFromStrings(is []string) *FreqDict {
	d := NewFreqDict()
	for _, s := range is {
		d.NotCount(s)
	}
	return d
}

func (d *FreqDict) Count() int {
	return len(d.is)
}

// Id returns the index of s, assigning the next index if s is new, and
// increments its frequency.
func (d *FreqDict) Id(s string) (y int32) {
	y = d.NotCount(s)
	d.cnt[y]++
	return
}

// NotCount returns the index of s without touching its frequency.
func (d *FreqDict) NotCount(s string) (y int32) {
	if y, ok := d.si[s]; ok {
		return y
	}
	y = int32(len(d.is))
	d.si[s] = y
	d.is = append(d.is, s)
	d.cnt = append(d.cnt, 0)
	return
}

// Lookup returns the index of s if it is known.
func (d *FreqDict) Lookup(s string) (int32, bool) {
	y, ok := d.si[s]
	return y, ok
}

func (d *FreqDict) String(id int32) (s string, ok bool) {
	if id < 0 || int(id) >= len(d.is) {
		return "", false
	}
	return d.is[id], true
}

func (d *FreqDict) Freq(id int32) int {
	if id < 0 || int(id) >= len(d.cnt) {
		return 0
	}
	return d.cnt[id]
}

// Strings returns external ids ordered by index.
func (d *FreqDict) Strings() []string {
	return d.is
}
