// Copyright 2026 gorse Project Authors
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

// Package mask holds the item exclusion sets applied before ranking.
package mask

import (
	"slices"

	"github.com/bits-and-blooms/bitset"
	"github.com/gorse-io/recbench/base"
	"github.com/gorse-io/recbench/model"
)

// Which selects an exclusion set.
type Which int

const (
	Global Which = iota
	Custom
)

func (w Which) String() string {
	switch w {
	case Global:
		return "global"
	case Custom:
		return "custom"
	default:
		return "unknown"
	}
}

// exclusions is a set of item ids. Ids are checked against the catalog
// width only when applied.
type exclusions struct {
	items *bitset.BitSet
}

func (e *exclusions) set(items []int32) error {
	for _, item := range items {
		if item < 0 {
			return base.IndexOutOfRangef("negative item %d", item)
		}
	}
	b := bitset.New(0)
	for _, item := range items {
		b.Set(uint(item))
	}
	e.items = b
	return nil
}

func (e *exclusions) clear() {
	e.items = nil
}

func (e *exclusions) list() []int32 {
	if e.items == nil {
		return nil
	}
	items := make([]int32, 0, e.items.Count())
	for i, ok := e.items.NextSet(0); ok; i, ok = e.items.NextSet(i + 1) {
		items = append(items, int32(i))
	}
	return items
}

// ItemMask holds two independent exclusion sets, both empty by default.
// It is not safe to mutate a mask while it is applied.
type ItemMask struct {
	global exclusions
	custom exclusions
}

func NewItemMask() *ItemMask {
	return new(ItemMask)
}

func (m *ItemMask) which(which Which) *exclusions {
	if which == Custom {
		return &m.custom
	}
	return &m.global
}

// SetGlobalExclusions replaces the global exclusion set with a copy of items.
func (m *ItemMask) SetGlobalExclusions(items []int32) error {
	return m.global.set(items)
}

func (m *ItemMask) ClearGlobalExclusions() {
	m.global.clear()
}

// GlobalExclusions returns the global exclusion set in ascending order.
func (m *ItemMask) GlobalExclusions() []int32 {
	return m.global.list()
}

// SetCustomExclusions replaces the custom exclusion set with a copy of items.
func (m *ItemMask) SetCustomExclusions(items []int32) error {
	return m.custom.set(items)
}

func (m *ItemMask) ClearCustomExclusions() {
	m.custom.clear()
}

func (m *ItemMask) CustomExclusions() []int32 {
	return m.custom.list()
}

// Apply overwrites the scores of the selected exclusions with the
// sentinel in every row. An id outside the catalog fails with
// ErrIndexOutOfRange and leaves the batch untouched.
func (m *ItemMask) Apply(batch *model.ScoreBatch, which Which) error {
	items := m.which(which).list()
	if len(items) == 0 {
		return nil
	}
	_, nItems := batch.Shape()
	if last := items[len(items)-1]; int(last) >= nItems {
		return base.IndexOutOfRangef("%v exclusion %d not in [0, %d)", which, last, nItems)
	}
	batch.MaskColumns(items)
	return nil
}

// Clone returns an independent copy.
func (m *ItemMask) Clone() *ItemMask {
	clone := NewItemMask()
	_ = clone.global.set(slices.Clone(m.GlobalExclusions()))
	_ = clone.custom.set(slices.Clone(m.CustomExclusions()))
	return clone
}
