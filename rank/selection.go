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

package rank

import (
	"math/bits"
	"slices"

	"github.com/bits-and-blooms/bitset"
	"github.com/chewxy/math32"
	"github.com/gorse-io/recbench/base/heap"
)

// order reports whether item a ranks before item b.
type order func(a, b int32) bool

// byScore is the ranking order: higher score first, lower item id on equal
// scores.
func byScore(scores []float32) order {
	return func(a, b int32) bool {
		if scores[a] != scores[b] {
			return scores[a] > scores[b]
		}
		return a < b
	}
}

func (before order) compare(a, b int32) int {
	if before(a, b) {
		return -1
	} else if a == b {
		return 0
	}
	return 1
}

// TopK returns the ids of the k best scores in ranking order. Infinite
// scores, the sentinel included, are never returned, so the list may be
// shorter than k. Scores must not contain NaN.
func TopK(scores []float32, k int) []int32 {
	return topK(scores, k, byScore(scores))
}

func topK(scores []float32, k int, before order) []int32 {
	ids := make([]int32, 0, len(scores))
	for i, score := range scores {
		if !math32.IsInf(score, 0) {
			ids = append(ids, int32(i))
		}
	}
	k = min(k, len(ids))
	if k <= 0 {
		return []int32{}
	}
	if k < len(ids) {
		introSelect(scores, ids, k, 2*bits.Len(uint(len(ids))), before)
	}
	top := ids[:k:k]
	slices.SortFunc(top, before.compare)
	if k < len(ids)/2 {
		top = slices.Clone(top)
	}
	return top
}

// introSelect moves the k best ids to the front of ids, in no particular
// order. It runs quickselect with median-of-three pivots and switches to a
// heap once the recursion budget is spent.
func introSelect(scores []float32, ids []int32, k, depth int, before order) {
	lo, hi := 0, len(ids)
	for hi-lo > 1 {
		if depth == 0 {
			heapSelect(scores, ids[lo:hi], k-lo)
			return
		}
		depth--
		p := partition(ids, lo, hi, before)
		switch {
		case p == k || p == k-1:
			return
		case p < k:
			lo = p + 1
		default:
			hi = p
		}
	}
}

// partition places a pivot at its final position in ids[lo:hi], better ids
// to its left and worse ids to its right, and returns its position.
func partition(ids []int32, lo, hi int, before order) int {
	mid := lo + (hi-lo)/2
	last := hi - 1
	// order lo, mid, last so that the median lands in mid
	if before(ids[mid], ids[lo]) {
		ids[mid], ids[lo] = ids[lo], ids[mid]
	}
	if before(ids[last], ids[lo]) {
		ids[last], ids[lo] = ids[lo], ids[last]
	}
	if before(ids[last], ids[mid]) {
		ids[last], ids[mid] = ids[mid], ids[last]
	}
	ids[mid], ids[last] = ids[last], ids[mid]
	pivot := ids[last]
	store := lo
	for i := lo; i < last; i++ {
		if before(ids[i], pivot) {
			ids[i], ids[store] = ids[store], ids[i]
			store++
		}
	}
	ids[store], ids[last] = ids[last], ids[store]
	return store
}

// heapSelect moves the k best ids of segment to its front.
func heapSelect(scores []float32, segment []int32, k int) {
	if k <= 0 || k >= len(segment) {
		return
	}
	filter := heap.NewTopKFilter[int32, float32](k)
	for _, id := range segment {
		filter.Push(id, scores[id])
	}
	best := filter.PopAllValues()
	selected := bitset.New(uint(len(scores)))
	for _, id := range best {
		selected.Set(uint(id))
	}
	rest := make([]int32, 0, len(segment)-k)
	for _, id := range segment {
		if !selected.Test(uint(id)) {
			rest = append(rest, id)
		}
	}
	copy(segment, best)
	copy(segment[k:], rest)
}
