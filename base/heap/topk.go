// Copyright 2022 gorse Project Authors
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

package heap

import (
	"container/heap"

	"golang.org/x/exp/constraints"
)

type Elem[T constraints.Ordered, W constraints.Ordered] struct {
	Value  T
	Weight W
}

// better reports whether a ranks before b: higher weight first, lower
// value on equal weights.
func (a Elem[T, W]) better(b Elem[T, W]) bool {
	if a.Weight != b.Weight {
		return a.Weight > b.Weight
	}
	return a.Value < b.Value
}

// _heap keeps the worst element at the root.
type _heap[T constraints.Ordered, W constraints.Ordered] struct {
	elems []Elem[T, W]
}

func (h *_heap[T, W]) Len() int {
	return len(h.elems)
}

func (h *_heap[T, W]) Less(i, j int) bool {
	return h.elems[j].better(h.elems[i])
}

func (h *_heap[T, W]) Swap(i, j int) {
	h.elems[i], h.elems[j] = h.elems[j], h.elems[i]
}

func (h *_heap[T, W]) Push(x any) {
	h.elems = append(h.elems, x.(Elem[T, W]))
}

func (h *_heap[T, W]) Pop() any {
	old := h.elems
	item := old[len(old)-1]
	h.elems = old[:len(old)-1]
	return item
}

// TopKFilter keeps the k best elements pushed into it. Ties on weight are
// broken by the smaller value, so the kept set is fully determined by the
// input regardless of push order.
type TopKFilter[T constraints.Ordered, W constraints.Ordered] struct {
	_heap[T, W]
	k int
}

func NewTopKFilter[T constraints.Ordered, W constraints.Ordered](k int) *TopKFilter[T, W] {
	return &TopKFilter[T, W]{
		_heap: _heap[T, W]{elems: make([]Elem[T, W], 0, k)},
		k:     k,
	}
}

func (filter *TopKFilter[T, W]) Push(value T, weight W) {
	if filter.k <= 0 {
		return
	}
	elem := Elem[T, W]{Value: value, Weight: weight}
	if filter.Len() < filter.k {
		heap.Push(&filter._heap, elem)
	} else if elem.better(filter.elems[0]) {
		filter.elems[0] = elem
		heap.Fix(&filter._heap, 0)
	}
}

// PopAll empties the filter and returns its elements, best first.
func (filter *TopKFilter[T, W]) PopAll() []Elem[T, W] {
	elems := make([]Elem[T, W], filter.Len())
	for i := len(elems) - 1; i >= 0; i-- {
		elems[i] = heap.Pop(&filter._heap).(Elem[T, W])
	}
	return elems
}

// PopAllValues empties the filter and returns its values, best first.
func (filter *TopKFilter[T, W]) PopAllValues() []T {
	elems := filter.PopAll()
	values := make([]T, len(elems))
	for i, elem := range elems {
		values[i] = elem.Value
	}
	return values
}
