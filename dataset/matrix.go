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

package dataset

import (
	"slices"

	"github.com/gorse-io/recbench/base"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// Triplet is a single (user, item, weight) observation.
type Triplet struct {
	User   int32
	Item   int32
	Weight float32
}

// InteractionMatrix stores observed interactions in compressed rows. Item
// ids in a row are unique and ascending, and no stored weight is zero. It
// is immutable once built.
type InteractionMatrix struct {
	nUsers  int
	nItems  int
	indptr  []int32
	indices []int32
	weights []float32
}

// NewInteractionMatrix builds a matrix from triplets. Triplets for the same
// cell are summed and cells whose weight sums to zero are dropped.
func NewInteractionMatrix(nUsers, nItems int, triplets []Triplet) (*InteractionMatrix, error) {
	if nUsers < 0 || nItems < 0 {
		return nil, base.InvalidArgumentf("negative shape (%d, %d)", nUsers, nItems)
	}
	counts := make([]int32, nUsers+1)
	for _, t := range triplets {
		if t.User < 0 || int(t.User) >= nUsers {
			return nil, base.IndexOutOfRangef("user %d not in [0, %d)", t.User, nUsers)
		}
		if t.Item < 0 || int(t.Item) >= nItems {
			return nil, base.IndexOutOfRangef("item %d not in [0, %d)", t.Item, nItems)
		}
		counts[t.User+1]++
	}
	for i := 1; i <= nUsers; i++ {
		counts[i] += counts[i-1]
	}

	// bucket triplets by row
	offset := slices.Clone(counts[:nUsers])
	items := make([]int32, len(triplets))
	values := make([]float32, len(triplets))
	for _, t := range triplets {
		pos := offset[t.User]
		items[pos], values[pos] = t.Item, t.Weight
		offset[t.User]++
	}

	// sort each row, then merge duplicates and drop zeros
	m := &InteractionMatrix{
		nUsers:  nUsers,
		nItems:  nItems,
		indptr:  make([]int32, nUsers+1),
		indices: make([]int32, 0, len(triplets)),
		weights: make([]float32, 0, len(triplets)),
	}
	order := make([]int32, 0)
	for u := 0; u < nUsers; u++ {
		begin, end := counts[u], counts[u+1]
		order = order[:0]
		for i := begin; i < end; i++ {
			order = append(order, i)
		}
		slices.SortStableFunc(order, func(a, b int32) int {
			return int(items[a]) - int(items[b])
		})
		for j := 0; j < len(order); {
			item, weight := items[order[j]], values[order[j]]
			k := j + 1
			for ; k < len(order) && items[order[k]] == item; k++ {
				weight += values[order[k]]
			}
			if weight != 0 {
				m.indices = append(m.indices, item)
				m.weights = append(m.weights, weight)
			}
			j = k
		}
		m.indptr[u+1] = int32(len(m.indices))
	}
	return m, nil
}

func (m *InteractionMatrix) Shape() (nUsers, nItems int) {
	return m.nUsers, m.nItems
}

func (m *InteractionMatrix) CountUsers() int {
	return m.nUsers
}

func (m *InteractionMatrix) CountItems() int {
	return m.nItems
}

// Count returns the number of stored interactions.
func (m *InteractionMatrix) Count() int {
	return len(m.indices)
}

// SeenItems returns the ascending item ids of a row. The slice aliases the
// matrix storage and must not be modified. It is nil for an unknown user.
func (m *InteractionMatrix) SeenItems(user int32) []int32 {
	if user < 0 || int(user) >= m.nUsers {
		return nil
	}
	return m.indices[m.indptr[user]:m.indptr[user+1]:m.indptr[user+1]]
}

// SeenItemsChecked is SeenItems with a range check on the user.
func (m *InteractionMatrix) SeenItemsChecked(user int32) ([]int32, error) {
	if user < 0 || int(user) >= m.nUsers {
		return nil, base.IndexOutOfRangef("user %d not in [0, %d)", user, m.nUsers)
	}
	return m.SeenItems(user), nil
}

// Weights returns the weights of a row, aligned with SeenItems.
func (m *InteractionMatrix) Weights(user int32) []float32 {
	if user < 0 || int(user) >= m.nUsers {
		return nil
	}
	return m.weights[m.indptr[user]:m.indptr[user+1]:m.indptr[user+1]]
}

func (m *InteractionMatrix) Degree(user int32) int {
	if user < 0 || int(user) >= m.nUsers {
		return 0
	}
	return int(m.indptr[user+1] - m.indptr[user])
}

// Contains reports whether (user, item) is stored.
func (m *InteractionMatrix) Contains(user, item int32) bool {
	_, found := slices.BinarySearch(m.SeenItems(user), item)
	return found
}

// ActiveUsers returns users with at least one interaction.
func (m *InteractionMatrix) ActiveUsers() []int32 {
	return lo.Filter(lo.RangeFrom(int32(0), m.nUsers), func(u int32, _ int) bool {
		return m.indptr[u+1] > m.indptr[u]
	})
}

// ItemPopularity returns the number of users that interacted with each item.
func (m *InteractionMatrix) ItemPopularity() []int32 {
	popularity := make([]int32, m.nItems)
	for _, item := range m.indices {
		popularity[item]++
	}
	return popularity
}

// TopPopular returns up to n items with the highest popularity. Ties are
// broken by lower item id.
func (m *InteractionMatrix) TopPopular(n int) []int32 {
	popularity := m.ItemPopularity()
	items := lo.RangeFrom(int32(0), m.nItems)
	slices.SortStableFunc(items, func(a, b int32) int {
		return int(popularity[b]) - int(popularity[a])
	})
	return items[:min(max(n, 0), len(items))]
}

// ForEach visits every stored interaction in row order.
func (m *InteractionMatrix) ForEach(fn func(user, item int32, weight float32)) {
	for u := 0; u < m.nUsers; u++ {
		for j := m.indptr[u]; j < m.indptr[u+1]; j++ {
			fn(int32(u), m.indices[j], m.weights[j])
		}
	}
}

// Triplets returns stored interactions in row order.
func (m *InteractionMatrix) Triplets() []Triplet {
	triplets := make([]Triplet, 0, len(m.indices))
	m.ForEach(func(user, item int32, weight float32) {
		triplets = append(triplets, Triplet{User: user, Item: item, Weight: weight})
	})
	return triplets
}

func (m *InteractionMatrix) Clone() *InteractionMatrix {
	return &InteractionMatrix{
		nUsers:  m.nUsers,
		nItems:  m.nItems,
		indptr:  slices.Clone(m.indptr),
		indices: slices.Clone(m.indices),
		weights: slices.Clone(m.weights),
	}
}

// newFromCSR adopts already validated compressed rows.
func newFromCSR(nUsers, nItems int, indptr, indices []int32, weights []float32) (*InteractionMatrix, error) {
	if len(indptr) != nUsers+1 || len(indices) != len(weights) || indptr[0] != 0 || int(indptr[nUsers]) != len(indices) {
		return nil, errors.NotValidf("compressed rows of shape (%d, %d)", nUsers, nItems)
	}
	for u := 0; u < nUsers; u++ {
		if indptr[u] > indptr[u+1] {
			return nil, errors.NotValidf("row pointer %d", u)
		}
		row := indices[indptr[u]:indptr[u+1]]
		for j, item := range row {
			if item < 0 || int(item) >= nItems || (j > 0 && row[j-1] >= item) {
				return nil, errors.NotValidf("row %d", u)
			}
		}
	}
	return &InteractionMatrix{nUsers: nUsers, nItems: nItems, indptr: indptr, indices: indices, weights: weights}, nil
}
