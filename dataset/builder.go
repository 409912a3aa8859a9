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

// Builder accumulates interactions keyed by external string ids.
type Builder struct {
	userDict *FreqDict
	itemDict *FreqDict
	triplets []Triplet
}

func NewBuilder() *Builder {
	return NewBuilderWithDicts(NewFreqDict(), NewFreqDict())
}

// NewBuilderWithDicts continues numbering from existing dictionaries, so
// that several matrices can share one id space.
func NewBuilderWithDicts(userDict, itemDict *FreqDict) *Builder {
	return &Builder{userDict: userDict, itemDict: itemDict}
}

// AddUser registers a user without interactions.
func (b *Builder) AddUser(userId string) int32 {
	return b.userDict.NotCount(userId)
}

// AddItem registers an item without interactions.
func (b *Builder) AddItem(itemId string) int32 {
	return b.itemDict.NotCount(itemId)
}

// Add records an interaction. Both ids are registered even if weight is zero.
func (b *Builder) Add(userId, itemId string, weight float32) {
	b.triplets = append(b.triplets, Triplet{
		User:   b.userDict.Id(userId),
		Item:   b.itemDict.Id(itemId),
		Weight: weight,
	})
}

func (b *Builder) Build() (*InteractionMatrix, *FreqDict, *FreqDict, error) {
	m, err := NewInteractionMatrix(b.userDict.Count(), b.itemDict.Count(), b.triplets)
	if err != nil {
		return nil, nil, nil, err
	}
	return m, b.userDict, b.itemDict, nil
}
