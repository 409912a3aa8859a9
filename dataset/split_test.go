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
	"bytes"
	"testing"

	"github.com/gorse-io/recbench/base"
	"github.com/gorse-io/recbench/base/encoding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRandomMatrix(t *testing.T, nUsers, nItems, degree int) *InteractionMatrix {
	rng := base.NewRandomGenerator(1)
	var triplets []Triplet
	for u := 0; u < nUsers; u++ {
		for _, i := range rng.SampleInt32(0, int32(nItems), degree) {
			triplets = append(triplets, Triplet{User: int32(u), Item: i, Weight: 1})
		}
	}
	m, err := NewInteractionMatrix(nUsers, nItems, triplets)
	require.NoError(t, err)
	return m
}

func TestSplitUserWise(t *testing.T) {
	m := newRandomMatrix(t, 20, 50, 10)
	train, test, err := SplitUserWise(m, 0.8, 0)
	require.NoError(t, err)
	nUsers, nItems := train.Shape()
	assert.Equal(t, 20, nUsers)
	assert.Equal(t, 50, nItems)
	nUsers, nItems = test.Shape()
	assert.Equal(t, 20, nUsers)
	assert.Equal(t, 50, nItems)
	assert.Equal(t, m.Count(), train.Count()+test.Count())
	for u := int32(0); u < 20; u++ {
		assert.Equal(t, 8, train.Degree(u))
		assert.Equal(t, 2, test.Degree(u))
		for _, item := range test.SeenItems(u) {
			assert.True(t, m.Contains(u, item))
			assert.False(t, train.Contains(u, item))
		}
	}

	// same seed, same split
	train2, test2, err := SplitUserWise(m, 0.8, 0)
	require.NoError(t, err)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)
}

func TestSplitUserWiseInvalid(t *testing.T) {
	m := newRandomMatrix(t, 2, 5, 1)
	_, _, err := SplitUserWise(m, 0, 0)
	assert.ErrorIs(t, err, base.ErrInvalidArgument)
	_, _, err = SplitUserWise(m, 1.5, 0)
	assert.ErrorIs(t, err, base.ErrInvalidArgument)

	// single interactions stay in train
	train, test, err := SplitUserWise(m, 0.5, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, train.Count())
	assert.Zero(t, test.Count())
}

func TestSplitMarshal(t *testing.T) {
	builder := NewBuilder()
	builder.Add("alice", "apple", 1)
	builder.Add("alice", "banana", 2)
	builder.Add("bob", "cherry", 1)
	builder.Add("bob", "apple", 1)
	m, users, items, err := builder.Build()
	require.NoError(t, err)
	train, test, err := SplitUserWise(m, 0.5, 0)
	require.NoError(t, err)
	split := &Split{Train: train, Test: test, Users: users, Items: items}

	buf := bytes.NewBuffer(nil)
	require.NoError(t, split.Marshal(buf))
	loaded, err := UnmarshalSplit(buf)
	require.NoError(t, err)
	assert.Equal(t, train.Triplets(), loaded.Train.Triplets())
	assert.Equal(t, test.Triplets(), loaded.Test.Triplets())
	assert.Equal(t, []string{"alice", "bob"}, loaded.Users.Strings())
	assert.Equal(t, []string{"apple", "banana", "cherry"}, loaded.Items.Strings())

	// dictionaries must cover the matrix
	split.Items = NewFreqDict()
	assert.ErrorIs(t, split.Marshal(bytes.NewBuffer(nil)), base.ErrShapeMismatch)

	_, err = UnmarshalSplit(bytes.NewBufferString("RECBxxxx"))
	assert.Error(t, err)
	var other bytes.Buffer
	require.NoError(t, (&encoding.Schema{Name: "other", Version: 1}).Write(&other, encoding.Record{}))
	_, err = UnmarshalSplit(&other)
	assert.ErrorIs(t, err, encoding.ErrSchemaMismatch)
}

func TestBuilder(t *testing.T) {
	builder := NewBuilder()
	builder.AddItem("lonely")
	builder.AddUser("idle")
	builder.Add("alice", "apple", 0)
	m, users, items, err := builder.Build()
	require.NoError(t, err)
	assert.Equal(t, 2, users.Count())
	assert.Equal(t, 2, items.Count())
	assert.Zero(t, m.Count())

	// shared dictionaries keep ids stable
	next := NewBuilderWithDicts(users, items)
	next.Add("alice", "apple", 1)
	m, _, _, err = next.Build()
	require.NoError(t, err)
	assert.Equal(t, []int32{1}, m.SeenItems(1))
}
