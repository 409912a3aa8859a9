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
	"io"
	"math"

	"github.com/gorse-io/recbench/base"
	"github.com/gorse-io/recbench/base/encoding"
	"github.com/juju/errors"
)

// SplitUserWise shuffles every row and keeps a trainRatio share of it,
// rounded up, in the train matrix. The rest goes to the test matrix. Both
// matrices keep the shape of m.
func SplitUserWise(m *InteractionMatrix, trainRatio float64, seed int64) (train, test *InteractionMatrix, err error) {
	if !(trainRatio > 0 && trainRatio <= 1) {
		return nil, nil, base.InvalidArgumentf("train ratio %v not in (0, 1]", trainRatio)
	}
	rng := base.NewRandomGenerator(seed)
	var trainTriplets, testTriplets []Triplet
	perm := make([]int, 0)
	for u := 0; u < m.nUsers; u++ {
		items, weights := m.SeenItems(int32(u)), m.Weights(int32(u))
		perm = perm[:0]
		for j := range items {
			perm = append(perm, j)
		}
		rng.Shuffle(len(perm), func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })
		nTest := len(items) - int(math.Ceil(float64(len(items))*trainRatio-1e-9))
		for k, j := range perm {
			t := Triplet{User: int32(u), Item: items[j], Weight: weights[j]}
			if k < nTest {
				testTriplets = append(testTriplets, t)
			} else {
				trainTriplets = append(trainTriplets, t)
			}
		}
	}
	if train, err = NewInteractionMatrix(m.nUsers, m.nItems, trainTriplets); err != nil {
		return nil, nil, err
	}
	if test, err = NewInteractionMatrix(m.nUsers, m.nItems, testTriplets); err != nil {
		return nil, nil, err
	}
	return train, test, nil
}

// Split is a train/test pair sharing one id space.
type Split struct {
	Train *InteractionMatrix
	Test  *InteractionMatrix
	Users *FreqDict
	Items *FreqDict
}

var splitSchema = encoding.Schema{
	Name:    "split",
	Version: 1,
	Fields: []encoding.Field{
		{Name: "n_users", Kind: encoding.KindInt64},
		{Name: "n_items", Kind: encoding.KindInt64},
		{Name: "train_indptr", Kind: encoding.KindInt32s},
		{Name: "train_indices", Kind: encoding.KindInt32s},
		{Name: "train_weights", Kind: encoding.KindFloat32s},
		{Name: "test_indptr", Kind: encoding.KindInt32s},
		{Name: "test_indices", Kind: encoding.KindInt32s},
		{Name: "test_weights", Kind: encoding.KindFloat32s},
		{Name: "users", Kind: encoding.KindStrings},
		{Name: "items", Kind: encoding.KindStrings},
	},
}

func (s *Split) Marshal(w io.Writer) error {
	nUsers, nItems := s.Train.Shape()
	if u, i := s.Test.Shape(); u != nUsers || i != nItems {
		return base.ShapeMismatchf("train (%d, %d) != test (%d, %d)", nUsers, nItems, u, i)
	}
	if s.Users.Count() != nUsers || s.Items.Count() != nItems {
		return base.ShapeMismatchf("dictionaries (%d, %d) != matrix (%d, %d)",
			s.Users.Count(), s.Items.Count(), nUsers, nItems)
	}
	return splitSchema.Write(w, encoding.Record{
		"n_users":       int64(nUsers),
		"n_items":       int64(nItems),
		"train_indptr":  s.Train.indptr,
		"train_indices": s.Train.indices,
		"train_weights": s.Train.weights,
		"test_indptr":   s.Test.indptr,
		"test_indices":  s.Test.indices,
		"test_weights":  s.Test.weights,
		"users":         s.Users.Strings(),
		"items":         s.Items.Strings(),
	})
}

func UnmarshalSplit(r io.Reader) (*Split, error) {
	rec, err := splitSchema.Read(r)
	if err != nil {
		return nil, err
	}
	nUsers, nItems := int(rec.Int64("n_users")), int(rec.Int64("n_items"))
	users, items := rec.Strings("users"), rec.Strings("items")
	if len(users) != nUsers || len(items) != nItems {
		return nil, errors.NotValidf("dictionaries (%d, %d) of shape (%d, %d)", len(users), len(items), nUsers, nItems)
	}
	train, err := newFromCSR(nUsers, nItems, rec.Int32s("train_indptr"), rec.Int32s("train_indices"), rec.Float32s("train_weights"))
	if err != nil {
		return nil, errors.Annotate(err, "train")
	}
	test, err := newFromCSR(nUsers, nItems, rec.Int32s("test_indptr"), rec.Int32s("test_indices"), rec.Float32s("test_weights"))
	if err != nil {
		return nil, errors.Annotate(err, "test")
	}
	return &Split{
		Train: train,
		Test:  test,
		Users: NewFreqDictFromStrings(users),
		Items: NewFreqDictFromStrings(items),
	}, nil
}
