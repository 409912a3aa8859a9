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

// Package pop scores items by their popularity in the training data.
package pop

import (
	"context"
	"io"

	"github.com/gorse-io/recbench/base/encoding"
	"github.com/gorse-io/recbench/base/log"
	"github.com/gorse-io/recbench/dataset"
	"github.com/gorse-io/recbench/model"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

func init() {
	model.Register("pop", func() model.Model { return NewItemPop() })
}

var schema = encoding.Schema{
	Name:    "pop",
	Version: 1,
	Fields: []encoding.Field{
		{Name: "popularity", Kind: encoding.KindFloat32s},
	},
}

// ItemPop scores every item with the number of training users that
// interacted with it, identically for all users.
type ItemPop struct {
	popularity []float32
}

func NewItemPop() *ItemPop {
	return new(ItemPop)
}

func (m *ItemPop) Name() string {
	return "pop"
}

func (m *ItemPop) Fit(_ context.Context, train *dataset.InteractionMatrix, _ *model.FitConfig) error {
	m.popularity = lo.Map(train.ItemPopularity(), func(n int32, _ int) float32 {
		return float32(n)
	})
	log.Logger().Info("fit pop complete", zap.Int("n_items", len(m.popularity)))
	return nil
}

func (m *ItemPop) Score(_ context.Context, users []int32, _ []int32) (*model.ScoreBatch, error) {
	if m.popularity == nil {
		return nil, errors.NotImplementedf("score before fit")
	}
	batch := model.NewScoreBatch(len(users), len(m.popularity))
	for i := range users {
		copy(batch.Row(i), m.popularity)
	}
	return batch, nil
}

func (m *ItemPop) Marshal(w io.Writer) error {
	return schema.Write(w, encoding.Record{"popularity": m.popularity})
}

func (m *ItemPop) Unmarshal(r io.Reader) error {
	rec, err := schema.Read(r)
	if err != nil {
		return err
	}
	m.popularity = rec.Float32s("popularity")
	return nil
}
