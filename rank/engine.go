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

// Package rank turns raw scores into top-K recommendation lists.
package rank

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/gorse-io/recbench/base"
	"github.com/gorse-io/recbench/base/log"
	"github.com/gorse-io/recbench/dataset"
	"github.com/gorse-io/recbench/mask"
	"github.com/gorse-io/recbench/model"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// Result is the outcome of a ranking call. Scores is set only when the
// call asked for it.
type Result struct {
	Lists  [][]int32
	Scores *model.ScoreBatch
}

// Engine ranks items for batches of users. The interaction matrix and the
// mask are read during a call and must not be mutated concurrently.
type Engine struct {
	provider model.ScoreProvider
	matrix   atomic.Pointer[dataset.InteractionMatrix]
	mask     *mask.ItemMask
}

func NewEngine(provider model.ScoreProvider, matrix *dataset.InteractionMatrix, itemMask *mask.ItemMask) (*Engine, error) {
	if provider == nil {
		return nil, errors.NotImplementedf("score provider")
	}
	if matrix == nil {
		return nil, base.InvalidArgumentf("interaction matrix is required")
	}
	if itemMask == nil {
		itemMask = mask.NewItemMask()
	}
	e := &Engine{provider: provider, mask: itemMask}
	e.matrix.Store(matrix.Clone())
	return e, nil
}

// Matrix returns the current interaction matrix.
func (e *Engine) Matrix() *dataset.InteractionMatrix {
	return e.matrix.Load()
}

func (e *Engine) Mask() *mask.ItemMask {
	return e.mask
}

// SetMatrix replaces the interaction matrix with a copy of m. A matrix of a
// different shape is rejected and the current one is kept.
func (e *Engine) SetMatrix(m *dataset.InteractionMatrix) error {
	if m == nil {
		return base.InvalidArgumentf("interaction matrix is required")
	}
	current := e.matrix.Load()
	nUsers, nItems := current.Shape()
	newUsers, newItems := m.Shape()
	if nUsers != newUsers || nItems != newItems {
		return base.ShapeMismatchf("(%d, %d) != (%d, %d)", nUsers, nItems, newUsers, newItems)
	}
	e.matrix.Store(m.Clone())
	return nil
}

// Recommend ranks items for every user, lists in input order.
func (e *Engine) Recommend(ctx context.Context, users []int32, opts ...Option) ([][]int32, error) {
	result, err := e.Rank(ctx, users, opts...)
	if err != nil {
		return nil, err
	}
	return result.Lists, nil
}

// RecommendUser ranks items for a single user.
func (e *Engine) RecommendUser(ctx context.Context, user int32, opts ...Option) ([]int32, error) {
	lists, err := e.Recommend(ctx, []int32{user}, opts...)
	if err != nil {
		return nil, err
	}
	return lists[0], nil
}

// Rank scores users with a single provider call, masks the batch and
// selects the top items of every row.
func (e *Engine) Rank(ctx context.Context, users []int32, opts ...Option) (*Result, error) {
	start := time.Now()
	result, err := e.rank(ctx, users, newOptions(opts))
	if err != nil {
		RankErrorsTotal.Inc()
		return nil, err
	}
	RankSeconds.Observe(time.Since(start).Seconds())
	RankedUsersTotal.Add(float64(len(users)))
	return result, nil
}

func (e *Engine) rank(ctx context.Context, users []int32, o *options) (*Result, error) {
	matrix := e.matrix.Load()
	nUsers, nItems := matrix.Shape()
	if len(users) == 0 {
		return nil, base.InvalidArgumentf("empty user batch")
	}
	if err := base.CheckRange("user", users, nUsers); err != nil {
		return nil, err
	}
	cutoff := max(nItems-1, 1)
	if o.cutoffSet {
		if o.cutoff < 1 {
			return nil, base.InvalidArgumentf("cutoff %d < 1", o.cutoff)
		}
		cutoff = min(o.cutoff, nItems)
	}
	if err := base.CheckRange("item to compute", o.itemsToCompute, nItems); err != nil {
		return nil, err
	}

	scores, err := e.provider.Score(ctx, users, o.itemsToCompute)
	if err != nil {
		return nil, err
	}
	if scores == nil {
		return nil, base.ShapeMismatchf("no scores for (%d, %d)", len(users), nItems)
	}
	if rows, cols := scores.Shape(); rows != len(users) || cols != nItems {
		return nil, base.ShapeMismatchf("scores (%d, %d) != (%d, %d)", rows, cols, len(users), nItems)
	}
	if err = scores.CheckFinite(); err != nil {
		return nil, err
	}

	if o.itemsToCompute != nil {
		scores.RestrictColumns(o.itemsToCompute)
	}
	if o.removeSeen {
		for i, user := range users {
			scores.MaskRowColumns(i, matrix.SeenItems(user))
		}
	}
	if o.removeGlobal {
		if err = e.mask.Apply(scores, mask.Global); err != nil {
			return nil, err
		}
	}
	if o.removeCustom {
		if err = e.mask.Apply(scores, mask.Custom); err != nil {
			return nil, err
		}
	}

	result := &Result{Lists: make([][]int32, len(users))}
	for i := range users {
		result.Lists[i] = TopK(scores.Row(i), cutoff)
	}
	if o.returnScores {
		result.Scores = scores
	}
	log.Logger().Debug("rank users",
		zap.Int("n_users", len(users)),
		zap.Int("cutoff", cutoff),
		zap.Bool("remove_seen", o.removeSeen),
		zap.Bool("remove_global", o.removeGlobal),
		zap.Bool("remove_custom", o.removeCustom),
		zap.Int("n_items_to_compute", len(o.itemsToCompute)))
	return result, nil
}
