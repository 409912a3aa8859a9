// Copyright 2020 gorse Project Authors
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
	"context"

	"github.com/chewxy/math32"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/recbench/base"
	"github.com/gorse-io/recbench/dataset"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// Metric scores a ranked list against the set of relevant items.
type Metric func(targetSet mapset.Set[int32], rankList []int32) float32

// Metrics maps metric names to metrics.
var Metrics = map[string]Metric{
	"ndcg":      NDCG,
	"precision": Precision,
	"recall":    Recall,
	"hr":        HR,
	"map":       MAP,
	"mrr":       MRR,
}

// NDCG means Normalized Discounted Cumulative Gain.
func NDCG(targetSet mapset.Set[int32], rankList []int32) float32 {
	// IDCG = \sum^{|REL|}_{i=1} \frac {1} {\log_2(i+1)}
	idcg := float32(0)
	for i := 0; i < targetSet.Cardinality() && i < len(rankList); i++ {
		idcg += 1.0 / math32.Log2(float32(i)+2.0)
	}
	if idcg == 0 {
		return 0
	}
	// DCG = \sum^{N}_{i=1} \frac {2^{rel_i}-1} {\log_2(i+1)}
	dcg := float32(0)
	for i, itemId := range rankList {
		if targetSet.Contains(itemId) {
			dcg += 1.0 / math32.Log2(float32(i)+2.0)
		}
	}
	return dcg / idcg
}

func hits(targetSet mapset.Set[int32], rankList []int32) int {
	return lo.CountBy(rankList, func(itemId int32) bool {
		return targetSet.Contains(itemId)
	})
}

// Precision is the fraction of relevant items among the recommended items.
//
//	\frac{|relevant documents| \cap |retrieved documents|} {|{retrieved documents}|}
func Precision(targetSet mapset.Set[int32], rankList []int32) float32 {
	if len(rankList) == 0 {
		return 0
	}
	return float32(hits(targetSet, rankList)) / float32(len(rankList))
}

// Recall is the fraction of relevant items that have been recommended.
//
//	\frac{|relevant documents| \cap |retrieved documents|} {|{relevant documents}|}
func Recall(targetSet mapset.Set[int32], rankList []int32) float32 {
	if targetSet.Cardinality() == 0 {
		return 0
	}
	return float32(hits(targetSet, rankList)) / float32(targetSet.Cardinality())
}

// HR means Hit Ratio.
func HR(targetSet mapset.Set[int32], rankList []int32) float32 {
	if hits(targetSet, rankList) > 0 {
		return 1
	}
	return 0
}

// MAP means Mean Average Precision.
func MAP(targetSet mapset.Set[int32], rankList []int32) float32 {
	if targetSet.Cardinality() == 0 {
		return 0
	}
	sumPrecision := float32(0)
	hit := 0
	for i, itemId := range rankList {
		if targetSet.Contains(itemId) {
			hit++
			sumPrecision += float32(hit) / float32(i+1)
		}
	}
	return sumPrecision / float32(targetSet.Cardinality())
}

// MRR means Mean Reciprocal Rank, the inverse of the rank of the first
// relevant item.
func MRR(targetSet mapset.Set[int32], rankList []int32) float32 {
	for i, itemId := range rankList {
		if targetSet.Contains(itemId) {
			return 1 / float32(i+1)
		}
	}
	return 0
}

// Evaluate ranks every user with test interactions and returns the mean
// of each metric. Users are ranked batchSize at a time with opts and the
// given cutoff. progress, if not nil, receives the number of users done
// after each batch.
func Evaluate(ctx context.Context, engine *Engine, test *dataset.InteractionMatrix, cutoff, batchSize int,
	progress func(int), metrics []Metric, opts ...Option) ([]float32, error) {
	nUsers, nItems := engine.Matrix().Shape()
	testUsers, testItems := test.Shape()
	if nUsers != testUsers || nItems != testItems {
		return nil, base.ShapeMismatchf("test (%d, %d) != train (%d, %d)", testUsers, testItems, nUsers, nItems)
	}
	if batchSize < 1 {
		return nil, base.InvalidArgumentf("batch size %d < 1", batchSize)
	}
	sum := make([]float32, len(metrics))
	users := test.ActiveUsers()
	if len(users) == 0 {
		return sum, nil
	}
	opts = append(opts[:len(opts):len(opts)], WithCutoff(cutoff))
	for _, batch := range lo.Chunk(users, batchSize) {
		if err := ctx.Err(); err != nil {
			return nil, errors.Trace(err)
		}
		lists, err := engine.Recommend(ctx, batch, opts...)
		if err != nil {
			return nil, err
		}
		for i, user := range batch {
			targetSet := mapset.NewThreadUnsafeSet(test.SeenItems(user)...)
			for j, metric := range metrics {
				sum[j] += metric(targetSet, lists[i])
			}
		}
		if progress != nil {
			progress(len(batch))
		}
	}
	for j := range sum {
		sum[j] /= float32(len(users))
	}
	return sum, nil
}
