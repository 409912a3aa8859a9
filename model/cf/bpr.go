// Copyright 2021 gorse Project Authors
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

// Package cf implements collaborative filtering backends.
package cf

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/chewxy/math32"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/recbench/base"
	"github.com/gorse-io/recbench/base/encoding"
	"github.com/gorse-io/recbench/base/floats"
	"github.com/gorse-io/recbench/base/log"
	"github.com/gorse-io/recbench/base/parallel"
	"github.com/gorse-io/recbench/dataset"
	"github.com/gorse-io/recbench/model"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

func init() {
	model.Register("bpr", func() model.Model { return NewBPR(nil) })
}

// BPR means Bayesian Personal Ranking, is a pairwise learning algorithm for matrix factorization
// model with implicit feedback. The pairwise ranking between item i and j for user u is estimated
// by:
//
//	p(i >_u j) = \sigma( p_u^T (q_i - q_j) )
//
// Hyper-parameters:
//
//	 Reg 		- The regularization parameter of the cost function that is
//				  optimized. Default is 0.01.
//	 Lr 		- The learning rate of SGD. Default is 0.05.
//	 nFactors	- The number of latent factors. Default is 16.
//	 NEpochs	- The number of iteration of the SGD procedure. Default is 100.
//	 InitMean	- The mean of initial random latent factors. Default is 0.
//	 InitStdDev	- The standard deviation of initial random latent factors. Default is 0.001.
type BPR struct {
	model.BaseModel
	UserPredictable *bitset.BitSet
	ItemPredictable *bitset.BitSet
	// Model parameters
	UserFactor [][]float32 // p_u
	ItemFactor [][]float32 // q_i
	// Hyper parameters
	nFactors   int
	nEpochs    int
	lr         float32
	reg        float32
	initMean   float32
	initStdDev float32
	// scoring workers
	jobs int
}

func NewBPR(params model.Params) *BPR {
	bpr := new(BPR)
	bpr.SetParams(params)
	return bpr
}

func (bpr *BPR) SetParams(params model.Params) {
	bpr.BaseModel.SetParams(params)
	bpr.nFactors = bpr.Params.GetInt(model.NFactors, 16)
	bpr.nEpochs = bpr.Params.GetInt(model.NEpochs, 100)
	bpr.lr = bpr.Params.GetFloat32(model.Lr, 0.05)
	bpr.reg = bpr.Params.GetFloat32(model.Reg, 0.01)
	bpr.initMean = bpr.Params.GetFloat32(model.InitMean, 0)
	bpr.initStdDev = bpr.Params.GetFloat32(model.InitStdDev, 0.001)
}

func (bpr *BPR) Name() string {
	return "bpr"
}

func (bpr *BPR) IsUserPredictable(userIndex int32) bool {
	return bpr.UserPredictable != nil && bpr.UserPredictable.Test(uint(userIndex))
}

func (bpr *BPR) IsItemPredictable(itemIndex int32) bool {
	return bpr.ItemPredictable != nil && bpr.ItemPredictable.Test(uint(itemIndex))
}

// internalPredict returns zero for a user or an item never trained.
func (bpr *BPR) internalPredict(userIndex, itemIndex int32) float32 {
	if bpr.IsUserPredictable(userIndex) && bpr.IsItemPredictable(itemIndex) {
		return floats.Dot(bpr.UserFactor[userIndex], bpr.ItemFactor[itemIndex])
	}
	return 0
}

// Fit the BPR model. Its task complexity is O(bpr.nEpochs).
func (bpr *BPR) Fit(ctx context.Context, train *dataset.InteractionMatrix, config *model.FitConfig) error {
	if config == nil {
		config = model.NewFitConfig()
	}
	jobs := max(config.Jobs, 1)
	nUsers, nItems := train.Shape()
	log.Logger().Info("fit bpr",
		zap.Int("n_users", nUsers),
		zap.Int("n_items", nItems),
		zap.Int("train_set_size", train.Count()),
		zap.Any("params", bpr.GetParams()),
		zap.Any("config", config))
	// Users without a negative item cannot be sampled
	users := lo.Filter(train.ActiveUsers(), func(u int32, _ int) bool {
		return train.Degree(u) < nItems
	})
	if len(users) == 0 {
		return base.InvalidArgumentf("no user has both positive and negative items")
	}
	bpr.Init(train)
	// Create buffers
	temp := lo.Times(jobs, func(int) []float32 { return make([]float32, bpr.nFactors) })
	userFactor := lo.Times(jobs, func(int) []float32 { return make([]float32, bpr.nFactors) })
	positiveItemFactor := lo.Times(jobs, func(int) []float32 { return make([]float32, bpr.nFactors) })
	negativeItemFactor := lo.Times(jobs, func(int) []float32 { return make([]float32, bpr.nFactors) })
	rng := make([]base.RandomGenerator, jobs)
	for i := 0; i < jobs; i++ {
		rng[i] = base.NewRandomGenerator(bpr.GetRandomGenerator().Int63())
	}
	// Convert array to hashmap
	userFeedback := make([]mapset.Set[int32], nUsers)
	for _, u := range users {
		userFeedback[u] = mapset.NewThreadUnsafeSet(train.SeenItems(u)...)
	}
	// Training
	fitStart := time.Now()
	for epoch := 1; epoch <= bpr.nEpochs; epoch++ {
		cost := make([]float32, jobs)
		err := parallel.Parallel(ctx, train.Count(), jobs, func(workerId, _ int) error {
			// Select a user
			userIndex := users[rng[workerId].Intn(len(users))]
			seen := train.SeenItems(userIndex)
			posIndex := seen[rng[workerId].Intn(len(seen))]
			// Select a negative sample
			negIndex := int32(-1)
			for {
				temp := rng[workerId].Int31n(int32(nItems))
				if !userFeedback[userIndex].Contains(temp) {
					negIndex = temp
					break
				}
			}
			diff := floats.Dot(bpr.UserFactor[userIndex], bpr.ItemFactor[posIndex]) -
				floats.Dot(bpr.UserFactor[userIndex], bpr.ItemFactor[negIndex])
			cost[workerId] += math32.Log1p(math32.Exp(-diff))
			grad := math32.Exp(-diff) / (1.0 + math32.Exp(-diff))
			// Pairwise update
			copy(userFactor[workerId], bpr.UserFactor[userIndex])
			copy(positiveItemFactor[workerId], bpr.ItemFactor[posIndex])
			copy(negativeItemFactor[workerId], bpr.ItemFactor[negIndex])
			// Update positive item latent factor: +w_u
			floats.MulConstTo(userFactor[workerId], grad, temp[workerId])
			floats.MulConstAdd(positiveItemFactor[workerId], -bpr.reg, temp[workerId])
			floats.MulConstAdd(temp[workerId], bpr.lr, bpr.ItemFactor[posIndex])
			// Update negative item latent factor: -w_u
			floats.MulConstTo(userFactor[workerId], -grad, temp[workerId])
			floats.MulConstAdd(negativeItemFactor[workerId], -bpr.reg, temp[workerId])
			floats.MulConstAdd(temp[workerId], bpr.lr, bpr.ItemFactor[negIndex])
			// Update user latent factor: h_i-h_j
			floats.SubTo(positiveItemFactor[workerId], negativeItemFactor[workerId], temp[workerId])
			floats.MulConst(temp[workerId], grad)
			floats.MulConstAdd(userFactor[workerId], -bpr.reg, temp[workerId])
			floats.MulConstAdd(temp[workerId], bpr.lr, bpr.UserFactor[userIndex])
			return nil
		})
		if err != nil {
			return err
		}
		if epoch%max(config.Verbose, 1) == 0 || epoch == bpr.nEpochs {
			log.Logger().Info(fmt.Sprintf("fit bpr %v/%v", epoch, bpr.nEpochs),
				zap.String("elapsed", base.FormatDuration(time.Since(fitStart))),
				zap.Float32("loss", lo.Sum(cost)/float32(train.Count())))
		}
	}
	bpr.jobs = jobs
	log.Logger().Info("fit bpr complete", zap.String("elapsed", base.FormatDuration(time.Since(fitStart))))
	return nil
}

func (bpr *BPR) Init(train *dataset.InteractionMatrix) {
	nUsers, nItems := train.Shape()
	bpr.UserFactor = bpr.GetRandomGenerator().NormalMatrix(nUsers, bpr.nFactors, bpr.initMean, bpr.initStdDev)
	bpr.ItemFactor = bpr.GetRandomGenerator().NormalMatrix(nItems, bpr.nFactors, bpr.initMean, bpr.initStdDev)
	bpr.UserPredictable = bitset.New(uint(nUsers))
	bpr.ItemPredictable = bitset.New(uint(nItems))
	train.ForEach(func(user, item int32, _ float32) {
		bpr.UserPredictable.Set(uint(user))
		bpr.ItemPredictable.Set(uint(item))
	})
}

// Score computes p_u^T q_i for every requested user. Only itemsToCompute
// are computed when given, the other columns hold the sentinel.
func (bpr *BPR) Score(ctx context.Context, users []int32, itemsToCompute []int32) (*model.ScoreBatch, error) {
	if bpr.UserFactor == nil || bpr.ItemFactor == nil {
		return nil, errors.NotImplementedf("score before fit")
	}
	if err := base.CheckRange("user", users, len(bpr.UserFactor)); err != nil {
		return nil, err
	}
	if err := base.CheckRange("item", itemsToCompute, len(bpr.ItemFactor)); err != nil {
		return nil, err
	}
	batch := model.NewScoreBatch(len(users), len(bpr.ItemFactor))
	err := parallel.Parallel(ctx, len(users), max(bpr.jobs, 1), func(_, i int) error {
		scores := batch.Row(i)
		if itemsToCompute == nil {
			for j := range scores {
				scores[j] = bpr.internalPredict(users[i], int32(j))
			}
			return nil
		}
		for j := range scores {
			scores[j] = model.Sentinel
		}
		for _, j := range itemsToCompute {
			scores[j] = bpr.internalPredict(users[i], j)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

var schema = encoding.Schema{
	Name:    "bpr",
	Version: 1,
	Fields: []encoding.Field{
		{Name: "n_factors", Kind: encoding.KindInt64},
		{Name: "n_epochs", Kind: encoding.KindInt64},
		{Name: "lr", Kind: encoding.KindFloat32},
		{Name: "reg", Kind: encoding.KindFloat32},
		{Name: "init_mean", Kind: encoding.KindFloat32},
		{Name: "init_std", Kind: encoding.KindFloat32},
		{Name: "random_state", Kind: encoding.KindInt64},
		{Name: "user_predictable", Kind: encoding.KindInt32s},
		{Name: "item_predictable", Kind: encoding.KindInt32s},
		{Name: "user_factor", Kind: encoding.KindMatrix},
		{Name: "item_factor", Kind: encoding.KindMatrix},
	},
}

func setBits(b *bitset.BitSet) []int32 {
	indices := make([]int32, 0, b.Count())
	for i, ok := b.NextSet(0); ok; i, ok = b.NextSet(i + 1) {
		indices = append(indices, int32(i))
	}
	return indices
}

func newBitSet(n int, indices []int32) (*bitset.BitSet, error) {
	b := bitset.New(uint(n))
	for _, i := range indices {
		if i < 0 || int(i) >= n {
			return nil, errors.NotValidf("predictable index %d of %d", i, n)
		}
		b.Set(uint(i))
	}
	return b, nil
}

// Marshal model into byte stream.
func (bpr *BPR) Marshal(w io.Writer) error {
	if bpr.UserFactor == nil || bpr.ItemFactor == nil {
		return errors.NotValidf("marshal before fit")
	}
	return schema.Write(w, encoding.Record{
		"n_factors":        int64(bpr.nFactors),
		"n_epochs":         int64(bpr.nEpochs),
		"lr":               bpr.lr,
		"reg":              bpr.reg,
		"init_mean":        bpr.initMean,
		"init_std":         bpr.initStdDev,
		"random_state":     bpr.Params.GetInt64(model.RandomState, 0),
		"user_predictable": setBits(bpr.UserPredictable),
		"item_predictable": setBits(bpr.ItemPredictable),
		"user_factor":      bpr.UserFactor,
		"item_factor":      bpr.ItemFactor,
	})
}

// Unmarshal model from byte stream.
func (bpr *BPR) Unmarshal(r io.Reader) error {
	rec, err := schema.Read(r)
	if err != nil {
		return err
	}
	// the model is left untouched unless the whole record is valid
	nFactors := int(rec.Int64("n_factors"))
	userFactor, itemFactor := rec.Matrix("user_factor"), rec.Matrix("item_factor")
	for _, factor := range [][][]float32{userFactor, itemFactor} {
		for _, row := range factor {
			if len(row) != nFactors {
				return errors.NotValidf("%d factors, expected %d", len(row), nFactors)
			}
		}
	}
	userPredictable, err := newBitSet(len(userFactor), rec.Int32s("user_predictable"))
	if err != nil {
		return err
	}
	itemPredictable, err := newBitSet(len(itemFactor), rec.Int32s("item_predictable"))
	if err != nil {
		return err
	}
	bpr.SetParams(model.Params{
		model.NFactors:    nFactors,
		model.NEpochs:     int(rec.Int64("n_epochs")),
		model.Lr:          rec.Float32("lr"),
		model.Reg:         rec.Float32("reg"),
		model.InitMean:    rec.Float32("init_mean"),
		model.InitStdDev:  rec.Float32("init_std"),
		model.RandomState: rec.Int64("random_state"),
	})
	bpr.UserPredictable, bpr.ItemPredictable = userPredictable, itemPredictable
	bpr.UserFactor, bpr.ItemFactor = userFactor, itemFactor
	return nil
}
