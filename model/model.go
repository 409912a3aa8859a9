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

package model

import (
	"context"
	"io"

	"github.com/gorse-io/recbench/base"
	"github.com/gorse-io/recbench/dataset"
	"github.com/juju/errors"
)

// ScoreProvider computes raw scores for a batch of users. The returned
// batch has one row per user and one column per catalog item, and Score
// has no observable side effects. itemsToCompute is a hint: a provider may
// compute only those columns, but the caller masks the others anyway.
type ScoreProvider interface {
	Score(ctx context.Context, users []int32, itemsToCompute []int32) (*ScoreBatch, error)
}

// Model is a score provider that can be trained and persisted. After
// Unmarshal, Score behaves as it did after Fit.
type Model interface {
	ScoreProvider
	// Name tags the model in persisted envelopes.
	Name() string
	Fit(ctx context.Context, train *dataset.InteractionMatrix, config *FitConfig) error
	Marshal(w io.Writer) error
	Unmarshal(r io.Reader) error
}

// Unimplemented is embedded by score providers that are not able to score
// yet.
type Unimplemented struct{}

func (Unimplemented) Score(context.Context, []int32, []int32) (*ScoreBatch, error) {
	return nil, errors.NotImplementedf("score")
}

type FitConfig struct {
	Jobs    int
	Verbose int
}

func NewFitConfig() *FitConfig {
	return &FitConfig{
		Jobs:    1,
		Verbose: 10,
	}
}

func (config *FitConfig) SetVerbose(verbose int) *FitConfig {
	config.Verbose = verbose
	return config
}

func (config *FitConfig) SetJobs(jobs int) *FitConfig {
	config.Jobs = jobs
	return config
}

// BaseModel manages hyper-parameters and the random generator of a model.
type BaseModel struct {
	Params    Params
	rng       base.RandomGenerator
	randState int64
}

func (model *BaseModel) SetParams(params Params) {
	model.Params = params
	model.randState = model.Params.GetInt64(RandomState, 0)
	model.rng = base.NewRandomGenerator(model.randState)
}

func (model *BaseModel) GetParams() Params {
	return model.Params
}

func (model *BaseModel) GetRandomGenerator() base.RandomGenerator {
	return model.rng
}
