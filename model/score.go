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

package model

import (
	"slices"

	"github.com/bits-and-blooms/bitset"
	"github.com/chewxy/math32"
	"github.com/gorse-io/recbench/base"
)

// Sentinel marks a score that must never be recommended.
var Sentinel = math32.Inf(-1)

// ScoreBatch is a dense row-major matrix of scores for a batch of users
// over the whole item catalog.
type ScoreBatch struct {
	rows int
	cols int
	data []float32
}

func NewScoreBatch(rows, cols int) *ScoreBatch {
	return &ScoreBatch{rows: rows, cols: cols, data: make([]float32, rows*cols)}
}

// NewScoreBatchFrom adopts data as a rows x cols batch.
func NewScoreBatchFrom(rows, cols int, data []float32) (*ScoreBatch, error) {
	if rows < 0 || cols < 0 || len(data) != rows*cols {
		return nil, base.ShapeMismatchf("%d scores for shape (%d, %d)", len(data), rows, cols)
	}
	return &ScoreBatch{rows: rows, cols: cols, data: data}, nil
}

func (b *ScoreBatch) Shape() (rows, cols int) {
	return b.rows, b.cols
}

// Row returns the scores of a row. The slice aliases the batch.
func (b *ScoreBatch) Row(i int) []float32 {
	return b.data[i*b.cols : (i+1)*b.cols : (i+1)*b.cols]
}

func (b *ScoreBatch) At(i, j int) float32 {
	return b.data[i*b.cols+j]
}

func (b *ScoreBatch) Set(i, j int, score float32) {
	b.data[i*b.cols+j] = score
}

// Data returns the backing slice.
func (b *ScoreBatch) Data() []float32 {
	return b.data
}

// CheckFinite fails with ErrInvalidArgument if any score is NaN. Infinite
// scores pass; top-K selection drops them.
func (b *ScoreBatch) CheckFinite() error {
	for k, score := range b.data {
		if math32.IsNaN(score) {
			return base.InvalidArgumentf("score (%d, %d) is NaN", k/max(b.cols, 1), k%max(b.cols, 1))
		}
	}
	return nil
}

// MaskColumns sets the given columns of every row to the sentinel. Columns
// must be in range.
func (b *ScoreBatch) MaskColumns(cols []int32) {
	for i := 0; i < b.rows; i++ {
		b.MaskRowColumns(i, cols)
	}
}

func (b *ScoreBatch) MaskRowColumns(row int, cols []int32) {
	scores := b.Row(row)
	for _, j := range cols {
		scores[j] = Sentinel
	}
}

// RestrictColumns masks every column not in keep.
func (b *ScoreBatch) RestrictColumns(keep []int32) {
	kept := bitset.New(uint(b.cols))
	for _, j := range keep {
		kept.Set(uint(j))
	}
	for i := 0; i < b.rows; i++ {
		scores := b.Row(i)
		for j := range scores {
			if !kept.Test(uint(j)) {
				scores[j] = Sentinel
			}
		}
	}
}

func (b *ScoreBatch) Clone() *ScoreBatch {
	return &ScoreBatch{rows: b.rows, cols: b.cols, data: slices.Clone(b.data)}
}
