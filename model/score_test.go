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
	"testing"

	"github.com/chewxy/math32"
	"github.com/gorse-io/recbench/base"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreBatch(t *testing.T) {
	batch := NewScoreBatch(2, 3)
	rows, cols := batch.Shape()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 3, cols)
	batch.Set(1, 2, 5)
	assert.Equal(t, float32(5), batch.At(1, 2))
	assert.Equal(t, []float32{0, 0, 5}, batch.Row(1))
	assert.Equal(t, []float32{0, 0, 0, 0, 0, 5}, batch.Data())

	// rows alias the batch
	batch.Row(0)[1] = 3
	assert.Equal(t, float32(3), batch.At(0, 1))

	clone := batch.Clone()
	clone.Set(0, 0, 9)
	assert.Zero(t, batch.At(0, 0))
}

func TestNewScoreBatchFrom(t *testing.T) {
	batch, err := NewScoreBatchFrom(2, 2, []float32{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 4}, batch.Row(1))
	_, err = NewScoreBatchFrom(2, 3, []float32{1, 2, 3, 4})
	assert.ErrorIs(t, err, base.ErrShapeMismatch)
}

func TestScoreBatchMask(t *testing.T) {
	inf := math32.Inf(-1)
	batch, err := NewScoreBatchFrom(2, 4, []float32{1, 2, 3, 4, 5, 6, 7, 8})
	require.NoError(t, err)
	batch.MaskColumns([]int32{1})
	assert.Equal(t, []float32{1, inf, 3, 4, 5, inf, 7, 8}, batch.Data())
	batch.MaskRowColumns(1, []int32{0, 3})
	assert.Equal(t, []float32{1, inf, 3, 4, inf, inf, 7, inf}, batch.Data())

	// masking is idempotent
	batch.MaskColumns([]int32{1})
	assert.Equal(t, []float32{1, inf, 3, 4, inf, inf, 7, inf}, batch.Data())

	batch.RestrictColumns([]int32{2, 3})
	assert.Equal(t, []float32{inf, inf, 3, 4, inf, inf, 7, inf}, batch.Data())
}

func TestCheckFinite(t *testing.T) {
	batch := NewScoreBatch(2, 2)
	batch.Set(0, 1, math32.Inf(-1))
	batch.Set(1, 0, math32.Inf(1))
	// infinities are masked out by ranking, not rejected here
	assert.NoError(t, batch.CheckFinite())
	batch.Set(1, 1, math32.NaN())
	err := batch.CheckFinite()
	assert.ErrorIs(t, err, base.ErrInvalidArgument)
	assert.ErrorContains(t, err, "(1, 1)")
}
