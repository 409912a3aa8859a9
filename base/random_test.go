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

package base

import (
	"testing"

	"github.com/chewxy/math32"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

const randomEpsilon = 0.1

func mean(x []float32) float32 {
	return lo.Sum(x) / float32(len(x))
}

func stdDev(x []float32) float32 {
	m := mean(x)
	var sum float32
	for _, v := range x {
		sum += (v - m) * (v - m)
	}
	return math32.Sqrt(sum / float32(len(x)))
}

func TestRandomGenerator_NormalMatrix(t *testing.T) {
	rng := NewRandomGenerator(0)
	vec := rng.NormalMatrix(1, 1000, 1, 2)[0]
	assert.Len(t, vec, 1000)
	assert.InDelta(t, 1, mean(vec), randomEpsilon*2)
	assert.InDelta(t, 2, stdDev(vec), randomEpsilon*2)
}

func TestRandomGenerator_UniformVector(t *testing.T) {
	rng := NewRandomGenerator(0)
	vec := rng.UniformVector(1000, 1, 2)
	assert.GreaterOrEqual(t, lo.Min(vec), float32(1))
	assert.Less(t, lo.Max(vec), float32(2))
}

func TestRandomGenerator_Seeded(t *testing.T) {
	a := NewRandomGenerator(42).NormalVector(10, 0, 1)
	b := NewRandomGenerator(42).NormalVector(10, 0, 1)
	assert.Equal(t, a, b)
}

func TestRandomGenerator_SampleInt32(t *testing.T) {
	excludeSet := mapset.NewSet[int32](0, 1, 2, 3, 4)
	rng := NewRandomGenerator(0)
	for i := 1; i <= 10; i++ {
		sampled := rng.SampleInt32(0, 10, i, excludeSet)
		assert.Len(t, sampled, min(i, 5))
		assert.Len(t, lo.Uniq(sampled), len(sampled))
		for j := range sampled {
			assert.False(t, excludeSet.Contains(sampled[j]))
		}
	}
}
