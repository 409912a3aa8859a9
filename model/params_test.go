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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParams(t *testing.T) {
	params := Params{
		NFactors:    16,
		NEpochs:     int64(10),
		Lr:          0.05,
		Reg:         float32(0.01),
		RandomState: 42,
		InitMean:    "zero",
	}
	assert.Equal(t, 16, params.GetInt(NFactors, 8))
	assert.Equal(t, 10, params.GetInt(NEpochs, 8))
	assert.Equal(t, int64(42), params.GetInt64(RandomState, 0))
	assert.Equal(t, float32(0.05), params.GetFloat32(Lr, 0))
	assert.Equal(t, float32(0.01), params.GetFloat32(Reg, 0))
	assert.Equal(t, float32(16), params.GetFloat32(NFactors, 0))
	// missing or mistyped values fall back to defaults
	assert.Equal(t, float32(0.001), params.GetFloat32(InitStdDev, 0.001))
	assert.Equal(t, float32(0), params.GetFloat32(InitMean, 0))
	assert.Equal(t, 3, params.GetInt(InitMean, 3))
}

func TestParamsOverwrite(t *testing.T) {
	params := Params{NFactors: 16, Lr: 0.05}
	merged := params.Overwrite(Params{Lr: 0.01, Reg: 0.1})
	assert.Equal(t, Params{NFactors: 16, Lr: 0.01, Reg: 0.1}, merged)
	assert.Equal(t, Params{NFactors: 16, Lr: 0.05}, params)
	assert.Equal(t, Params{Reg: 0.1}, Params(nil).Overwrite(Params{Reg: 0.1}))

	copied := params.Copy()
	copied[NEpochs] = 3
	assert.NotContains(t, params, NEpochs)
}

func TestBaseModel(t *testing.T) {
	var a, b BaseModel
	a.SetParams(Params{RandomState: 7})
	b.SetParams(Params{RandomState: 7})
	assert.Equal(t, a.GetRandomGenerator().Int63(), b.GetRandomGenerator().Int63())
	assert.Equal(t, Params{RandomState: 7}, a.GetParams())
}
