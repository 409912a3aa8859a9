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
	"fmt"
	"maps"

	"github.com/gorse-io/recbench/base/log"
	"go.uber.org/zap"
)

// ParamName is the type of hyper-parameter names.
type ParamName string

const (
	Lr          ParamName = "Lr"          // learning rate
	Reg         ParamName = "Reg"         // regularization strength
	NEpochs     ParamName = "NEpochs"     // number of epochs
	NFactors    ParamName = "NFactors"    // number of factors
	RandomState ParamName = "RandomState" // random state (seed)
	InitMean    ParamName = "InitMean"    // mean of gaussian initial parameter
	InitStdDev  ParamName = "InitStdDev"  // standard deviation of gaussian initial parameter
)

// Params stores hyper-parameters of a model, for example:
//
//	model.Params{
//		model.Lr:       0.05,
//		model.NEpochs:  100,
//		model.NFactors: 16,
//		model.Reg:      0.01,
//	}
type Params map[ParamName]any

func (parameters Params) Copy() Params {
	return maps.Clone(parameters)
}

func typeMismatch(name ParamName, expect string, val any) {
	log.Logger().Error("invalid hyper-parameter type",
		zap.String("name", string(name)),
		zap.String("expect", expect),
		zap.String("actual", fmt.Sprintf("%T", val)))
}

// GetInt gets an integer parameter by name. Returns _default if not exists
// or type doesn't match.
func (parameters Params) GetInt(name ParamName, _default int) int {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case int:
			return val
		case int64:
			return int(val)
		default:
			typeMismatch(name, "int", val)
		}
	}
	return _default
}

func (parameters Params) GetInt64(name ParamName, _default int64) int64 {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case int64:
			return val
		case int:
			return int64(val)
		default:
			typeMismatch(name, "int64", val)
		}
	}
	return _default
}

func (parameters Params) GetFloat32(name ParamName, _default float32) float32 {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case float32:
			return val
		case float64:
			return float32(val)
		case int:
			return float32(val)
		default:
			typeMismatch(name, "float32", val)
		}
	}
	return _default
}

// Overwrite returns a copy of parameters updated by params.
func (parameters Params) Overwrite(params Params) Params {
	merged := parameters.Copy()
	if merged == nil {
		merged = make(Params)
	}
	maps.Copy(merged, params)
	return merged
}
