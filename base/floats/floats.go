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

// Package floats implements the float32 vector kernels used by matrix
// factorization. All functions panic when slice lengths disagree.
package floats

func checkLength(a, b []float32) {
	if len(a) != len(b) {
		panic("floats: slice lengths do not match")
	}
}

// Zero sets every element to zero.
func Zero(a []float32) {
	for i := range a {
		a[i] = 0
	}
}

// Dot returns the inner product of a and b.
func Dot(a, b []float32) (ret float32) {
	checkLength(a, b)
	for i := range a {
		ret += a[i] * b[i]
	}
	return
}

// SubTo computes dst = a - b.
func SubTo(a, b, dst []float32) {
	checkLength(a, b)
	checkLength(a, dst)
	for i := range a {
		dst[i] = a[i] - b[i]
	}
}

// MulConst computes dst *= c.
func MulConst(dst []float32, c float32) {
	for i := range dst {
		dst[i] *= c
	}
}

// MulConstTo computes dst = a * c.
func MulConstTo(a []float32, c float32, dst []float32) {
	checkLength(a, dst)
	for i := range a {
		dst[i] = a[i] * c
	}
}

// MulConstAdd computes dst += a * c.
func MulConstAdd(a []float32, c float32, dst []float32) {
	checkLength(a, dst)
	for i := range a {
		dst[i] += a[i] * c
	}
}
