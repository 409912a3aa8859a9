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

package rank

import "slices"

type options struct {
	removeSeen     bool
	removeGlobal   bool
	removeCustom   bool
	itemsToCompute []int32
	cutoff         int
	cutoffSet      bool
	returnScores   bool
}

func newOptions(opts []Option) *options {
	o := &options{removeSeen: true}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Option configures a single ranking call.
type Option func(*options)

// WithRemoveSeen toggles masking of each user's seen items. It is on by
// default.
func WithRemoveSeen(removeSeen bool) Option {
	return func(o *options) {
		o.removeSeen = removeSeen
	}
}

// WithGlobalExclusions applies the global exclusions of the engine mask.
func WithGlobalExclusions() Option {
	return func(o *options) {
		o.removeGlobal = true
	}
}

// WithCustomExclusions applies the custom exclusions of the engine mask.
func WithCustomExclusions() Option {
	return func(o *options) {
		o.removeCustom = true
	}
}

// WithItemsToCompute restricts the candidates to items. A nil slice means
// every item.
func WithItemsToCompute(items []int32) Option {
	return func(o *options) {
		o.itemsToCompute = slices.Clone(items)
	}
}

// WithCutoff sets the maximum length of each list.
func WithCutoff(k int) Option {
	return func(o *options) {
		o.cutoff = k
		o.cutoffSet = true
	}
}

// WithScores returns the masked score batch alongside the lists.
func WithScores() Option {
	return func(o *options) {
		o.returnScores = true
	}
}
