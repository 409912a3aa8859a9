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

package base

import (
	"github.com/juju/errors"
)

const (
	// ErrShapeMismatch is returned when two matrices (or a matrix and a
	// column restriction) disagree in dimensions.
	ErrShapeMismatch = errors.ConstError("shape mismatch")
	// ErrIndexOutOfRange is returned when a user or item id falls outside
	// the valid row or column range.
	ErrIndexOutOfRange = errors.ConstError("index out of range")
	// ErrInvalidArgument is returned for non-positive cutoffs, empty user
	// batches and malformed scores.
	ErrInvalidArgument = errors.ConstError("invalid argument")
)

// ShapeMismatchf creates an error of type ErrShapeMismatch.
func ShapeMismatchf(format string, args ...any) error {
	return errors.WithType(errors.Errorf(format, args...), ErrShapeMismatch)
}

// IndexOutOfRangef creates an error of type ErrIndexOutOfRange.
func IndexOutOfRangef(format string, args ...any) error {
	return errors.WithType(errors.Errorf(format, args...), ErrIndexOutOfRange)
}

// InvalidArgumentf creates an error of type ErrInvalidArgument.
func InvalidArgumentf(format string, args ...any) error {
	return errors.WithType(errors.Errorf(format, args...), ErrInvalidArgument)
}

// CheckRange returns ErrIndexOutOfRange if any id is outside [0, n).
func CheckRange(name string, ids []int32, n int) error {
	for _, id := range ids {
		if id < 0 || int(id) >= n {
			return IndexOutOfRangef("%s %d out of range [0, %d)", name, id, n)
		}
	}
	return nil
}
