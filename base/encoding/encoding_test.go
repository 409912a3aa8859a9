// Copyright 2022 gorse Project Authors
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

package encoding

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteMatrix(t *testing.T) {
	a := [][]float32{{1, 2}, {3, 4}, {5, 6}}
	buf := bytes.NewBuffer(nil)
	assert.NoError(t, WriteMatrix(buf, a))
	b, err := ReadMatrix(buf)
	assert.NoError(t, err)
	assert.Equal(t, a, b)

	// ragged rows
	assert.Error(t, WriteMatrix(bytes.NewBuffer(nil), [][]float32{{1, 2}, {3}}))
}

func TestWriteString(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	assert.NoError(t, WriteString(buf, "abc"))
	assert.NoError(t, WriteString(buf, ""))
	s, err := ReadString(buf)
	assert.NoError(t, err)
	assert.Equal(t, "abc", s)
	s, err = ReadString(buf)
	assert.NoError(t, err)
	assert.Empty(t, s)
	_, err = ReadString(buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestWriteSlices(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	assert.NoError(t, WriteInt32s(buf, []int32{3, 1, 4}))
	assert.NoError(t, WriteFloat32s(buf, []float32{1.5, -2}))
	assert.NoError(t, WriteInt64(buf, -42))
	assert.NoError(t, WriteFloat32(buf, 0.25))
	ints, err := ReadInt32s(buf)
	assert.NoError(t, err)
	assert.Equal(t, []int32{3, 1, 4}, ints)
	floats, err := ReadFloat32s(buf)
	assert.NoError(t, err)
	assert.Equal(t, []float32{1.5, -2}, floats)
	i, err := ReadInt64(buf)
	assert.NoError(t, err)
	assert.Equal(t, int64(-42), i)
	f, err := ReadFloat32(buf)
	assert.NoError(t, err)
	assert.Equal(t, float32(0.25), f)
}

func TestReadTruncated(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	assert.NoError(t, WriteString(buf, "hello"))
	truncated := bytes.NewReader(buf.Bytes()[:6])
	_, err := ReadString(truncated)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	// absurd length prefix
	buf.Reset()
	assert.NoError(t, WriteUint32(buf, 1<<31))
	_, err = ReadBytes(buf)
	assert.Error(t, err)
}
