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

// Package encoding provides the little-endian primitives used by model
// persistence. Every variable-length value is prefixed by its length.
package encoding

import (
	"encoding/binary"
	"io"

	"github.com/juju/errors"
)

// maxLength bounds any length prefix read from a stream, so a corrupted
// header cannot trigger a huge allocation.
const maxLength = 1 << 30

var byteOrder = binary.LittleEndian

func WriteUint32(w io.Writer, v uint32) error {
	return errors.Trace(binary.Write(w, byteOrder, v))
}

func ReadUint32(r io.Reader) (uint32, error) {
	var v uint32
	if err := binary.Read(r, byteOrder, &v); err != nil {
		return 0, errors.Trace(err)
	}
	return v, nil
}

func WriteInt64(w io.Writer, v int64) error {
	return errors.Trace(binary.Write(w, byteOrder, v))
}

func ReadInt64(r io.Reader) (int64, error) {
	var v int64
	if err := binary.Read(r, byteOrder, &v); err != nil {
		return 0, errors.Trace(err)
	}
	return v, nil
}

func WriteFloat32(w io.Writer, v float32) error {
	return errors.Trace(binary.Write(w, byteOrder, v))
}

func ReadFloat32(r io.Reader) (float32, error) {
	var v float32
	if err := binary.Read(r, byteOrder, &v); err != nil {
		return 0, errors.Trace(err)
	}
	return v, nil
}

func readLength(r io.Reader) (int, error) {
	n, err := ReadUint32(r)
	if err != nil {
		return 0, err
	}
	if n > maxLength {
		return 0, errors.NotValidf("length %d", n)
	}
	return int(n), nil
}

func WriteBytes(w io.Writer, b []byte) error {
	if err := WriteUint32(w, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return errors.Trace(err)
}

func ReadBytes(r io.Reader) ([]byte, error) {
	n, err := readLength(r)
	if err != nil {
		return nil, err
	}
	data := make([]byte, n)
	if _, err = io.ReadFull(r, data); err != nil {
		return nil, errors.Trace(err)
	}
	return data, nil
}

func WriteString(w io.Writer, s string) error {
	return WriteBytes(w, []byte(s))
}

func ReadString(r io.Reader) (string, error) {
	data, err := ReadBytes(r)
	return string(data), err
}

func WriteInt32s(w io.Writer, v []int32) error {
	if err := WriteUint32(w, uint32(len(v))); err != nil {
		return err
	}
	return errors.Trace(binary.Write(w, byteOrder, v))
}

func ReadInt32s(r io.Reader) ([]int32, error) {
	n, err := readLength(r)
	if err != nil {
		return nil, err
	}
	v := make([]int32, n)
	if err = binary.Read(r, byteOrder, v); err != nil {
		return nil, errors.Trace(err)
	}
	return v, nil
}

func WriteFloat32s(w io.Writer, v []float32) error {
	if err := WriteUint32(w, uint32(len(v))); err != nil {
		return err
	}
	return errors.Trace(binary.Write(w, byteOrder, v))
}

func ReadFloat32s(r io.Reader) ([]float32, error) {
	n, err := readLength(r)
	if err != nil {
		return nil, err
	}
	v := make([]float32, n)
	if err = binary.Read(r, byteOrder, v); err != nil {
		return nil, errors.Trace(err)
	}
	return v, nil
}

// WriteMatrix writes a row count, a column count and then every row. All
// rows must have the same length.
func WriteMatrix(w io.Writer, m [][]float32) error {
	cols := 0
	if len(m) > 0 {
		cols = len(m[0])
	}
	if err := WriteUint32(w, uint32(len(m))); err != nil {
		return err
	}
	if err := WriteUint32(w, uint32(cols)); err != nil {
		return err
	}
	for i := range m {
		if len(m[i]) != cols {
			return errors.NotValidf("row %d has %d columns, expected %d", i, len(m[i]), cols)
		}
		if err := binary.Write(w, byteOrder, m[i]); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

func ReadMatrix(r io.Reader) ([][]float32, error) {
	rows, err := readLength(r)
	if err != nil {
		return nil, err
	}
	cols, err := readLength(r)
	if err != nil {
		return nil, err
	}
	m := make([][]float32, rows)
	for i := range m {
		m[i] = make([]float32, cols)
		if err = binary.Read(r, byteOrder, m[i]); err != nil {
			return nil, errors.Trace(err)
		}
	}
	return m, nil
}
