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

package encoding

import (
	"fmt"
	"io"

	"github.com/juju/errors"
)

// ErrSchemaMismatch is returned when a persisted record does not match the
// schema it is decoded with.
const ErrSchemaMismatch = errors.ConstError("schema mismatch")

const magic = "RECB"

type Kind uint8

const (
	KindInt64 Kind = iota + 1
	KindFloat32
	KindString
	KindInt32s
	KindFloat32s
	KindMatrix
	KindStrings
)

func (k Kind) String() string {
	switch k {
	case KindInt64:
		return "int64"
	case KindFloat32:
		return "float32"
	case KindString:
		return "string"
	case KindInt32s:
		return "[]int32"
	case KindFloat32s:
		return "[]float32"
	case KindMatrix:
		return "[][]float32"
	case KindStrings:
		return "[]string"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

type Field struct {
	Name string
	Kind Kind
}

// Schema is a named, versioned and ordered set of typed fields. Records
// are written in field order and read back strictly: the name, the
// version and every field must match.
type Schema struct {
	Name    string
	Version uint32
	Fields  []Field
}

// Record holds field values keyed by field name. Values must have the Go
// type matching their kind: int64, float32, string, []int32, []float32,
// [][]float32 or []string.
type Record map[string]any

func mismatch(format string, args ...any) error {
	return errors.WithType(errors.Errorf(format, args...), ErrSchemaMismatch)
}

func (s *Schema) field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func checkKind(kind Kind, value any) bool {
	switch value.(type) {
	case int64:
		return kind == KindInt64
	case float32:
		return kind == KindFloat32
	case string:
		return kind == KindString
	case []int32:
		return kind == KindInt32s
	case []float32:
		return kind == KindFloat32s
	case [][]float32:
		return kind == KindMatrix
	case []string:
		return kind == KindStrings
	default:
		return false
	}
}

// Write encodes rec. The record must contain exactly the schema fields.
func (s *Schema) Write(w io.Writer, rec Record) error {
	for name := range rec {
		if _, ok := s.field(name); !ok {
			return mismatch("%s: unknown field %q", s.Name, name)
		}
	}
	if _, err := io.WriteString(w, magic); err != nil {
		return errors.Trace(err)
	}
	if err := WriteString(w, s.Name); err != nil {
		return err
	}
	if err := WriteUint32(w, s.Version); err != nil {
		return err
	}
	if err := WriteUint32(w, uint32(len(s.Fields))); err != nil {
		return err
	}
	for _, f := range s.Fields {
		value, ok := rec[f.Name]
		if !ok {
			return mismatch("%s: missing field %q", s.Name, f.Name)
		}
		if !checkKind(f.Kind, value) {
			return mismatch("%s: field %q expects %v, got %T", s.Name, f.Name, f.Kind, value)
		}
		if err := WriteString(w, f.Name); err != nil {
			return err
		}
		if _, err := w.Write([]byte{byte(f.Kind)}); err != nil {
			return errors.Trace(err)
		}
		if err := writeValue(w, value); err != nil {
			return err
		}
	}
	return nil
}

// Read decodes a record and fails with ErrSchemaMismatch on a foreign
// schema, another version, or a missing, extra, repeated or mistyped field.
func (s *Schema) Read(r io.Reader) (Record, error) {
	header := make([]byte, len(magic))
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, errors.Trace(err)
	}
	if string(header) != magic {
		return nil, mismatch("%s: bad magic %q", s.Name, header)
	}
	name, err := ReadString(r)
	if err != nil {
		return nil, err
	}
	if name != s.Name {
		return nil, mismatch("expect schema %q, got %q", s.Name, name)
	}
	version, err := ReadUint32(r)
	if err != nil {
		return nil, err
	}
	if version != s.Version {
		return nil, mismatch("%s: expect version %d, got %d", s.Name, s.Version, version)
	}
	count, err := ReadUint32(r)
	if err != nil {
		return nil, err
	}
	rec := make(Record, count)
	for i := uint32(0); i < count; i++ {
		fieldName, err := ReadString(r)
		if err != nil {
			return nil, err
		}
		f, ok := s.field(fieldName)
		if !ok {
			return nil, mismatch("%s: unknown field %q", s.Name, fieldName)
		}
		if _, dup := rec[fieldName]; dup {
			return nil, mismatch("%s: repeated field %q", s.Name, fieldName)
		}
		kind := make([]byte, 1)
		if _, err = io.ReadFull(r, kind); err != nil {
			return nil, errors.Trace(err)
		}
		if Kind(kind[0]) != f.Kind {
			return nil, mismatch("%s: field %q expects %v, got %v", s.Name, fieldName, f.Kind, Kind(kind[0]))
		}
		value, err := readValue(r, f.Kind)
		if err != nil {
			return nil, err
		}
		rec[fieldName] = value
	}
	for _, f := range s.Fields {
		if _, ok := rec[f.Name]; !ok {
			return nil, mismatch("%s: missing field %q", s.Name, f.Name)
		}
	}
	return rec, nil
}

func writeValue(w io.Writer, value any) error {
	switch v := value.(type) {
	case int64:
		return WriteInt64(w, v)
	case float32:
		return WriteFloat32(w, v)
	case string:
		return WriteString(w, v)
	case []int32:
		return WriteInt32s(w, v)
	case []float32:
		return WriteFloat32s(w, v)
	case [][]float32:
		return WriteMatrix(w, v)
	case []string:
		if err := WriteUint32(w, uint32(len(v))); err != nil {
			return err
		}
		for _, s := range v {
			if err := WriteString(w, s); err != nil {
				return err
			}
		}
		return nil
	}
	return errors.Errorf("unsupported value %T", value)
}

func readValue(r io.Reader, kind Kind) (any, error) {
	switch kind {
	case KindInt64:
		return ReadInt64(r)
	case KindFloat32:
		return ReadFloat32(r)
	case KindString:
		return ReadString(r)
	case KindInt32s:
		return ReadInt32s(r)
	case KindFloat32s:
		return ReadFloat32s(r)
	case KindMatrix:
		return ReadMatrix(r)
	case KindStrings:
		n, err := readLength(r)
		if err != nil {
			return nil, err
		}
		v := make([]string, n)
		for i := range v {
			if v[i], err = ReadString(r); err != nil {
				return nil, err
			}
		}
		return v, nil
	}
	return nil, errors.Errorf("unsupported kind %v", kind)
}

func (rec Record) Int64(name string) int64 {
	return rec[name].(int64)
}

func (rec Record) Float32(name string) float32 {
	return rec[name].(float32)
}

func (rec Record) String(name string) string {
	return rec[name].(string)
}

func (rec Record) Int32s(name string) []int32 {
	return rec[name].([]int32)
}

func (rec Record) Float32s(name string) []float32 {
	return rec[name].([]float32)
}

func (rec Record) Matrix(name string) [][]float32 {
	return rec[name].([][]float32)
}

func (rec Record) Strings(name string) []string {
	return rec[name].([]string)
}
