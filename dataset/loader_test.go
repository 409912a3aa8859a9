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

package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ratings = `user,item,rating,timestamp
u1,i1,5,100
u1,i2,3,101
u2,i2,5,102
u2,i3,4.5,103
u2,i1,5,104
u3,i3,1,105
`

func TestReadCSV(t *testing.T) {
	m, users, items, err := ReadCSV(strings.NewReader(ratings), CSVOptions{Header: true})
	require.NoError(t, err)
	assert.Equal(t, 3, users.Count())
	assert.Equal(t, 3, items.Count())
	assert.Equal(t, 6, m.Count())
	u2, ok := users.Lookup("u2")
	require.True(t, ok)
	assert.Equal(t, []float32{5, 5, 4.5}, m.Weights(u2))
	assert.Equal(t, 3, users.Freq(u2))
}

func TestReadCSVPositiveThreshold(t *testing.T) {
	m, users, items, err := ReadCSV(strings.NewReader(ratings), CSVOptions{Header: true, PositiveThreshold: 4.5})
	require.NoError(t, err)
	// users and items stay registered even without positive interactions
	assert.Equal(t, 3, users.Count())
	assert.Equal(t, 3, items.Count())
	assert.Equal(t, 4, m.Count())
	u3, _ := users.Lookup("u3")
	assert.Zero(t, m.Degree(u3))
	u1, _ := users.Lookup("u1")
	i1, _ := items.Lookup("i1")
	assert.Equal(t, []int32{i1}, m.SeenItems(u1))
	assert.Equal(t, []float32{1}, m.Weights(u1))
}

func TestReadCSVMinUserInteractions(t *testing.T) {
	m, users, _, err := ReadCSV(strings.NewReader(ratings), CSVOptions{
		Header:              true,
		PositiveThreshold:   4.5,
		MinUserInteractions: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, users.Strings())
	assert.Equal(t, 3, m.Count())
}

func TestReadCSVSeparator(t *testing.T) {
	m, users, items, err := ReadCSV(strings.NewReader("1\t10\n1\t11\n2\t10\n"), CSVOptions{Separator: '\t'})
	require.NoError(t, err)
	assert.Equal(t, 2, users.Count())
	assert.Equal(t, 2, items.Count())
	assert.Equal(t, []float32{1, 1}, m.Weights(0))
}

func TestReadCSVErrors(t *testing.T) {
	_, _, _, err := ReadCSV(strings.NewReader("u1\n"), CSVOptions{})
	assert.Error(t, err)
	_, _, _, err = ReadCSV(strings.NewReader("u1,i1,five\n"), CSVOptions{})
	assert.Error(t, err)
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratings.csv")
	require.NoError(t, os.WriteFile(path, []byte(ratings), 0644))
	m, _, _, err := LoadCSV(path, CSVOptions{Header: true})
	require.NoError(t, err)
	assert.Equal(t, 6, m.Count())

	_, _, _, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"), CSVOptions{})
	assert.Error(t, err)
}
