// Copyright 2024 gorse Project Authors
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

package blob

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorse-io/recbench/config"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// StoreTestSuite runs the same checks against every blob store.
type StoreTestSuite struct {
	suite.Suite
	Store Store
}

func (s *StoreTestSuite) write(name, content string) {
	w, err := s.Store.Create(context.Background(), name)
	s.Require().NoError(err)
	_, err = io.Copy(w, strings.NewReader(content))
	s.Require().NoError(err)
	s.Require().NoError(w.Close())
}

func (s *StoreTestSuite) read(name string) string {
	r, err := s.Store.Open(context.Background(), name)
	s.Require().NoError(err)
	data, err := io.ReadAll(r)
	s.Require().NoError(err)
	s.Require().NoError(r.Close())
	return string(data)
}

func (s *StoreTestSuite) TestCreateAndOpen() {
	ctx := context.Background()
	s.write("test.txt", "hello")
	s.Equal("hello", s.read("test.txt"))

	// overwrite
	s.write("test.txt", "hello world")
	s.Equal("hello world", s.read("test.txt"))

	// nested name
	s.write("models/bpr.bin", strings.Repeat("x", 1<<20))
	s.Len(s.read("models/bpr.bin"), 1<<20)

	names, err := s.Store.List(ctx)
	s.NoError(err)
	s.ElementsMatch([]string{"test.txt", "models/bpr.bin"}, names)

	s.NoError(s.Store.Remove(ctx, "test.txt"))
	s.NoError(s.Store.Remove(ctx, "models/bpr.bin"))
	names, err = s.Store.List(ctx)
	s.NoError(err)
	s.Empty(names)
}

func (s *StoreTestSuite) TestOpenMissing() {
	_, err := s.Store.Open(context.Background(), "missing.bin")
	s.Error(err)
}

type flakyStore struct {
	Store
	failures int
	calls    int
}

func (f *flakyStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("connection reset")
	}
	return f.Store.Open(ctx, name)
}

func TestWithRetry(t *testing.T) {
	posix := NewPOSIX(t.TempDir())
	w, err := posix.Create(context.Background(), "model.bin")
	require.NoError(t, err)
	_, err = w.Write([]byte("model"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	// transient failures are retried
	flaky := &flakyStore{Store: posix, failures: 2}
	r, err := WithRetry(flaky, 3, time.Millisecond).Open(context.Background(), "model.bin")
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	assert.NoError(t, err)
	assert.Equal(t, "model", string(data))
	assert.NoError(t, r.Close())
	assert.Equal(t, 3, flaky.calls)

	// retries are bounded
	flaky = &flakyStore{Store: posix, failures: 10}
	_, err = WithRetry(flaky, 2, time.Millisecond).Open(context.Background(), "model.bin")
	assert.ErrorContains(t, err, "connection reset")
	assert.Equal(t, 3, flaky.calls)

	// a missing blob is not retried
	flaky = &flakyStore{Store: posix}
	_, err = WithRetry(flaky, 5, time.Millisecond).Open(context.Background(), "missing.bin")
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, 1, flaky.calls)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(config.StorageConfig{Type: "posix", Dir: dir})
	require.NoError(t, err)
	assert.IsType(t, &POSIX{}, store)

	store, err = Open(config.StorageConfig{Type: "posix", Dir: dir, Retries: 2})
	require.NoError(t, err)
	assert.IsType(t, &retryStore{}, store)

	_, err = Open(config.StorageConfig{Type: "ftp"})
	assert.ErrorIs(t, err, errors.NotSupported)

	_, err = Open(config.StorageConfig{Type: "azure"})
	assert.Error(t, err)
}

func TestUploadError(t *testing.T) {
	w := newUpload(func(r io.Reader) error {
		return errors.New("quota exceeded")
	})
	// the writer unblocks once the upload gives up
	_, err := io.Copy(w, strings.NewReader(strings.Repeat("x", 1<<20)))
	assert.ErrorContains(t, err, "quota exceeded")
	assert.ErrorContains(t, w.Close(), "quota exceeded")
}

func TestPOSIXAtomicCreate(t *testing.T) {
	dir := t.TempDir()
	store := NewPOSIX(dir)
	w, err := store.Create(context.Background(), "model.bin")
	require.NoError(t, err)
	_, err = w.Write([]byte("partial"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "model.bin"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	names, err := store.List(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, names)
	require.NoError(t, w.Close())
	_, err = os.Stat(filepath.Join(dir, "model.bin"))
	assert.NoError(t, err)
}

func TestPOSIX(t *testing.T) {
	suite.Run(t, &StoreTestSuite{Store: NewPOSIX(filepath.Join(t.TempDir(), "blob"))})
}
