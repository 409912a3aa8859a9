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

// Package blob stores trained models and dataset splits on a local
// directory or an object store.
package blob

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorse-io/recbench/base/log"
	"github.com/gorse-io/recbench/config"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

type Store interface {
	// Open a blob for reading.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Create a blob for writing. The blob is visible once Close returns
	// without error; Close waits for the upload to complete.
	Create(ctx context.Context, name string) (io.WriteCloser, error)
	// List names of all blobs.
	List(ctx context.Context) ([]string, error)
	// Remove a blob.
	Remove(ctx context.Context, name string) error
}

// Open connects the blob store selected by the configuration.
func Open(cfg config.StorageConfig) (Store, error) {
	var (
		store Store
		err   error
	)
	switch cfg.Type {
	case "s3":
		store, err = NewS3(cfg.S3)
	case "gcs":
		store, err = NewGCS(context.Background(), cfg.GCS)
	case "azure":
		store, err = NewAzureBlob(cfg.Azure)
	case "posix", "":
		store = NewPOSIX(cfg.Dir)
	default:
		return nil, errors.NotSupportedf("blob store %q", cfg.Type)
	}
	if err != nil {
		return nil, errors.Annotatef(err, "connect %s blob store", cfg.Type)
	}
	if cfg.Retries > 0 {
		store = WithRetry(store, cfg.Retries, cfg.RetryInterval)
	}
	return store, nil
}

// upload is a pipe whose reading end is consumed by a background upload.
// Close returns the error of the upload.
type upload struct {
	*io.PipeWriter
	done chan error
}

func newUpload(run func(r io.Reader) error) *upload {
	pr, pw := io.Pipe()
	u := &upload{PipeWriter: pw, done: make(chan error, 1)}
	go func() {
		err := run(pr)
		// unblock the writer if the upload stopped early
		if err != nil {
			_ = pr.CloseWithError(err)
		} else {
			_ = pr.Close()
		}
		u.done <- err
	}()
	return u
}

func (u *upload) Close() error {
	if err := u.PipeWriter.Close(); err != nil {
		return errors.Trace(err)
	}
	return <-u.done
}

type retryStore struct {
	Store
	maxTries uint
	interval time.Duration
}

// WithRetry retries Open and List on transient failures with exponential
// backoff. A missing blob is not retried.
func WithRetry(store Store, retries int, interval time.Duration) Store {
	return &retryStore{Store: store, maxTries: uint(retries) + 1, interval: interval}
}

func (s *retryStore) options() []backoff.RetryOption {
	b := backoff.NewExponentialBackOff()
	if s.interval > 0 {
		b.InitialInterval = s.interval
	}
	return []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxTries(s.maxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Logger().Warn("blob store operation failed, retrying",
				zap.Duration("next", next), zap.Error(err))
		}),
	}
}

func (s *retryStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	return backoff.Retry(ctx, func() (io.ReadCloser, error) {
		r, err := s.Store.Open(ctx, name)
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, errors.NotFound) {
			return nil, backoff.Permanent(err)
		}
		return r, err
	}, s.options()...)
}

func (s *retryStore) List(ctx context.Context) ([]string, error) {
	return backoff.Retry(ctx, func() ([]string, error) {
		return s.Store.List(ctx)
	}, s.options()...)
}
