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

package model

import (
	"bufio"
	"context"
	"io"
	"sync"

	"github.com/gorse-io/recbench/base/encoding"
	"github.com/gorse-io/recbench/base/log"
	"github.com/gorse-io/recbench/storage/blob"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]func() Model)
)

// Register makes a model constructor available to UnmarshalModel under
// name. Backends register themselves in init.
func Register(name string, newModel func() Model) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic("model: register called twice for " + name)
	}
	registry[name] = newModel
}

// MarshalModel writes the name of the model followed by the model.
func MarshalModel(w io.Writer, m Model) error {
	if err := encoding.WriteString(w, m.Name()); err != nil {
		return errors.Trace(err)
	}
	if err := m.Marshal(w); err != nil {
		return errors.Trace(err)
	}
	return nil
}

func UnmarshalModel(r io.Reader) (Model, error) {
	name, err := encoding.ReadString(r)
	if err != nil {
		return nil, errors.Trace(err)
	}
	registryMu.RLock()
	newModel, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, errors.NotFoundf("model %q", name)
	}
	m := newModel()
	if err = m.Unmarshal(r); err != nil {
		return nil, errors.Trace(err)
	}
	return m, nil
}

// Save writes a model into a blob.
func Save(ctx context.Context, store blob.Store, name string, m Model) error {
	w, err := store.Create(ctx, name)
	if err != nil {
		return errors.Trace(err)
	}
	buf := bufio.NewWriter(w)
	if err = MarshalModel(buf, m); err == nil {
		err = buf.Flush()
	}
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return errors.Annotatef(err, "save model %s", name)
	}
	log.Logger().Info("save model", zap.String("name", name), zap.String("model", m.Name()))
	return nil
}

// Load reads a model from a blob.
func Load(ctx context.Context, store blob.Store, name string) (Model, error) {
	r, err := store.Open(ctx, name)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer r.Close()
	m, err := UnmarshalModel(bufio.NewReader(r))
	if err != nil {
		return nil, errors.Annotatef(err, "load model %s", name)
	}
	log.Logger().Info("load model", zap.String("name", name), zap.String("model", m.Name()))
	return m, nil
}
