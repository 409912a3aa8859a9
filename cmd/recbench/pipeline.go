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

package main

import (
	"bufio"
	"context"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/gorse-io/recbench/base"
	"github.com/gorse-io/recbench/base/log"
	"github.com/gorse-io/recbench/config"
	"github.com/gorse-io/recbench/dataset"
	"github.com/gorse-io/recbench/mask"
	"github.com/gorse-io/recbench/model"
	"github.com/gorse-io/recbench/model/cf"
	"github.com/gorse-io/recbench/model/pop"
	"github.com/gorse-io/recbench/rank"
	"github.com/gorse-io/recbench/storage/blob"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

func loadConfig(configPath string) (*config.Config, error) {
	log.Logger().Info("load config", zap.String("config", configPath))
	return config.LoadConfig(configPath)
}

func newModel(cfg config.ModelConfig) (model.Model, error) {
	switch cfg.Type {
	case "pop":
		return pop.NewItemPop(), nil
	case "bpr":
		return cf.NewBPR(model.Params{
			model.NFactors:    cfg.NFactors,
			model.NEpochs:     cfg.NEpochs,
			model.Lr:          cfg.Lr,
			model.Reg:         cfg.Reg,
			model.InitMean:    cfg.InitMean,
			model.InitStdDev:  cfg.InitStdDev,
			model.RandomState: cfg.RandomState,
		}), nil
	default:
		return nil, errors.NotSupportedf("model %s", cfg.Type)
	}
}

func csvOptions(cfg config.DatasetConfig) dataset.CSVOptions {
	return dataset.CSVOptions{
		Separator:           []rune(cfg.Separator)[0],
		Header:              cfg.Header,
		PositiveThreshold:   cfg.PositiveThreshold,
		MinUserInteractions: cfg.MinUserInteractions,
	}
}

func saveSplit(ctx context.Context, store blob.Store, name string, split *dataset.Split) error {
	w, err := store.Create(ctx, name)
	if err != nil {
		return errors.Trace(err)
	}
	buf := bufio.NewWriter(w)
	if err = split.Marshal(buf); err == nil {
		err = buf.Flush()
	}
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	return errors.Annotatef(err, "save split %s", name)
}

func loadSplit(ctx context.Context, store blob.Store, name string) (*dataset.Split, error) {
	r, err := store.Open(ctx, name)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer r.Close()
	split, err := dataset.UnmarshalSplit(bufio.NewReader(r))
	if err != nil {
		return nil, errors.Annotatef(err, "load split %s", name)
	}
	return split, nil
}

// fit loads the dataset, splits it, trains the configured model and stores
// both the model and the split.
// storageURL names the configured store for logs. Credentials embedded in
// an endpoint are kept, RedactURL masks them.
func storageURL(cfg config.StorageConfig) string {
	switch cfg.Type {
	case "s3":
		endpoint := strings.TrimSuffix(cfg.S3.Endpoint, "/")
		if endpoint == "" {
			return "s3://" + path.Join(cfg.S3.Bucket, cfg.S3.Prefix)
		}
		return endpoint + "/" + path.Join(cfg.S3.Bucket, cfg.S3.Prefix)
	case "gcs":
		return "gs://" + path.Join(cfg.GCS.Bucket, cfg.GCS.Prefix)
	case "azure":
		if cfg.Azure.Endpoint != "" {
			return strings.TrimSuffix(cfg.Azure.Endpoint, "/") + "/" + path.Join(cfg.Azure.Container, cfg.Azure.Prefix)
		}
		return "azure://" + path.Join(cfg.Azure.Container, cfg.Azure.Prefix)
	default:
		return "file://" + cfg.Dir
	}
}

func openStore(cfg config.StorageConfig) (blob.Store, error) {
	store, err := blob.Open(cfg)
	if err != nil {
		return nil, errors.Trace(err)
	}
	log.Logger().Debug("open storage", zap.String("url", log.RedactURL(storageURL(cfg))))
	return store, nil
}

func fit(ctx context.Context, conf *config.Config) error {
	matrix, users, items, err := dataset.LoadCSV(conf.Dataset.Path, csvOptions(conf.Dataset))
	if err != nil {
		return errors.Trace(err)
	}
	train, test, err := dataset.SplitUserWise(matrix, conf.Dataset.TrainRatio, conf.Dataset.Seed)
	if err != nil {
		return errors.Trace(err)
	}
	m, err := newModel(conf.Model)
	if err != nil {
		return errors.Trace(err)
	}
	start := time.Now()
	fitConfig := model.NewFitConfig().SetJobs(conf.Model.FitJobs).SetVerbose(conf.Model.Verbose)
	if err = m.Fit(ctx, train, fitConfig); err != nil {
		return errors.Annotatef(err, "fit %s", m.Name())
	}
	log.Logger().Info("fit model complete",
		zap.String("model", m.Name()),
		zap.Int("n_train", train.Count()),
		zap.Int("n_test", test.Count()),
		zap.String("fit_time", base.FormatDuration(time.Since(start))))

	store, err := openStore(conf.Storage)
	if err != nil {
		return errors.Trace(err)
	}
	if err = model.Save(ctx, store, conf.Storage.ModelName, m); err != nil {
		return errors.Trace(err)
	}
	split := &dataset.Split{Train: train, Test: test, Users: users, Items: items}
	return saveSplit(ctx, store, conf.Storage.SplitName, split)
}

// session is a loaded model ready to rank.
type session struct {
	split  *dataset.Split
	engine *rank.Engine
	opts   []rank.Option
}

func openSession(ctx context.Context, conf *config.Config) (*session, error) {
	store, err := openStore(conf.Storage)
	if err != nil {
		return nil, errors.Trace(err)
	}
	split, err := loadSplit(ctx, store, conf.Storage.SplitName)
	if err != nil {
		return nil, errors.Trace(err)
	}
	m, err := model.Load(ctx, store, conf.Storage.ModelName)
	if err != nil {
		return nil, errors.Trace(err)
	}
	itemMask := mask.NewItemMask()
	opts := []rank.Option{rank.WithRemoveSeen(conf.Rank.RemoveSeen)}
	if conf.Rank.ExcludeTopPopular > 0 {
		if err = itemMask.SetGlobalExclusions(split.Train.TopPopular(conf.Rank.ExcludeTopPopular)); err != nil {
			return nil, errors.Trace(err)
		}
		opts = append(opts, rank.WithGlobalExclusions())
	}
	engine, err := rank.NewEngine(m, split.Train, itemMask)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &session{split: split, engine: engine, opts: opts}, nil
}

// recommend ranks items for users given by their external ids and returns
// one row per recommended item.
func recommend(ctx context.Context, conf *config.Config, userNames []string) ([][]string, error) {
	s, err := openSession(ctx, conf)
	if err != nil {
		return nil, err
	}
	users := make([]int32, len(userNames))
	for i, name := range userNames {
		user, ok := s.split.Users.Lookup(name)
		if !ok {
			return nil, errors.NotFoundf("user %s", name)
		}
		users[i] = user
	}
	opts := append(s.opts[:len(s.opts):len(s.opts)], rank.WithCutoff(conf.Rank.Cutoff), rank.WithScores())
	result, err := s.engine.Rank(ctx, users, opts...)
	if err != nil {
		return nil, err
	}
	var rows [][]string
	for i, list := range result.Lists {
		for j, item := range list {
			itemName, _ := s.split.Items.String(item)
			rows = append(rows, []string{
				userNames[i],
				strconv.Itoa(j + 1),
				itemName,
				strconv.FormatFloat(float64(result.Scores.At(i, int(item))), 'f', 4, 32),
			})
		}
	}
	return rows, nil
}

// evaluate ranks every test user and returns the configured metrics in
// configuration order.
func evaluate(ctx context.Context, conf *config.Config, progress func(total int) func(int)) ([]float32, error) {
	s, err := openSession(ctx, conf)
	if err != nil {
		return nil, err
	}
	metrics := make([]rank.Metric, len(conf.Rank.Metrics))
	for i, name := range conf.Rank.Metrics {
		metrics[i] = rank.Metrics[name]
	}
	var report func(int)
	if progress != nil {
		report = progress(len(s.split.Test.ActiveUsers()))
	}
	return rank.Evaluate(ctx, s.engine, s.split.Test, conf.Rank.Cutoff, conf.Rank.BatchSize, report, metrics, s.opts...)
}
