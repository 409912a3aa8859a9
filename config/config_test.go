// Copyright 2020 gorse Project Authors
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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[dataset]
path = "ratings.csv"
separator = "\t"
header = false
positive_threshold = 5.0
min_user_interactions = 5
train_ratio = 0.9
seed = 42

[model]
type = "pop"
n_factors = 32
lr = 0.01

[rank]
cutoff = 20
exclude_top_popular = 10
metrics = ["ndcg", "map", "mrr"]

[storage]
type = "s3"
retry_interval = "2s"

[storage.s3]
endpoint = "localhost:9000"
bucket = "recbench"
prefix = "models"
`)
	conf, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "ratings.csv", conf.Dataset.Path)
	assert.Equal(t, "\t", conf.Dataset.Separator)
	assert.False(t, conf.Dataset.Header)
	assert.Equal(t, float32(5), conf.Dataset.PositiveThreshold)
	assert.Equal(t, 5, conf.Dataset.MinUserInteractions)
	assert.Equal(t, 0.9, conf.Dataset.TrainRatio)
	assert.Equal(t, int64(42), conf.Dataset.Seed)
	assert.Equal(t, "pop", conf.Model.Type)
	assert.Equal(t, 32, conf.Model.NFactors)
	assert.Equal(t, float32(0.01), conf.Model.Lr)
	assert.Equal(t, 20, conf.Rank.Cutoff)
	assert.Equal(t, 10, conf.Rank.ExcludeTopPopular)
	assert.Equal(t, []string{"ndcg", "map", "mrr"}, conf.Rank.Metrics)
	assert.Equal(t, "s3", conf.Storage.Type)
	assert.Equal(t, 2*time.Second, conf.Storage.RetryInterval)
	assert.Equal(t, "localhost:9000", conf.Storage.S3.Endpoint)
	assert.Equal(t, "recbench", conf.Storage.S3.Bucket)
	assert.Equal(t, "models", conf.Storage.S3.Prefix)

	// unset keys keep defaults
	assert.Equal(t, 100, conf.Model.NEpochs)
	assert.Equal(t, float32(0.01), conf.Model.Reg)
	assert.Equal(t, 128, conf.Rank.BatchSize)
	assert.True(t, conf.Rank.RemoveSeen)
	assert.Equal(t, "model.bin", conf.Storage.ModelName)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("RECBENCH_DATASET_PATH", "ratings.csv")
	conf, err := LoadConfig("")
	require.NoError(t, err)
	expected := GetDefaultConfig()
	expected.Dataset.Path = "ratings.csv"
	assert.Equal(t, expected, conf)
}

func TestLoadConfigEnv(t *testing.T) {
	path := writeConfig(t, `
[dataset]
path = "ratings.csv"

[model]
n_epochs = 10
`)
	t.Setenv("RECBENCH_MODEL_N_EPOCHS", "20")
	t.Setenv("RECBENCH_MODEL_LR", "0.1")
	t.Setenv("RECBENCH_RANK_METRICS", "hr,recall")
	t.Setenv("RECBENCH_STORAGE_TYPE", "gcs")
	t.Setenv("RECBENCH_STORAGE_GCS_BUCKET", "models")
	conf, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 20, conf.Model.NEpochs)
	assert.Equal(t, float32(0.1), conf.Model.Lr)
	assert.Equal(t, []string{"hr", "recall"}, conf.Rank.Metrics)
	assert.Equal(t, "gcs", conf.Storage.Type)
	assert.Equal(t, "models", conf.Storage.GCS.Bucket)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		conf := GetDefaultConfig()
		conf.Dataset.Path = "ratings.csv"
		return conf
	}
	assert.NoError(t, valid().Validate())

	cases := []func(*Config){
		func(c *Config) { c.Dataset.Path = "" },
		func(c *Config) { c.Dataset.Separator = ",;" },
		func(c *Config) { c.Dataset.TrainRatio = 0 },
		func(c *Config) { c.Dataset.TrainRatio = 1.5 },
		func(c *Config) { c.Model.Type = "als" },
		func(c *Config) { c.Model.NFactors = 0 },
		func(c *Config) { c.Rank.Cutoff = 0 },
		func(c *Config) { c.Rank.Metrics = []string{"auc"} },
		func(c *Config) { c.Rank.Metrics = nil },
		func(c *Config) { c.Storage.Type = "ftp" },
		func(c *Config) { c.Storage.Dir = "" },
		func(c *Config) { c.Storage.Type = "s3" },
		func(c *Config) { c.Storage.Type = "gcs" },
		func(c *Config) {
			c.Storage.Type = "azure"
			c.Storage.Azure.Container = "models"
		},
	}
	for i, mutate := range cases {
		conf := valid()
		mutate(conf)
		err := conf.Validate()
		var validationErrors validator.ValidationErrors
		assert.True(t, errors.As(err, &validationErrors), "case %d", i)
	}

	conf := valid()
	conf.Storage.Type = "azure"
	conf.Storage.Azure.Container = "models"
	conf.Storage.Azure.ConnectionString = "UseDevelopmentStorage=true"
	assert.NoError(t, conf.Validate())
}

func TestLoadConfigInvalid(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "[model]\ntype = \"als\"\n"))
	assert.Error(t, err)
	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestSampleConfig(t *testing.T) {
	conf, err := LoadConfig("config.toml")
	require.NoError(t, err)
	expected := GetDefaultConfig()
	expected.Dataset.Path = "ratings.csv"
	assert.Equal(t, expected, conf)
}
