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

// Package config loads the TOML configuration of the harness. Every key
// can be overridden by an environment variable named after its path, with
// the RECBENCH_ prefix: storage.s3.endpoint becomes RECBENCH_STORAGE_S3_ENDPOINT.
package config

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/juju/errors"
	"github.com/spf13/viper"
)

const EnvPrefix = "RECBENCH"

type Config struct {
	Dataset DatasetConfig `mapstructure:"dataset"`
	Model   ModelConfig   `mapstructure:"model"`
	Rank    RankConfig    `mapstructure:"rank"`
	Storage StorageConfig `mapstructure:"storage"`
}

type DatasetConfig struct {
	Path                string  `mapstructure:"path" validate:"required"`
	Separator           string  `mapstructure:"separator" validate:"len=1"`
	Header              bool    `mapstructure:"header"`
	PositiveThreshold   float32 `mapstructure:"positive_threshold" validate:"gte=0"`
	MinUserInteractions int     `mapstructure:"min_user_interactions" validate:"gte=0"`
	TrainRatio          float64 `mapstructure:"train_ratio" validate:"gt=0,lte=1"`
	Seed                int64   `mapstructure:"seed"`
}

type ModelConfig struct {
	Type        string  `mapstructure:"type" validate:"oneof=pop bpr"`
	NFactors    int     `mapstructure:"n_factors" validate:"gt=0"`
	NEpochs     int     `mapstructure:"n_epochs" validate:"gt=0"`
	Lr          float32 `mapstructure:"lr" validate:"gt=0"`
	Reg         float32 `mapstructure:"reg" validate:"gte=0"`
	InitMean    float32 `mapstructure:"init_mean"`
	InitStdDev  float32 `mapstructure:"init_std" validate:"gte=0"`
	RandomState int64   `mapstructure:"random_state"`
	FitJobs     int     `mapstructure:"fit_jobs" validate:"gt=0"`
	Verbose     int     `mapstructure:"verbose" validate:"gt=0"`
}

type RankConfig struct {
	Cutoff     int  `mapstructure:"cutoff" validate:"gt=0"`
	BatchSize  int  `mapstructure:"batch_size" validate:"gt=0"`
	RemoveSeen bool `mapstructure:"remove_seen"`
	// ExcludeTopPopular globally excludes the most popular training items.
	ExcludeTopPopular int      `mapstructure:"exclude_top_popular" validate:"gte=0"`
	Metrics           []string `mapstructure:"metrics" validate:"min=1,dive,oneof=ndcg precision recall hr map mrr"`
}

type StorageConfig struct {
	Type          string          `mapstructure:"type" validate:"oneof=posix s3 gcs azure"`
	Dir           string          `mapstructure:"dir"`
	ModelName     string          `mapstructure:"model_name" validate:"required"`
	SplitName     string          `mapstructure:"split_name" validate:"required"`
	Retries       int             `mapstructure:"retries" validate:"gte=0"`
	RetryInterval time.Duration   `mapstructure:"retry_interval" validate:"gte=0"`
	S3            S3Config        `mapstructure:"s3"`
	GCS           GCSConfig       `mapstructure:"gcs"`
	Azure         AzureBlobConfig `mapstructure:"azure"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

type GCSConfig struct {
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

type AzureBlobConfig struct {
	ConnectionString string `mapstructure:"connection_string"`
	AccountName      string `mapstructure:"account_name"`
	AccountKey       string `mapstructure:"account_key"`
	Endpoint         string `mapstructure:"endpoint"`
	Container        string `mapstructure:"container"`
	Prefix           string `mapstructure:"prefix"`
}

func GetDefaultConfig() *Config {
	return &Config{
		Dataset: DatasetConfig{
			Separator:  ",",
			Header:     true,
			TrainRatio: 0.8,
		},
		Model: ModelConfig{
			Type:       "bpr",
			NFactors:   16,
			NEpochs:    100,
			Lr:         0.05,
			Reg:        0.01,
			InitStdDev: 0.001,
			FitJobs:    1,
			Verbose:    10,
		},
		Rank: RankConfig{
			Cutoff:     10,
			BatchSize:  128,
			RemoveSeen: true,
			Metrics:    []string{"ndcg", "precision", "recall"},
		},
		Storage: StorageConfig{
			Type:          "posix",
			Dir:           "recbench",
			ModelName:     "model.bin",
			SplitName:     "split.bin",
			Retries:       3,
			RetryInterval: 500 * time.Millisecond,
		},
	}
}

func setDefault(v *viper.Viper) {
	defaultConfig := GetDefaultConfig()
	// [dataset]
	v.SetDefault("dataset.path", defaultConfig.Dataset.Path)
	v.SetDefault("dataset.separator", defaultConfig.Dataset.Separator)
	v.SetDefault("dataset.header", defaultConfig.Dataset.Header)
	v.SetDefault("dataset.positive_threshold", defaultConfig.Dataset.PositiveThreshold)
	v.SetDefault("dataset.min_user_interactions", defaultConfig.Dataset.MinUserInteractions)
	v.SetDefault("dataset.train_ratio", defaultConfig.Dataset.TrainRatio)
	v.SetDefault("dataset.seed", defaultConfig.Dataset.Seed)
	// [model]
	v.SetDefault("model.type", defaultConfig.Model.Type)
	v.SetDefault("model.n_factors", defaultConfig.Model.NFactors)
	v.SetDefault("model.n_epochs", defaultConfig.Model.NEpochs)
	v.SetDefault("model.lr", defaultConfig.Model.Lr)
	v.SetDefault("model.reg", defaultConfig.Model.Reg)
	v.SetDefault("model.init_mean", defaultConfig.Model.InitMean)
	v.SetDefault("model.init_std", defaultConfig.Model.InitStdDev)
	v.SetDefault("model.random_state", defaultConfig.Model.RandomState)
	v.SetDefault("model.fit_jobs", defaultConfig.Model.FitJobs)
	v.SetDefault("model.verbose", defaultConfig.Model.Verbose)
	// [rank]
	v.SetDefault("rank.cutoff", defaultConfig.Rank.Cutoff)
	v.SetDefault("rank.batch_size", defaultConfig.Rank.BatchSize)
	v.SetDefault("rank.remove_seen", defaultConfig.Rank.RemoveSeen)
	v.SetDefault("rank.exclude_top_popular", defaultConfig.Rank.ExcludeTopPopular)
	v.SetDefault("rank.metrics", defaultConfig.Rank.Metrics)
	// [storage]
	v.SetDefault("storage.type", defaultConfig.Storage.Type)
	v.SetDefault("storage.dir", defaultConfig.Storage.Dir)
	v.SetDefault("storage.model_name", defaultConfig.Storage.ModelName)
	v.SetDefault("storage.split_name", defaultConfig.Storage.SplitName)
	v.SetDefault("storage.retries", defaultConfig.Storage.Retries)
	v.SetDefault("storage.retry_interval", defaultConfig.Storage.RetryInterval)
	for _, key := range []string{
		"storage.s3.endpoint", "storage.s3.access_key_id", "storage.s3.secret_access_key",
		"storage.s3.bucket", "storage.s3.prefix",
		"storage.gcs.bucket", "storage.gcs.prefix", "storage.gcs.credentials_file",
		"storage.azure.connection_string", "storage.azure.account_name", "storage.azure.account_key",
		"storage.azure.endpoint", "storage.azure.container", "storage.azure.prefix",
	} {
		v.SetDefault(key, "")
	}
	v.SetDefault("storage.s3.use_ssl", false)
}

// LoadConfig reads a TOML file, applies environment overrides and
// validates the result. An empty path loads defaults and environment only.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefault(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Trace(err)
		}
	}

	var conf Config
	if err := v.Unmarshal(&conf, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, errors.Trace(err)
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &conf, nil
}

func (config *Config) Validate() error {
	validate := validator.New()
	validate.RegisterStructValidation(validateStorage, StorageConfig{})
	return validate.Struct(config)
}

func validateStorage(sl validator.StructLevel) {
	storage := sl.Current().Interface().(StorageConfig)
	switch storage.Type {
	case "posix":
		if storage.Dir == "" {
			sl.ReportError(storage.Dir, "Dir", "dir", "required_for_posix", "")
		}
	case "s3":
		if storage.S3.Endpoint == "" {
			sl.ReportError(storage.S3.Endpoint, "S3.Endpoint", "endpoint", "required_for_s3", "")
		}
		if storage.S3.Bucket == "" {
			sl.ReportError(storage.S3.Bucket, "S3.Bucket", "bucket", "required_for_s3", "")
		}
	case "gcs":
		if storage.GCS.Bucket == "" {
			sl.ReportError(storage.GCS.Bucket, "GCS.Bucket", "bucket", "required_for_gcs", "")
		}
	case "azure":
		if storage.Azure.Container == "" {
			sl.ReportError(storage.Azure.Container, "Azure.Container", "container", "required_for_azure", "")
		}
		if storage.Azure.ConnectionString == "" && (storage.Azure.AccountName == "" || storage.Azure.AccountKey == "") {
			sl.ReportError(storage.Azure.AccountName, "Azure.AccountName", "account_name", "required_for_azure", "")
		}
	}
}
