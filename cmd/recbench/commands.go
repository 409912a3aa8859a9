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
	"context"
	"os"
	"os/signal"
	"strconv"

	"github.com/chewxy/math32"
	"github.com/gorse-io/recbench/base/log"
	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// signalContext is canceled on interrupt.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

var fitCommand = &cobra.Command{
	Use:   "fit",
	Short: "Train a model and save it with the dataset split",
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		conf, err := loadConfig(configPath)
		if err != nil {
			log.Logger().Fatal("failed to load config", zap.Error(err))
		}
		ctx, cancel := signalContext()
		defer cancel()
		if err = fit(ctx, conf); err != nil {
			log.Logger().Fatal("failed to fit model", zap.Error(err))
		}
	},
}

var recommendCommand = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend items for users",
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		users, _ := cmd.Flags().GetStringSlice("user")
		users = append(users, args...)
		if len(users) == 0 {
			log.Logger().Fatal("at least one user is required")
		}
		conf, err := loadConfig(configPath)
		if err != nil {
			log.Logger().Fatal("failed to load config", zap.Error(err))
		}
		ctx, cancel := signalContext()
		defer cancel()
		rows, err := recommend(ctx, conf, users)
		if err != nil {
			log.Logger().Fatal("failed to recommend", zap.Error(err))
		}
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("User", "Rank", "Item", "Score")
		if err = table.Bulk(rows); err != nil {
			log.Logger().Fatal("failed to render table", zap.Error(err))
		}
		if err = table.Render(); err != nil {
			log.Logger().Fatal("failed to render table", zap.Error(err))
		}
	},
}

var evaluateCommand = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a saved model on the test split",
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		conf, err := loadConfig(configPath)
		if err != nil {
			log.Logger().Fatal("failed to load config", zap.Error(err))
		}
		ctx, cancel := signalContext()
		defer cancel()
		var bar *progressbar.ProgressBar
		scores, err := evaluate(ctx, conf, func(total int) func(int) {
			bar = progressbar.Default(int64(total), "Evaluating")
			return func(n int) {
				_ = bar.Add(n)
			}
		})
		if bar != nil {
			_ = bar.Finish()
		}
		if err != nil {
			log.Logger().Fatal("failed to evaluate model", zap.Error(err))
		}
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Metric", "Score")
		for i, name := range conf.Rank.Metrics {
			if err = table.Append([]string{name + "@" + strconv.Itoa(conf.Rank.Cutoff), formatScore(scores[i])}); err != nil {
				log.Logger().Fatal("failed to render table", zap.Error(err))
			}
		}
		if err = table.Render(); err != nil {
			log.Logger().Fatal("failed to render table", zap.Error(err))
		}
	},
}

func formatScore(score float32) string {
	if math32.IsNaN(score) {
		return "N/A"
	}
	return strconv.FormatFloat(float64(score), 'f', 6, 32)
}
