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
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gorse-io/recbench/base/log"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

type CSVOptions struct {
	// Separator between fields, ',' if zero.
	Separator rune
	// Header skips the first line.
	Header bool
	// PositiveThreshold turns ratings into implicit feedback: ratings not
	// below it become 1 and the others 0. Zero keeps raw ratings.
	PositiveThreshold float32
	// MinUserInteractions drops users with fewer positive interactions.
	MinUserInteractions int
}

// LoadCSV reads "user,item[,rating[,timestamp]]" records. A missing rating
// counts as 1.
func LoadCSV(path string, opts CSVOptions) (*InteractionMatrix, *FreqDict, *FreqDict, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, errors.Trace(err)
	}
	defer file.Close()
	m, users, items, err := ReadCSV(file, opts)
	if err != nil {
		return nil, nil, nil, errors.Annotatef(err, "load %s", path)
	}
	log.Logger().Info("load interactions",
		zap.String("path", path),
		zap.Int("n_users", m.CountUsers()),
		zap.Int("n_items", m.CountItems()),
		zap.Int("n_interactions", m.Count()))
	return m, users, items, nil
}

func ReadCSV(r io.Reader, opts CSVOptions) (*InteractionMatrix, *FreqDict, *FreqDict, error) {
	reader := csv.NewReader(r)
	reader.Comma = ','
	if opts.Separator != 0 {
		reader.Comma = opts.Separator
	}
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true
	if opts.Header {
		if _, err := reader.Read(); err != nil && err != io.EOF {
			return nil, nil, nil, errors.Trace(err)
		}
	}

	type record struct {
		user, item string
		weight     float32
	}
	var (
		records   []record
		positives = make(map[string]int)
	)
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, nil, nil, errors.Trace(err)
		}
		if len(fields) < 2 {
			line, _ := reader.FieldPos(0)
			return nil, nil, nil, errors.NotValidf("line %d: %d fields", line, len(fields))
		}
		weight := float32(1)
		if len(fields) > 2 {
			rating, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 32)
			if err != nil {
				line, _ := reader.FieldPos(2)
				return nil, nil, nil, errors.Annotatef(err, "line %d", line)
			}
			weight = float32(rating)
		}
		if opts.PositiveThreshold > 0 {
			if weight >= opts.PositiveThreshold {
				weight = 1
			} else {
				weight = 0
			}
		}
		rec := record{user: strings.TrimSpace(fields[0]), item: strings.TrimSpace(fields[1]), weight: weight}
		if weight != 0 {
			positives[rec.user]++
		}
		records = append(records, rec)
	}

	builder := NewBuilder()
	dropped := 0
	for _, rec := range records {
		if positives[rec.user] < opts.MinUserInteractions {
			dropped++
			continue
		}
		builder.Add(rec.user, rec.item, rec.weight)
	}
	if dropped > 0 {
		log.Logger().Debug("drop records of inactive users", zap.Int("n_records", dropped))
	}
	return builder.Build()
}
