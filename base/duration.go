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

package base

import (
	"fmt"
	"time"
)

var durationUnits = []struct {
	name   string
	factor float64
}{
	{"min", 60},
	{"hour", 60},
	{"day", 24},
	{"year", 365},
}

// BiggestUnit converts a duration to the largest unit in which its value
// is still at least one: sec, min, hour, day or year.
func BiggestUnit(d time.Duration) (float64, string) {
	value, unit := d.Seconds(), "sec"
	for _, u := range durationUnits {
		next := value / u.factor
		if next < 1 {
			break
		}
		value, unit = next, u.name
	}
	return value, unit
}

// FormatDuration formats a duration in its biggest unit, e.g. "2.50 min".
func FormatDuration(d time.Duration) string {
	value, unit := BiggestUnit(d)
	return fmt.Sprintf("%.2f %s", value, unit)
}
