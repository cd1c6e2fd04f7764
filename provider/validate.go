// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
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
package provider

import (
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ValidateSeries drops rows that fail the basic validity filter: dates
// must be strictly increasing, volume non-negative, and OHLC ordered
// low <= open,close <= high. Returns the filtered series and the count
// of rows dropped.
func ValidateSeries(symbol string, rows PriceSeries) (PriceSeries, int) {
	clean := make(PriceSeries, 0, len(rows))
	dropped := 0
	lastDate := ""

	for _, row := range rows {
		if lastDate != "" && row.Date <= lastDate {
			dropped++
			continue
		}
		if row.Volume.LessThan(decimal.Zero) {
			dropped++
			continue
		}
		if row.Low.GreaterThan(row.Open) || row.Low.GreaterThan(row.Close) || row.Low.GreaterThan(row.High) {
			dropped++
			continue
		}
		if row.High.LessThan(row.Open) || row.High.LessThan(row.Close) {
			dropped++
			continue
		}
		clean = append(clean, row)
		lastDate = row.Date
	}

	if dropped > 0 {
		log.Warn().Str("symbol", symbol).Int("dropped", dropped).Msg("dropped price rows failing validity filter")
	}

	return clean, dropped
}
