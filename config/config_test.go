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
package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	cfg := Load(v)

	require.Equal(t, 100, cfg.IncrementalThresholdDays)
	require.Equal(t, 90, cfg.FinancialRefreshDays)
	require.Equal(t, "adj_close", cfg.PriceSource)
	require.Equal(t, "backfill", cfg.MissingPriceStrategy)
	require.Equal(t, 4, cfg.WorkerPoolSize)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("STOCK_INCREMENTAL_THRESHOLD_DAYS", "42")
	t.Setenv("PRICE_SOURCE", "close")

	v := viper.New()
	cfg := Load(v)

	require.Equal(t, 42, cfg.IncrementalThresholdDays)
	require.Equal(t, "close", cfg.PriceSource)
}
