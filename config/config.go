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

// Package config resolves the engine's typed configuration from
// environment variables, an optional TOML file, and built-in defaults.
// No other package reads viper directly; every tunable is a field here
// with a documented default.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config is the fully-resolved, read-only configuration for one process.
// It is constructed once by Load and passed by value/pointer to
// components at wiring time; nothing mutates it afterward.
type Config struct {
	// DBPath is the filesystem path to the SQLite-compatible store.
	DBPath string

	// BulkProviderAPIKey authenticates the bulk-historical price adapter.
	BulkProviderAPIKey string

	// IncrementalProviderAPIKey authenticates the incremental-API price
	// adapter.
	IncrementalProviderAPIKey string

	// FundamentalsProviderAPIKey authenticates the fundamentals adapter.
	FundamentalsProviderAPIKey string

	// ProviderRateLimitPerMinute bounds outbound requests per minute for
	// rate-limited adapters.
	ProviderRateLimitPerMinute int

	// IncrementalThresholdDays is the freshness cutoff the acquisition
	// policy uses to choose between the API and bulk providers.
	IncrementalThresholdDays int

	// FinancialRefreshDays controls how stale a symbol's fundamentals may
	// be before the policy schedules a refresh.
	FinancialRefreshDays int

	// MaxRetries bounds how many times a provider adapter retries a single
	// upstream call after its first attempt before giving up as
	// provider_unavailable.
	MaxRetries int

	// BaseDelay is the starting backoff delay; actual delay grows
	// exponentially with jitter on each retry.
	BaseDelay time.Duration

	// PriceSource holds the resolved price_source setting ("adj_close" or
	// "close"). The valuation commands do not read it: calculate-pnl and
	// batch-calculate take the price column from their --basis flag, which
	// defaults to adj_close.
	PriceSource string

	// MissingPriceStrategy controls PnL valuation when the exact date has
	// no stored price: "backfill" or "strict".
	MissingPriceStrategy string

	// WorkerPoolSize bounds batch acquisition concurrency.
	WorkerPoolSize int

	// HistoryStartDefault is the from-date used for a full bulk refresh
	// when no prior data is stored.
	HistoryStartDefault string

	// PerAttemptTimeout bounds a single upstream HTTP call.
	PerAttemptTimeout time.Duration

	// TotalDeadline bounds the sum of all attempts (including retries)
	// for one provider call.
	TotalDeadline time.Duration
}

// Load resolves configuration from environment variables, an optional
// TOML config file, and the defaults below, in that order of precedence
// (env overrides file, file overrides default).
func Load(v *viper.Viper) *Config {
	if v == nil {
		v = viper.GetViper()
	}

	v.SetDefault("db_path", "pvledger.db")
	v.SetDefault("bulk_provider_api_key", "")
	v.SetDefault("incremental_provider_api_key", "")
	v.SetDefault("fundamentals_provider_api_key", "")
	v.SetDefault("provider_rate_limit_per_minute", 300)
	v.SetDefault("stock_incremental_threshold_days", 100)
	v.SetDefault("financial_refresh_days", 90)
	v.SetDefault("max_retries", 5)
	v.SetDefault("base_delay_seconds", 1)
	v.SetDefault("price_source", "adj_close")
	v.SetDefault("missing_price_strategy", "backfill")
	v.SetDefault("worker_pool_size", 4)
	v.SetDefault("history_start_default", "1990-01-01")
	v.SetDefault("per_attempt_timeout_seconds", 30)
	v.SetDefault("total_deadline_seconds", 300)

	v.AutomaticEnv()

	return &Config{
		DBPath:                     v.GetString("db_path"),
		BulkProviderAPIKey:         v.GetString("bulk_provider_api_key"),
		IncrementalProviderAPIKey:  v.GetString("incremental_provider_api_key"),
		FundamentalsProviderAPIKey: v.GetString("fundamentals_provider_api_key"),
		ProviderRateLimitPerMinute: v.GetInt("provider_rate_limit_per_minute"),
		IncrementalThresholdDays:   v.GetInt("stock_incremental_threshold_days"),
		FinancialRefreshDays:       v.GetInt("financial_refresh_days"),
		MaxRetries:                 v.GetInt("max_retries"),
		BaseDelay:                  time.Duration(v.GetInt("base_delay_seconds")) * time.Second,
		PriceSource:                v.GetString("price_source"),
		MissingPriceStrategy:       v.GetString("missing_price_strategy"),
		WorkerPoolSize:             v.GetInt("worker_pool_size"),
		HistoryStartDefault:        v.GetString("history_start_default"),
		PerAttemptTimeout:          time.Duration(v.GetInt("per_attempt_timeout_seconds")) * time.Second,
		TotalDeadline:              time.Duration(v.GetInt("total_deadline_seconds")) * time.Second,
	}
}
