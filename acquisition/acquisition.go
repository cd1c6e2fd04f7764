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

// Package acquisition orchestrates the provider adapters and the
// freshness policy against storage: fetch, normalize, dedupe, persist,
// one structured result per symbol.
package acquisition

import (
	"context"
	"sync"
	"time"

	"github.com/pvledger/pvledger/model"
	"github.com/pvledger/pvledger/policy"
	"github.com/pvledger/pvledger/provider"
	"github.com/pvledger/pvledger/storage"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const dateLayout = "2006-01-02"

// Result is the per-symbol outcome of one acquisition run.
type Result struct {
	Symbol        string
	Success       bool
	StrategyUsed  string
	RowsAdded     int
	FirstDate     string
	LastDate      string
	ErrorCategory model.Kind
	ErrorMessage  string
}

// Service is the orchestrator that fetches,
// normalizes, dedupes, and persists one symbol's market data.
type Service struct {
	store        *storage.Storage
	bulk         provider.BulkPriceProvider
	api          provider.ApiPriceProvider
	fundamentals provider.FundamentalsProvider

	thresholdDays        int
	historyStartDefault  string
	financialRefreshDays int
	workerPoolSize       int

	now func() time.Time
}

// New builds a Service. fundamentals may be nil when the caller never
// requests `include_financial`.
func New(store *storage.Storage, bulk provider.BulkPriceProvider, api provider.ApiPriceProvider, fundamentals provider.FundamentalsProvider, thresholdDays int, historyStartDefault string, financialRefreshDays, workerPoolSize int) *Service {
	if workerPoolSize <= 0 {
		workerPoolSize = 4
	}
	return &Service{
		store:                store,
		bulk:                 bulk,
		api:                  api,
		fundamentals:         fundamentals,
		thresholdDays:        thresholdDays,
		historyStartDefault:  historyStartDefault,
		financialRefreshDays: financialRefreshDays,
		workerPoolSize:       workerPoolSize,
		now:                  time.Now,
	}
}

// WithHistoryStart returns a shallow copy of the service using start as
// the bulk-refresh history start date instead of the one resolved from
// configuration. Used by the `data download --start-date` CLI override;
// it never mutates the receiver, so the original service remains safe to
// reuse for calls that don't override the default.
func (s *Service) WithHistoryStart(start string) *Service {
	if start == "" {
		return s
	}
	clone := *s
	clone.historyStartDefault = start
	return &clone
}

// AcquireSymbol runs the full per-symbol acquisition pipeline:
// ensure-stock, freshness check, provider fetch with bulk fallback,
// incremental filtering, validation, and a single upsert.
func (s *Service) AcquireSymbol(ctx context.Context, symbol string, includeFinancial bool) Result {
	result := Result{Symbol: symbol}

	if err := ctx.Err(); err != nil {
		return failResult(symbol, model.KindCanceled, "canceled before start")
	}

	if err := s.store.EnsureStock(ctx, symbol); err != nil {
		return failResult(symbol, model.KindOf(err), err.Error())
	}

	lastStoredDate, err := s.store.GetLastPriceDate(ctx, symbol)
	if err != nil {
		return failResult(symbol, model.KindOf(err), err.Error())
	}

	today := s.now().UTC().Format(dateLayout)
	plan := policy.DecidePricePlan(lastStoredDate, today, s.thresholdDays, s.historyStartDefault)

	series, strategyUsed, err := s.fetch(ctx, symbol, plan)
	if err != nil {
		return failResult(symbol, model.KindOf(err), err.Error())
	}

	if plan.Provider == policy.API && lastStoredDate != "" {
		series = filterAfter(series, lastStoredDate)
	}

	clean, dropped := provider.ValidateSeries(symbol, series)
	if dropped > 0 {
		log.Warn().Str("symbol", symbol).Int("dropped", dropped).Msg("acquisition dropped invalid rows")
	}

	if err := s.store.UpsertPrices(ctx, symbol, clean); err != nil {
		return failResult(symbol, model.KindOf(err), err.Error())
	}

	result.Success = true
	result.StrategyUsed = strategyUsed
	result.RowsAdded = len(clean)
	if len(clean) > 0 {
		result.FirstDate = clean[0].Date
		result.LastDate = clean[len(clean)-1].Date
	}

	if includeFinancial && s.fundamentals != nil {
		if err := s.refreshFundamentals(ctx, symbol, today); err != nil {
			log.Warn().Str("symbol", symbol).Err(err).Msg("fundamentals refresh failed; price acquisition still succeeded")
		}
	}

	return result
}

// AcquireFundamentalsOnly refreshes only a symbol's financial statements,
// skipping the price pipeline entirely. Backs `data download
// --financial-only`.
func (s *Service) AcquireFundamentalsOnly(ctx context.Context, symbol string) Result {
	result := Result{Symbol: symbol, StrategyUsed: "financial_only"}

	if err := ctx.Err(); err != nil {
		return failResult(symbol, model.KindCanceled, "canceled before start")
	}

	if s.fundamentals == nil {
		return failResult(symbol, model.KindValidation, "no fundamentals provider configured")
	}

	if err := s.store.EnsureStock(ctx, symbol); err != nil {
		return failResult(symbol, model.KindOf(err), err.Error())
	}

	today := s.now().UTC().Format(dateLayout)
	if err := s.refreshFundamentals(ctx, symbol, today); err != nil {
		return failResult(symbol, model.KindOf(err), err.Error())
	}

	result.Success = true
	return result
}

func (s *Service) fetch(ctx context.Context, symbol string, plan policy.PricePlan) (provider.PriceSeries, string, error) {
	switch plan.Provider {
	case policy.API:
		series, err := s.api.FetchRange(ctx, symbol, plan.From, plan.To)
		if err == nil && len(series) > 0 {
			return series, "api_incremental", nil
		}
		if err != nil && !model.Is(err, model.KindProviderUnavailable) {
			return nil, "", err
		}
		// retryable-exhausted or no-data: escalate to a full bulk refresh
		log.Info().Str("symbol", symbol).Msg("api provider exhausted or returned no data, escalating to bulk")
		fallback := policy.FallbackToBulk(s.historyStartDefault)
		series, err = s.bulk.FetchBulk(ctx, symbol, fallback.From)
		if err != nil {
			return nil, "", err
		}
		return series, "bulk_full", nil
	default:
		series, err := s.bulk.FetchBulk(ctx, symbol, plan.From)
		if err != nil {
			return nil, "", err
		}
		return series, "bulk_full", nil
	}
}

// refreshFundamentals judges freshness by the age of the newest stored
// income-statement period_end; no separate refresh timestamp is stored.
func (s *Service) refreshFundamentals(ctx context.Context, symbol, today string) error {
	lastPeriod, err := s.store.LastFinancialPeriod(ctx, symbol, model.IncomeStatement)
	if err != nil {
		return err
	}
	if !policy.ShouldRefreshFundamentals(lastPeriod, today, s.financialRefreshDays) {
		return nil
	}

	fundamentals, err := s.fundamentals.FetchFundamentals(ctx, symbol, 8)
	if err != nil {
		return err
	}

	for _, period := range fundamentals.IncomeStatement {
		if err := s.store.UpsertFinancials(ctx, symbol, model.IncomeStatement, period.PeriodEnd, period.Items); err != nil {
			return err
		}
	}
	for _, period := range fundamentals.BalanceSheet {
		if err := s.store.UpsertFinancials(ctx, symbol, model.BalanceSheet, period.PeriodEnd, period.Items); err != nil {
			return err
		}
	}
	for _, period := range fundamentals.CashFlow {
		if err := s.store.UpsertFinancials(ctx, symbol, model.CashFlow, period.PeriodEnd, period.Items); err != nil {
			return err
		}
	}
	return nil
}

func filterAfter(series provider.PriceSeries, afterDate string) provider.PriceSeries {
	filtered := make(provider.PriceSeries, 0, len(series))
	for _, row := range series {
		if row.Date > afterDate {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

func failResult(symbol string, category model.Kind, message string) Result {
	return Result{Symbol: symbol, Success: false, ErrorCategory: category, ErrorMessage: message}
}

// Batch runs AcquireSymbol for every symbol with a worker pool bounded
// by the service's configured size. It never fails fast: one symbol's
// failure is reflected only in its own Result.
func (s *Service) Batch(ctx context.Context, symbols []string, includeFinancial bool) []Result {
	results := make([]Result, len(symbols))

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(s.workerPoolSize)

	var mu sync.Mutex
	for i, symbol := range symbols {
		i, symbol := i, symbol
		group.Go(func() error {
			var result Result
			if gctx.Err() != nil {
				result = failResult(symbol, model.KindCanceled, "batch canceled")
			} else {
				result = s.AcquireSymbol(gctx, symbol, includeFinancial)
			}
			mu.Lock()
			results[i] = result
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()

	return results
}
