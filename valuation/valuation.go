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

// Package valuation implements the daily PnL calculator: marking open
// lots to market and aggregating a day's realized PnL into a DailyPnL
// row.
package valuation

import (
	"context"
	"fmt"

	"github.com/pvledger/pvledger/model"
	"github.com/pvledger/pvledger/storage"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Calculator derives per-day portfolio valuation from stored prices,
// lots, and sale allocations.
type Calculator struct {
	store                *storage.Storage
	missingPriceStrategy model.MissingPriceStrategy
}

// New builds a Calculator. missingPriceStrategy governs what happens
// when the exact valuation date has no stored price.
func New(store *storage.Storage, missingPriceStrategy model.MissingPriceStrategy) *Calculator {
	return &Calculator{store: store, missingPriceStrategy: missingPriceStrategy}
}

// ComputeDaily marks open lots for (owner, symbol) to market on date and
// upserts the resulting DailyPnL row.
func (c *Calculator) ComputeDaily(ctx context.Context, owner, symbol, date string, priceSource model.PriceSource) (*model.DailyPnL, error) {
	price, stale, err := c.resolvePrice(ctx, symbol, date, priceSource)
	if err != nil {
		return nil, err
	}

	lots, err := c.store.AllLotsAsOf(ctx, owner, symbol, date)
	if err != nil {
		return nil, err
	}

	quantity := decimal.Zero
	totalCost := decimal.Zero
	unrealized := decimal.Zero

	for _, lot := range lots {
		soldAsOf, err := c.soldQuantityAsOf(ctx, lot, date)
		if err != nil {
			return nil, err
		}
		effectiveRemaining := lot.OriginalQuantity.Sub(soldAsOf)
		if effectiveRemaining.LessThanOrEqual(decimal.Zero) {
			continue
		}

		quantity = quantity.Add(effectiveRemaining)
		totalCost = totalCost.Add(effectiveRemaining.Mul(lot.CostBasisPerShare))
		unrealized = unrealized.Add(price.Sub(lot.CostBasisPerShare).Mul(effectiveRemaining))
	}

	allocsToday, err := c.store.GetAllocationsOnDate(ctx, owner, symbol, date)
	if err != nil {
		return nil, err
	}
	realizedToday := decimal.Zero
	for _, alloc := range allocsToday {
		realizedToday = realizedToday.Add(alloc.RealizedPnL)
	}

	weightedAvgCost := decimal.Zero
	if !quantity.IsZero() {
		weightedAvgCost = totalCost.Div(quantity)
	}

	row := model.DailyPnL{
		OwnerID:         owner,
		Symbol:          symbol,
		ValuationDate:   date,
		Quantity:        quantity,
		WeightedAvgCost: weightedAvgCost,
		MarketPrice:     price,
		MarketValue:     quantity.Mul(price),
		UnrealizedPnL:   unrealized,
		RealizedPnLDay:  realizedToday,
		TotalCost:       totalCost,
		Stale:           stale,
	}

	if err := c.store.UpsertDailyPnL(ctx, row); err != nil {
		return nil, err
	}
	return &row, nil
}

// soldQuantityAsOf sums the quantity sold from lot by sell transactions
// on or before asOf.
func (c *Calculator) soldQuantityAsOf(ctx context.Context, lot model.PositionLot, asOf string) (decimal.Decimal, error) {
	allocs, err := c.store.AllocationsForLotUpTo(ctx, lot.ID.String(), asOf)
	if err != nil {
		return decimal.Zero, err
	}
	sold := decimal.Zero
	for _, alloc := range allocs {
		sold = sold.Add(alloc.QuantitySold)
	}
	return sold, nil
}

// resolvePrice returns the price to mark to on date, honoring the
// configured missing-price strategy when the exact date has no row.
func (c *Calculator) resolvePrice(ctx context.Context, symbol, date string, source model.PriceSource) (decimal.Decimal, bool, error) {
	row, err := c.store.GetPriceAtOrBefore(ctx, symbol, date)
	if err != nil {
		if model.Is(err, model.KindNotFound) {
			return decimal.Zero, false, model.NewError(model.KindNoPrice, fmt.Sprintf("no price available for %s at or before %s", symbol, date), err)
		}
		return decimal.Zero, false, err
	}

	if row.Date == date {
		return row.PriceAt(source), false, nil
	}

	if c.missingPriceStrategy == model.Strict {
		return decimal.Zero, false, model.NewError(model.KindNoPrice, fmt.Sprintf("no price for %s on %s", symbol, date), nil)
	}

	log.Debug().Str("symbol", symbol).Str("requested", date).Str("used", row.Date).Msg("backfilling stale price")
	return row.PriceAt(source), true, nil
}

// Batch runs ComputeDaily for every date in [start, end] for (owner,
// symbol). When onlyTradingDays is true, dates are taken from the
// stored price series rather than every calendar day.
func (c *Calculator) Batch(ctx context.Context, owner, symbol, start, end string, priceSource model.PriceSource, onlyTradingDays bool) ([]model.DailyPnL, error) {
	dates, err := c.datesInRange(ctx, symbol, start, end, onlyTradingDays)
	if err != nil {
		return nil, err
	}

	rows := make([]model.DailyPnL, 0, len(dates))
	for _, date := range dates {
		row, err := c.ComputeDaily(ctx, owner, symbol, date, priceSource)
		if err != nil {
			return rows, err
		}
		rows = append(rows, *row)
	}
	return rows, nil
}

func (c *Calculator) datesInRange(ctx context.Context, symbol, start, end string, onlyTradingDays bool) ([]string, error) {
	if onlyTradingDays {
		prices, err := c.store.GetPrices(ctx, symbol, start, end)
		if err != nil {
			return nil, err
		}
		dates := make([]string, 0, len(prices))
		for _, p := range prices {
			dates = append(dates, p.Date)
		}
		return dates, nil
	}
	return calendarDays(start, end)
}
