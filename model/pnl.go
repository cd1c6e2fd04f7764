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
package model

import "github.com/shopspring/decimal"

// DailyPnL is the per-(owner, symbol, valuation_date) valuation row.
// Upsert-by-key: recomputing a date replaces its row. No recompute window
// is configured or enforced; any date may be recomputed.
type DailyPnL struct {
	OwnerID         string          `db:"owner_id"`
	Symbol          string          `db:"symbol"`
	ValuationDate   string          `db:"valuation_date"` // YYYY-MM-DD
	Quantity        decimal.Decimal `db:"quantity"`
	WeightedAvgCost decimal.Decimal `db:"weighted_avg_cost"`
	MarketPrice     decimal.Decimal `db:"market_price"`
	MarketValue     decimal.Decimal `db:"market_value"`
	UnrealizedPnL   decimal.Decimal `db:"unrealized_pnl"`
	RealizedPnLDay  decimal.Decimal `db:"realized_pnl_day"`
	TotalCost       decimal.Decimal `db:"total_cost"`
	Stale           bool            `db:"stale"`
}
