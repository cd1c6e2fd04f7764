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
package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/pvledger/pvledger/model"
)

// UpsertDailyPnL writes row, replacing any existing row for the same
// (owner_id, symbol, valuation_date).
func (s *Storage) UpsertDailyPnL(ctx context.Context, row model.DailyPnL) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO daily_pnl (owner_id, symbol, valuation_date, quantity, weighted_avg_cost, market_price, market_value, unrealized_pnl, realized_pnl_day, total_cost, stale)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, symbol, valuation_date) DO UPDATE SET
			quantity = excluded.quantity,
			weighted_avg_cost = excluded.weighted_avg_cost,
			market_price = excluded.market_price,
			market_value = excluded.market_value,
			unrealized_pnl = excluded.unrealized_pnl,
			realized_pnl_day = excluded.realized_pnl_day,
			total_cost = excluded.total_cost,
			stale = excluded.stale`,
		row.OwnerID, row.Symbol, row.ValuationDate, row.Quantity, row.WeightedAvgCost,
		row.MarketPrice, row.MarketValue, row.UnrealizedPnL, row.RealizedPnLDay, row.TotalCost, row.Stale)
	if err != nil {
		return classifyError(err, "could not upsert daily pnl")
	}
	return nil
}

// GetDailyPnL fetches a single (owner, symbol, date) row.
func (s *Storage) GetDailyPnL(ctx context.Context, ownerID, symbol, date string) (*model.DailyPnL, error) {
	var row model.DailyPnL
	err := sqlscan.Get(ctx, s.conn, &row, `
		SELECT owner_id, symbol, valuation_date, quantity, weighted_avg_cost, market_price, market_value, unrealized_pnl, realized_pnl_day, total_cost, stale
		FROM daily_pnl WHERE owner_id = ? AND symbol = ? AND valuation_date = ?`, ownerID, symbol, date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || sqlscan.NotFound(err) {
			return nil, model.NewError(model.KindNotFound, "daily pnl row not found", err)
		}
		return nil, classifyError(err, "could not query daily pnl")
	}
	return &row, nil
}

// GetDailyPnLRange fetches every daily_pnl row for (ownerID, symbol)
// between start and end inclusive, ordered by date.
func (s *Storage) GetDailyPnLRange(ctx context.Context, ownerID, symbol, start, end string) ([]model.DailyPnL, error) {
	var rows []model.DailyPnL
	query := `
		SELECT owner_id, symbol, valuation_date, quantity, weighted_avg_cost, market_price, market_value, unrealized_pnl, realized_pnl_day, total_cost, stale
		FROM daily_pnl
		WHERE owner_id = ? AND symbol = ? AND valuation_date BETWEEN ? AND ?
		ORDER BY valuation_date ASC`
	if err := sqlscan.Select(ctx, s.conn, &rows, query, ownerID, symbol, start, end); err != nil {
		return nil, classifyError(err, "could not query daily pnl range")
	}
	return rows, nil
}
