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

// UpsertPrices writes rows for symbol, replacing any existing row for the
// same (symbol, date). The operation is atomic: either every row is
// written or none are.
func (s *Storage) UpsertPrices(ctx context.Context, symbol string, rows []model.StockPrice) error {
	return s.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		for _, row := range rows {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO stock_prices (symbol, date, open, high, low, close, adj_close, volume)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT (symbol, date) DO UPDATE SET
					open = excluded.open,
					high = excluded.high,
					low = excluded.low,
					close = excluded.close,
					adj_close = excluded.adj_close,
					volume = excluded.volume`,
				symbol, row.Date, row.Open, row.High, row.Low, row.Close, row.AdjClose, row.Volume)
			if err != nil {
				return classifyError(err, "could not upsert stock price")
			}
		}
		return nil
	})
}

// GetPrices returns prices for symbol ordered by date ascending. When
// start/end are non-empty they bound the returned date range inclusively.
func (s *Storage) GetPrices(ctx context.Context, symbol, start, end string) ([]model.StockPrice, error) {
	query := `SELECT symbol, date, open, high, low, close, adj_close, volume FROM stock_prices WHERE symbol = ?`
	args := []any{symbol}

	if start != "" {
		query += ` AND date >= ?`
		args = append(args, start)
	}
	if end != "" {
		query += ` AND date <= ?`
		args = append(args, end)
	}
	query += ` ORDER BY date ASC`

	var prices []model.StockPrice
	if err := sqlscan.Select(ctx, s.conn, &prices, query, args...); err != nil {
		return nil, classifyError(err, "could not query stock prices")
	}
	return prices, nil
}

// CountPrices returns the total number of stored price rows across every
// symbol.
func (s *Storage) CountPrices(ctx context.Context) (int, error) {
	var count int
	if err := sqlscan.Get(ctx, s.conn, &count, `SELECT count(*) FROM stock_prices`); err != nil {
		return 0, classifyError(err, "could not count stock prices")
	}
	return count, nil
}

// GetLastPriceDate returns the most recent stored date for symbol, or
// ("", nil) when no price has ever been stored.
func (s *Storage) GetLastPriceDate(ctx context.Context, symbol string) (string, error) {
	var date sql.NullString
	err := sqlscan.Get(ctx, s.conn, &date, `SELECT max(date) FROM stock_prices WHERE symbol = ?`, symbol)
	if err != nil {
		return "", classifyError(err, "could not query last price date")
	}
	if !date.Valid {
		return "", nil
	}
	return date.String, nil
}

// GetPriceAtOrBefore returns the most recent price row for symbol with
// date <= asOf. It returns a *model.Error tagged KindNotFound when no
// such row exists.
func (s *Storage) GetPriceAtOrBefore(ctx context.Context, symbol, asOf string) (*model.StockPrice, error) {
	var price model.StockPrice
	err := sqlscan.Get(ctx, s.conn, &price, `
		SELECT symbol, date, open, high, low, close, adj_close, volume
		FROM stock_prices
		WHERE symbol = ? AND date <= ?
		ORDER BY date DESC
		LIMIT 1`, symbol, asOf)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || sqlscan.NotFound(err) {
			return nil, model.NewError(model.KindNotFound, "no price at or before date", err)
		}
		return nil, classifyError(err, "could not query price at or before date")
	}
	return &price, nil
}
