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
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
)

// EnsureStock idempotently inserts a stock row if one does not already
// exist for symbol. Existing rows are left untouched; use RefreshStockMeta
// to update metadata on a known symbol.
func (s *Storage) EnsureStock(ctx context.Context, symbol string) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO stocks (symbol, created_at)
		VALUES (?, ?)
		ON CONFLICT (symbol) DO NOTHING`,
		symbol, time.Now().UTC())
	if err != nil {
		return classifyError(err, "could not ensure stock")
	}
	return nil
}

// RefreshStockMeta updates the descriptive metadata for an existing
// stock. It never touches created_at or the symbol itself.
func (s *Storage) RefreshStockMeta(ctx context.Context, symbol, companyName, sector, industry, description string) error {
	_, err := s.conn.ExecContext(ctx, `
		UPDATE stocks
		SET company_name = ?, sector = ?, industry = ?, description = ?
		WHERE symbol = ?`,
		companyName, sector, industry, description, symbol)
	if err != nil {
		return classifyError(err, "could not refresh stock metadata")
	}
	return nil
}

// CountStocks returns the number of distinct symbols ever referenced.
func (s *Storage) CountStocks(ctx context.Context) (int, error) {
	var count int
	if err := sqlscan.Get(ctx, s.conn, &count, `SELECT count(*) FROM stocks`); err != nil {
		return 0, classifyError(err, "could not count stocks")
	}
	return count, nil
}

// StockExists reports whether symbol has ever been referenced.
func (s *Storage) StockExists(ctx context.Context, symbol string) (bool, error) {
	var count int
	if err := sqlscan.Get(ctx, s.conn, &count, `SELECT count(*) FROM stocks WHERE symbol = ?`, symbol); err != nil {
		return false, classifyError(err, "could not check stock existence")
	}
	return count > 0, nil
}
