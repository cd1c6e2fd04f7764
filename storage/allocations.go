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

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/pvledger/pvledger/model"
)

// insertAllocationTx appends a SaleAllocation row within tx. Allocations
// are append-only and only ever written alongside their SELL transaction.
func insertAllocationTx(ctx context.Context, tx *sql.Tx, alloc model.SaleAllocation) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO sale_allocations (id, sell_transaction_id, lot_id, quantity_sold, cost_basis_per_share, sale_price_per_share, realized_pnl)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		alloc.ID, alloc.SellTransactionID, alloc.LotID, alloc.QuantitySold,
		alloc.CostBasisPerShare, alloc.SalePricePerShare, alloc.RealizedPnL)
	if err != nil {
		return classifyError(err, "could not insert sale allocation")
	}
	return nil
}

// GetAllocationsForSymbol returns every allocation whose sell transaction
// is against (ownerID, symbol), most recent sell first.
func (s *Storage) GetAllocationsForSymbol(ctx context.Context, ownerID, symbol string) ([]model.SaleAllocation, error) {
	var allocs []model.SaleAllocation
	query := `
		SELECT sa.id, sa.sell_transaction_id, sa.lot_id, sa.quantity_sold, sa.cost_basis_per_share, sa.sale_price_per_share, sa.realized_pnl
		FROM sale_allocations sa
		JOIN transactions t ON t.id = sa.sell_transaction_id
		WHERE t.owner_id = ? AND t.symbol = ?
		ORDER BY t.transaction_date DESC, sa.id ASC`
	if err := sqlscan.Select(ctx, s.conn, &allocs, query, ownerID, symbol); err != nil {
		return nil, classifyError(err, "could not query sale allocations")
	}
	return allocs, nil
}

// GetAllocationsForTransaction returns all allocations written for a
// single SELL transaction.
func (s *Storage) GetAllocationsForTransaction(ctx context.Context, sellTransactionID string) ([]model.SaleAllocation, error) {
	var allocs []model.SaleAllocation
	query := `
		SELECT id, sell_transaction_id, lot_id, quantity_sold, cost_basis_per_share, sale_price_per_share, realized_pnl
		FROM sale_allocations WHERE sell_transaction_id = ? ORDER BY id ASC`
	if err := sqlscan.Select(ctx, s.conn, &allocs, query, sellTransactionID); err != nil {
		return nil, classifyError(err, "could not query allocations for transaction")
	}
	return allocs, nil
}

// GetAllocationsOnDate returns allocations whose SELL transaction_date
// equals date, for (ownerID, symbol). Used by PnL valuation to aggregate
// a day's realized PnL.
func (s *Storage) GetAllocationsOnDate(ctx context.Context, ownerID, symbol, date string) ([]model.SaleAllocation, error) {
	var allocs []model.SaleAllocation
	query := `
		SELECT sa.id, sa.sell_transaction_id, sa.lot_id, sa.quantity_sold, sa.cost_basis_per_share, sa.sale_price_per_share, sa.realized_pnl
		FROM sale_allocations sa
		JOIN transactions t ON t.id = sa.sell_transaction_id
		WHERE t.owner_id = ? AND t.symbol = ? AND t.transaction_date = ? AND t.kind = 'SELL'
		ORDER BY sa.id ASC`
	if err := sqlscan.Select(ctx, s.conn, &allocs, query, ownerID, symbol, date); err != nil {
		return nil, classifyError(err, "could not query allocations on date")
	}
	return allocs, nil
}

// AllocationsForLotUpTo returns the allocations against lotID whose sell
// transaction happened on or before asOf. Used to replay a historical
// open-lot snapshot; the caller sums their quantity_sold.
func (s *Storage) AllocationsForLotUpTo(ctx context.Context, lotID, asOf string) ([]model.SaleAllocation, error) {
	var allocs []model.SaleAllocation
	query := `
		SELECT sa.id, sa.sell_transaction_id, sa.lot_id, sa.quantity_sold, sa.cost_basis_per_share, sa.sale_price_per_share, sa.realized_pnl
		FROM sale_allocations sa
		JOIN transactions t ON t.id = sa.sell_transaction_id
		WHERE sa.lot_id = ? AND t.transaction_date <= ?`
	if err := sqlscan.Select(ctx, s.conn, &allocs, query, lotID, asOf); err != nil {
		return nil, classifyError(err, "could not query allocations for lot")
	}
	return allocs, nil
}
