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
	"github.com/shopspring/decimal"
)

// insertLotTx writes a new PositionLot within tx. Lots are created
// exclusively by a BUY.
func insertLotTx(ctx context.Context, tx *sql.Tx, lot model.PositionLot) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO position_lots (id, owner_id, symbol, buy_transaction_id, original_quantity, remaining_quantity, cost_basis_per_share, purchase_date, is_closed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lot.ID, lot.OwnerID, lot.Symbol, lot.BuyTransactionID, lot.OriginalQuantity,
		lot.RemainingQuantity, lot.CostBasisPerShare, lot.PurchaseDate, lot.IsClosed)
	if err != nil {
		return classifyError(err, "could not insert lot")
	}
	return nil
}

// updateLotRemainingTx mutates a lot's remaining_quantity and is_closed
// flag within tx. This is the only mutation a PositionLot row ever
// receives after creation, and it only ever happens inside the SELL
// transaction that allocates against it.
func updateLotRemainingTx(ctx context.Context, tx *sql.Tx, lotID string, newRemaining decimal.Decimal, isClosed bool) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE position_lots SET remaining_quantity = ?, is_closed = ? WHERE id = ?`,
		newRemaining, isClosed, lotID)
	if err != nil {
		return classifyError(err, "could not update lot remaining quantity")
	}
	return nil
}

// GetOpenLots returns lots for (ownerID, symbol) with remaining > 0,
// ordered as requested.
func (s *Storage) GetOpenLots(ctx context.Context, ownerID, symbol string, order model.LotOrder) ([]model.PositionLot, error) {
	orderClause := "purchase_date ASC, id ASC"
	if order == model.PurchaseDateDesc {
		orderClause = "purchase_date DESC, id DESC"
	}

	var lots []model.PositionLot
	query := `
		SELECT id, owner_id, symbol, buy_transaction_id, original_quantity, remaining_quantity, cost_basis_per_share, purchase_date, is_closed
		FROM position_lots
		WHERE owner_id = ? AND symbol = ? AND remaining_quantity > 0
		ORDER BY ` + orderClause
	if err := sqlscan.Select(ctx, s.conn, &lots, query, ownerID, symbol); err != nil {
		return nil, classifyError(err, "could not query open lots")
	}
	return lots, nil
}

// GetLot fetches a single lot by id, regardless of whether it is open.
func (s *Storage) GetLot(ctx context.Context, lotID string) (*model.PositionLot, error) {
	var lot model.PositionLot
	err := sqlscan.Get(ctx, s.conn, &lot, `
		SELECT id, owner_id, symbol, buy_transaction_id, original_quantity, remaining_quantity, cost_basis_per_share, purchase_date, is_closed
		FROM position_lots WHERE id = ?`, lotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || sqlscan.NotFound(err) {
			return nil, model.NewError(model.KindNotFound, "lot not found", err)
		}
		return nil, classifyError(err, "could not query lot")
	}
	return &lot, nil
}

// GetLotByBuyTransaction fetches the lot created by a given BUY
// transaction. Used to make a repeated record_buy call idempotent.
func (s *Storage) GetLotByBuyTransaction(ctx context.Context, buyTransactionID string) (*model.PositionLot, error) {
	var lot model.PositionLot
	err := sqlscan.Get(ctx, s.conn, &lot, `
		SELECT id, owner_id, symbol, buy_transaction_id, original_quantity, remaining_quantity, cost_basis_per_share, purchase_date, is_closed
		FROM position_lots WHERE buy_transaction_id = ?`, buyTransactionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || sqlscan.NotFound(err) {
			return nil, model.NewError(model.KindNotFound, "lot not found for buy transaction", err)
		}
		return nil, classifyError(err, "could not query lot by buy transaction")
	}
	return &lot, nil
}

// DistinctOpenSymbols returns every symbol for which ownerID has at
// least one open lot, alphabetically.
func (s *Storage) DistinctOpenSymbols(ctx context.Context, ownerID string) ([]string, error) {
	var symbols []string
	query := `
		SELECT DISTINCT symbol FROM position_lots
		WHERE owner_id = ? AND remaining_quantity > 0
		ORDER BY symbol ASC`
	if err := sqlscan.Select(ctx, s.conn, &symbols, query, ownerID); err != nil {
		return nil, classifyError(err, "could not query distinct open symbols")
	}
	return symbols, nil
}

// AllLotsAsOf returns every lot for (ownerID, symbol) purchased on or
// before asOf, regardless of current remaining quantity. PnL valuation
// uses this together with allocations up to asOf to reconstruct the
// historical open-lot snapshot.
func (s *Storage) AllLotsAsOf(ctx context.Context, ownerID, symbol, asOf string) ([]model.PositionLot, error) {
	var lots []model.PositionLot
	query := `
		SELECT id, owner_id, symbol, buy_transaction_id, original_quantity, remaining_quantity, cost_basis_per_share, purchase_date, is_closed
		FROM position_lots
		WHERE owner_id = ? AND symbol = ? AND purchase_date <= ?
		ORDER BY purchase_date ASC, id ASC`
	if err := sqlscan.Select(ctx, s.conn, &lots, query, ownerID, symbol, asOf); err != nil {
		return nil, classifyError(err, "could not query lots as of date")
	}
	return lots, nil
}
