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

	"github.com/pvledger/pvledger/model"
	"github.com/shopspring/decimal"
)

// LotUpdate is one lot mutation bundled into a RecordSell call: the new
// remaining quantity and resulting is_closed flag for a single lot.
type LotUpdate struct {
	LotID        string
	NewRemaining decimal.Decimal
	IsClosed     bool
}

// RecordBuy inserts the BUY transaction and its resulting lot atomically.
// This is the storage-level transactional boundary the lot ledger relies
// on: either both rows are written or neither is.
func (s *Storage) RecordBuy(ctx context.Context, txn model.Transaction, lot model.PositionLot) error {
	return s.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := insertTransactionTx(ctx, tx, txn); err != nil {
			return err
		}
		if err := insertLotTx(ctx, tx, lot); err != nil {
			return err
		}
		return nil
	})
}

// RecordSell inserts the SELL transaction, appends every allocation, and
// applies every lot update atomically. Any failure rolls back the entire
// operation: no lot or allocation row survives a partial SELL.
func (s *Storage) RecordSell(ctx context.Context, txn model.Transaction, allocations []model.SaleAllocation, lotUpdates []LotUpdate) error {
	return s.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := insertTransactionTx(ctx, tx, txn); err != nil {
			return err
		}
		for _, alloc := range allocations {
			if err := insertAllocationTx(ctx, tx, alloc); err != nil {
				return err
			}
		}
		for _, upd := range lotUpdates {
			if err := updateLotRemainingTx(ctx, tx, upd.LotID, upd.NewRemaining, upd.IsClosed); err != nil {
				return err
			}
		}
		return nil
	})
}
