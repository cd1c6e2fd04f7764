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

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PositionLot tracks the shares acquired in a single BUY until fully sold.
// Created exclusively by BUY; mutated only by SELL allocations, and only
// within the storage transaction that records the SELL.
type PositionLot struct {
	ID                 uuid.UUID       `db:"id"`
	OwnerID            string          `db:"owner_id"`
	Symbol             string          `db:"symbol"`
	BuyTransactionID   uuid.UUID       `db:"buy_transaction_id"`
	OriginalQuantity   decimal.Decimal `db:"original_quantity"`
	RemainingQuantity  decimal.Decimal `db:"remaining_quantity"`
	CostBasisPerShare  decimal.Decimal `db:"cost_basis_per_share"`
	PurchaseDate       string          `db:"purchase_date"` // YYYY-MM-DD
	IsClosed           bool            `db:"is_closed"`
}
