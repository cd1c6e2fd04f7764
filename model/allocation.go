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

// SaleAllocation binds a portion of a SELL transaction to a specific lot.
// Append-only; exists iff the referenced SELL succeeded.
type SaleAllocation struct {
	ID                 uuid.UUID       `db:"id"`
	SellTransactionID  uuid.UUID       `db:"sell_transaction_id"`
	LotID              uuid.UUID       `db:"lot_id"`
	QuantitySold       decimal.Decimal `db:"quantity_sold"`
	CostBasisPerShare  decimal.Decimal `db:"cost_basis_per_share"`
	SalePricePerShare  decimal.Decimal `db:"sale_price_per_share"`
	RealizedPnL        decimal.Decimal `db:"realized_pnl"`
}
