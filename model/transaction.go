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
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is an immutable record of a BUY or SELL. Corrections are
// modeled as compensating transactions, never mutations.
type Transaction struct {
	ID              uuid.UUID       `db:"id"`
	OwnerID         string          `db:"owner_id"`
	Symbol          string          `db:"symbol"`
	Kind            TransactionKind `db:"kind"`
	Quantity        decimal.Decimal `db:"quantity"`
	Price           decimal.Decimal `db:"price"`
	Commission      decimal.Decimal `db:"commission"`
	TransactionDate string          `db:"transaction_date"` // YYYY-MM-DD
	ExternalID      *string         `db:"external_id"`
	Notes           string          `db:"notes"`
	CreatedAt       time.Time       `db:"created_at"`
}
