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

// Package model holds the entities described in the data model: stocks,
// prices, financial statement line items, transactions, lots, allocations,
// and daily PnL rows. Types here carry no storage or provider knowledge.
package model

// TransactionKind distinguishes a purchase from a sale.
type TransactionKind string

const (
	Buy  TransactionKind = "BUY"
	Sell TransactionKind = "SELL"
)

// BasisMethod selects which cost-basis matcher allocates a sale to lots.
type BasisMethod string

const (
	FIFO         BasisMethod = "fifo"
	LIFO         BasisMethod = "lifo"
	SpecificLot  BasisMethod = "specific"
	AverageCost  BasisMethod = "average"
)

// PriceSource selects which stored price column a valuation is marked-to.
type PriceSource string

const (
	Close    PriceSource = "close"
	AdjClose PriceSource = "adj_close"
)

// MissingPriceStrategy controls what PnL valuation does when the exact
// valuation date has no stored price.
type MissingPriceStrategy string

const (
	Backfill MissingPriceStrategy = "backfill"
	Strict   MissingPriceStrategy = "strict"
)

// StatementType names one of the three normalized long-form financial
// statement tables.
type StatementType string

const (
	IncomeStatement StatementType = "income_statement"
	BalanceSheet    StatementType = "balance_sheet"
	CashFlow        StatementType = "cash_flow"
)

// LotOrder controls the order open lots are returned in from storage.
type LotOrder string

const (
	PurchaseDateAsc  LotOrder = "purchase_date_asc"
	PurchaseDateDesc LotOrder = "purchase_date_desc"
)
