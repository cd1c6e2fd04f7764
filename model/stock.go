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

	"github.com/shopspring/decimal"
)

// Stock is created on first reference to a symbol and is immutable
// thereafter except for a metadata refresh.
type Stock struct {
	Symbol      string    `db:"symbol"`
	CompanyName string    `db:"company_name"`
	Sector      string    `db:"sector"`
	Industry    string    `db:"industry"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

// StockPrice is one OHLCV row, unique on (symbol, date).
type StockPrice struct {
	Symbol   string          `db:"symbol"`
	Date     string          `db:"date"` // YYYY-MM-DD
	Open     decimal.Decimal `db:"open"`
	High     decimal.Decimal `db:"high"`
	Low      decimal.Decimal `db:"low"`
	Close    decimal.Decimal `db:"close"`
	AdjClose decimal.Decimal `db:"adj_close"`
	Volume   decimal.Decimal `db:"volume"`
}

// PriceAt returns the price named by source.
func (p *StockPrice) PriceAt(source PriceSource) decimal.Decimal {
	if source == AdjClose {
		return p.AdjClose
	}
	return p.Close
}
