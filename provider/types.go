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
package provider

import "github.com/pvledger/pvledger/model"

// PriceSeries is a normalized, date-ascending run of OHLCV rows for one
// symbol, as returned by either price adapter before validation.
type PriceSeries []model.StockPrice

// PeriodFinancials is one reporting period's line items for a single
// statement type.
type PeriodFinancials struct {
	PeriodEnd string
	Items     map[string]model.FinancialLineItem
}

// FundamentalsResult groups the periods a FundamentalsProvider returned
// by statement type.
type FundamentalsResult struct {
	IncomeStatement []PeriodFinancials
	BalanceSheet    []PeriodFinancials
	CashFlow        []PeriodFinancials
}
