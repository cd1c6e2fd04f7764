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

import "github.com/shopspring/decimal"

// FinancialLineItem is one row of the normalized long-form
// income_statement / balance_sheet / cash_flow tables: one row per line
// item per reporting period.
type FinancialLineItem struct {
	Symbol    string          `db:"symbol"`
	PeriodEnd string          `db:"period_end"` // YYYY-MM-DD
	LineItem  string          `db:"line_item"`
	Value     decimal.Decimal `db:"value"`
}
