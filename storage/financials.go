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
	"fmt"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/pvledger/pvledger/model"
)

// financialTable maps a StatementType to its normalized long-form table.
// The set is fixed and known at compile time, so building the statement
// with fmt.Sprintf here (rather than accepting an arbitrary table name)
// cannot be used to inject SQL.
func financialTable(t model.StatementType) (string, error) {
	switch t {
	case model.IncomeStatement:
		return "income_statement", nil
	case model.BalanceSheet:
		return "balance_sheet", nil
	case model.CashFlow:
		return "cash_flow", nil
	default:
		return "", model.NewError(model.KindValidation, fmt.Sprintf("unknown statement type %q", t), nil)
	}
}

// UpsertFinancials writes line items for one (symbol, statementType,
// periodEnd) atomically, replacing any existing line item of the same
// name for that period.
func (s *Storage) UpsertFinancials(ctx context.Context, symbol string, statementType model.StatementType, periodEnd string, items map[string]model.FinancialLineItem) error {
	table, err := financialTable(statementType)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (symbol, period_end, line_item, value)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (symbol, period_end, line_item) DO UPDATE SET value = excluded.value`, table)

	return s.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		for lineItem, item := range items {
			if _, err := tx.ExecContext(ctx, query, symbol, periodEnd, lineItem, item.Value); err != nil {
				return classifyError(err, "could not upsert financial line item")
			}
		}
		return nil
	})
}

// GetFinancials returns every line item for symbol under the given
// statement type, across all reporting periods, ordered by period then
// line item.
func (s *Storage) GetFinancials(ctx context.Context, symbol string, statementType model.StatementType) ([]model.FinancialLineItem, error) {
	table, err := financialTable(statementType)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT symbol, period_end, line_item, value FROM %s WHERE symbol = ? ORDER BY period_end, line_item`, table)

	var items []model.FinancialLineItem
	if err := sqlscan.Select(ctx, s.conn, &items, query, symbol); err != nil {
		return nil, classifyError(err, "could not query financial line items")
	}
	return items, nil
}

// LastFinancialPeriod returns the most recent period_end stored for
// symbol under statementType, or "" when none exists.
func (s *Storage) LastFinancialPeriod(ctx context.Context, symbol string, statementType model.StatementType) (string, error) {
	table, err := financialTable(statementType)
	if err != nil {
		return "", err
	}

	var period sql.NullString
	query := fmt.Sprintf(`SELECT max(period_end) FROM %s WHERE symbol = ?`, table)
	if err := sqlscan.Get(ctx, s.conn, &period, query, symbol); err != nil {
		return "", classifyError(err, "could not query last financial period")
	}
	if !period.Valid {
		return "", nil
	}
	return period.String, nil
}
