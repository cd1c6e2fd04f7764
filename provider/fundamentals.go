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

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pvledger/pvledger/model"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// SharadarFundamentalsProvider fetches normalized financial statement
// line items from a datatable-shaped fundamentals API: a JSON envelope
// with a flat "datatable.data" row array and a "datatable.columns"
// column name array, one row per (ticker, dimension, period).
type SharadarFundamentalsProvider struct {
	client            *resty.Client
	maxRetries        int
	baseDelay         time.Duration
	perAttemptTimeout time.Duration
	totalDeadline     time.Duration
}

// NewSharadarFundamentalsProvider builds a fundamentals provider
// authenticated with apiKey.
func NewSharadarFundamentalsProvider(apiKey, baseURL string, maxRetries int, baseDelay, perAttemptTimeout, totalDeadline time.Duration) *SharadarFundamentalsProvider {
	if baseURL == "" {
		baseURL = "https://data.nasdaq.com/api/v3"
	}
	return &SharadarFundamentalsProvider{
		client:            resty.New().SetBaseURL(baseURL).SetQueryParam("api_key", apiKey),
		maxRetries:        maxRetries,
		baseDelay:         baseDelay,
		perAttemptTimeout: perAttemptTimeout,
		totalDeadline:     totalDeadline,
	}
}

func (p *SharadarFundamentalsProvider) Name() string { return "sharadar-fundamentals" }

// incomeStatementFields/balanceSheetFields/cashFlowFields name which
// datatable columns belong to which normalized statement. Any column
// not listed here is ignored.
var (
	incomeStatementFields = map[string]bool{
		"revenue": true, "cor": true, "gp": true, "opex": true, "opinc": true,
		"netinc": true, "eps": true, "epsdil": true, "ebit": true,
	}
	balanceSheetFields = map[string]bool{
		"assets": true, "assetsc": true, "assetsnc": true, "liabilities": true,
		"liabilitiesc": true, "liabilitiesnc": true, "equity": true, "cashneq": true,
		"debt": true, "payables": true, "receivables": true,
	}
	cashFlowFields = map[string]bool{
		"ncfo": true, "ncfi": true, "ncff": true, "ncf": true, "capex": true,
		"depamor": true, "fcf": true,
	}
)

// FetchFundamentals returns the most recent `periods` reporting periods
// of fundamentals for symbol, split across the three normalized
// statement tables.
func (p *SharadarFundamentalsProvider) FetchFundamentals(ctx context.Context, symbol string, periods int) (FundamentalsResult, error) {
	var result FundamentalsResult

	err := withRetry(ctx, p.maxRetries, p.baseDelay, p.perAttemptTimeout, p.totalDeadline, func(ctx context.Context) error {
		url := "/datatables/SHARADAR/SF1"
		resp, err := p.client.R().
			SetContext(ctx).
			SetQueryParam("ticker", symbol).
			SetQueryParam("dimension", "MRQ").
			SetQueryParam("qopts.per_page", fmt.Sprintf("%d", periods)).
			Get(url)
		if err != nil {
			return model.NewError(model.KindProviderUnavailable, "fundamentals request failed", err)
		}
		if resp.StatusCode() >= 300 {
			return &httpError{statusCode: resp.StatusCode(), url: url}
		}

		result, err = parseFundamentalsPayload(resp.String())
		if err != nil {
			return model.NewError(model.KindProviderError, "could not parse fundamentals payload", err)
		}
		return nil
	})
	if err != nil {
		return FundamentalsResult{}, err
	}
	return result, nil
}

func parseFundamentalsPayload(body string) (FundamentalsResult, error) {
	columns := gjson.Get(body, "datatable.columns.#.name").Array()
	colNames := make([]string, len(columns))
	for i, c := range columns {
		colNames[i] = c.String()
	}

	periodEndCol := indexOf(colNames, "calendardate")
	if periodEndCol < 0 {
		return FundamentalsResult{}, fmt.Errorf("fundamentals payload missing calendardate column")
	}

	var result FundamentalsResult
	rows := gjson.Get(body, "datatable.data").Array()

	for _, row := range rows {
		values := row.Array()
		if periodEndCol >= len(values) {
			continue
		}
		periodEnd := values[periodEndCol].String()

		income := map[string]model.FinancialLineItem{}
		balance := map[string]model.FinancialLineItem{}
		cashFlow := map[string]model.FinancialLineItem{}

		for i, name := range colNames {
			if i >= len(values) {
				break
			}
			if values[i].Type != gjson.Number {
				continue
			}
			item := model.FinancialLineItem{
				PeriodEnd: periodEnd,
				LineItem:  name,
				Value:     decimal.NewFromFloat(values[i].Float()),
			}
			switch {
			case incomeStatementFields[name]:
				income[name] = item
			case balanceSheetFields[name]:
				balance[name] = item
			case cashFlowFields[name]:
				cashFlow[name] = item
			}
		}

		if len(income) > 0 {
			result.IncomeStatement = append(result.IncomeStatement, PeriodFinancials{PeriodEnd: periodEnd, Items: income})
		}
		if len(balance) > 0 {
			result.BalanceSheet = append(result.BalanceSheet, PeriodFinancials{PeriodEnd: periodEnd, Items: balance})
		}
		if len(cashFlow) > 0 {
			result.CashFlow = append(result.CashFlow, PeriodFinancials{PeriodEnd: periodEnd, Items: cashFlow})
		}
	}

	return result, nil
}

func indexOf(names []string, target string) int {
	for i, n := range names {
		if n == target {
			return i
		}
	}
	return -1
}
