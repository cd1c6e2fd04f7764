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
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gocarina/gocsv"
	"github.com/pvledger/pvledger/model"
	"github.com/shopspring/decimal"
)

// TiingoBulkProvider fetches full-history end-of-day prices from a
// zipped CSV bulk endpoint, the shape Tiingo's historical data exports
// use: one zip per symbol containing a single CSV of daily bars.
type TiingoBulkProvider struct {
	client            *resty.Client
	apiKey            string
	maxRetries        int
	baseDelay         time.Duration
	perAttemptTimeout time.Duration
	totalDeadline     time.Duration
}

// NewTiingoBulkProvider builds a bulk provider authenticated with
// apiKey. baseURL is overridable for tests; pass "" in production to
// use the real endpoint.
func NewTiingoBulkProvider(apiKey, baseURL string, maxRetries int, baseDelay, perAttemptTimeout, totalDeadline time.Duration) *TiingoBulkProvider {
	if baseURL == "" {
		baseURL = "https://api.tiingo.com"
	}
	return &TiingoBulkProvider{
		client:            resty.New().SetBaseURL(baseURL).SetQueryParam("token", apiKey),
		apiKey:            apiKey,
		maxRetries:        maxRetries,
		baseDelay:         baseDelay,
		perAttemptTimeout: perAttemptTimeout,
		totalDeadline:     totalDeadline,
	}
}

func (p *TiingoBulkProvider) Name() string { return "tiingo-bulk" }

type tiingoBulkRow struct {
	Date     string  `csv:"date"`
	Open     float64 `csv:"open"`
	High     float64 `csv:"high"`
	Low      float64 `csv:"low"`
	Close    float64 `csv:"close"`
	AdjClose float64 `csv:"adjClose"`
	Volume   float64 `csv:"volume"`
}

// FetchBulk downloads and unzips the full EOD history for symbol,
// optionally bounded by startDate.
func (p *TiingoBulkProvider) FetchBulk(ctx context.Context, symbol, startDate string) (PriceSeries, error) {
	var series PriceSeries

	err := withRetry(ctx, p.maxRetries, p.baseDelay, p.perAttemptTimeout, p.totalDeadline, func(ctx context.Context) error {
		req := p.client.R().SetContext(ctx)
		if startDate != "" {
			req = req.SetQueryParam("startDate", startDate)
		}

		url := fmt.Sprintf("/tiingo/daily/%s/prices/zip", symbol)
		resp, err := req.Get(url)
		if err != nil {
			return model.NewError(model.KindProviderUnavailable, "bulk download request failed", err)
		}
		if resp.StatusCode() >= 300 {
			return &httpError{statusCode: resp.StatusCode(), url: url}
		}

		rows, err := unzipBulkCSV(symbol, resp.Body())
		if err != nil {
			return model.NewError(model.KindProviderError, "could not read bulk zip payload", err)
		}
		series = rows
		return nil
	})
	if err != nil {
		return nil, err
	}
	return series, nil
}

func unzipBulkCSV(symbol string, body []byte) (PriceSeries, error) {
	zipReader, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, err
	}
	if len(zipReader.File) == 0 {
		return nil, fmt.Errorf("bulk zip for %s contained no files", symbol)
	}

	f, err := zipReader.File[0].Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	csvBytes, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	var rows []*tiingoBulkRow
	if err := gocsv.UnmarshalBytes(csvBytes, &rows); err != nil {
		return nil, err
	}

	series := make(PriceSeries, 0, len(rows))
	for _, row := range rows {
		series = append(series, model.StockPrice{
			Symbol:   symbol,
			Date:     row.Date,
			Open:     decimal.NewFromFloat(row.Open),
			High:     decimal.NewFromFloat(row.High),
			Low:      decimal.NewFromFloat(row.Low),
			Close:    decimal.NewFromFloat(row.Close),
			AdjClose: decimal.NewFromFloat(row.AdjClose),
			Volume:   decimal.NewFromFloat(row.Volume),
		})
	}
	return series, nil
}
