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
	"github.com/goccy/go-json"
	"github.com/pvledger/pvledger/model"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// PolygonAPIProvider fetches a bounded date range of daily aggregate
// bars per symbol, in Polygon's "v2/aggs" response shape. Each adapter
// instance owns its own rate limiter, independent of any other
// provider's limit state.
type PolygonAPIProvider struct {
	client            *resty.Client
	limiter           *rate.Limiter
	maxRetries        int
	baseDelay         time.Duration
	perAttemptTimeout time.Duration
	totalDeadline     time.Duration
}

// NewPolygonAPIProvider builds an API provider authenticated with
// apiKey, throttled to ratePerMinute requests/minute.
func NewPolygonAPIProvider(apiKey, baseURL string, ratePerMinute, maxRetries int, baseDelay, perAttemptTimeout, totalDeadline time.Duration) *PolygonAPIProvider {
	if baseURL == "" {
		baseURL = "https://api.polygon.io"
	}
	if ratePerMinute <= 0 {
		ratePerMinute = 300
	}
	return &PolygonAPIProvider{
		client:            resty.New().SetBaseURL(baseURL).SetQueryParam("apiKey", apiKey),
		limiter:           rate.NewLimiter(rate.Limit(float64(ratePerMinute)/60), 1),
		maxRetries:        maxRetries,
		baseDelay:         baseDelay,
		perAttemptTimeout: perAttemptTimeout,
		totalDeadline:     totalDeadline,
	}
}

func (p *PolygonAPIProvider) Name() string { return "polygon-api" }

type polygonAggsResponse struct {
	Status  string       `json:"status"`
	Results []polygonAgg `json:"results"`
	NextURL string       `json:"next_url"`
}

type polygonAgg struct {
	Timestamp int64   `json:"t"`
	Open      float64 `json:"o"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Close     float64 `json:"c"`
	Volume    float64 `json:"v"`
}

// FetchRange returns daily bars for symbol in [from, to].
func (p *PolygonAPIProvider) FetchRange(ctx context.Context, symbol, from, to string) (PriceSeries, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, model.NewError(model.KindCanceled, "rate limit wait canceled", err)
	}

	var series PriceSeries

	err := withRetry(ctx, p.maxRetries, p.baseDelay, p.perAttemptTimeout, p.totalDeadline, func(ctx context.Context) error {
		url := fmt.Sprintf("/v2/aggs/ticker/%s/range/1/day/%s/%s", symbol, from, to)
		resp, err := p.client.R().SetContext(ctx).Get(url)
		if err != nil {
			return model.NewError(model.KindProviderUnavailable, "api request failed", err)
		}
		if resp.StatusCode() >= 300 {
			return &httpError{statusCode: resp.StatusCode(), url: url}
		}

		var parsed polygonAggsResponse
		if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
			return model.NewError(model.KindProviderError, "could not decode polygon response", err)
		}

		series = make(PriceSeries, 0, len(parsed.Results))
		for _, bar := range parsed.Results {
			date := time.UnixMilli(bar.Timestamp).UTC().Format("2006-01-02")
			closePrice := decimal.NewFromFloat(bar.Close)
			series = append(series, model.StockPrice{
				Symbol:   symbol,
				Date:     date,
				Open:     decimal.NewFromFloat(bar.Open),
				High:     decimal.NewFromFloat(bar.High),
				Low:      decimal.NewFromFloat(bar.Low),
				Close:    closePrice,
				AdjClose: closePrice,
				Volume:   decimal.NewFromFloat(bar.Volume),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return series, nil
}
