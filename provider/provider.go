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

// Package provider adapts heterogeneous upstream market-data sources to
// the internal price/financials model. Adapters never touch storage;
// they normalize a payload and hand it back to the caller.
package provider

import "context"

// BulkPriceProvider fetches a symbol's full available history from a
// bulk endpoint. Used for first-time loads and full refreshes.
type BulkPriceProvider interface {
	Name() string
	FetchBulk(ctx context.Context, symbol, startDate string) (PriceSeries, error)
}

// ApiPriceProvider fetches a bounded date window via a per-symbol HTTP
// API. Used for incremental patches.
type ApiPriceProvider interface {
	Name() string
	FetchRange(ctx context.Context, symbol, from, to string) (PriceSeries, error)
}

// FundamentalsProvider fetches normalized financial statement line
// items for the most recent periods.
type FundamentalsProvider interface {
	Name() string
	FetchFundamentals(ctx context.Context, symbol string, periods int) (FundamentalsResult, error)
}
