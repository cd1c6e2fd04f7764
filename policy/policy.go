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

// Package policy decides, per symbol, whether the acquisition pipeline
// should use the bulk-historical or incremental-API price provider, and
// whether a symbol's fundamentals need a refresh. It touches neither
// storage nor the network: every decision is a pure function of the
// dates it is given.
package policy

import "time"

// ProviderKind names which price adapter a plan selects.
type ProviderKind string

const (
	Bulk ProviderKind = "bulk"
	API  ProviderKind = "api"
)

// PricePlan is the acquisition policy's decision for one symbol.
type PricePlan struct {
	Provider ProviderKind
	From     string // YYYY-MM-DD
	To       string // YYYY-MM-DD, empty when Provider == Bulk
}

const dateLayout = "2006-01-02"

// DecidePricePlan implements the hybrid acquisition rule: no prior data
// means a full bulk load; a gap within thresholdDays means an
// incremental API patch; a larger gap means a full bulk refresh.
//
// lastStoredDate is "" when the symbol has never been stored.
func DecidePricePlan(lastStoredDate, today string, thresholdDays int, historyStartDefault string) PricePlan {
	if lastStoredDate == "" {
		return PricePlan{Provider: Bulk, From: historyStartDefault}
	}

	last, errLast := time.Parse(dateLayout, lastStoredDate)
	now, errNow := time.Parse(dateLayout, today)
	if errLast != nil || errNow != nil {
		return PricePlan{Provider: Bulk, From: historyStartDefault}
	}

	gapDays := int(now.Sub(last).Hours() / 24)
	if gapDays <= thresholdDays {
		from := last.AddDate(0, 0, 1).Format(dateLayout)
		return PricePlan{Provider: API, From: from, To: today}
	}

	return PricePlan{Provider: Bulk, From: historyStartDefault}
}

// FallbackToBulk is applied when the API provider's call fails as
// retryable-exhausted or returns no data: the same invocation escalates
// to a full bulk refresh for the symbol.
func FallbackToBulk(historyStartDefault string) PricePlan {
	return PricePlan{Provider: Bulk, From: historyStartDefault}
}

// ShouldRefreshFundamentals reports whether a symbol's fundamentals are
// stale enough to warrant a refetch. lastRefreshDate is "" when no
// fundamentals have ever been stored for the symbol.
func ShouldRefreshFundamentals(lastRefreshDate, today string, refreshDays int) bool {
	if lastRefreshDate == "" {
		return true
	}

	last, errLast := time.Parse(dateLayout, lastRefreshDate)
	now, errNow := time.Parse(dateLayout, today)
	if errLast != nil || errNow != nil {
		return true
	}

	ageDays := int(now.Sub(last).Hours() / 24)
	return ageDays > refreshDays
}
