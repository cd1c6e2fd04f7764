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
package ledger

import (
	"fmt"
	"sort"

	"github.com/pvledger/pvledger/model"
	"github.com/shopspring/decimal"
)

// AllocationPlanEntry is one (lot, quantity) pair a matcher proposes for a
// sell. Matchers never touch storage; they work entirely off the open
// lots the caller supplies.
type AllocationPlanEntry struct {
	Lot      model.PositionLot
	Quantity decimal.Decimal
}

// SpecificLotRequest is one `lot=<id>:<qty>` entry parsed from the
// specific-lot CLI syntax.
type SpecificLotRequest struct {
	LotID    string
	Quantity decimal.Decimal
}

// Allocate dispatches to the matcher named by method and returns a plan
// whose quantities sum exactly to quantity, or a *model.Error tagged
// KindInsufficientShares / KindValidation when it cannot.
//
// Ties among lots with the same purchase_date are always broken by id
// ascending, so the same lots and request always yield the same plan.
func Allocate(openLots []model.PositionLot, quantity decimal.Decimal, method model.BasisMethod, specific []SpecificLotRequest) ([]AllocationPlanEntry, error) {
	switch method {
	case model.FIFO:
		return allocateOrdered(openLots, quantity, true)
	case model.LIFO:
		return allocateOrdered(openLots, quantity, false)
	case model.SpecificLot:
		return allocateSpecific(openLots, quantity, specific)
	case model.AverageCost:
		return allocateAverage(openLots, quantity)
	default:
		return nil, model.NewError(model.KindValidation, fmt.Sprintf("unknown cost basis method %q", method), nil)
	}
}

// sortedLots returns a copy of lots ordered by (purchase_date, id), in
// the given direction. Sorting a copy keeps Allocate side-effect free on
// its input slice.
func sortedLots(lots []model.PositionLot, ascending bool) []model.PositionLot {
	sorted := make([]model.PositionLot, len(lots))
	copy(sorted, lots)

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].PurchaseDate != sorted[j].PurchaseDate {
			if ascending {
				return sorted[i].PurchaseDate < sorted[j].PurchaseDate
			}
			return sorted[i].PurchaseDate > sorted[j].PurchaseDate
		}
		// ties always break ascending by id, regardless of FIFO/LIFO
		return sorted[i].ID.String() < sorted[j].ID.String()
	})
	return sorted
}

func allocateOrdered(openLots []model.PositionLot, quantity decimal.Decimal, ascending bool) ([]AllocationPlanEntry, error) {
	sorted := sortedLots(openLots, ascending)

	remaining := quantity
	plan := make([]AllocationPlanEntry, 0, len(sorted))

	for _, lot := range sorted {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		take := lot.RemainingQuantity
		if take.GreaterThan(remaining) {
			take = remaining
		}
		plan = append(plan, AllocationPlanEntry{Lot: lot, Quantity: take})
		remaining = remaining.Sub(take)
	}

	if remaining.GreaterThan(decimal.Zero) {
		return nil, insufficientSharesError(openLots, quantity)
	}
	return plan, nil
}

func allocateSpecific(openLots []model.PositionLot, quantity decimal.Decimal, specific []SpecificLotRequest) ([]AllocationPlanEntry, error) {
	if len(specific) == 0 {
		return nil, model.NewError(model.KindValidation, "specific-lot basis requires a lot plan", nil)
	}

	byID := make(map[string]model.PositionLot, len(openLots))
	for _, lot := range openLots {
		byID[lot.ID.String()] = lot
	}

	plan := make([]AllocationPlanEntry, 0, len(specific))
	total := decimal.Zero

	for _, req := range specific {
		lot, ok := byID[req.LotID]
		if !ok {
			return nil, model.NewError(model.KindValidation, fmt.Sprintf("lot %s is not open for this owner/symbol", req.LotID), nil)
		}
		if req.Quantity.LessThanOrEqual(decimal.Zero) {
			return nil, model.NewError(model.KindValidation, fmt.Sprintf("lot %s: quantity must be positive", req.LotID), nil)
		}
		if req.Quantity.GreaterThan(lot.RemainingQuantity) {
			return nil, insufficientSharesError(openLots, quantity)
		}
		plan = append(plan, AllocationPlanEntry{Lot: lot, Quantity: req.Quantity})
		total = total.Add(req.Quantity)
	}

	if !total.Equal(quantity) {
		return nil, model.NewError(model.KindValidation, fmt.Sprintf("specific lot plan sums to %s, expected %s", total, quantity), nil)
	}

	return plan, nil
}

// allocateAverage treats every open lot as part of one pooled position
// with a single weighted-average cost, but still emits one plan entry
// per underlying lot — pro-rata by remaining quantity — so that each
// lot's own remaining_quantity ledger stays correct.
func allocateAverage(openLots []model.PositionLot, quantity decimal.Decimal) ([]AllocationPlanEntry, error) {
	sorted := sortedLots(openLots, true)

	totalRemaining := decimal.Zero
	for _, lot := range sorted {
		totalRemaining = totalRemaining.Add(lot.RemainingQuantity)
	}

	if quantity.GreaterThan(totalRemaining) {
		return nil, insufficientSharesError(openLots, quantity)
	}
	if totalRemaining.IsZero() {
		return nil, insufficientSharesError(openLots, quantity)
	}

	plan := make([]AllocationPlanEntry, 0, len(sorted))
	allocated := decimal.Zero

	for i, lot := range sorted {
		var take decimal.Decimal
		if i == len(sorted)-1 {
			// last lot absorbs the rounding residue so the plan sums exactly
			take = quantity.Sub(allocated)
		} else {
			share := lot.RemainingQuantity.Div(totalRemaining)
			take = quantity.Mul(share).Round(8)
			if take.GreaterThan(lot.RemainingQuantity) {
				take = lot.RemainingQuantity
			}
		}
		if take.LessThanOrEqual(decimal.Zero) {
			continue
		}
		plan = append(plan, AllocationPlanEntry{Lot: lot, Quantity: take})
		allocated = allocated.Add(take)
	}

	return plan, nil
}

func insufficientSharesError(openLots []model.PositionLot, requested decimal.Decimal) error {
	available := decimal.Zero
	for _, lot := range openLots {
		available = available.Add(lot.RemainingQuantity)
	}
	return model.NewError(model.KindInsufficientShares,
		fmt.Sprintf("requested %s shares but only %s available", requested, available), nil)
}
