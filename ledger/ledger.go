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

// Package ledger implements the lot-level accounting engine: recording
// buys and sells against a FIFO/LIFO/specific-lot/average-cost matcher,
// and the position/lot/sale queries built on top of it.
package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pvledger/pvledger/model"
	"github.com/pvledger/pvledger/storage"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Service is the lot ledger. It owns no state of its own; every
// mutation is a single atomic call into storage.
type Service struct {
	store *storage.Storage
}

// New builds a Service backed by store.
func New(store *storage.Storage) *Service {
	return &Service{store: store}
}

// PositionSummary aggregates a symbol's open lots into the figures
// quoted at the portfolio level.
type PositionSummary struct {
	Symbol          string
	Quantity        decimal.Decimal
	WeightedAvgCost decimal.Decimal
	TotalCost       decimal.Decimal
	LotCount        int
	FirstBuyDate    string
}

func validateCommon(symbol string, quantity, price, commission decimal.Decimal, date string) error {
	if strings.TrimSpace(symbol) == "" {
		return model.NewError(model.KindValidation, "symbol must not be empty", nil)
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return model.NewError(model.KindValidation, "quantity must be positive", nil)
	}
	if price.LessThan(decimal.Zero) {
		return model.NewError(model.KindValidation, "price must not be negative", nil)
	}
	if commission.LessThan(decimal.Zero) {
		return model.NewError(model.KindValidation, "commission must not be negative", nil)
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return model.NewError(model.KindValidation, fmt.Sprintf("transaction_date %q is not parseable", date), err)
	}
	return nil
}

// RecordBuy validates and records a BUY, creating its resulting lot.
// When externalID is set and already recorded for owner, the existing
// transaction is returned unchanged rather than inserted again.
func (svc *Service) RecordBuy(ctx context.Context, owner, symbol string, quantity, price, commission decimal.Decimal, date string, externalID *string, notes string) (*model.Transaction, *model.PositionLot, error) {
	if err := validateCommon(symbol, quantity, price, commission, date); err != nil {
		return nil, nil, err
	}

	if externalID != nil {
		existing, err := svc.store.FindTransactionByExternalID(ctx, owner, *externalID)
		if err != nil {
			return nil, nil, err
		}
		if existing != nil {
			log.Debug().Str("owner", owner).Str("external_id", *externalID).Msg("duplicate buy external_id, returning existing transaction")
			lot, err := svc.lotForBuyTransaction(ctx, existing.ID.String())
			if err != nil {
				return nil, nil, err
			}
			return existing, lot, nil
		}
	}

	costBasisPerShare := price.Add(commission.Div(quantity))

	txn := model.Transaction{
		ID:              uuid.New(),
		OwnerID:         owner,
		Symbol:          symbol,
		Kind:            model.Buy,
		Quantity:        quantity,
		Price:           price,
		Commission:      commission,
		TransactionDate: date,
		ExternalID:      externalID,
		Notes:           notes,
		CreatedAt:       time.Now().UTC(),
	}
	lot := model.PositionLot{
		ID:                uuid.New(),
		OwnerID:           owner,
		Symbol:            symbol,
		BuyTransactionID:  txn.ID,
		OriginalQuantity:  quantity,
		RemainingQuantity: quantity,
		CostBasisPerShare: costBasisPerShare,
		PurchaseDate:      date,
		IsClosed:          false,
	}

	if err := svc.store.RecordBuy(ctx, txn, lot); err != nil {
		return nil, nil, err
	}
	return &txn, &lot, nil
}

// lotForBuyTransaction is used only to make a repeated record_buy call
// idempotent: it looks up the lot the original call created.
func (svc *Service) lotForBuyTransaction(ctx context.Context, buyTransactionID string) (*model.PositionLot, error) {
	return svc.store.GetLotByBuyTransaction(ctx, buyTransactionID)
}

// RecordSell validates, allocates quantity across open lots per method,
// and records the SELL and its allocations atomically.
func (svc *Service) RecordSell(ctx context.Context, owner, symbol string, quantity, price, commission decimal.Decimal, date string, method model.BasisMethod, specific []SpecificLotRequest, externalID *string, notes string) (*model.Transaction, []model.SaleAllocation, error) {
	if err := validateCommon(symbol, quantity, price, commission, date); err != nil {
		return nil, nil, err
	}

	if externalID != nil {
		existing, err := svc.store.FindTransactionByExternalID(ctx, owner, *externalID)
		if err != nil {
			return nil, nil, err
		}
		if existing != nil {
			log.Debug().Str("owner", owner).Str("external_id", *externalID).Msg("duplicate sell external_id, returning existing transaction")
			allocs, err := svc.store.GetAllocationsForTransaction(ctx, existing.ID.String())
			if err != nil {
				return nil, nil, err
			}
			return existing, allocs, nil
		}
	}

	openLots, err := svc.store.GetOpenLots(ctx, owner, symbol, model.PurchaseDateAsc)
	if err != nil {
		return nil, nil, err
	}

	plan, err := Allocate(openLots, quantity, method, specific)
	if err != nil {
		return nil, nil, err
	}

	txn := model.Transaction{
		ID:              uuid.New(),
		OwnerID:         owner,
		Symbol:          symbol,
		Kind:            model.Sell,
		Quantity:        quantity,
		Price:           price,
		Commission:      commission,
		TransactionDate: date,
		ExternalID:      externalID,
		Notes:           notes,
		CreatedAt:       time.Now().UTC(),
	}

	allocations := make([]model.SaleAllocation, 0, len(plan))
	lotUpdates := make([]storage.LotUpdate, 0, len(plan))

	for _, entry := range plan {
		allocatedCommission := commission.Mul(entry.Quantity).Div(quantity)
		realizedPnL := price.Sub(entry.Lot.CostBasisPerShare).Mul(entry.Quantity).Sub(allocatedCommission)

		allocations = append(allocations, model.SaleAllocation{
			ID:                uuid.New(),
			SellTransactionID: txn.ID,
			LotID:             entry.Lot.ID,
			QuantitySold:      entry.Quantity,
			CostBasisPerShare: entry.Lot.CostBasisPerShare,
			SalePricePerShare: price,
			RealizedPnL:       realizedPnL,
		})

		newRemaining := entry.Lot.RemainingQuantity.Sub(entry.Quantity)
		lotUpdates = append(lotUpdates, storage.LotUpdate{
			LotID:        entry.Lot.ID.String(),
			NewRemaining: newRemaining,
			IsClosed:     newRemaining.LessThanOrEqual(decimal.Zero),
		})
	}

	if err := svc.store.RecordSell(ctx, txn, allocations, lotUpdates); err != nil {
		return nil, nil, err
	}
	return &txn, allocations, nil
}

// GetOpenLots returns the open lots for (owner, symbol) in the given order.
func (svc *Service) GetOpenLots(ctx context.Context, owner, symbol string, order model.LotOrder) ([]model.PositionLot, error) {
	return svc.store.GetOpenLots(ctx, owner, symbol, order)
}

// GetAllocationsForSymbol returns the sale ledger for (owner, symbol).
func (svc *Service) GetAllocationsForSymbol(ctx context.Context, owner, symbol string) ([]model.SaleAllocation, error) {
	return svc.store.GetAllocationsForSymbol(ctx, owner, symbol)
}

// GetPositionSummary aggregates open lots for (owner, symbol) into the
// figures a position listing quotes.
func (svc *Service) GetPositionSummary(ctx context.Context, owner, symbol string) (*PositionSummary, error) {
	lots, err := svc.store.GetOpenLots(ctx, owner, symbol, model.PurchaseDateAsc)
	if err != nil {
		return nil, err
	}
	if len(lots) == 0 {
		return &PositionSummary{Symbol: symbol}, nil
	}

	quantity := decimal.Zero
	totalCost := decimal.Zero
	firstBuyDate := lots[0].PurchaseDate

	for _, lot := range lots {
		quantity = quantity.Add(lot.RemainingQuantity)
		totalCost = totalCost.Add(lot.RemainingQuantity.Mul(lot.CostBasisPerShare))
		if lot.PurchaseDate < firstBuyDate {
			firstBuyDate = lot.PurchaseDate
		}
	}

	weightedAvgCost := decimal.Zero
	if !quantity.IsZero() {
		weightedAvgCost = totalCost.Div(quantity)
	}

	return &PositionSummary{
		Symbol:          symbol,
		Quantity:        quantity,
		WeightedAvgCost: weightedAvgCost,
		TotalCost:       totalCost,
		LotCount:        len(lots),
		FirstBuyDate:    firstBuyDate,
	}, nil
}

// AllPositions aggregates a PositionSummary for every symbol owner holds
// an open lot in.
func (svc *Service) AllPositions(ctx context.Context, owner string) ([]PositionSummary, error) {
	symbols, err := svc.store.DistinctOpenSymbols(ctx, owner)
	if err != nil {
		return nil, err
	}

	summaries := make([]PositionSummary, 0, len(symbols))
	for _, symbol := range symbols {
		summary, err := svc.GetPositionSummary(ctx, owner, symbol)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
	}
	return summaries, nil
}
