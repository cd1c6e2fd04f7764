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
package cmd

import (
	"github.com/pvledger/pvledger/acquisition"
	"github.com/pvledger/pvledger/config"
	"github.com/pvledger/pvledger/ledger"
	"github.com/pvledger/pvledger/model"
	"github.com/pvledger/pvledger/provider"
	"github.com/pvledger/pvledger/storage"
	"github.com/pvledger/pvledger/valuation"
	"github.com/spf13/viper"
)

// app wires the engine's components from resolved configuration. Every
// command connects independently rather than sharing a long-lived
// singleton, matching the connect-per-invocation style of a CLI.
type app struct {
	cfg         *config.Config
	store       *storage.Storage
	ledger      *ledger.Service
	valuation   *valuation.Calculator
	acquisition *acquisition.Service
}

func newApp() (*app, error) {
	cfg := config.Load(viper.GetViper())

	if err := storage.Migrate(cfg.DBPath); err != nil {
		return nil, model.NewError(model.KindStorageError, "could not migrate database", err)
	}

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	bulk := provider.NewTiingoBulkProvider(cfg.BulkProviderAPIKey, "", cfg.MaxRetries, cfg.BaseDelay, cfg.PerAttemptTimeout, cfg.TotalDeadline)
	api := provider.NewPolygonAPIProvider(cfg.IncrementalProviderAPIKey, "", cfg.ProviderRateLimitPerMinute, cfg.MaxRetries, cfg.BaseDelay, cfg.PerAttemptTimeout, cfg.TotalDeadline)
	fundamentals := provider.NewSharadarFundamentalsProvider(cfg.FundamentalsProviderAPIKey, "", cfg.MaxRetries, cfg.BaseDelay, cfg.PerAttemptTimeout, cfg.TotalDeadline)

	acq := acquisition.New(store, bulk, api, fundamentals, cfg.IncrementalThresholdDays, cfg.HistoryStartDefault, cfg.FinancialRefreshDays, cfg.WorkerPoolSize)

	return &app{
		cfg:         cfg,
		store:       store,
		ledger:      ledger.New(store),
		valuation:   valuation.New(store, model.MissingPriceStrategy(cfg.MissingPriceStrategy)),
		acquisition: acq,
	}, nil
}

func (a *app) Close() {
	_ = a.store.Close()
}

func priceSourceFlag(v string) model.PriceSource {
	if v == string(model.Close) {
		return model.Close
	}
	return model.AdjClose
}

func basisMethodFlag(v string) model.BasisMethod {
	switch v {
	case string(model.LIFO):
		return model.LIFO
	case string(model.SpecificLot):
		return model.SpecificLot
	case string(model.AverageCost):
		return model.AverageCost
	default:
		return model.FIFO
	}
}
