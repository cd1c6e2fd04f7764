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
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/pvledger/pvledger/acquisition"
	"github.com/pvledger/pvledger/model"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// dataCmd groups the acquisition-pipeline subcommands.
var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Acquire and query market data",
}

var (
	dataComprehensive  bool
	dataFinancialOnly  bool
	dataStartDate      string
	dataQueryStart     string
	dataQueryEnd       string
	dataQueryLimit     int
	dataMetaName       string
	dataMetaSector     string
	dataMetaIndustry   string
	dataMetaDesc       string
)

var dataDownloadCmd = &cobra.Command{
	Use:   "download [symbols...]",
	Short: "Download prices (and optionally financials) for one or more symbols",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := context.Background()
		svc := a.acquisition.WithHistoryStart(dataStartDate)

		var results []acquisition.Result
		if dataFinancialOnly {
			for _, symbol := range args {
				results = append(results, svc.AcquireFundamentalsOnly(ctx, strings.ToUpper(symbol)))
			}
		} else {
			results = svc.Batch(ctx, args, dataComprehensive)
		}

		anyFailed := false
		for _, result := range results {
			logEntry := log.Info().Str("symbol", result.Symbol).Bool("success", result.Success).
				Str("strategy", result.StrategyUsed).Int("rows_added", result.RowsAdded)
			if !result.Success {
				anyFailed = true
				logEntry = log.Error().Str("symbol", result.Symbol).Bool("success", false).
					Str("error_category", string(result.ErrorCategory)).Str("error", result.ErrorMessage)
			}
			logEntry.Msg("download result")
		}

		if anyFailed {
			return fmt.Errorf("one or more symbols failed to download")
		}
		return nil
	},
}

var dataQueryCmd = &cobra.Command{
	Use:   "query [symbol]",
	Short: "Query stored prices for a symbol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		symbol := strings.ToUpper(args[0])
		ctx := context.Background()

		exists, err := a.store.StockExists(ctx, symbol)
		if err != nil {
			return err
		}
		if !exists {
			return model.NewError(model.KindNotFound, fmt.Sprintf("symbol %q is unknown", symbol), nil)
		}

		prices, err := a.store.GetPrices(ctx, symbol, dataQueryStart, dataQueryEnd)
		if err != nil {
			return err
		}
		if dataQueryLimit > 0 && len(prices) > dataQueryLimit {
			prices = prices[len(prices)-dataQueryLimit:]
		}

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("# %s prices\n\n", symbol))
		sb.WriteString("| Date | Open | High | Low | Close | Adj Close | Volume |\n")
		sb.WriteString("|---|---|---|---|---|---|---|\n")
		for _, p := range prices {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s | %s |\n",
				p.Date, p.Open.StringFixed(2), p.High.StringFixed(2), p.Low.StringFixed(2),
				p.Close.StringFixed(2), p.AdjClose.StringFixed(2), p.Volume.StringFixed(0)))
		}

		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
		if err != nil {
			return err
		}
		out, err := r.Render(sb.String())
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

// dataUpdateMetaCmd fills the descriptive stock columns from
// operator-supplied values. None of the configured providers carries
// company metadata in its payloads, so this is the one write path for
// those fields.
var dataUpdateMetaCmd = &cobra.Command{
	Use:   "update-meta [symbol]",
	Short: "Set the company metadata stored for a symbol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		symbol := strings.ToUpper(args[0])
		ctx := context.Background()

		if err := a.store.EnsureStock(ctx, symbol); err != nil {
			return err
		}
		if err := a.store.RefreshStockMeta(ctx, symbol, dataMetaName, dataMetaSector, dataMetaIndustry, dataMetaDesc); err != nil {
			return err
		}

		log.Info().Str("symbol", symbol).Str("company_name", dataMetaName).Msg("updated stock metadata")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dataCmd)
	dataCmd.AddCommand(dataDownloadCmd)
	dataCmd.AddCommand(dataQueryCmd)
	dataCmd.AddCommand(dataUpdateMetaCmd)

	dataDownloadCmd.Flags().BoolVar(&dataComprehensive, "comprehensive", false, "also refresh fundamentals when stale")
	dataDownloadCmd.Flags().BoolVar(&dataFinancialOnly, "financial-only", false, "only refresh fundamentals")
	dataDownloadCmd.Flags().StringVar(&dataStartDate, "start-date", "", "override the history start date for a full bulk refresh")

	dataQueryCmd.Flags().StringVar(&dataQueryStart, "start-date", "", "inclusive start date (YYYY-MM-DD)")
	dataQueryCmd.Flags().StringVar(&dataQueryEnd, "end-date", "", "inclusive end date (YYYY-MM-DD)")
	dataQueryCmd.Flags().IntVar(&dataQueryLimit, "limit", 0, "only return the most recent N rows")

	dataUpdateMetaCmd.Flags().StringVar(&dataMetaName, "name", "", "company name")
	dataUpdateMetaCmd.Flags().StringVar(&dataMetaSector, "sector", "", "sector")
	dataUpdateMetaCmd.Flags().StringVar(&dataMetaIndustry, "industry", "", "industry")
	dataUpdateMetaCmd.Flags().StringVar(&dataMetaDesc, "description", "", "company description")
	_ = dataUpdateMetaCmd.MarkFlagRequired("name")
}
