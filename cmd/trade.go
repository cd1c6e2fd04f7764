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
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/pvledger/pvledger/ledger"
	"github.com/pvledger/pvledger/model"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// tradeCmd groups the lot ledger and PnL valuation subcommands.
var tradeCmd = &cobra.Command{
	Use:   "trade",
	Short: "Record buys/sells and value a lot-level portfolio",
}

var (
	tradeOwner        string
	tradeSymbol       string
	tradeQuantity     string
	tradePrice        string
	tradeDate         string
	tradeCommission   string
	tradeExternalID   string
	tradeNotes        string
	tradeBasis        string
	tradeSpecificLots string

	tradeDate2      string
	tradePriceSrc   string
	tradeBatchStart string
	tradeBatchEnd   string
	tradeOnlyTrades bool
)

func parseDecimalFlag(name, value string, allowEmpty bool) (decimal.Decimal, error) {
	if value == "" {
		if allowEmpty {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("--%s is required", name)
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("--%s %q is not a valid number: %w", name, value, err)
	}
	return d, nil
}

// parseSpecificLots parses the comma-separated `lot=<id>:<qty>` CLI
// syntax, rejecting any malformed entry.
func parseSpecificLots(raw string) ([]ledger.SpecificLotRequest, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	entries := strings.Split(raw, ",")
	plans := make([]ledger.SpecificLotRequest, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !strings.HasPrefix(entry, "lot=") {
			return nil, fmt.Errorf("malformed specific-lot entry %q: expected lot=<id>:<qty>", entry)
		}
		rest := strings.TrimPrefix(entry, "lot=")
		parts := strings.SplitN(rest, ":", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("malformed specific-lot entry %q: expected lot=<id>:<qty>", entry)
		}
		qty, err := decimal.NewFromString(parts[1])
		if err != nil {
			return nil, fmt.Errorf("malformed specific-lot quantity in %q: %w", entry, err)
		}
		plans = append(plans, ledger.SpecificLotRequest{LotID: parts[0], Quantity: qty})
	}
	return plans, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var tradeBuyCmd = &cobra.Command{
	Use:   "buy",
	Short: "Record a BUY transaction, opening a new position lot",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		quantity, err := parseDecimalFlag("quantity", tradeQuantity, false)
		if err != nil {
			return err
		}
		price, err := parseDecimalFlag("price", tradePrice, false)
		if err != nil {
			return err
		}
		commission, err := parseDecimalFlag("commission", tradeCommission, true)
		if err != nil {
			return err
		}

		symbol := strings.ToUpper(tradeSymbol)
		txn, lot, err := a.ledger.RecordBuy(context.Background(), tradeOwner, symbol, quantity, price, commission, tradeDate, optionalString(tradeExternalID), tradeNotes)
		if err != nil {
			return err
		}

		log.Info().Str("transaction_id", txn.ID.String()).Str("lot_id", lot.ID.String()).
			Str("symbol", symbol).Str("quantity", quantity.String()).Msg("recorded buy")
		fmt.Printf("transaction=%s lot=%s symbol=%s quantity=%s cost_basis_per_share=%s\n",
			txn.ID, lot.ID, symbol, lot.OriginalQuantity.String(), lot.CostBasisPerShare.String())
		return nil
	},
}

var tradeSellCmd = &cobra.Command{
	Use:   "sell",
	Short: "Record a SELL transaction, allocating against open lots",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		quantity, err := parseDecimalFlag("quantity", tradeQuantity, false)
		if err != nil {
			return err
		}
		price, err := parseDecimalFlag("price", tradePrice, false)
		if err != nil {
			return err
		}
		commission, err := parseDecimalFlag("commission", tradeCommission, true)
		if err != nil {
			return err
		}

		specific, err := parseSpecificLots(tradeSpecificLots)
		if err != nil {
			return err
		}

		symbol := strings.ToUpper(tradeSymbol)
		method := basisMethodFlag(tradeBasis)
		if method == model.SpecificLot && len(specific) == 0 {
			return fmt.Errorf("--basis=specific requires --specific-lots")
		}

		txn, allocations, err := a.ledger.RecordSell(context.Background(), tradeOwner, symbol, quantity, price, commission, tradeDate, method, specific, optionalString(tradeExternalID), tradeNotes)
		if err != nil {
			if model.Is(err, model.KindInsufficientShares) {
				fmt.Fprintln(os.Stderr, err)
			}
			return err
		}

		log.Info().Str("transaction_id", txn.ID.String()).Str("symbol", symbol).
			Int("allocations", len(allocations)).Msg("recorded sell")
		for _, alloc := range allocations {
			fmt.Printf("lot=%s quantity=%s cost_basis=%s realized_pnl=%s\n",
				alloc.LotID, alloc.QuantitySold.String(), alloc.CostBasisPerShare.String(), alloc.RealizedPnL.String())
		}
		return nil
	},
}

var tradePositionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "List aggregated open positions for an owner",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		summaries, err := a.ledger.AllPositions(context.Background(), tradeOwner)
		if err != nil {
			return err
		}

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("# Positions for %s\n\n", tradeOwner))
		sb.WriteString("| Symbol | Quantity | Avg Cost | Total Cost | Lots | First Buy |\n")
		sb.WriteString("|---|---|---|---|---|---|\n")
		for _, s := range summaries {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %d | %s |\n",
				s.Symbol, s.Quantity.String(), s.WeightedAvgCost.StringFixed(4), s.TotalCost.StringFixed(2), s.LotCount, s.FirstBuyDate))
		}
		return renderMarkdown(sb.String())
	},
}

var tradeLotsCmd = &cobra.Command{
	Use:   "lots",
	Short: "List open lots for an owner/symbol",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		lots, err := a.ledger.GetOpenLots(context.Background(), tradeOwner, strings.ToUpper(tradeSymbol), model.PurchaseDateAsc)
		if err != nil {
			return err
		}

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("# Open lots for %s %s\n\n", tradeOwner, strings.ToUpper(tradeSymbol)))
		sb.WriteString("| Lot | Purchase Date | Original | Remaining | Cost Basis | Closed |\n")
		sb.WriteString("|---|---|---|---|---|---|\n")
		for _, lot := range lots {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %v |\n",
				lot.ID, lot.PurchaseDate, lot.OriginalQuantity.String(), lot.RemainingQuantity.String(), lot.CostBasisPerShare.StringFixed(4), lot.IsClosed))
		}
		return renderMarkdown(sb.String())
	},
}

var tradeSalesCmd = &cobra.Command{
	Use:   "sales",
	Short: "List sale allocations for an owner/symbol",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		allocations, err := a.ledger.GetAllocationsForSymbol(context.Background(), tradeOwner, strings.ToUpper(tradeSymbol))
		if err != nil {
			return err
		}

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("# Sale allocations for %s %s\n\n", tradeOwner, strings.ToUpper(tradeSymbol)))
		sb.WriteString("| Sell Txn | Lot | Quantity | Cost Basis | Sale Price | Realized PnL |\n")
		sb.WriteString("|---|---|---|---|---|---|\n")
		for _, alloc := range allocations {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s |\n",
				alloc.SellTransactionID, alloc.LotID, alloc.QuantitySold.String(),
				alloc.CostBasisPerShare.StringFixed(4), alloc.SalePricePerShare.StringFixed(4), alloc.RealizedPnL.StringFixed(2)))
		}
		return renderMarkdown(sb.String())
	},
}

var tradeCalculatePnLCmd = &cobra.Command{
	Use:   "calculate-pnl",
	Short: "Compute and upsert a single day's DailyPnL row",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		source := priceSourceFlag(tradePriceSrc)
		row, err := a.valuation.ComputeDaily(context.Background(), tradeOwner, strings.ToUpper(tradeSymbol), tradeDate2, source)
		if err != nil {
			return err
		}

		fmt.Printf("quantity=%s weighted_avg_cost=%s market_price=%s market_value=%s unrealized_pnl=%s realized_pnl_day=%s stale=%v\n",
			row.Quantity.String(), row.WeightedAvgCost.StringFixed(4), row.MarketPrice.StringFixed(4),
			row.MarketValue.StringFixed(2), row.UnrealizedPnL.StringFixed(2), row.RealizedPnLDay.StringFixed(2), row.Stale)
		return nil
	},
}

var tradeBatchCalculateCmd = &cobra.Command{
	Use:   "batch-calculate",
	Short: "Compute and upsert DailyPnL rows across a date range",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		source := priceSourceFlag(tradePriceSrc)
		rows, err := a.valuation.Batch(context.Background(), tradeOwner, strings.ToUpper(tradeSymbol), tradeBatchStart, tradeBatchEnd, source, tradeOnlyTrades)
		partial := err != nil

		for _, row := range rows {
			fmt.Printf("%s quantity=%s unrealized_pnl=%s realized_pnl_day=%s stale=%v\n",
				row.ValuationDate, row.Quantity.String(), row.UnrealizedPnL.StringFixed(2), row.RealizedPnLDay.StringFixed(2), row.Stale)
		}

		if err != nil {
			log.Error().Err(err).Int("rows_upserted", len(rows)).Msg("batch-calculate stopped early")
		}
		if partial {
			os.Exit(2)
		}
		return nil
	},
}

var tradePnLHistoryCmd = &cobra.Command{
	Use:   "pnl-history",
	Short: "List stored DailyPnL rows for an owner/symbol across a date range",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		symbol := strings.ToUpper(tradeSymbol)
		rows, err := a.store.GetDailyPnLRange(context.Background(), tradeOwner, symbol, tradeBatchStart, tradeBatchEnd)
		if err != nil {
			return err
		}

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("# Daily PnL for %s %s\n\n", tradeOwner, symbol))
		sb.WriteString("| Date | Quantity | Avg Cost | Market Price | Market Value | Unrealized | Realized (day) | Stale |\n")
		sb.WriteString("|---|---|---|---|---|---|---|---|\n")
		for _, row := range rows {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s | %s | %v |\n",
				row.ValuationDate, row.Quantity.String(), row.WeightedAvgCost.StringFixed(4),
				row.MarketPrice.StringFixed(4), row.MarketValue.StringFixed(2),
				row.UnrealizedPnL.StringFixed(2), row.RealizedPnLDay.StringFixed(2), row.Stale))
		}
		return renderMarkdown(sb.String())
	},
}

// renderMarkdown renders a markdown document to the terminal the way
// cmd/info.go renders a library summary.
func renderMarkdown(doc string) error {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err != nil {
		return err
	}
	out, err := r.Render(doc)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

func init() {
	rootCmd.AddCommand(tradeCmd)
	tradeCmd.AddCommand(tradeBuyCmd, tradeSellCmd, tradePositionsCmd, tradeLotsCmd, tradeSalesCmd, tradeCalculatePnLCmd, tradeBatchCalculateCmd, tradePnLHistoryCmd)

	tradeCmd.PersistentFlags().StringVar(&tradeOwner, "owner", "", "owner id the transaction/query belongs to")
	_ = tradeCmd.MarkPersistentFlagRequired("owner")

	for _, c := range []*cobra.Command{tradeBuyCmd, tradeSellCmd, tradeLotsCmd, tradeSalesCmd, tradeCalculatePnLCmd, tradeBatchCalculateCmd, tradePnLHistoryCmd} {
		c.Flags().StringVarP(&tradeSymbol, "symbol", "s", "", "stock symbol")
		_ = c.MarkFlagRequired("symbol")
	}

	for _, c := range []*cobra.Command{tradeBuyCmd, tradeSellCmd} {
		c.Flags().StringVarP(&tradeQuantity, "quantity", "q", "", "number of shares")
		c.Flags().StringVarP(&tradePrice, "price", "p", "", "price per share")
		c.Flags().StringVarP(&tradeDate, "date", "d", "", "transaction date (YYYY-MM-DD)")
		c.Flags().StringVar(&tradeCommission, "commission", "0", "total commission paid")
		c.Flags().StringVar(&tradeExternalID, "external-id", "", "idempotency key, unique per owner")
		c.Flags().StringVar(&tradeNotes, "notes", "", "free-form notes")
		_ = c.MarkFlagRequired("quantity")
		_ = c.MarkFlagRequired("price")
		_ = c.MarkFlagRequired("date")
	}

	tradeSellCmd.Flags().StringVar(&tradeBasis, "basis", string(model.FIFO), "cost-basis method: fifo|lifo|specific|average")
	tradeSellCmd.Flags().StringVar(&tradeSpecificLots, "specific-lots", "", "comma-separated lot=<id>:<qty> pairs, required when --basis=specific")

	tradeCalculatePnLCmd.Flags().StringVar(&tradeDate2, "date", "", "valuation date (YYYY-MM-DD)")
	tradeCalculatePnLCmd.Flags().StringVar(&tradePriceSrc, "basis", string(model.AdjClose), "which stored price column to mark to: close|adj_close")
	_ = tradeCalculatePnLCmd.MarkFlagRequired("date")

	tradeBatchCalculateCmd.Flags().StringVar(&tradeBatchStart, "start", "", "inclusive start date (YYYY-MM-DD)")
	tradeBatchCalculateCmd.Flags().StringVar(&tradeBatchEnd, "end", "", "inclusive end date (YYYY-MM-DD)")
	tradeBatchCalculateCmd.Flags().StringVar(&tradePriceSrc, "basis", string(model.AdjClose), "which stored price column to mark to: close|adj_close")
	tradeBatchCalculateCmd.Flags().BoolVar(&tradeOnlyTrades, "only-trading-days", false, "only compute for dates present in the stored price series")
	_ = tradeBatchCalculateCmd.MarkFlagRequired("start")
	_ = tradeBatchCalculateCmd.MarkFlagRequired("end")

	tradePnLHistoryCmd.Flags().StringVar(&tradeBatchStart, "start", "", "inclusive start date (YYYY-MM-DD)")
	tradePnLHistoryCmd.Flags().StringVar(&tradeBatchEnd, "end", "", "inclusive end date (YYYY-MM-DD)")
	_ = tradePnLHistoryCmd.MarkFlagRequired("start")
	_ = tradePnLHistoryCmd.MarkFlagRequired("end")
}
