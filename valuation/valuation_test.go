package valuation

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pvledger/pvledger/ledger"
	"github.com/pvledger/pvledger/model"
	"github.com/pvledger/pvledger/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestCalculator(t *testing.T, strategy model.MissingPriceStrategy) (*Calculator, *storage.Storage, *ledger.Service) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "valuation.db")
	require.NoError(t, storage.Migrate(dbPath))

	store, err := storage.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.EnsureStock(context.Background(), "AAPL"))
	return New(store, strategy), store, ledger.New(store)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeDaily_S7(t *testing.T) {
	calc, store, led := newTestCalculator(t, model.Backfill)
	ctx := context.Background()

	_, _, err := led.RecordBuy(ctx, "u1", "AAPL", dec("100"), dec("150"), dec("0"), "2024-01-15", nil, "")
	require.NoError(t, err)
	_, _, err = led.RecordBuy(ctx, "u1", "AAPL", dec("50"), dec("160"), dec("0"), "2024-02-01", nil, "")
	require.NoError(t, err)
	_, _, err = led.RecordSell(ctx, "u1", "AAPL", dec("120"), dec("170"), dec("0"), "2024-03-01", model.FIFO, nil, nil, "")
	require.NoError(t, err)

	require.NoError(t, store.UpsertPrices(ctx, "AAPL", []model.StockPrice{
		{Symbol: "AAPL", Date: "2024-03-15", Open: dec("174"), High: dec("176"), Low: dec("173"), Close: dec("175"), AdjClose: dec("175"), Volume: dec("1000000")},
	}))

	row, err := calc.ComputeDaily(ctx, "u1", "AAPL", "2024-03-15", model.Close)
	require.NoError(t, err)

	require.True(t, row.Quantity.Equal(dec("30")), "quantity: %s", row.Quantity)
	require.True(t, row.WeightedAvgCost.Equal(dec("160")), "weighted_avg_cost: %s", row.WeightedAvgCost)
	require.True(t, row.MarketValue.Equal(dec("5250")), "market_value: %s", row.MarketValue)
	require.True(t, row.UnrealizedPnL.Equal(dec("450")), "unrealized_pnl: %s", row.UnrealizedPnL)
	require.True(t, row.RealizedPnLDay.IsZero(), "realized_pnl_day: %s", row.RealizedPnLDay)
	require.True(t, row.TotalCost.Equal(dec("4800")), "total_cost: %s", row.TotalCost)
	require.False(t, row.Stale)

	// the row is persisted, and recomputing upserts rather than duplicating
	_, err = calc.ComputeDaily(ctx, "u1", "AAPL", "2024-03-15", model.Close)
	require.NoError(t, err)

	stored, err := store.GetDailyPnL(ctx, "u1", "AAPL", "2024-03-15")
	require.NoError(t, err)
	require.True(t, stored.Quantity.Equal(dec("30")))
	require.True(t, stored.UnrealizedPnL.Equal(dec("450")))

	history, err := store.GetDailyPnLRange(ctx, "u1", "AAPL", "2024-03-01", "2024-03-31")
	require.NoError(t, err)
	require.Len(t, history, 1)
}

func TestComputeDaily_BackfillsStalePrice(t *testing.T) {
	calc, store, led := newTestCalculator(t, model.Backfill)
	ctx := context.Background()

	_, _, err := led.RecordBuy(ctx, "u1", "AAPL", dec("10"), dec("100"), dec("0"), "2024-01-01", nil, "")
	require.NoError(t, err)
	require.NoError(t, store.UpsertPrices(ctx, "AAPL", []model.StockPrice{
		{Symbol: "AAPL", Date: "2024-01-02", Open: dec("105"), High: dec("106"), Low: dec("104"), Close: dec("105"), AdjClose: dec("105"), Volume: dec("1000")},
	}))

	row, err := calc.ComputeDaily(ctx, "u1", "AAPL", "2024-01-05", model.Close)
	require.NoError(t, err)
	require.True(t, row.Stale)
	require.True(t, row.MarketPrice.Equal(dec("105")))
}

func TestComputeDaily_StrictFailsOnMissingPrice(t *testing.T) {
	calc, _, led := newTestCalculator(t, model.Strict)
	ctx := context.Background()

	_, _, err := led.RecordBuy(ctx, "u1", "AAPL", dec("10"), dec("100"), dec("0"), "2024-01-01", nil, "")
	require.NoError(t, err)

	_, err = calc.ComputeDaily(ctx, "u1", "AAPL", "2024-01-05", model.Close)
	require.Error(t, err)
	require.Equal(t, model.KindNoPrice, model.KindOf(err))
}
