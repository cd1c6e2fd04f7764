package ledger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pvledger/pvledger/model"
	"github.com/pvledger/pvledger/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	require.NoError(t, storage.Migrate(dbPath))

	store, err := storage.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.EnsureStock(context.Background(), "AAPL"))
	return New(store)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// buyFixture reproduces the two buys shared by scenarios S1-S4.
func buyFixture(t *testing.T, svc *Service) {
	t.Helper()
	ctx := context.Background()
	_, _, err := svc.RecordBuy(ctx, "u1", "AAPL", dec("100"), dec("150"), dec("0"), "2024-01-15", nil, "")
	require.NoError(t, err)
	_, _, err = svc.RecordBuy(ctx, "u1", "AAPL", dec("50"), dec("160"), dec("0"), "2024-02-01", nil, "")
	require.NoError(t, err)
}

func TestRecordBuy_ComputesCostBasisWithCommission(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, lot, err := svc.RecordBuy(ctx, "u1", "AAPL", dec("10"), dec("100"), dec("20"), "2024-01-01", nil, "")
	require.NoError(t, err)
	// cost_basis_per_share = price + commission/quantity = 100 + 20/10 = 102
	require.True(t, lot.CostBasisPerShare.Equal(dec("102")), "got %s", lot.CostBasisPerShare)
}

func TestRecordBuy_ExternalIDIdempotence(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	extID := "broker-ref-1"

	txn1, lot1, err := svc.RecordBuy(ctx, "u1", "AAPL", dec("10"), dec("100"), dec("0"), "2024-01-01", &extID, "")
	require.NoError(t, err)

	txn2, lot2, err := svc.RecordBuy(ctx, "u1", "AAPL", dec("10"), dec("100"), dec("0"), "2024-01-01", &extID, "")
	require.NoError(t, err)

	require.Equal(t, txn1.ID, txn2.ID)
	require.Equal(t, lot1.ID, lot2.ID)

	lots, err := svc.GetOpenLots(ctx, "u1", "AAPL", model.PurchaseDateAsc)
	require.NoError(t, err)
	require.Len(t, lots, 1)
}

func TestRecordSell_S1_FIFO(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	buyFixture(t, svc)

	txn, allocs, err := svc.RecordSell(ctx, "u1", "AAPL", dec("120"), dec("170"), dec("0"), "2024-03-01", model.FIFO, nil, nil, "")
	require.NoError(t, err)
	require.Equal(t, model.Sell, txn.Kind)
	require.Len(t, allocs, 2)

	require.True(t, allocs[0].QuantitySold.Equal(dec("100")))
	require.True(t, allocs[0].CostBasisPerShare.Equal(dec("150")))
	require.True(t, allocs[0].RealizedPnL.Equal(dec("2000")))

	require.True(t, allocs[1].QuantitySold.Equal(dec("20")))
	require.True(t, allocs[1].CostBasisPerShare.Equal(dec("160")))
	require.True(t, allocs[1].RealizedPnL.Equal(dec("200")))

	total := allocs[0].RealizedPnL.Add(allocs[1].RealizedPnL)
	require.True(t, total.Equal(dec("2200")))

	lots, err := svc.GetOpenLots(ctx, "u1", "AAPL", model.PurchaseDateAsc)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	require.True(t, lots[0].RemainingQuantity.Equal(dec("30")))
}

func TestRecordSell_S2_LIFO(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	buyFixture(t, svc)

	_, allocs, err := svc.RecordSell(ctx, "u1", "AAPL", dec("120"), dec("170"), dec("0"), "2024-03-01", model.LIFO, nil, nil, "")
	require.NoError(t, err)
	require.Len(t, allocs, 2)

	require.True(t, allocs[0].QuantitySold.Equal(dec("50")))
	require.True(t, allocs[0].CostBasisPerShare.Equal(dec("160")))
	require.True(t, allocs[0].RealizedPnL.Equal(dec("500")))

	require.True(t, allocs[1].QuantitySold.Equal(dec("70")))
	require.True(t, allocs[1].CostBasisPerShare.Equal(dec("150")))
	require.True(t, allocs[1].RealizedPnL.Equal(dec("1400")))

	total := allocs[0].RealizedPnL.Add(allocs[1].RealizedPnL)
	require.True(t, total.Equal(dec("1900")))

	lots, err := svc.GetOpenLots(ctx, "u1", "AAPL", model.PurchaseDateAsc)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	require.True(t, lots[0].RemainingQuantity.Equal(dec("30")))
}

func TestRecordSell_S3_SpecificLot(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	buyFixture(t, svc)

	lots, err := svc.GetOpenLots(ctx, "u1", "AAPL", model.PurchaseDateAsc)
	require.NoError(t, err)
	require.Len(t, lots, 2)
	l1, l2 := lots[0], lots[1]

	plan := []SpecificLotRequest{
		{LotID: l1.ID.String(), Quantity: dec("40")},
		{LotID: l2.ID.String(), Quantity: dec("20")},
	}
	_, allocs, err := svc.RecordSell(ctx, "u1", "AAPL", dec("60"), dec("170"), dec("0"), "2024-03-01", model.SpecificLot, plan, nil, "")
	require.NoError(t, err)
	require.Len(t, allocs, 2)
	require.True(t, allocs[0].QuantitySold.Equal(dec("40")))
	require.True(t, allocs[1].QuantitySold.Equal(dec("20")))

	remaining, err := svc.GetOpenLots(ctx, "u1", "AAPL", model.PurchaseDateAsc)
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	require.True(t, remaining[0].RemainingQuantity.Equal(dec("60")))
	require.True(t, remaining[1].RemainingQuantity.Equal(dec("30")))
}

func TestRecordSell_S4_InsufficientShares(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	buyFixture(t, svc)

	_, _, err := svc.RecordSell(ctx, "u1", "AAPL", dec("120"), dec("170"), dec("0"), "2024-03-01", model.FIFO, nil, nil, "")
	require.NoError(t, err)

	_, _, err = svc.RecordSell(ctx, "u1", "AAPL", dec("100"), dec("180"), dec("0"), "2024-03-02", model.FIFO, nil, nil, "")
	require.Error(t, err)
	require.Equal(t, model.KindInsufficientShares, model.KindOf(err))

	lots, err := svc.GetOpenLots(ctx, "u1", "AAPL", model.PurchaseDateAsc)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	require.True(t, lots[0].RemainingQuantity.Equal(dec("30")))
}

func TestGetPositionSummary(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	buyFixture(t, svc)

	summary, err := svc.GetPositionSummary(ctx, "u1", "AAPL")
	require.NoError(t, err)
	require.True(t, summary.Quantity.Equal(dec("150")))
	require.Equal(t, 2, summary.LotCount)
	require.Equal(t, "2024-01-15", summary.FirstBuyDate)
}
