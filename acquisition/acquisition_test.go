package acquisition

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pvledger/pvledger/model"
	"github.com/pvledger/pvledger/provider"
	"github.com/pvledger/pvledger/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func fixedClock(date string) func() time.Time {
	t, _ := time.Parse("2006-01-02", date)
	return func() time.Time { return t }
}

func newTestStorage(t *testing.T) *storage.Storage {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "acquisition.db")
	require.NoError(t, storage.Migrate(dbPath))
	store, err := storage.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

type fakeBulkProvider struct {
	series  provider.PriceSeries
	failFor map[string]error
	calls   int
}

func (f *fakeBulkProvider) Name() string { return "fake-bulk" }
func (f *fakeBulkProvider) FetchBulk(ctx context.Context, symbol, startDate string) (provider.PriceSeries, error) {
	f.calls++
	if f.failFor != nil {
		if err, ok := f.failFor[symbol]; ok {
			return nil, err
		}
	}
	return f.series, nil
}

type fakeAPIProvider struct {
	series provider.PriceSeries
	err    error
	calls  int
}

func (f *fakeAPIProvider) Name() string { return "fake-api" }
func (f *fakeAPIProvider) FetchRange(ctx context.Context, symbol, from, to string) (provider.PriceSeries, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.series, nil
}

func bar(date, close string) model.StockPrice {
	c := decimal.RequireFromString(close)
	return model.StockPrice{
		Date: date, Open: c, High: c, Low: c, Close: c, AdjClose: c, Volume: decimal.NewFromInt(1000),
	}
}

func TestAcquireSymbol_S5_IncrementalAPI(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.EnsureStock(ctx, "AAPL"))
	require.NoError(t, store.UpsertPrices(ctx, "AAPL", []model.StockPrice{bar("2024-05-20", "170")}))

	bulk := &fakeBulkProvider{}
	api := &fakeAPIProvider{series: provider.PriceSeries{bar("2024-05-21", "171"), bar("2024-05-22", "172")}}

	svc := New(store, bulk, api, nil, 100, "1990-01-01", 90, 4)
	svc.now = fixedClock("2024-05-22")
	result := svc.AcquireSymbol(ctx, "AAPL", false)

	require.True(t, result.Success)
	require.Equal(t, "api_incremental", result.StrategyUsed)
	require.Equal(t, 2, result.RowsAdded)
	require.Equal(t, 1, api.calls)
	require.Equal(t, 0, bulk.calls)
}

func TestAcquireSymbol_S6_BulkRefreshOnLargeGap(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.EnsureStock(ctx, "AAPL"))
	require.NoError(t, store.UpsertPrices(ctx, "AAPL", []model.StockPrice{bar("2023-01-01", "100")}))

	bulk := &fakeBulkProvider{series: provider.PriceSeries{
		bar("1990-01-02", "1"), bar("2023-01-01", "100"), bar("2024-06-01", "200"),
	}}
	api := &fakeAPIProvider{}

	svc := New(store, bulk, api, nil, 5, "1990-01-01", 90, 4)
	svc.now = fixedClock("2024-06-01")
	result := svc.AcquireSymbol(ctx, "AAPL", false)

	require.True(t, result.Success)
	require.Equal(t, "bulk_full", result.StrategyUsed)
	require.Equal(t, 1, bulk.calls)
	require.Equal(t, 0, api.calls)
}

func TestAcquireSymbol_APIFailureFallsBackToBulk(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.EnsureStock(ctx, "AAPL"))
	require.NoError(t, store.UpsertPrices(ctx, "AAPL", []model.StockPrice{bar("2024-05-20", "170")}))

	bulk := &fakeBulkProvider{series: provider.PriceSeries{bar("1990-01-02", "1"), bar("2024-05-22", "172")}}
	api := &fakeAPIProvider{err: model.NewError(model.KindProviderUnavailable, "upstream retries exhausted", nil)}

	svc := New(store, bulk, api, nil, 100, "1990-01-01", 90, 4)
	svc.now = fixedClock("2024-05-22")
	result := svc.AcquireSymbol(ctx, "AAPL", false)

	require.True(t, result.Success)
	require.Equal(t, "bulk_full", result.StrategyUsed)
	require.Equal(t, 1, api.calls)
	require.Equal(t, 1, bulk.calls)
}

func TestAcquireSymbol_NoPriorData(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	bulk := &fakeBulkProvider{series: provider.PriceSeries{bar("1990-01-02", "1"), bar("1990-01-03", "2")}}
	api := &fakeAPIProvider{}

	svc := New(store, bulk, api, nil, 100, "1990-01-01", 90, 4)
	result := svc.AcquireSymbol(ctx, "AAPL", false)

	require.True(t, result.Success)
	require.Equal(t, "bulk_full", result.StrategyUsed)
	require.Equal(t, 2, result.RowsAdded)
	require.Equal(t, "1990-01-02", result.FirstDate)
	require.Equal(t, "1990-01-03", result.LastDate)
}

func TestAcquireSymbol_Idempotent(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	series := provider.PriceSeries{bar("1990-01-02", "1"), bar("1990-01-03", "2")}
	bulk := &fakeBulkProvider{series: series}
	api := &fakeAPIProvider{}

	svc := New(store, bulk, api, nil, 100, "1990-01-01", 90, 4)
	first := svc.AcquireSymbol(ctx, "AAPL", false)
	require.True(t, first.Success)

	rows, err := store.GetPrices(ctx, "AAPL", "1990-01-01", "2030-01-01")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	second := svc.AcquireSymbol(ctx, "AAPL", false)
	require.True(t, second.Success)

	rows, err = store.GetPrices(ctx, "AAPL", "1990-01-01", "2030-01-01")
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestBatch_OneFailureDoesNotAbortOthers(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	bulk := &fakeBulkProvider{
		series:  provider.PriceSeries{bar("1990-01-02", "1")},
		failFor: map[string]error{"BAD": model.NewError(model.KindProviderError, "upstream rejected symbol", nil)},
	}
	api := &fakeAPIProvider{}

	svc := New(store, bulk, api, nil, 100, "1990-01-01", 90, 4)
	results := svc.Batch(ctx, []string{"AAPL", "BAD", "MSFT"}, false)

	require.Len(t, results, 3)
	require.True(t, results[0].Success)
	require.False(t, results[1].Success)
	require.Equal(t, model.KindProviderError, results[1].ErrorCategory)
	require.True(t, results[2].Success)
}
