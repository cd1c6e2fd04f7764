package provider

import (
	"testing"

	"github.com/pvledger/pvledger/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func row(date, open, high, low, close, volume string) model.StockPrice {
	return model.StockPrice{
		Symbol:   "AAPL",
		Date:     date,
		Open:     decimal.RequireFromString(open),
		High:     decimal.RequireFromString(high),
		Low:      decimal.RequireFromString(low),
		Close:    decimal.RequireFromString(close),
		AdjClose: decimal.RequireFromString(close),
		Volume:   decimal.RequireFromString(volume),
	}
}

func TestValidateSeries_DropsNonMonotonicDates(t *testing.T) {
	series := PriceSeries{
		row("2024-01-02", "10", "11", "9", "10.5", "100"),
		row("2024-01-01", "10", "11", "9", "10.5", "100"),
	}
	clean, dropped := ValidateSeries("AAPL", series)
	require.Equal(t, 1, dropped)
	require.Len(t, clean, 1)
}

func TestValidateSeries_DropsNegativeVolume(t *testing.T) {
	series := PriceSeries{row("2024-01-01", "10", "11", "9", "10.5", "-5")}
	clean, dropped := ValidateSeries("AAPL", series)
	require.Equal(t, 1, dropped)
	require.Empty(t, clean)
}

func TestValidateSeries_DropsBadOHLCOrdering(t *testing.T) {
	series := PriceSeries{row("2024-01-01", "10", "9", "11", "10.5", "100")}
	clean, dropped := ValidateSeries("AAPL", series)
	require.Equal(t, 1, dropped)
	require.Empty(t, clean)
}

func TestValidateSeries_KeepsValidRows(t *testing.T) {
	series := PriceSeries{
		row("2024-01-01", "10", "11", "9", "10.5", "100"),
		row("2024-01-02", "10.5", "12", "10", "11", "150"),
	}
	clean, dropped := ValidateSeries("AAPL", series)
	require.Equal(t, 0, dropped)
	require.Len(t, clean, 2)
}
