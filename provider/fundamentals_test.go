package provider

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const sampleFundamentalsPayload = `{
	"datatable": {
		"data": [
			["AAPL", "MRQ", "2024-03-31", 100000, 60000, 40000, 25000]
		],
		"columns": [
			{"name": "ticker"},
			{"name": "dimension"},
			{"name": "calendardate"},
			{"name": "revenue"},
			{"name": "cor"},
			{"name": "assets"},
			{"name": "ncfo"}
		]
	}
}`

func TestParseFundamentalsPayload(t *testing.T) {
	result, err := parseFundamentalsPayload(sampleFundamentalsPayload)
	require.NoError(t, err)

	require.Len(t, result.IncomeStatement, 1)
	require.Equal(t, "2024-03-31", result.IncomeStatement[0].PeriodEnd)
	require.Contains(t, result.IncomeStatement[0].Items, "revenue")
	require.True(t, result.IncomeStatement[0].Items["revenue"].Value.Equal(decimal.NewFromInt(100000)))

	require.Len(t, result.BalanceSheet, 1)
	require.Contains(t, result.BalanceSheet[0].Items, "assets")

	require.Len(t, result.CashFlow, 1)
	require.Contains(t, result.CashFlow[0].Items, "ncfo")
}
