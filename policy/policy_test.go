package policy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecidePricePlan_NoPriorData(t *testing.T) {
	plan := DecidePricePlan("", "2024-06-01", 100, "1990-01-01")
	require.Equal(t, Bulk, plan.Provider)
	require.Equal(t, "1990-01-01", plan.From)
}

func TestDecidePricePlan_S5_Incremental(t *testing.T) {
	// last_stored_date = today - 10 days, threshold = 100
	plan := DecidePricePlan("2024-05-22", "2024-06-01", 100, "1990-01-01")
	require.Equal(t, API, plan.Provider)
	require.Equal(t, "2024-05-23", plan.From)
	require.Equal(t, "2024-06-01", plan.To)
}

func TestDecidePricePlan_S6_BulkRefresh(t *testing.T) {
	// last_stored_date = today - 200 days, threshold = 100
	plan := DecidePricePlan("2023-11-14", "2024-06-01", 100, "1990-01-01")
	require.Equal(t, Bulk, plan.Provider)
	require.Equal(t, "1990-01-01", plan.From)
}

func TestDecidePricePlan_ExactlyAtThreshold(t *testing.T) {
	plan := DecidePricePlan("2024-02-22", "2024-06-01", 100, "1990-01-01")
	require.Equal(t, API, plan.Provider)
}

func TestShouldRefreshFundamentals(t *testing.T) {
	require.True(t, ShouldRefreshFundamentals("", "2024-06-01", 90))
	require.False(t, ShouldRefreshFundamentals("2024-05-01", "2024-06-01", 90))
	require.True(t, ShouldRefreshFundamentals("2024-01-01", "2024-06-01", 90))
}
