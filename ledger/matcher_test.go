package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/pvledger/pvledger/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func lot(id uuid.UUID, purchaseDate string, remaining, cost string) model.PositionLot {
	return model.PositionLot{
		ID:                id,
		RemainingQuantity: decimal.RequireFromString(remaining),
		CostBasisPerShare: decimal.RequireFromString(cost),
		PurchaseDate:      purchaseDate,
	}
}

func TestAllocate_TieBreakByID(t *testing.T) {
	idA := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	idB := uuid.MustParse("00000000-0000-0000-0000-000000000002")

	lots := []model.PositionLot{
		lot(idB, "2024-01-01", "10", "100"),
		lot(idA, "2024-01-01", "10", "100"),
	}

	plan, err := Allocate(lots, decimal.RequireFromString("10"), model.FIFO, nil)
	require.NoError(t, err)
	require.Len(t, plan, 1)
	require.Equal(t, idA, plan[0].Lot.ID)
}

func TestAllocate_Deterministic(t *testing.T) {
	idA := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	idB := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	lots := []model.PositionLot{
		lot(idA, "2024-01-01", "10", "100"),
		lot(idB, "2024-02-01", "10", "110"),
	}

	plan1, err := Allocate(lots, decimal.RequireFromString("15"), model.FIFO, nil)
	require.NoError(t, err)
	plan2, err := Allocate(lots, decimal.RequireFromString("15"), model.FIFO, nil)
	require.NoError(t, err)
	require.Equal(t, plan1, plan2)
}

func TestAllocate_AverageCost_ProRata(t *testing.T) {
	idA := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	idB := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	lots := []model.PositionLot{
		lot(idA, "2024-01-01", "50", "100"),
		lot(idB, "2024-02-01", "50", "200"),
	}

	plan, err := Allocate(lots, decimal.RequireFromString("20"), model.AverageCost, nil)
	require.NoError(t, err)

	total := decimal.Zero
	for _, entry := range plan {
		total = total.Add(entry.Quantity)
	}
	require.True(t, total.Equal(decimal.RequireFromString("20")))
	// equal remaining quantities split the 20 shares 10/10
	require.Len(t, plan, 2)
	require.True(t, plan[0].Quantity.Equal(decimal.RequireFromString("10")))
	require.True(t, plan[1].Quantity.Equal(decimal.RequireFromString("10")))
}

func TestAllocate_SpecificLot_MismatchedSum(t *testing.T) {
	idA := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	lots := []model.PositionLot{lot(idA, "2024-01-01", "50", "100")}

	_, err := Allocate(lots, decimal.RequireFromString("20"), model.SpecificLot, []SpecificLotRequest{
		{LotID: idA.String(), Quantity: decimal.RequireFromString("10")},
	})
	require.Error(t, err)
	require.Equal(t, model.KindValidation, model.KindOf(err))
}

func TestAllocate_InsufficientShares(t *testing.T) {
	idA := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	lots := []model.PositionLot{lot(idA, "2024-01-01", "5", "100")}

	_, err := Allocate(lots, decimal.RequireFromString("10"), model.FIFO, nil)
	require.Error(t, err)
	require.Equal(t, model.KindInsufficientShares, model.KindOf(err))
}
