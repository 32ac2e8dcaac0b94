package sales

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dapur/internal/core/apperror"
	"dapur/internal/core/id"
	"dapur/internal/domain/ledger"
	"dapur/internal/domain/measure"
)

func qty(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func record(materialID id.ID, name, stock string) ledger.Record {
	return ledger.Record{
		MaterialID: materialID,
		Name:       name,
		Unit:       measure.UnitGram,
		Quantity:   qty(stock),
		Version:    1,
	}
}

func TestPlan_Consume(t *testing.T) {
	riceID := id.New()
	oilID := id.New()

	entries := []ConsumptionEntry{
		{MaterialID: riceID, MaterialName: "Rice", Quantity: qty("150"), Unit: measure.UnitGram},
		{MaterialID: oilID, MaterialName: "Oil", Quantity: qty("15"), Unit: measure.UnitMilliliter},
	}
	snapshot := map[id.ID]ledger.Record{
		riceID: record(riceID, "Rice", "1000"),
		oilID:  record(oilID, "Oil", "2000"),
	}

	deltas, err := Plan(entries, snapshot, Consume)
	require.NoError(t, err)
	require.Len(t, deltas, 2)
	assert.True(t, deltas[0].Quantity.Equal(qty("-150")))
	assert.True(t, deltas[1].Quantity.Equal(qty("-15")))

	// The snapshot must not be mutated.
	assert.True(t, snapshot[riceID].Quantity.Equal(qty("1000")))
}

func TestPlan_ConsumeExactlyToZero(t *testing.T) {
	riceID := id.New()

	entries := []ConsumptionEntry{
		{MaterialID: riceID, MaterialName: "Rice", Quantity: qty("150")},
	}
	snapshot := map[id.ID]ledger.Record{
		riceID: record(riceID, "Rice", "150"),
	}

	deltas, err := Plan(entries, snapshot, Consume)
	require.NoError(t, err)
	require.Len(t, deltas, 1)
}

func TestPlan_InsufficientStockFailsWholePlan(t *testing.T) {
	riceID := id.New()
	oilID := id.New()

	entries := []ConsumptionEntry{
		{MaterialID: riceID, MaterialName: "Rice", Quantity: qty("150")},
		{MaterialID: oilID, MaterialName: "Oil", Quantity: qty("15")},
	}
	snapshot := map[id.ID]ledger.Record{
		riceID: record(riceID, "Rice", "100"),
		oilID:  record(oilID, "Oil", "2000"),
	}

	deltas, err := Plan(entries, snapshot, Consume)
	assert.Nil(t, deltas)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, "Rice", appErr.Details["material_name"])
	assert.Equal(t, "150", appErr.Details["requested"])
	assert.Equal(t, "100", appErr.Details["available"])
}

func TestPlan_FirstOffenderNamed(t *testing.T) {
	aID := id.New()
	bID := id.New()

	// Both entries are short; the error must name the first one.
	entries := []ConsumptionEntry{
		{MaterialID: aID, MaterialName: "Flour", Quantity: qty("500")},
		{MaterialID: bID, MaterialName: "Sugar", Quantity: qty("500")},
	}
	snapshot := map[id.ID]ledger.Record{
		aID: record(aID, "Flour", "10"),
		bID: record(bID, "Sugar", "10"),
	}

	_, err := Plan(entries, snapshot, Consume)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "Flour", appErr.Details["material_name"])
}

func TestPlan_MissingSnapshotEntry(t *testing.T) {
	entries := []ConsumptionEntry{
		{MaterialID: id.New(), MaterialName: "Ghost", Quantity: qty("1")},
	}

	_, err := Plan(entries, map[id.ID]ledger.Record{}, Consume)
	assert.True(t, apperror.IsNotFound(err))
}

func TestPlan_Restore(t *testing.T) {
	riceID := id.New()

	entries := []ConsumptionEntry{
		{MaterialID: riceID, MaterialName: "Rice", Quantity: qty("150")},
	}
	snapshot := map[id.ID]ledger.Record{
		riceID: record(riceID, "Rice", "0"),
	}

	deltas, err := Plan(entries, snapshot, Restore)
	require.NoError(t, err)
	require.Len(t, deltas, 1)
	assert.True(t, deltas[0].Quantity.Equal(qty("150")))
}

func TestPlan_CorruptionDetected(t *testing.T) {
	riceID := id.New()

	t.Run("negative stored stock", func(t *testing.T) {
		entries := []ConsumptionEntry{
			{MaterialID: riceID, MaterialName: "Rice", Quantity: qty("10")},
		}
		snapshot := map[id.ID]ledger.Record{
			riceID: record(riceID, "Rice", "-5"),
		}

		_, err := Plan(entries, snapshot, Restore)
		assert.True(t, apperror.IsLedgerCorruption(err))
	})

	t.Run("negative entry magnitude", func(t *testing.T) {
		entries := []ConsumptionEntry{
			{MaterialID: riceID, MaterialName: "Rice", Quantity: qty("-10")},
		}
		snapshot := map[id.ID]ledger.Record{
			riceID: record(riceID, "Rice", "100"),
		}

		_, err := Plan(entries, snapshot, Consume)
		assert.True(t, apperror.IsLedgerCorruption(err))
	})
}
