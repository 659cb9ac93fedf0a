package invoice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playerMars/final-ocr/internal/entity"
)

var twoItems = []entity.LineItem{
	{Description: "Widget", Quantity: 2, UnitPrice: 10, NetWorth: 20, VATPercentage: "10%", GrossWorth: 22},
	{Description: "Gadget", Quantity: 1, UnitPrice: 5.5, NetWorth: 5.5, VATPercentage: "10%", GrossWorth: 6.05},
}

func TestReconcileTotals_SummaryRow(t *testing.T) {
	text := "ITEMS\n1. x\nSUMMARY\nVAT [%] Net worth VAT Gross worth\n10%   5640.17   564.02   6204.19\n"

	got, warns := ReconcileTotals(text, twoItems, 0)
	assert.Empty(t, warns)
	assert.Equal(t, entity.Totals{NetWorth: 5640.17, VAT: 564.02, GrossWorth: 6204.19}, got)
}

func TestReconcileTotals_Labelled(t *testing.T) {
	text := "SUMMARY\nNet worth: 25.50\nVAT: 2.55\nGross worth: 28.05\n"

	got, warns := ReconcileTotals(text, nil, 0)
	assert.Empty(t, warns)
	assert.Equal(t, entity.Totals{NetWorth: 25.50, VAT: 2.55, GrossWorth: 28.05}, got)
}

func TestReconcileTotals_LabelledDerivesVAT(t *testing.T) {
	text := "Subtotal: 100.00\nTotal due: 119.00\n"

	got, _ := ReconcileTotals(text, nil, 0)
	assert.Equal(t, 100.00, got.NetWorth)
	assert.InDelta(t, 19.00, got.VAT, 0.001)
	assert.Equal(t, 119.00, got.GrossWorth)
}

func TestReconcileTotals_MismatchFallsBackToItems(t *testing.T) {
	text := "SUMMARY\nNet worth: 100.00\nVAT: 10.00\nGross worth: 500.00\n"

	got, warns := ReconcileTotals(text, twoItems, 0)
	assert.InDelta(t, 25.50, got.NetWorth, 0.001)
	assert.InDelta(t, 28.05, got.GrossWorth, 0.001)
	assert.InDelta(t, 2.55, got.VAT, 0.001)
	assert.True(t, hasWarning(warns, entity.WarnReconciliationMismatch))
}

func TestReconcileTotals_GarbledRowIsRejected(t *testing.T) {
	text := "SUMMARY\nTotal $ 5640.17 $ 564.02 $ 9999.99\n"

	got, warns := ReconcileTotals(text, twoItems, 9999.99)
	assert.InDelta(t, 25.50, got.NetWorth, 0.001)
	assert.InDelta(t, 28.05, got.GrossWorth, 0.001)
	assert.True(t, hasWarning(warns, entity.WarnReconciliationMismatch))
}

func TestReconcileTotals_RejectedRowWarnsOnce(t *testing.T) {
	items := []entity.LineItem{
		{Description: "Cable", Quantity: 1, UnitPrice: 10, NetWorth: 10, VATPercentage: "10%", GrossWorth: 11},
	}
	got, warns := ReconcileTotals("SUMMARY\nTotal $ 100.00 $ 10.00 $ 999.00", items, 0)
	assert.Equal(t, entity.Totals{NetWorth: 10, VAT: 1, GrossWorth: 11}, got)
	require.Len(t, warns, 1)
	assert.Equal(t, entity.WarnReconciliationMismatch, warns[0].Kind)
	assert.Contains(t, warns[0].Message, "999.00")
}

func TestReconcileTotals_LaterConsistentRowWins(t *testing.T) {
	text := "SUMMARY\nTotal $ 1.00 $ 1.00 $ 50.00\n10% 5640.17 564.02 6204.19\n"

	got, warns := ReconcileTotals(text, twoItems, 0)
	assert.Equal(t, entity.Totals{NetWorth: 5640.17, VAT: 564.02, GrossWorth: 6204.19}, got)
	assert.Empty(t, warns)
}

func TestReconcileTotals_DeclaredTotalOnly(t *testing.T) {
	got, warns := ReconcileTotals("Thanks", nil, 99.9)
	assert.Equal(t, entity.Totals{NetWorth: 99.9, GrossWorth: 99.9}, got)
	assert.True(t, hasWarning(warns, entity.WarnTotalAbsence))
}

func TestReconcileTotals_NothingFound(t *testing.T) {
	got, warns := ReconcileTotals("", nil, 0)
	assert.True(t, got.IsZero())
	assert.True(t, hasWarning(warns, entity.WarnTotalAbsence))
}

func TestReconcileTotals_AlwaysConsistent(t *testing.T) {
	texts := []string{
		"",
		"SUMMARY\nTotal $ 10.00 $ 1.00 $ 11.00",
		"SUMMARY\nNet worth: 3\nGross worth: 1",
		"Total: 99.90",
	}
	for _, text := range texts {
		got, _ := ReconcileTotals(text, twoItems, 0)
		assert.Less(t, abs(got.GrossWorth-(got.NetWorth+got.VAT)), 0.1, text)
	}
}
