package invoice

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playerMars/final-ocr/internal/core/numeric"
	"github.com/playerMars/final-ocr/internal/entity"
)

func loadDualColumn(t *testing.T) string {
	t.Helper()
	b, err := os.ReadFile("testdata/dual_column.txt")
	require.NoError(t, err)
	return string(b)
}

func hasWarning(warns []entity.Warning, kind entity.WarningKind) bool {
	for _, w := range warns {
		if w.Kind == kind {
			return true
		}
	}
	return false
}

func TestParse_EndToEnd(t *testing.T) {
	text := "Invoice no: 51109338\nDate of issue: 04/13/2013\nSeller:\nAndrews, Kirby and Valdez\n...\n" +
		"ITEMS\n1. Desktop 3.00 each 209.00 627.00 10% 689.70\n...\n" +
		"SUMMARY\nTotal $ 5640.17 $ 564.02 $ 6204.19"

	rec := Parse(text).Record

	assert.Equal(t, "51109338", rec.InvoiceNumber)
	assert.Equal(t, "04/13/2013", rec.IssueDate)
	assert.Equal(t, "Andrews, Kirby and Valdez", rec.Seller.Name)
	assert.Empty(t, rec.Seller.Address)

	require.Len(t, rec.LineItems, 1)
	item := rec.LineItems[0]
	assert.Equal(t, "Desktop", item.Description)
	assert.Equal(t, 3.00, item.Quantity)
	assert.Equal(t, 209.00, item.UnitPrice)
	assert.Equal(t, 627.00, item.NetWorth)
	assert.Equal(t, "10%", item.VATPercentage)
	assert.Equal(t, 689.70, item.GrossWorth)
	require.NotNil(t, item.ItemNo)
	assert.Equal(t, 1, *item.ItemNo)

	assert.Equal(t, entity.Totals{NetWorth: 5640.17, VAT: 564.02, GrossWorth: 6204.19}, rec.Totals)
	assert.Equal(t, 100, rec.CompletenessScore)
}

func TestParse_DualColumnSample(t *testing.T) {
	res := Parse(loadDualColumn(t))
	rec := res.Record

	assert.Equal(t, "51109338", rec.InvoiceNumber)
	assert.Equal(t, "04/13/2013", rec.IssueDate)

	assert.Equal(t, "Andrews, Kirby and Valdez", rec.Seller.Name)
	assert.Equal(t, "58861 Gonzalez Prairie Lake Daniellefurt, IN 57228", rec.Seller.Address)
	assert.Equal(t, "945-82-2137", rec.Seller.TaxID)

	assert.Equal(t, "Becker Ltd", rec.Client.Name)
	assert.Equal(t, "8012 Stewart Summit Apt. 455 North Douglas, AZ 95355", rec.Client.Address)
	assert.Equal(t, "942-80-0517", rec.Client.TaxID)

	require.Len(t, rec.LineItems, 7)
	descs := make([]string, len(rec.LineItems))
	for i, it := range rec.LineItems {
		descs[i] = it.Description
		require.NotNil(t, it.ItemNo)
		assert.Equal(t, i+1, *it.ItemNo)
	}
	assert.Equal(t, []string{
		"CLEARANCE! Fast Dell Desktop",
		"HP T520 Thin Client Computer",
		"gaming pc desktop computer",
		"12-Core Gaming Computer",
		"Custom Build Dell Optiplex 9020",
		"Dell Optiplex 990 MT Computer",
		"Dell Core 2 Duo Desktop",
	}, descs)
	assert.Equal(t, 207.63, rec.LineItems[1].GrossWorth)
	assert.Equal(t, 1394.67, rec.LineItems[3].NetWorth)

	assert.Equal(t, entity.Totals{NetWorth: 5640.17, VAT: 564.02, GrossWorth: 6204.19}, rec.Totals)
	assert.Equal(t, 100, rec.CompletenessScore)
	assert.False(t, hasWarning(res.Warnings, entity.WarnItemCorrected))
	assert.False(t, hasWarning(res.Warnings, entity.WarnItemDropped))
}

func TestParse_ItemsSatisfyArithmetic(t *testing.T) {
	noisy := "ITEMS\n" +
		"1. Widget 2.00 each 10.00 25.00 10% 27.50\n" +
		"2. Bolt 4 pcs 0.25\n" +
		"3. Service 1 80.00 80.00 96.00 20%\n"

	for _, text := range []string{loadDualColumn(t), noisy} {
		items := Parse(text).Record.LineItems
		require.NotEmpty(t, items)
		for _, it := range items {
			rate := numeric.Parse(it.VATPercentage).Float
			assert.Less(t, abs(it.NetWorth-numeric.MulRound2(it.Quantity, it.UnitPrice)), numeric.Tolerance, it.Description)
			assert.Less(t, abs(it.GrossWorth-numeric.WithRate(it.NetWorth, rate)), numeric.Tolerance, it.Description)
		}
	}
}

func TestParse_TotalsFallBackToItems(t *testing.T) {
	text := "Invoice no: 20240001\nITEMS\n" +
		"1. Widget 2.00 each 10.00 20.00 10% 22.00\n" +
		"2. Gadget 1.00 each 5.50 5.50 10% 6.05\n"

	res := Parse(text)
	totals := res.Record.Totals
	assert.InDelta(t, 25.50, totals.NetWorth, 0.001)
	assert.InDelta(t, 28.05, totals.GrossWorth, 0.001)
	assert.InDelta(t, totals.GrossWorth-totals.NetWorth, totals.VAT, 0.01)
	assert.Equal(t, 50, res.Record.CompletenessScore)
}

func TestParse_Empty(t *testing.T) {
	res := Parse("")
	rec := res.Record

	assert.Empty(t, rec.InvoiceNumber)
	assert.Empty(t, rec.IssueDate)
	assert.Equal(t, entity.PartyInfo{}, rec.Seller)
	assert.Equal(t, entity.PartyInfo{}, rec.Client)
	assert.NotNil(t, rec.LineItems)
	assert.Empty(t, rec.LineItems)
	assert.True(t, rec.Totals.IsZero())
	assert.Equal(t, 0, rec.CompletenessScore)
	assert.True(t, hasWarning(res.Warnings, entity.WarnTotalAbsence))
}

func TestParser_DefaultVAT(t *testing.T) {
	p := NewParser(nil, WithDefaultVAT(20))
	rec := p.Parse("ITEMS\n1. Cable 2 x 4.50\n").Record

	require.Len(t, rec.LineItems, 1)
	assert.Equal(t, "20%", rec.LineItems[0].VATPercentage)
	assert.Equal(t, 9.00, rec.LineItems[0].NetWorth)
	assert.Equal(t, 10.80, rec.LineItems[0].GrossWorth)
}

func TestParse_IndependentCalls(t *testing.T) {
	p := NewParser(nil)
	first := p.Parse(loadDualColumn(t)).Record
	second := p.Parse("Invoice no: 77777777").Record

	assert.Len(t, first.LineItems, 7)
	assert.Empty(t, second.LineItems)
	assert.Empty(t, second.Seller.Name)
	assert.Equal(t, "77777777", second.InvoiceNumber)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
