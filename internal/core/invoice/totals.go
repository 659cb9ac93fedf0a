package invoice

import (
	"github.com/playerMars/final-ocr/internal/core/cascade"
	"github.com/playerMars/final-ocr/internal/core/numeric"
	"github.com/playerMars/final-ocr/internal/entity"
)

const amountEnd = `(?:[ \t]|$)`

// Every pattern captures net, VAT and gross in groups 1 to 3.
var summaryRowCascade = cascade.New("totals_row",
	`\btotal[ \t]*:?[ \t]*`+currency+numToken+`[ \t]+`+currency+numToken+`[ \t]+`+currency+numToken,
	`\d{1,2}(?:[.,]\d+)?[ \t]*%[ \t]+`+currency+numToken+`[ \t]+`+currency+numToken+`[ \t]+`+currency+numToken,
)

var (
	netCascade = cascade.New("totals_net",
		`(?m)\b(?:net[ \t]*(?:worth|amount|total)|sub-?total)[ \t]*:?[ \t]*`+currency+numToken+amountEnd,
	)
	vatCascade = cascade.New("totals_vat",
		`(?m)\b(?:vat|tax)(?:[ \t]*amount)?[ \t]*:?[ \t]*`+currency+numToken+amountEnd,
	)
	grossCascade = cascade.New("totals_gross",
		`(?m)\b(?:gross[ \t]*(?:worth|amount|total)|grand[ \t]*total|total[ \t]*(?:due|amount))[ \t]*:?[ \t]*`+currency+numToken+amountEnd,
		`(?m)\btotal[ \t]*:?[ \t]*`+currency+numToken+`[ \t]*$`,
	)
)

// ReconcileTotals decides the invoice totals. Declared summary amounts are
// used only when gross = net + VAT holds; otherwise totals are summed from
// the items. declaredGross is the header's provisional grand total and only
// matters when there are no items.
func ReconcileTotals(text string, items []entity.LineItem, declaredGross float64) (entity.Totals, []entity.Warning) {
	var warns warnings
	summary := SummarySection(text)
	if summary == "" {
		summary = text
	}

	t, ok, rejected := summaryRow(summary)
	if ok {
		return t, warns
	}
	if rejected != nil {
		warns.add(entity.WarnReconciliationMismatch, "totals", 0,
			"summary row net %s + vat %s does not match gross %s",
			numeric.Format(rejected.NetWorth), numeric.Format(rejected.VAT), numeric.Format(rejected.GrossWorth))
	}
	t, found := labelledTotals(summary)
	if found > 0 && consistent(t) {
		return t, warns
	}
	if found > 1 {
		warns.add(entity.WarnReconciliationMismatch, "totals", 0,
			"declared net %s + vat %s does not match gross %s",
			numeric.Format(t.NetWorth), numeric.Format(t.VAT), numeric.Format(t.GrossWorth))
	}

	if len(items) > 0 {
		return itemTotals(items), warns
	}
	if declaredGross > 0 {
		warns.add(entity.WarnTotalAbsence, "totals", 0, "no items; using declared total %s as gross", numeric.Format(declaredGross))
		g := numeric.Round2(declaredGross)
		return entity.Totals{NetWorth: g, GrossWorth: g}, warns
	}
	warns.add(entity.WarnTotalAbsence, "totals", 0, "no items and no summary found")
	return entity.Totals{}, warns
}

// summaryRow returns the first single-line summary whose amounts add up.
// When none does, rejected holds the first row that was read but failed the
// check, or nil when no row was found at all.
func summaryRow(text string) (t entity.Totals, ok bool, rejected *entity.Totals) {
	_, ok = summaryRowCascade.FirstFunc(text, func(m cascade.Match) bool {
		c := entity.Totals{
			NetWorth:   numeric.Float(m.Groups[1]),
			VAT:        numeric.Float(m.Groups[2]),
			GrossWorth: numeric.Float(m.Groups[3]),
		}
		if c.GrossWorth <= 0 || !consistent(c) {
			if rejected == nil {
				rejected = &c
			}
			return false
		}
		t = c
		return true
	})
	if ok {
		rejected = nil
	}
	return t, ok, rejected
}

// labelledTotals reads the separately labelled amounts. When exactly one of
// the three is missing it is derived from the other two. found counts the
// amounts read from text.
func labelledTotals(text string) (t entity.Totals, found int) {
	net, hasNet := firstAmount(netCascade, text)
	vat, hasVAT := firstAmount(vatCascade, text)
	gross, hasGross := firstAmount(grossCascade, text)
	for _, ok := range []bool{hasNet, hasVAT, hasGross} {
		if ok {
			found++
		}
	}

	switch {
	case hasNet && hasVAT && hasGross:
	case hasNet && hasGross:
		vat = numeric.Sub(gross, net)
	case hasNet && hasVAT:
		gross = numeric.Sum(net, vat)
	case hasVAT && hasGross:
		net = numeric.Sub(gross, vat)
	}
	return entity.Totals{NetWorth: net, VAT: vat, GrossWorth: gross}, found
}

func firstAmount(c *cascade.Cascade, text string) (float64, bool) {
	m, ok := c.FirstFunc(text, func(m cascade.Match) bool {
		return !numeric.Parse(m.Value).Placeholder
	})
	if !ok {
		return 0, false
	}
	return numeric.Float(m.Value), true
}

// consistent reports a usable declared summary: all three amounts present,
// none negative, and gross = net + VAT within tolerance.
func consistent(t entity.Totals) bool {
	if t.NetWorth <= 0 || t.GrossWorth <= 0 || t.VAT < 0 {
		return false
	}
	return numeric.Near(t.GrossWorth, t.NetWorth+t.VAT)
}

func itemTotals(items []entity.LineItem) entity.Totals {
	nets := make([]float64, len(items))
	grosses := make([]float64, len(items))
	for i, it := range items {
		nets[i] = it.NetWorth
		grosses[i] = it.GrossWorth
	}
	net := numeric.Sum(nets...)
	gross := numeric.Sum(grosses...)
	return entity.Totals{NetWorth: net, VAT: numeric.Sub(gross, net), GrossWorth: gross}
}
