package invoice

import (
	"regexp"
	"strings"

	"github.com/playerMars/final-ocr/internal/core/cascade"
	"github.com/playerMars/final-ocr/internal/core/numeric"
	"github.com/playerMars/final-ocr/internal/entity"
)

const (
	numToken  = `(\d[\d.,]*)`
	currency  = `(?:[$€£][ \t]*)?`
	unitWords = `(?:each|ea\.?|pcs?\.?|units?|x)`
)

// Both rows expect the description first and capture it lazily so a model
// number ending the description is not taken for the quantity.
var (
	reFullRow = cascade.New("item_full",
		`^(.+?)\s+`+numToken+`\s*`+unitWords+`\s+`+currency+numToken+`\s+`+currency+numToken+`\s+`+numToken+`\s*%\s+`+currency+numToken,
	)
	rePartialRow = cascade.New("item_partial",
		`^(.+?)\s+`+numToken+`\s*`+unitWords+`\s+`+currency+numToken,
	)
	rePercent  = regexp.MustCompile(`(?:^|[^\d.,])(\d{1,3}(?:[.,]\d+)?)\s*%`)
	reNumField = regexp.MustCompile(`^[$€£]?(\d[\d.,]*)(%?)$`)
)

// ParseLineItem reads one segmented row. It tries a full row, then a row
// with only quantity and unit price, then positional assignment of whatever
// numbers are present. The bool is false when the row yields no usable item.
func ParseLineItem(seg Segment, defaultVAT float64) (entity.LineItem, []entity.Warning, bool) {
	var warns warnings
	text := strings.TrimSpace(seg.Text)

	f, ok := fullRow(text)
	if !ok {
		f, ok = partialRow(text, defaultVAT)
	}
	if !ok {
		f, ok = genericRow(text, defaultVAT)
	}
	if !ok {
		warns.add(entity.WarnItemDropped, "line_items", seg.Line, "no quantity and price found in %q", text)
		return entity.LineItem{}, warns, false
	}
	for _, tok := range f.unparseable {
		warns.add(entity.WarnNumericUnparseable, "line_items", seg.Line, "unreadable number %q", tok)
	}

	item := entity.LineItem{
		ItemNo:        seg.ItemNo,
		Description:   strings.Trim(f.desc, " :-|"),
		Quantity:      f.qty,
		UnitPrice:     f.price,
		NetWorth:      f.net,
		VATPercentage: numeric.Percent(f.rate),
		GrossWorth:    f.gross,
	}

	switch {
	case item.Description == "":
		warns.add(entity.WarnItemDropped, "line_items", seg.Line, "item has no description")
		return entity.LineItem{}, warns, false
	case item.Quantity <= 0:
		warns.add(entity.WarnItemDropped, "line_items", seg.Line, "item %q has no quantity", item.Description)
		return entity.LineItem{}, warns, false
	case item.UnitPrice == 0 && item.NetWorth == 0 && item.GrossWorth == 0:
		warns.add(entity.WarnItemDropped, "line_items", seg.Line, "item %q has no amounts", item.Description)
		return entity.LineItem{}, warns, false
	}

	if expected := numeric.MulRound2(item.Quantity, item.UnitPrice); !numeric.Near(item.NetWorth, expected) {
		warns.add(entity.WarnItemCorrected, "line_items.net_worth", seg.Line,
			"net %s replaced by %s x %s = %s", numeric.Format(item.NetWorth),
			numeric.Format(item.Quantity), numeric.Format(item.UnitPrice), numeric.Format(expected))
		item.NetWorth = expected
		item.GrossWorth = numeric.WithRate(expected, f.rate)
	}
	if expected := numeric.WithRate(item.NetWorth, f.rate); !numeric.Near(item.GrossWorth, expected) {
		warns.add(entity.WarnItemCorrected, "line_items.gross_worth", seg.Line,
			"gross %s replaced by %s", numeric.Format(item.GrossWorth), numeric.Format(expected))
		item.GrossWorth = expected
	}
	return item, warns, true
}

type rowFields struct {
	desc                   string
	qty, price, net, gross float64
	rate                   float64
	unparseable            []string
}

func (r *rowFields) num(token string) float64 {
	v := numeric.Parse(token)
	if v.Placeholder {
		r.unparseable = append(r.unparseable, token)
	}
	return v.Float
}

func fullRow(text string) (rowFields, bool) {
	m, ok := reFullRow.First(text)
	if !ok {
		return rowFields{}, false
	}
	var r rowFields
	r.desc = m.Groups[1]
	r.qty = r.num(m.Groups[2])
	r.price = r.num(m.Groups[3])
	r.net = r.num(m.Groups[4])
	r.rate = r.num(m.Groups[5])
	r.gross = r.num(m.Groups[6])
	return r, true
}

func partialRow(text string, defaultVAT float64) (rowFields, bool) {
	m, ok := rePartialRow.First(text)
	if !ok {
		return rowFields{}, false
	}
	var r rowFields
	r.desc = m.Groups[1]
	r.qty = r.num(m.Groups[2])
	r.price = r.num(m.Groups[3])
	r.rate = rateIn(text[m.End:], defaultVAT)
	r.net = numeric.MulRound2(r.qty, r.price)
	r.gross = numeric.WithRate(r.net, r.rate)
	return r, true
}

// genericRow assigns bare numbers positionally as quantity, unit price, net
// and gross. A leading number above 1000 is not a plausible quantity, so it
// becomes the unit price with quantity 1.
func genericRow(text string, defaultVAT float64) (rowFields, bool) {
	var (
		r     rowFields
		words []string
		nums  []float64
	)
	rate, hasRate := 0.0, false
	fields := strings.Fields(text)
	for i, fld := range fields {
		if fld == "%" || strings.Trim(fld, "$€£") == "" {
			continue
		}
		m := reNumField.FindStringSubmatch(fld)
		if m == nil {
			// the description ends at the first number; later words are
			// continuation text or a unit after the quantity
			if len(nums) == 0 && !hasRate {
				words = append(words, fld)
			}
			continue
		}
		v := r.num(m[1])
		percent := m[2] == "%" || (i+1 < len(fields) && fields[i+1] == "%")
		if percent {
			if !hasRate {
				rate, hasRate = v, true
			}
			continue
		}
		nums = append(nums, v)
	}
	if !hasRate {
		rate = defaultVAT
	}
	r.rate = rate
	r.desc = strings.Join(words, " ")

	switch {
	case len(nums) >= 1 && nums[0] > 1000:
		r.qty, r.price = 1, nums[0]
		nums = nums[1:]
	case len(nums) >= 2:
		r.qty, r.price = nums[0], nums[1]
		nums = nums[2:]
	default:
		return rowFields{}, false
	}

	r.net = numeric.MulRound2(r.qty, r.price)
	if len(nums) >= 1 {
		r.net = nums[0]
	}
	r.gross = numeric.WithRate(r.net, r.rate)
	if len(nums) >= 2 {
		r.gross = nums[1]
	}
	return r, true
}

func rateIn(s string, fallback float64) float64 {
	if m := rePercent.FindStringSubmatch(s); m != nil {
		if v := numeric.Parse(m[1]); !v.Placeholder {
			return v.Float
		}
	}
	return fallback
}
