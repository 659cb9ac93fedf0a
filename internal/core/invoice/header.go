package invoice

import (
	"regexp"
	"sort"
	"strings"

	"github.com/playerMars/final-ocr/internal/core/cascade"
	"github.com/playerMars/final-ocr/internal/core/numeric"
	"github.com/playerMars/final-ocr/internal/entity"
)

// Header holds the invoice-level identifiers found in the text.
type Header struct {
	InvoiceNumber string
	IssueDate     string
	// GrandTotal is the largest declared "Total" amount, or 0 when none was
	// readable. It is provisional: ReconcileTotals has the final word.
	GrandTotal float64
}

const idToken = `([A-Z0-9\-/]*\d[A-Z0-9\-/]*)`

var invoiceNumberCascade = cascade.New("invoice_number",
	`invoice\s*(?:no\.?|number|num\.?|#)\s*[:#.]?\s*`+idToken,
	`invoice\s*[:#]\s*`+idToken,
	`(?:rechnungs?\s*(?:nummer|nr\.?)|factura\s*(?:n[°o]\.?|n[uú]mero)?|facture\s*(?:n[°o]\.?|num[ée]ro)?|رقم\s*الفاتورة)\s*[:#]?\s*`+idToken,
	`\b(INV[-/.]?\s?[A-Z0-9\-/]*\d[A-Z0-9\-/]*)`,
	`(?m)^[ \t]*(\d{8,})\b`,
)

var monthNames = []string{
	// English
	"january", "february", "march", "april", "may", "june", "july", "august",
	"september", "october", "november", "december",
	"jan", "feb", "mar", "apr", "jun", "jul", "aug", "sep", "sept", "oct", "nov", "dec",
	// German
	"januar", "februar", "märz", "maerz", "mai", "juni", "juli", "oktober", "dezember",
	// French
	"janvier", "février", "fevrier", "mars", "avril", "juin", "juillet", "août", "aout",
	"septembre", "octobre", "novembre", "décembre", "decembre",
	// Spanish
	"enero", "febrero", "marzo", "abril", "mayo", "junio", "julio", "agosto",
	"septiembre", "setiembre", "octubre", "noviembre", "diciembre",
	// Arabic
	"يناير", "فبراير", "مارس", "أبريل", "ابريل", "مايو", "يونيو", "يوليو", "أغسطس", "اغسطس",
	"سبتمبر", "أكتوبر", "اكتوبر", "نوفمبر", "ديسمبر",
}

var (
	monthAlt    = buildMonthAlt()
	numericDate = `\d{1,2}[/.\-]\d{1,2}[/.\-]\d{2,4}`
	isoDate     = `\d{4}-\d{2}-\d{2}`
	wordDate    = `\d{1,2}\.?\s+(?:de\s+)?(?:` + monthAlt + `)\.?,?\s+(?:de\s+)?\d{4}` +
		`|(?:` + monthAlt + `)\.?\s+\d{1,2}(?:st|nd|rd|th)?,?\s+\d{4}`
	anyDate = isoDate + `|` + numericDate + `|` + wordDate
)

var issueDateCascade = cascade.New("issue_date",
	`date\s*of\s*issue\s*[:.]?\s*(`+anyDate+`)`,
	`(?:issue|invoice|billing)?\s*date\s*[:.]?\s*(`+anyDate+`)`,
	`(?:rechnungsdatum|datum|fecha(?:\s+de\s+emisi[oó]n)?|date\s+de\s+facturation)\s*[:.]?\s*(`+anyDate+`)`,
	`(?:تاريخ\s*الفاتورة|تاريخ\s*الإصدار|تاريخ)\s*[:.#]?\s*(`+anyDate+`)`,
	`\b(\d{1,2}[/.\-]\d{1,2}[/.\-]\d{4})\b`,
	`\b(`+isoDate+`)\b`,
	`\b(`+wordDate+`)\b`,
)

var grandTotalCascade = cascade.New("total",
	`\btotal[^\n]*[$€£][ \t]*(\d[\d.,]*)`,
	`\b(?:grand[ \t]+total|total[ \t]+(?:amount|due)|amount[ \t]+due|total)[ \t]*[:#]?[ \t]*(?:[$€£]|usd|eur|gbp|sr|aed)?[ \t]*(\d[\d.,]*)`,
	`(?:الإجمالي|المجموع)[ \t]*[:#]?[ \t]*(\d[\d.,]*)`,
)

func buildMonthAlt() string {
	names := append([]string(nil), monthNames...)
	sort.SliceStable(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })
	seen := map[string]bool{}
	quoted := make([]string, 0, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		quoted = append(quoted, regexp.QuoteMeta(n))
	}
	return strings.Join(quoted, "|")
}

// ExtractHeader pulls the invoice number, issue date and provisional grand
// total. Missing fields are reported as warnings, never as errors.
func ExtractHeader(text string) (Header, []entity.Warning) {
	var h Header
	var warns warnings

	if m, ok := invoiceNumberCascade.First(text); ok {
		h.InvoiceNumber = m.Value
	} else {
		warns.add(entity.WarnFieldAbsent, "invoice_number", 0, "no invoice number pattern matched")
	}

	if m, ok := issueDateCascade.First(text); ok {
		h.IssueDate = m.Value
	} else {
		warns.add(entity.WarnFieldAbsent, "issue_date", 0, "no date pattern matched")
	}

	for _, token := range grandTotalCascade.All(text) {
		v := numeric.Parse(token)
		if v.Placeholder {
			warns.add(entity.WarnNumericUnparseable, "total", 0, "unreadable total %q", token)
			continue
		}
		if v.Float > h.GrandTotal {
			h.GrandTotal = v.Float
		}
	}
	if h.GrandTotal == 0 {
		warns.add(entity.WarnFieldAbsent, "total", 0, "no declared grand total")
	}

	return h, warns
}
