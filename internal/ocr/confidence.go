package ocr

import (
	"regexp"
	"strings"
)

var (
	reDate    = regexp.MustCompile(`\b\d{1,2}[/.\-]\d{1,2}[/.\-]\d{2,4}\b|\b\d{4}-\d{2}-\d{2}\b`)
	reCurr    = regexp.MustCompile(`\b(usd|eur|gbp|sar|aed)\b|[$£€]`)
	reAmount  = regexp.MustCompile(`\b\d{1,3}(,\d{3})*(\.\d{2})\b|\b\d+\.\d{2}\b`)
	reInvoice = regexp.MustCompile(`\b(invoice|rechnung|factura|facture|total|seller|client)\b`)
)

// heuristicConfidence scores decoded text by the invoice artifacts it shows
// (dates, currency, amounts, invoice vocabulary).
func heuristicConfidence(txt string) float32 {
	txtL := strings.ToLower(txt)
	score := float32(0.2)
	if reDate.MatchString(txtL) {
		score += 0.2
	}
	if reCurr.MatchString(txtL) {
		score += 0.15
	}
	if reAmount.MatchString(txtL) {
		score += 0.15
	}
	if reInvoice.MatchString(txtL) {
		score += 0.2
	}
	if len(txt) > 120 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// blendConfidence weights the engine's confidence higher when present.
func blendConfidence(engine float32, txt string) float32 {
	if strings.TrimSpace(txt) == "" {
		return 0
	}
	heur := heuristicConfidence(txt)
	conf := heur
	if engine > 0 {
		conf = 0.7*engine + 0.3*heur
	}
	if conf > 1.0 {
		conf = 1.0
	}
	return conf
}
