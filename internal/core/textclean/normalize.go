// Package textclean repairs raw OCR output before field extraction.
package textclean

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reFormFeed   = regexp.MustCompile(`\f+`)
	reTabs       = regexp.MustCompile(`\t`)
	reMultiBlank = regexp.MustCompile(`\n{3,}`)
	reBoxNoise   = regexp.MustCompile(`(?m)^[ ]*[_\-=~*]{3,}[ ]*$`)
)

// wordFixes maps whole-word OCR misreads seen on invoices to their intended
// spelling. Keys are matched on word boundaries.
var wordFixes = map[string]string{
	"Deil":     "Dell",
	"De11":     "Dell",
	"HPT520":   "HP T520",
	"C1ient":   "Client",
	"Bui1d":    "Build",
	"Optip1ex": "Optiplex",
	"lnvoice":  "Invoice",
	"INVOlCE":  "INVOICE",
	"Tota1":    "Total",
	"TOTA1":    "TOTAL",
	"Se1ler":   "Seller",
	"Sel1er":   "Seller",
}

var reWordFix = buildWordFix()

func buildWordFix() *regexp.Regexp {
	keys := make([]string, 0, len(wordFixes))
	for k := range wordFixes {
		keys = append(keys, regexp.QuoteMeta(k))
	}
	return regexp.MustCompile(`\b(` + strings.Join(keys, "|") + `)\b`)
}

// Normalize canonicalizes Unicode, line endings and whitespace, drops divider
// lines and repairs common OCR misreads. Runs of interior spaces are kept
// because column gaps carry layout.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = norm.NFKC.String(s)
	s = reCRLF.ReplaceAllString(s, "\n")
	s = reFormFeed.ReplaceAllString(s, "\n")
	s = reTabs.ReplaceAllString(s, "    ")
	s = reBoxNoise.ReplaceAllString(s, "")

	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	s = strings.Join(lines, "\n")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")

	s = reWordFix.ReplaceAllStringFunc(s, func(w string) string {
		return wordFixes[w]
	})
	return strings.TrimRight(strings.TrimLeft(s, "\n"), "\n ")
}

// CollapseSpaces joins the whitespace-separated fields of s with single spaces.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
