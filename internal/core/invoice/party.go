package invoice

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/playerMars/final-ocr/internal/core/cascade"
	"github.com/playerMars/final-ocr/internal/core/textclean"
	"github.com/playerMars/final-ocr/internal/entity"
)

const (
	sellerWords = `seller|vendor|supplier|sold[ \t]+by|verk[äa]ufer|vendedor|vendeur|fournisseur|البائع`
	clientWords = `client|customer|buyer|bill(?:ed)?[ \t]+to|sold[ \t]+to|kunde|cliente|acheteur|العميل`
	taxWords    = `tax[ \t]*id(?:[ \t]*(?:no\.?|number))?|tin|vat[ \t]*(?:id|no\.?|number|reg(?:istration)?[ \t]*no\.?)|nip|ust-?id(?:nr)?\.?|nif|cif|rfc`

	// columnSlack is how far, in runes, a column gap may drift from the
	// position of the right-hand label.
	columnSlack = 8
)

var (
	reSellerLabel = labelRegexp(sellerWords)
	reClientLabel = labelRegexp(clientWords)

	reItemsMarker = regexp.MustCompile(`(?im)^[ \t]*(?:items\b|no\.?[ \t]+description\b|description[ \t]+(?:qty|quantity)\b).*$`)
	reIBANMarker  = regexp.MustCompile(`(?i)\biban\b`)
	reTaxMarker   = regexp.MustCompile(`(?i)\b(?:` + taxWords + `)\b`)

	reBankingOrContact = regexp.MustCompile(`(?i)\b(?:iban|swift|bic|bank|account[ \t]+(?:no|number)|phone|tel|telephone|mobile|fax|e-?mail|www)\b` +
		`|[\w.+\-]+@[\w\-]+\.[\w.\-]+|https?://|^[ \t]*\+?\d[\d ()\-]{7,}\d[ \t]*$`)
)

var taxIDCascade = cascade.New("tax_id",
	`\b(?:`+taxWords+`)\b[ \t]*[:#.]*[ \t]*([A-Z]{0,3}[ \t]?\d[\dA-Z\-/.]*)`,
)

// labelRegexp matches a party label that either sits alone on its line or is
// followed by a colon.
func labelRegexp(words string) *regexp.Regexp {
	return regexp.MustCompile(`(?im)(?:^[ \t]*(?:` + words + `)[ \t]*:?[ \t]*$` +
		`|(?:^|[ \t])(?:` + words + `)(?:[ \t]+(?:name|details|info))?[ \t]*:)`)
}

type label struct {
	start, end int
	found      bool
}

func findLabel(re *regexp.Regexp, region string) label {
	loc := re.FindStringIndex(region)
	if loc == nil {
		return label{}
	}
	start := loc[0]
	for start < loc[1] && (region[start] == ' ' || region[start] == '\t') {
		start++
	}
	return label{start: start, end: loc[1], found: true}
}

// headerRegion is the part of the text above the items table.
func headerRegion(text string) string {
	if loc := reItemsMarker.FindStringIndex(text); loc != nil {
		return text[:loc[0]]
	}
	return text
}

// ExtractParties isolates the seller and client blocks. Side-by-side blocks,
// where both labels share one line, are split into columns first.
func ExtractParties(text string) (seller, client entity.PartyInfo, warns []entity.Warning) {
	region := headerRegion(text)
	s := findLabel(reSellerLabel, region)
	c := findLabel(reClientLabel, region)

	if s.found && c.found && sameLine(region, s.start, c.start) {
		seller, client = dualColumn(region, s, c)
	} else {
		if s.found {
			seller = partySpan(region, s, c)
		}
		if c.found {
			client = partySpan(region, c, s)
		}
	}

	var w warnings
	if !s.found {
		w.add(entity.WarnFieldAbsent, "seller", 0, "no seller label found")
	} else if seller.Name == "" {
		w.add(entity.WarnFieldAbsent, "seller.name", 0, "seller block is empty")
	}
	if !c.found {
		w.add(entity.WarnFieldAbsent, "client", 0, "no client label found")
	} else if client.Name == "" {
		w.add(entity.WarnFieldAbsent, "client.name", 0, "client block is empty")
	}
	return seller, client, w
}

// partySpan reads the block that starts at self. The tax id is searched only
// up to the other party's label when that label comes later.
func partySpan(region string, self, other label) entity.PartyInfo {
	end := len(region)
	if other.found && other.start > self.start {
		end = other.start
	}
	return partyFrom(region[self.end:end])
}

// partyFrom builds a party from the text that follows its label. Name and
// address stop at the first IBAN or tax id marker.
func partyFrom(scope string) entity.PartyInfo {
	spanEnd := len(scope)
	for _, re := range []*regexp.Regexp{reIBANMarker, reTaxMarker} {
		if loc := re.FindStringIndex(scope); loc != nil && loc[0] < spanEnd {
			spanEnd = loc[0]
		}
	}

	var kept []string
	for _, ln := range strings.Split(scope[:spanEnd], "\n") {
		ln = strings.Trim(textclean.CollapseSpaces(ln), " :")
		if ln == "" || reDivider.MatchString(ln) || reBankingOrContact.MatchString(ln) {
			continue
		}
		kept = append(kept, ln)
	}

	var p entity.PartyInfo
	if len(kept) > 0 {
		p.Name = kept[0]
		p.Address = strings.Join(kept[1:], " ")
	}
	if m, ok := taxIDCascade.First(scope); ok {
		p.TaxID = strings.TrimRight(strings.TrimSpace(m.Value), ".-/")
	}
	return p
}

func sameLine(s string, a, b int) bool {
	if a > b {
		a, b = b, a
	}
	return !strings.Contains(s[a:b], "\n")
}

// dualColumn splits a side-by-side Seller/Client block at the column of the
// right-hand label and extracts each column on its own.
func dualColumn(region string, s, c label) (seller, client entity.PartyInfo) {
	left, right := s, c
	leftIsSeller := s.start < c.start
	if !leftIsSeller {
		left, right = c, s
	}

	lineStart := strings.LastIndexByte(region[:left.start], '\n') + 1
	lineEnd := len(region)
	if i := strings.IndexByte(region[right.start:], '\n'); i >= 0 {
		lineEnd = right.start + i
	}
	col := utf8.RuneCountInString(region[lineStart:right.start])

	leftLines := []string{region[left.end:right.start]}
	rightLines := []string{region[right.end:lineEnd]}
	for _, ln := range strings.Split(region[lineEnd:], "\n") {
		l, r := splitColumns(ln, col)
		leftLines = append(leftLines, l)
		rightLines = append(rightLines, r)
	}

	lp := partyFrom(strings.Join(leftLines, "\n"))
	rp := partyFrom(strings.Join(rightLines, "\n"))
	if leftIsSeller {
		return lp, rp
	}
	return rp, lp
}

// splitColumns cuts one line at the run of two or more spaces that ends
// closest to col. Lines indented past the column belong to the right side;
// lines with no usable gap belong to the left side.
func splitColumns(line string, col int) (left, right string) {
	if strings.TrimSpace(line) == "" {
		return "", ""
	}
	runes := []rune(line)

	first := 0
	for first < len(runes) && runes[first] == ' ' {
		first++
	}
	if first >= col-columnSlack {
		return "", string(runes[first:])
	}

	best, cutStart, cutEnd := -1, 0, 0
	widest, wideStart, wideEnd := 0, 0, 0
	for i := first; i < len(runes); {
		if runes[i] != ' ' {
			i++
			continue
		}
		j := i
		for j < len(runes) && runes[j] == ' ' {
			j++
		}
		if j-i >= 2 && j < len(runes) {
			d := j - col
			if d < 0 {
				d = -d
			}
			if d <= columnSlack && (best < 0 || d < best) {
				best, cutStart, cutEnd = d, i, j
			}
			if j-i > widest {
				widest, wideStart, wideEnd = j-i, i, j
			}
		}
		i = j
	}

	switch {
	case best >= 0:
		return string(runes[:cutStart]), string(runes[cutEnd:])
	case widest >= 4:
		return string(runes[:wideStart]), string(runes[wideEnd:])
	default:
		return line, ""
	}
}
