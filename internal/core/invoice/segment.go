package invoice

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/playerMars/final-ocr/internal/core/textclean"
	"github.com/playerMars/final-ocr/internal/entity"
)

// Segment is one logical item row with its wrapped lines folded in.
type Segment struct {
	ItemNo *int
	Text   string
	// Line is the 1-based source line the item starts on.
	Line int
}

var (
	reSummaryMarker = regexp.MustCompile(`(?im)^[ \t]*(?:summary\b|(?:grand[ \t]+)?total\b|sub-?total\b)`)
	reItemStart     = regexp.MustCompile(`^[ \t]*(\d{1,3})[ \t]*[.)][ \t]*(\D.*)?$`)
	reDivider       = regexp.MustCompile(`^[\s\-_=~*|.:+]+$`)
	rePageLine      = regexp.MustCompile(`(?i)^\s*(?:page\s+\d+(?:\s*(?:of|/)\s*\d+)?|\d+\s*/\s*\d+)\s*$`)
	reBareItems     = regexp.MustCompile(`(?i)^\s*items?\s*:?\s*$`)
	reDecimal       = regexp.MustCompile(`\d[.,]\d`)
	reColumnWord    = regexp.MustCompile(`(?i)\b(?:no|description|qty|quantity|um|unit|price|net|worth|vat|gross|amount|total)\b`)
)

// ItemsSection returns the text between the items-table marker and the
// summary marker, plus the 1-based line number of its first line. Without an
// items marker the table is assumed to start at the first item-start line.
func ItemsSection(text string) (section string, startLine int) {
	start := 0
	if loc := reItemsMarker.FindStringIndex(text); loc != nil {
		start = loc[1]
		if start < len(text) && text[start] == '\n' {
			start++
		}
	}
	end := len(text)
	if loc := reSummaryMarker.FindStringIndex(text[start:]); loc != nil {
		end = start + loc[0]
	}
	return text[start:end], strings.Count(text[:start], "\n") + 1
}

// SummarySection returns the text from the summary marker to the end, or ""
// when there is none.
func SummarySection(text string) string {
	from := 0
	if loc := reItemsMarker.FindStringIndex(text); loc != nil {
		from = loc[1]
	}
	loc := reSummaryMarker.FindStringIndex(text[from:])
	if loc == nil {
		return ""
	}
	return text[from+loc[0]:]
}

// SegmentItems folds the items section into one candidate per item. Item
// numbers only feed warnings; they never change where rows are cut.
func SegmentItems(section string, startLine int) ([]Segment, []entity.Warning) {
	var (
		out   []Segment
		warns warnings
		cur   *Segment
		parts []string
		prev  = -1
	)

	flush := func() {
		if cur == nil {
			return
		}
		cur.Text = textclean.CollapseSpaces(strings.Join(parts, " "))
		out = append(out, *cur)
		cur, parts = nil, nil
	}

	for i, ln := range strings.Split(section, "\n") {
		lineNo := startLine + i
		trimmed := strings.TrimSpace(ln)
		if trimmed == "" || isNoise(trimmed) {
			continue
		}

		if m := reItemStart.FindStringSubmatch(ln); m != nil {
			flush()
			n, _ := strconv.Atoi(m[1])
			switch {
			case n == prev:
				warns.add(entity.WarnSegmentationAmbiguous, "line_items", lineNo, "item number %d repeated", n)
			case n < prev:
				warns.add(entity.WarnSegmentationAmbiguous, "line_items", lineNo, "item number %d follows %d", n, prev)
			}
			prev = n
			cur = &Segment{ItemNo: &n, Line: lineNo}
			parts = []string{strings.TrimSpace(m[2])}
			continue
		}

		if cur == nil {
			continue
		}
		parts = append(parts, trimmed)
	}
	flush()
	return out, warns
}

// isNoise reports lines that belong to the page layout rather than a row.
func isNoise(line string) bool {
	if reDivider.MatchString(line) || rePageLine.MatchString(line) || reBareItems.MatchString(line) {
		return true
	}
	return len(reColumnWord.FindAllString(line, -1)) >= 2 && !reDecimal.MatchString(line)
}
