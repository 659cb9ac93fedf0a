package invoice

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/playerMars/final-ocr/internal/entity"
)

func TestExtractHeader_InvoiceNumber(t *testing.T) {
	cases := []struct {
		name, text, want string
	}{
		{"labelled", "Invoice no: 51109338", "51109338"},
		{"hash", "INVOICE # A-1029", "A-1029"},
		{"german", "Rechnungsnummer: RE-4711", "RE-4711"},
		{"prefix", "Ref INV-2023-001 attached", "INV-2023-001"},
		{"bare digits", "ACME\n51109338\nthanks", "51109338"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, _ := ExtractHeader(tc.text)
			assert.Equal(t, tc.want, h.InvoiceNumber)
		})
	}
}

func TestExtractHeader_IssueDate(t *testing.T) {
	cases := []struct {
		name, text, want string
	}{
		{"date of issue", "Date of issue: 04/13/2013", "04/13/2013"},
		{"labelled iso", "Invoice date: 2024-03-05", "2024-03-05"},
		{"bare iso", "Issued 2024-03-05 in Berlin", "2024-03-05"},
		{"german month", "Datum: 12. März 2024", "12. März 2024"},
		{"english month", "Payable by March 5, 2024", "March 5, 2024"},
		{"arabic month", "تاريخ الفاتورة: 15 مارس 2024", "15 مارس 2024"},
		{"arabic label numeric", "تاريخ: 03/05/2024", "03/05/2024"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, _ := ExtractHeader(tc.text)
			assert.Equal(t, tc.want, h.IssueDate)
		})
	}
}

func TestExtractHeader_GrandTotalTakesLargest(t *testing.T) {
	h, _ := ExtractHeader("Total                 $ 5640.17    $ 564.02  $ 6204.19")
	assert.Equal(t, 6204.19, h.GrandTotal)
}

func TestExtractHeader_MissingFieldsWarn(t *testing.T) {
	h, warns := ExtractHeader("hello world")
	assert.Equal(t, Header{}, h)
	assert.Len(t, warns, 3)
	for _, w := range warns {
		assert.Equal(t, entity.WarnFieldAbsent, w.Kind)
	}
}
