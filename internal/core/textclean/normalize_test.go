package textclean

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_Whitespace(t *testing.T) {
	in := "\r\n\r\nInvoice no: 1\r\nDate:\t04/13/2013   \r\n\r\n\r\n\r\nSeller:\f\nAcme"
	got := Normalize(in)
	assert.Equal(t, "Invoice no: 1\nDate:    04/13/2013\n\nSeller:\n\nAcme", got)
}

func TestNormalize_KeepsColumnGaps(t *testing.T) {
	in := "Seller:            Client:\nAndrews Ltd        Becker Ltd"
	assert.Equal(t, in, Normalize(in))
}

func TestNormalize_DropsDividerLines(t *testing.T) {
	got := Normalize("ITEMS\n-----------\n1. Desk 1.00 each 5.00\n_____")
	assert.Equal(t, "ITEMS\n\n1. Desk 1.00 each 5.00", got)
}

func TestNormalize_WordFixes(t *testing.T) {
	got := Normalize("C1ient: Custom Bui1d De11 Optip1ex\nHPT520 Thin C1ient\nlnvoice no: 7\nTota1 $ 5")
	assert.Equal(t, "Client: Custom Build Dell Optiplex\nHP T520 Thin Client\nInvoice no: 7\nTotal $ 5", got)
}

func TestNormalize_WordFixesNeedWordBoundary(t *testing.T) {
	assert.Equal(t, "Deilx", Normalize("Deilx"))
}

func TestNormalize_Unicode(t *testing.T) {
	// full-width digits and a no-break space
	assert.Equal(t, "Total 123.45", Normalize("Total\u00a0１２３.４５"))
}

func TestNormalize_Empty(t *testing.T) {
	assert.Equal(t, "", Normalize(""))
}

func TestCollapseSpaces(t *testing.T) {
	assert.Equal(t, "Fast Dell Desktop", CollapseSpaces("  Fast   Dell\tDesktop "))
}
