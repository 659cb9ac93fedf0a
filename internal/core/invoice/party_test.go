package invoice

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/playerMars/final-ocr/internal/entity"
)

func TestExtractParties_DualColumnTaxIsolation(t *testing.T) {
	seller, client, warns := ExtractParties(loadDualColumn(t))
	assert.Empty(t, warns)
	assert.Equal(t, "945-82-2137", seller.TaxID)
	assert.Equal(t, "942-80-0517", client.TaxID)
	assert.NotContains(t, seller.Address, "IBAN")
}

func TestExtractParties_Stacked(t *testing.T) {
	text := "Seller:\nAcme GmbH\nMain St 1\nPhone: +49 30 123456\nEmail: info@acme.de\n10115 Berlin\n" +
		"Client:\nBob Ltd\nTax Id: 12-345\n"

	seller, client, _ := ExtractParties(text)
	assert.Equal(t, entity.PartyInfo{Name: "Acme GmbH", Address: "Main St 1 10115 Berlin"}, seller)
	assert.Equal(t, entity.PartyInfo{Name: "Bob Ltd", TaxID: "12-345"}, client)
}

func TestExtractParties_InlineLabels(t *testing.T) {
	text := "Seller: Acme Corp          Client: Bob Ltd\n12 High St                 9 Low Rd\n"

	seller, client, _ := ExtractParties(text)
	assert.Equal(t, "Acme Corp", seller.Name)
	assert.Equal(t, "12 High St", seller.Address)
	assert.Equal(t, "Bob Ltd", client.Name)
	assert.Equal(t, "9 Low Rd", client.Address)
}

func TestExtractParties_ClientFirst(t *testing.T) {
	text := "Bill to:\nBob Ltd\nVAT No: GB123456\nSupplier:\nAcme Corp\nVAT No: GB999999\n"

	seller, client, _ := ExtractParties(text)
	assert.Equal(t, "Acme Corp", seller.Name)
	assert.Equal(t, "GB999999", seller.TaxID)
	assert.Equal(t, "Bob Ltd", client.Name)
	assert.Equal(t, "GB123456", client.TaxID)
}

func TestExtractParties_Missing(t *testing.T) {
	seller, client, warns := ExtractParties("nothing useful")
	assert.Equal(t, entity.PartyInfo{}, seller)
	assert.Equal(t, entity.PartyInfo{}, client)
	assert.Len(t, warns, 2)
}

func TestSplitColumns(t *testing.T) {
	l, r := splitColumns("Lake Daniellefurt, IN 57228               North Douglas, AZ 95355", 43)
	assert.Equal(t, "Lake Daniellefurt, IN 57228", l)
	assert.Equal(t, "North Douglas, AZ 95355", r)

	l, r = splitColumns("                                           Suite 9", 43)
	assert.Empty(t, l)
	assert.Equal(t, "Suite 9", r)

	l, r = splitColumns("IBAN: GB75MCRL06841367619257", 43)
	assert.Equal(t, "IBAN: GB75MCRL06841367619257", l)
	assert.Empty(t, r)
}
