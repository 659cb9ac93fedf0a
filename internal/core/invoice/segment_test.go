package invoice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playerMars/final-ocr/internal/entity"
)

func TestItemsSection(t *testing.T) {
	text := "Header\nITEMS\n1. A 1 each 2\nSUMMARY\nTotal 2"

	section, start := ItemsSection(text)
	assert.Equal(t, "1. A 1 each 2\n", section)
	assert.Equal(t, 3, start)
	assert.Equal(t, "SUMMARY\nTotal 2", SummarySection(text))
}

func TestItemsSection_NoMarkers(t *testing.T) {
	section, start := ItemsSection("1. A 1 each 2")
	assert.Equal(t, "1. A 1 each 2", section)
	assert.Equal(t, 1, start)
	assert.Empty(t, SummarySection("1. A 1 each 2"))
}

func TestSegmentItems_FoldsContinuations(t *testing.T) {
	section := "No. Description Qty\n" +
		"  wrapped before any item\n" +
		"1. Desk 1.00 each 5.00\n" +
		"   oak top\n" +
		"-----\n" +
		"2. Chair 2.00 each 3.00\n" +
		"Page 1 of 2\n" +
		"3)  Lamp 1 each 4\n"

	segs, warns := SegmentItems(section, 10)
	assert.Empty(t, warns)
	require.Len(t, segs, 3)

	assert.Equal(t, "Desk 1.00 each 5.00 oak top", segs[0].Text)
	assert.Equal(t, 12, segs[0].Line)
	assert.Equal(t, "Chair 2.00 each 3.00", segs[1].Text)
	assert.Equal(t, 15, segs[1].Line)
	assert.Equal(t, "Lamp 1 each 4", segs[2].Text)
	require.NotNil(t, segs[2].ItemNo)
	assert.Equal(t, 3, *segs[2].ItemNo)
}

func TestSegmentItems_NumberingIsAdvisory(t *testing.T) {
	section := "1. Desk 1 each 5\n2. Chair 1 each 3\n2. Lamp 1 each 4\n1. Rug 1 each 9"

	segs, warns := SegmentItems(section, 1)
	require.Len(t, segs, 4)
	require.Len(t, warns, 2)
	for _, w := range warns {
		assert.Equal(t, entity.WarnSegmentationAmbiguous, w.Kind)
	}
	assert.Equal(t, 3, warns[0].Line)
	assert.Equal(t, 4, warns[1].Line)
}

func TestSegmentItems_DecimalIsNotItemStart(t *testing.T) {
	segs, _ := SegmentItems("1. Thin client\n1.2GHz 4GB RAM", 1)
	require.Len(t, segs, 1)
	assert.Equal(t, "Thin client 1.2GHz 4GB RAM", segs[0].Text)
}
