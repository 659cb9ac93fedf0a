package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapExtToFormat(t *testing.T) {
	assert.Equal(t, FormatPDF, MapExtToFormat(".PDF"))
	assert.Equal(t, FormatText, MapExtToFormat("txt"))
	assert.Equal(t, FormatImage, MapExtToFormat(".heic"))
	assert.Equal(t, FormatImage, MapExtToFormat("png"))
}

func TestExtensions(t *testing.T) {
	assert.True(t, IsAllowedExt(".TIFF"))
	assert.False(t, IsAllowedExt(".docx"))
	assert.True(t, IsHEICExt("HEIF"))
	assert.False(t, IsHEICExt("jpg"))
}
