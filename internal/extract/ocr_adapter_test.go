package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playerMars/final-ocr/constants"
	"github.com/playerMars/final-ocr/internal/ocr"
)

type flakyExtractor struct {
	failures int
	calls    int
	block    bool
}

func (f *flakyExtractor) Extract(ctx context.Context, path, lang string) (ocr.ExtractionResult, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return ocr.ExtractionResult{}, ctx.Err()
	}
	if f.calls <= f.failures {
		return ocr.ExtractionResult{Warnings: []string{"engine warning"}}, errors.New("tesseract crashed")
	}
	return ocr.ExtractionResult{
		Text:       "Invoice no: 1",
		Pages:      1,
		SourceType: constants.FormatImage,
		Method:     "image-ocr",
		Language:   lang,
		Confidence: 0.8,
	}, nil
}

func TestOCRAdapter_RetriesThenSucceeds(t *testing.T) {
	fe := &flakyExtractor{failures: 1}
	a := NewOCRAdapter(fe, nil, WithRetries(2), WithBackoff(time.Millisecond))

	res, err := a.Extract(context.Background(), "scan.png", "eng")
	require.NoError(t, err)
	assert.False(t, res.Failed)
	assert.Equal(t, "Invoice no: 1", res.Text)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, "eng", res.Language)
	assert.Contains(t, res.Warnings, "engine warning")
}

func TestOCRAdapter_FailureIsNotAnError(t *testing.T) {
	fe := &flakyExtractor{failures: 10}
	a := NewOCRAdapter(fe, nil, WithRetries(1), WithBackoff(time.Millisecond))

	res, err := a.Extract(context.Background(), "scan.png", "")
	require.NoError(t, err)
	assert.True(t, res.Failed)
	assert.Empty(t, res.Text)
	assert.Equal(t, 2, fe.calls)
	assert.Len(t, res.Warnings, 4)
}

func TestOCRAdapter_TimeoutPerAttempt(t *testing.T) {
	fe := &flakyExtractor{block: true}
	a := NewOCRAdapter(fe, nil, WithTimeout(10*time.Millisecond), WithRetries(0))

	res, err := a.Extract(context.Background(), "scan.png", "")
	require.NoError(t, err)
	assert.True(t, res.Failed)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "timed out")
}

func TestOCRAdapter_CallerCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := NewOCRAdapter(&flakyExtractor{block: true}, nil)

	_, err := a.Extract(ctx, "scan.png", "")
	assert.ErrorIs(t, err, context.Canceled)
}
