package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Engine recognizes the text of one encoded image. Confidence is the mean
// word confidence in 0..1, or 0 when unknown.
type Engine interface {
	Recognize(ctx context.Context, img []byte, lang string, psm int) (string, float32, error)
}

// TesseractEngine is an Engine backed by libtesseract. A fresh client is
// created per call, so one engine can serve many workers.
type TesseractEngine struct {
	tessdataDir string
}

func NewTesseractEngine(tessdataDir string) *TesseractEngine {
	return &TesseractEngine{tessdataDir: tessdataDir}
}

func (t *TesseractEngine) Recognize(ctx context.Context, img []byte, lang string, psm int) (string, float32, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	client := gosseract.NewClient()
	defer client.Close()

	if t.tessdataDir != "" {
		client.SetTessdataPrefix(t.tessdataDir)
	}
	if err := client.SetLanguage(splitLang(lang)...); err != nil {
		return "", 0, fmt.Errorf("set language %q: %w", lang, err)
	}
	if psm > 0 {
		client.SetPageSegMode(gosseract.PageSegMode(psm))
	}
	if err := client.SetImageFromBytes(img); err != nil {
		return "", 0, fmt.Errorf("set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", 0, fmt.Errorf("extract text: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return text, 0, nil
	}
	var sum float64
	for _, box := range boxes {
		sum += box.Confidence
	}
	return text, float32(sum / float64(len(boxes)) / 100), nil
}

// splitLang turns "ara+eng" into the model list Tesseract expects.
func splitLang(lang string) []string {
	var out []string
	for _, l := range strings.Split(lang, "+") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	if len(out) == 0 {
		return []string{"eng"}
	}
	return out
}
