package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/playerMars/final-ocr/constants"
)

// extractPDF prefers the embedded text layer and falls back to OCR of the
// page images when the PDF carries too little text.
func (e *Extractor) extractPDF(ctx context.Context, path, lang string) (ExtractionResult, error) {
	text, pages, err := e.pdfText(path)
	if err == nil && countLetters(text) >= e.cfg.MinPDFTextRunes {
		return ExtractionResult{
			Text:       text,
			Pages:      pages,
			SourceType: constants.FormatPDF,
			Method:     "pdf-text",
			Confidence: blendConfidence(1, text),
		}, nil
	}

	var warns []string
	if err != nil {
		warns = append(warns, "pdf text layer: "+err.Error())
	}
	e.logger.Debug("ocr.pdf.scanned", "path", path, "text_runes", countLetters(text))

	ocrText, ocrPages, conf, w, err := e.pdfOCR(ctx, path, lang)
	warns = append(warns, w...)
	if err != nil {
		return ExtractionResult{SourceType: constants.FormatPDF, Method: "pdf-ocr", Warnings: warns}, err
	}
	return ExtractionResult{
		Text:       ocrText,
		Pages:      ocrPages,
		SourceType: constants.FormatPDF,
		Method:     "pdf-ocr",
		Warnings:   warns,
		Confidence: conf,
	}, nil
}

// pdfText reads the text layer row by row. Words on one row are separated by
// a space when the layout leaves a gap between them.
func (e *Extractor) pdfText(path string) (string, int, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	total := r.NumPage()
	if e.cfg.MaxPages > 0 && total > e.cfg.MaxPages {
		total = e.cfg.MaxPages
	}

	var b strings.Builder
	for i := 1; i <= total; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil {
			return "", 0, fmt.Errorf("page %d: %w", i, err)
		}
		if i > 1 {
			b.WriteString("\f")
		}
		for _, row := range rows {
			var prevEnd float64
			for j, word := range row.Content {
				if j > 0 && word.X-prevEnd > word.FontSize*0.15 {
					b.WriteByte(' ')
				}
				b.WriteString(word.S)
				prevEnd = word.X + word.W
			}
			b.WriteString("\n")
		}
	}
	return b.String(), total, nil
}

// pdfOCR extracts the embedded page images with pdfcpu and OCRs each one.
func (e *Extractor) pdfOCR(ctx context.Context, path, lang string) (string, int, float32, []string, error) {
	tmpDir, err := os.MkdirTemp("", "inv-pdf-*")
	if err != nil {
		return "", 0, 0, nil, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			e.logger.Warn("ocr.pdf.cleanup.failed", "dir", tmpDir, "err", err)
		}
	}()

	var selected []string
	if e.cfg.MaxPages > 0 {
		selected = []string{fmt.Sprintf("1-%d", e.cfg.MaxPages)}
	}
	if err := api.ExtractImagesFile(path, tmpDir, selected, model.NewDefaultConfiguration()); err != nil {
		return "", 0, 0, nil, fmt.Errorf("extract pdf images: %w", err)
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		return "", 0, 0, nil, err
	}
	var images []string
	for _, ent := range entries {
		if !ent.IsDir() {
			images = append(images, filepath.Join(tmpDir, ent.Name()))
		}
	}
	sort.Strings(images)
	if len(images) == 0 {
		return "", 0, 0, []string{"pdf has no text layer and no images"}, fmt.Errorf("no pages to ocr")
	}

	var (
		b       strings.Builder
		warns   []string
		confSum float32
		ok      int
	)
	for _, img := range images {
		data, err := os.ReadFile(img)
		if err != nil {
			warns = append(warns, err.Error())
			continue
		}
		txt, conf, w, err := e.recognize(ctx, data, lang)
		warns = append(warns, w...)
		if err != nil {
			if ctx.Err() != nil {
				return "", 0, 0, warns, ctx.Err()
			}
			warns = append(warns, err.Error())
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n")
		}
		b.WriteString(txt)
		confSum += conf
		ok++
	}
	if ok == 0 {
		return "", len(images), 0, warns, fmt.Errorf("no page could be recognized")
	}
	return b.String(), len(images), confSum / float32(ok), warns, nil
}

func countLetters(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			n++
		}
	}
	return n
}
