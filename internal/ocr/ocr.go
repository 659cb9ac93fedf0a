// Package ocr turns invoice files (images, PDFs, plain text) into raw text.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/playerMars/final-ocr/constants"
)

type Config struct {
	Lang        string // default "eng"; "ara+eng" selects several models
	TessdataDir string
	PSMs        []int // page segmentation modes to try, default 6 then 3
	Preprocess  bool
	MaxPages    int // 0 = no limit

	HeicConverter    string
	ArtifactCacheDir string

	// MinPDFTextRunes is the amount of embedded text below which a PDF is
	// treated as scanned and its images are OCRed instead.
	MinPDFTextRunes int
}

type ExtractionResult struct {
	Text       string
	Pages      int
	SourceType constants.FileFormat
	Method     string // "text" | "pdf-text" | "pdf-ocr" | "image-ocr"
	Language   string
	Duration   time.Duration
	Warnings   []string
	Confidence float32
}

type Extractor struct {
	cfg    Config
	runner Runner
	engine Engine
	logger *slog.Logger
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithEngine replaces the Tesseract engine, e.g. with a stub in tests.
func WithEngine(engine Engine) Option {
	return func(e *Extractor) { e.engine = engine }
}

// WithRunner replaces the external command runner.
func WithRunner(r Runner) Option {
	return func(e *Extractor) { e.runner = r }
}

func NewExtractor(cfg Config, logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	if len(cfg.PSMs) == 0 {
		cfg.PSMs = []int{6, 3}
	}
	if cfg.ArtifactCacheDir == "" {
		cfg.ArtifactCacheDir = "./tmp"
	}
	if cfg.MinPDFTextRunes <= 0 {
		cfg.MinPDFTextRunes = 20
	}
	e := &Extractor{
		cfg:    cfg,
		runner: execRunner{},
		engine: NewTesseractEngine(cfg.TessdataDir),
		logger: logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract picks a strategy based on file extension. langHint overrides the
// configured language when set.
func (e *Extractor) Extract(ctx context.Context, path, langHint string) (ExtractionResult, error) {
	start := time.Now()
	lang := e.cfg.Lang
	if strings.TrimSpace(langHint) != "" {
		lang = strings.TrimSpace(langHint)
	}
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("ocr.extract.start", "path", path, "ext", ext, "lang", lang)

	var (
		res ExtractionResult
		err error
	)
	switch constants.MapExtToFormat(ext) {
	case constants.FormatText:
		res, err = e.extractText(path)
	case constants.FormatPDF:
		res, err = e.extractPDF(ctx, path, lang)
	case constants.FormatImage:
		if !constants.IsAllowedExt(ext) {
			e.logger.Error("ocr.extract.unsupported", "extension", ext)
			return ExtractionResult{}, fmt.Errorf("unsupported extension: %q", ext)
		}
		res, err = e.extractImageFile(ctx, path, ext, lang)
	}
	res.Duration = time.Since(start)
	res.Language = lang
	if err != nil {
		e.logger.Error("ocr.extract.failed", "path", path, "method", res.Method, "err", err)
		return res, err
	}
	e.logger.Debug("ocr.extract.ok",
		"path", path,
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"confidence", res.Confidence,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (e *Extractor) extractText(path string) (ExtractionResult, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return ExtractionResult{SourceType: constants.FormatText, Method: "text"}, fmt.Errorf("read text: %w", err)
	}
	txt := string(b)
	return ExtractionResult{
		Text:       txt,
		Pages:      1,
		SourceType: constants.FormatText,
		Method:     "text",
		Confidence: 1,
	}, nil
}

func (e *Extractor) extractImageFile(ctx context.Context, path, ext, lang string) (ExtractionResult, error) {
	var warns []string
	if constants.IsHEICExt(ext) {
		out, w, cleanup, err := convertHEICtoPNG(ctx, e.runner, e.cfg.HeicConverter, path, e.cfg.ArtifactCacheDir)
		warns = append(warns, w...)
		if cleanup != nil {
			defer cleanup()
		}
		if err != nil {
			return ExtractionResult{SourceType: constants.FormatImage, Method: "image-ocr", Warnings: warns}, err
		}
		path = out
	}

	img, err := os.ReadFile(path)
	if err != nil {
		return ExtractionResult{SourceType: constants.FormatImage, Method: "image-ocr", Warnings: warns}, fmt.Errorf("read image: %w", err)
	}
	txt, conf, w, err := e.recognize(ctx, img, lang)
	warns = append(warns, w...)
	if err != nil {
		return ExtractionResult{SourceType: constants.FormatImage, Method: "image-ocr", Warnings: warns}, err
	}
	return ExtractionResult{
		Text:       txt,
		Pages:      1,
		SourceType: constants.FormatImage,
		Method:     "image-ocr",
		Warnings:   warns,
		Confidence: conf,
	}, nil
}

// recognize OCRs one image with every configured page segmentation mode and
// keeps the longest text. Confidence blends the engine's word confidence with
// the text heuristic.
func (e *Extractor) recognize(ctx context.Context, img []byte, lang string) (string, float32, []string, error) {
	var warns []string
	if e.cfg.Preprocess {
		if pre, err := preprocess(img); err == nil {
			img = pre
		} else {
			warns = append(warns, "preprocess skipped: "+err.Error())
		}
	}

	var (
		best     string
		bestConf float32
		lastErr  error
	)
	for _, psm := range e.cfg.PSMs {
		if err := ctx.Err(); err != nil {
			return "", 0, warns, err
		}
		txt, conf, err := e.engine.Recognize(ctx, img, lang, psm)
		if err != nil {
			lastErr = err
			warns = append(warns, fmt.Sprintf("psm %d: %v", psm, err))
			continue
		}
		if len(strings.TrimSpace(txt)) > len(strings.TrimSpace(best)) {
			best, bestConf = txt, conf
		}
	}
	if best == "" && lastErr != nil {
		return "", 0, warns, fmt.Errorf("tesseract: %w", lastErr)
	}
	return best, blendConfidence(bestConf, best), warns, nil
}
