package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/playerMars/final-ocr/internal/app"
	"github.com/playerMars/final-ocr/internal/common"
	"github.com/playerMars/final-ocr/internal/core"
	"github.com/playerMars/final-ocr/internal/ingest"
)

func main() {
	var (
		asText = flag.Bool("text", false, "treat the input as OCR text and only parse it; - reads stdin")
		lang   = flag.String("lang", "", "OCR language override")
		store  = flag.Bool("store", false, "persist the result to DB_URL")
	)
	flag.Parse()

	cfg := common.LoadConfig()
	logger := app.NewLogger(os.Stderr, cfg.LogLevel)

	if flag.NArg() != 1 {
		logger.Error("usage", "cmd", "runocr [-text] [-lang eng] [-store] <file|->")
		os.Exit(2)
	}
	input := flag.Arg(0)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.OCR.Timeout+time.Minute)
	defer cancel()
	if *lang != "" {
		ctx = common.WithLang(ctx, *lang)
	}

	a, err := app.New(ctx, cfg, logger, app.Options{NoStore: !*store})
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	var res *core.ProcessResult
	if *asText {
		res, err = parseText(ctx, a, input)
	} else {
		file, derr := ingest.Describe(input)
		if derr != nil {
			logger.Error("cannot read input", "path", input, "error", derr)
			os.Exit(1)
		}
		res, err = a.Processor.ProcessFile(ctx, file)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if res != nil {
		if encErr := enc.Encode(res); encErr != nil {
			logger.Error("encode result", "error", encErr)
		}
	}
	if err != nil {
		logger.Error("extraction failed", "input", input, "error", err)
		os.Exit(1)
	}
}

func parseText(ctx context.Context, a *app.App, input string) (*core.ProcessResult, error) {
	var (
		raw []byte
		err error
	)
	if input == "-" {
		raw, err = io.ReadAll(os.Stdin)
		input = "stdin.txt"
	} else {
		raw, err = os.ReadFile(input)
	}
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return a.Processor.ProcessText(ctx, input, string(raw))
}
