package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/grocerytrack/receipt-parser/constants"
	"github.com/grocerytrack/receipt-parser/internal/async"
	"github.com/grocerytrack/receipt-parser/internal/common"
	"github.com/grocerytrack/receipt-parser/internal/export"
	"github.com/grocerytrack/receipt-parser/internal/llm"
	"github.com/grocerytrack/receipt-parser/internal/ocr"
	"github.com/grocerytrack/receipt-parser/internal/parser"
	"github.com/grocerytrack/receipt-parser/internal/repository"
)

func printError(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir     = flag.String("dir", "", "directory of receipt files to process (required)")
		method  = flag.String("method", "auto", "extraction method: auto | llm | ocr_only | heuristic")
		out     = flag.String("out", "", "XLSX output path (optional; defaults next to --dir)")
		fromStr = flag.String("from", "", "export from date YYYY-MM-DD")
		toStr   = flag.String("to", "", "export to date YYYY-MM-DD")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*dir), "receipts.xlsx")
	}

	var from, to *time.Time
	if *fromStr != "" {
		parsed, err := time.Parse("2006-01-02", *fromStr)
		if err != nil {
			printError("Error: invalid --from date, use YYYY-MM-DD: %v\n", err)
			os.Exit(1)
		}
		from = &parsed
	}
	if *toStr != "" {
		parsed, err := time.Parse("2006-01-02", *toStr)
		if err != nil {
			printError("Error: invalid --to date, use YYYY-MM-DD: %v\n", err)
			os.Exit(1)
		}
		to = &parsed
	}

	_ = godotenv.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		printError("Error: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	store, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		printError("Error: open store: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	extractor := ocr.NewExtractor(ocr.Config{
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		TessdataDir:   cfg.OCR.TessdataDir,
		PSM:           cfg.OCR.PSM,
	}, logger)

	var chat parser.ChatClient
	if !cfg.LLM.Disabled {
		chat = llm.NewOllamaClient(llm.OllamaConfig{
			Host:    cfg.LLM.Host,
			Model:   cfg.LLM.Model,
			Timeout: cfg.LLM.Timeout,
			Options: llm.ChatOptions{
				Temperature: cfg.LLM.Temperature,
				NumPredict:  cfg.LLM.NumPredict,
				NumCtx:      cfg.LLM.NumCtx,
				Stop:        []string{"```", "```json", "```\n"},
			},
		}, logger)
	}

	orch := parser.NewOrchestrator(extractor, chat, logger)
	queue := async.NewParseQueue(orch, store, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithParseTimeout(cfg.Queue.ParseTimeout),
	)

	consumed := make(chan struct{})
	var parsed, failed int
	go func() {
		defer close(consumed)
		for res := range queue.Results() {
			if res.Err != nil {
				failed++
				printError("failed: %s: %v\n", res.Job.Path, res.Err)
				continue
			}
			parsed++
		}
	}()

	enqueued := 0
	err = filepath.WalkDir(*dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if _, ok := constants.AllowedExtensions[constants.NormalizeExt(filepath.Ext(path))]; !ok {
			return nil
		}
		if qerr := queue.Enqueue(ctx, async.Job{Path: path, Method: *method}); qerr != nil {
			logger.Warn("enqueue failed", "path", path, "error", qerr)
			return nil
		}
		enqueued++
		return nil
	})
	if err != nil {
		printError("Error: walk %s: %v\n", *dir, err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()
	queue.Shutdown(shutdownCtx)
	<-consumed

	fmt.Printf("processed %d files: %d parsed, %d failed\n", enqueued, parsed, failed)

	svc := export.NewService(store, logger)
	data, err := svc.ExportXLSX(ctx, from, to)
	if err != nil {
		printError("Error: export: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		printError("Error: write %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("exported %s\n", *out)
}
