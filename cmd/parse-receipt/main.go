package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/grocerytrack/receipt-parser/internal/common"
	"github.com/grocerytrack/receipt-parser/internal/llm"
	"github.com/grocerytrack/receipt-parser/internal/ocr"
	"github.com/grocerytrack/receipt-parser/internal/parser"
	"github.com/grocerytrack/receipt-parser/internal/repository"
)

func main() {
	var (
		file   = flag.String("file", "", "receipt file to parse (pdf, image, or txt; required)")
		method = flag.String("method", "auto", "extraction method: auto | llm | ocr_only | heuristic")
		save   = flag.Bool("save", false, "persist the parsed receipt to the configured database")
	)
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "Error: --file is required")
		flag.Usage()
		os.Exit(1)
	}

	_ = godotenv.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("config invalid", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

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
	result := orch.Parse(ctx, parser.Request{FilePath: *file, Method: *method})

	if *save && result.Success {
		store, err := repository.Open(ctx, cfg.Database, logger)
		if err != nil {
			logger.Error("store open failed", "error", err)
			os.Exit(1)
		}
		defer func() { _ = store.Close() }()

		id, err := store.Save(ctx, repository.SaveRequest{
			Record:     result.Data,
			Method:     result.Method,
			Confidence: result.Confidence,
			SourcePath: *file,
		})
		if err != nil {
			logger.Error("save failed", "error", err)
			os.Exit(1)
		}
		logger.Info("receipt saved", "receipt_id", id)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Error("marshal result failed", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(out))

	if !result.Success {
		os.Exit(1)
	}
}
