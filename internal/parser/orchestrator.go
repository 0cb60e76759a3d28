package parser

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/grocerytrack/receipt-parser/constants"
	"github.com/grocerytrack/receipt-parser/internal/common"
	"github.com/grocerytrack/receipt-parser/internal/ocr"
)

// OCRClient yields raw text for a receipt file.
type OCRClient interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// ChatClient is the model behind the llm path. A nil ChatClient degrades
// the orchestrator to heuristic-only operation.
type ChatClient interface {
	Chat(ctx context.Context, system, user string) (string, error)
}

// Request names a receipt to parse. Exactly one of FilePath or RawText is
// set; RawText skips OCR entirely. Method selects the extraction strategy:
// auto, llm, ocr_only, or heuristic. Empty means auto.
type Request struct {
	FilePath string
	RawText  string
	Method   string
}

// Orchestrator runs the extraction pipeline: OCR, then the method chain,
// then validation. Failures degrade instead of propagating; only a missing
// input file produces an unsuccessful Result.
type Orchestrator struct {
	ocr       OCRClient
	chat      ChatClient
	heuristic *HeuristicExtractor
	validator *Validator
	logger    *slog.Logger
}

func NewOrchestrator(ocr OCRClient, chat ChatClient, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		ocr:       ocr,
		chat:      chat,
		heuristic: NewHeuristicExtractor(logger),
		validator: NewValidator(logger),
		logger:    logger,
	}
}

// Parse resolves the request to a Result. Every Result carries the method
// that actually produced the data, which may differ from the method asked
// for when a fallback fired.
func (o *Orchestrator) Parse(ctx context.Context, req Request) Result {
	reqID := uuid.NewString()
	ctx = common.WithRequestID(ctx, reqID)
	log := o.logger.With("req_id", reqID)

	text := req.RawText
	if text == "" && req.FilePath != "" {
		if o.ocr == nil {
			return failed("no OCR backend configured")
		}
		extracted, err := o.ocr.ExtractText(ctx, req.FilePath)
		if err != nil {
			log.Error("parse.ocr_failed", "path", req.FilePath, "error", err)
			return failed(err.Error())
		}
		text = extracted
	}
	text = strings.TrimSpace(ocr.Normalize(text))

	method := req.Method
	if method == "" {
		method = constants.RequestAuto
	}
	log.Info("parse.start", "method", method, "text_len", len(text))

	if text == "" {
		return o.heuristicResult(text)
	}

	switch method {
	case constants.RequestOCROnly, constants.RequestHeuristic:
		return o.heuristicResult(text)
	case constants.RequestLLM, constants.RequestAuto:
		return o.llmResult(ctx, log, text)
	default:
		log.Warn("parse.unknown_method", "method", method)
		return o.llmResult(ctx, log, text)
	}
}

// llmResult runs the model path, falling back to heuristics when the model
// is absent, errors, or replies with unrecoverable JSON.
func (o *Orchestrator) llmResult(ctx context.Context, log *slog.Logger, text string) Result {
	if o.chat == nil {
		log.Info("parse.llm_unavailable")
		return o.heuristicResult(text)
	}

	system := BuildSystemPrompt(constants.AsStringSlice())
	reply, err := o.chat.Chat(ctx, system, BuildUserPrompt(text))
	if err != nil {
		log.Warn("parse.llm_failed", "error", err)
		res := o.heuristicResult(text)
		res.Method = constants.MethodFallback
		res.Confidence = ConfidenceDegraded
		return res
	}

	jsonStr, err := ExtractJSON(reply)
	if err != nil {
		log.Warn("parse.llm_reply_malformed", "error", err, "reply_len", len(reply))
		res := o.heuristicResult(text)
		res.Method = constants.MethodFallback
		res.Confidence = ConfidenceDegraded
		return res
	}

	rec := o.validator.Validate(json.RawMessage(jsonStr))
	log.Info("parse.done", "method", constants.MethodOfflineLLM, "items", len(rec.Items))
	return Result{
		Success:    true,
		Method:     constants.MethodOfflineLLM,
		Data:       rec,
		Confidence: ConfidenceLLM,
	}
}

func (o *Orchestrator) heuristicResult(text string) Result {
	rec := o.validator.Clean(o.heuristic.Extract(text))
	return Result{
		Success:    true,
		Method:     constants.MethodOCROnly,
		Data:       rec,
		Confidence: ConfidenceHeuristic,
	}
}

func failed(msg string) Result {
	return Result{
		Success: false,
		Method:  constants.MethodNone,
		Data:    FallbackRecord(),
		Error:   msg,
	}
}
