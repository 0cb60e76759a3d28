package constants

// Method tags the extraction path that produced a record. Stable values:
// downstream rows and API consumers match on these exact strings.
type Method string

const (
	MethodOfflineLLM Method = "offline_llm"    // LLM reply repaired and validated
	MethodOCROnly    Method = "ocr_only"       // heuristic path, requested directly
	MethodFallback   Method = "fallback_regex" // heuristic path, reached after an LLM failure
	MethodNone       Method = "none"           // input unreadable, nothing extracted
)

// Requested parse strategies accepted by the orchestrator.
const (
	RequestAuto      = "auto"
	RequestLLM       = "llm"
	RequestOCROnly   = "ocr_only"
	RequestHeuristic = "heuristic"
)
