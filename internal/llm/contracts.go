package llm

import "context"

// ChatOptions are the sampling knobs forwarded to the model backend.
// Zero values mean backend defaults, except Temperature which is always
// sent; extraction wants deterministic output.
type ChatOptions struct {
	Temperature   float64  `json:"temperature"`
	TopP          float64  `json:"top_p,omitempty"`
	NumPredict    int      `json:"num_predict,omitempty"`
	NumCtx        int      `json:"num_ctx,omitempty"`
	RepeatPenalty float64  `json:"repeat_penalty,omitempty"`
	Stop          []string `json:"stop,omitempty"`
}

// Chatter is the interface the parsing pipeline depends on. Implementations
// return the assistant reply as plain text.
type Chatter interface {
	Chat(ctx context.Context, system, user string) (string, error)
}
