package shared

import (
	"time"
)

// TokenUsage tracks the tokens consumed by an LLM request.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Model            string
}

// CallMeta holds operational metadata for one outbound call, either to the
// backend API or to an LLM.
type CallMeta struct {
	Name       string // e.g. "SubmitPlan", "Clipper"
	Target     string // endpoint path or model name
	StatusCode int
	Usage      TokenUsage
	Latency    time.Duration
	Err        error
}

// CallRecorder receives CallMeta after each call.
type CallRecorder interface {
	RecordCall(meta CallMeta) error
}
