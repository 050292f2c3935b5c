package llms

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/tactus-ai/tactus/pkg/protocol"
)

// tokenEstimator approximates token counts when the provider omits usage in
// its response (some OpenAI-compatible servers do). Estimates feed the call
// budget only; they never gate correctness.
type tokenEstimator struct {
	model string

	once     sync.Once
	encoding *tiktoken.Tiktoken
}

func newTokenEstimator(model string) *tokenEstimator {
	return &tokenEstimator{model: model}
}

func (e *tokenEstimator) load() {
	e.once.Do(func() {
		encoding, err := tiktoken.EncodingForModel(e.model)
		if err != nil {
			encoding, err = tiktoken.GetEncoding("cl100k_base")
			if err != nil {
				return
			}
		}
		e.encoding = encoding
	})
}

func (e *tokenEstimator) estimate(text string) int {
	if text == "" {
		return 0
	}
	e.load()
	if e.encoding == nil {
		// Rough character heuristic when no encoding is available.
		return len(text) / 4
	}
	return len(e.encoding.Encode(text, nil, nil))
}

func (e *tokenEstimator) estimateMessages(messages []protocol.Message) int {
	total := 0
	for _, msg := range messages {
		total += e.estimate(msg.Content)
		for _, tc := range msg.ToolCalls {
			total += e.estimate(tc.Name) + e.estimate(tc.ArgumentsJSON())
		}
	}
	return total
}
