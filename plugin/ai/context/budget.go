// Package context provides context building for LLM prompts.
package context

import (
	"strings"

	"github.com/hrygo/botgpt/plugin/ai"
)

// DefaultMaxTokens is the default context budget in estimated tokens.
const DefaultMaxTokens = 4000

// TokenEstimator estimates the token cost of a piece of text.
type TokenEstimator interface {
	Estimate(content string) int
}

// WordCountEstimator counts whitespace-delimited words.
// It is a coarse proxy, not a tokenizer.
type WordCountEstimator struct{}

// Estimate returns the number of words in content.
func (WordCountEstimator) Estimate(content string) int {
	return len(strings.Fields(content))
}

// Trimmer reduces a message sequence to fit a token budget by dropping the
// oldest messages first (sliding window).
type Trimmer struct {
	budget    int
	estimator TokenEstimator
}

// NewTrimmer creates a new trimmer. A non-positive budget falls back to
// DefaultMaxTokens and a nil estimator to WordCountEstimator.
func NewTrimmer(budget int, estimator TokenEstimator) *Trimmer {
	if budget <= 0 {
		budget = DefaultMaxTokens
	}
	if estimator == nil {
		estimator = WordCountEstimator{}
	}
	return &Trimmer{
		budget:    budget,
		estimator: estimator,
	}
}

// Budget returns the configured budget.
func (t *Trimmer) Budget() int {
	return t.budget
}

// Trim removes messages from index 0 while the estimated total exceeds the
// budget and more than one message remains. The last message is always kept,
// even if it alone exceeds the budget.
//
// Callers that inject a retrieved-context system message at index 0 should
// expect it to be the first message dropped under pressure.
func (t *Trimmer) Trim(messages []ai.Message) []ai.Message {
	costs := make([]int, len(messages))
	total := 0
	for i, m := range messages {
		costs[i] = t.estimator.Estimate(m.Content)
		total += costs[i]
	}

	start := 0
	for total > t.budget && len(messages)-start > 1 {
		total -= costs[start]
		start++
	}

	out := make([]ai.Message, len(messages)-start)
	copy(out, messages[start:])
	return out
}

// Estimate returns the estimated cost of the whole sequence.
func (t *Trimmer) Estimate(messages []ai.Message) int {
	total := 0
	for _, m := range messages {
		total += t.estimator.Estimate(m.Content)
	}
	return total
}
