package cost

import "sync"

// Usage summarizes accumulated collaborator spend
type Usage struct {
	Calls        int64   `json:"calls"`
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
}

// Tracker accumulates token usage across collaborator calls. Safe for
// concurrent use; the search client records into it from whatever
// goroutine runs the fetch.
type Tracker struct {
	mu           sync.RWMutex
	calls        int64
	inputTokens  int64
	outputTokens int64
}

// NewTracker returns an empty tracker
func NewTracker() *Tracker {
	return &Tracker{}
}

// Record adds one call's token usage to the running totals
func (t *Tracker) Record(inputTokens, outputTokens int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	t.inputTokens += inputTokens
	t.outputTokens += outputTokens
}

// Snapshot returns the current totals with their priced cost
func (t *Tracker) Snapshot() Usage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Usage{
		Calls:        t.calls,
		InputTokens:  t.inputTokens,
		OutputTokens: t.outputTokens,
		CostUSD:      ForUsage(t.inputTokens, t.outputTokens),
	}
}
