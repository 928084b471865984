// Package cost prices collaborator calls and accumulates token usage so
// operators can see what a monitoring run spent.
package cost

const (
	// InputTokenCost is the cost per 1K input tokens (in USD)
	InputTokenCost = 0.00125

	// OutputTokenCost is the cost per 1K output tokens (in USD)
	OutputTokenCost = 0.005

	// inputShare is the fraction of a call's tokens assumed to be input
	// when only a combined count is known
	inputShare = 0.8
)

// Estimate prices a combined token count, assuming 80% of tokens are
// input-priced and 20% output-priced. Pure arithmetic; tokens is assumed
// non-negative.
func Estimate(tokens int) float64 {
	input := inputShare * float64(tokens)
	output := (1 - inputShare) * float64(tokens)
	return input/1000*InputTokenCost + output/1000*OutputTokenCost
}

// ForUsage prices an exact input/output token split as reported by the
// collaborator.
func ForUsage(inputTokens, outputTokens int64) float64 {
	return float64(inputTokens)/1000*InputTokenCost + float64(outputTokens)/1000*OutputTokenCost
}
