package ingest

import "github.com/vigilhq/vigil/internal/types"

// ItemStatus describes what happened to one candidate event
type ItemStatus string

const (
	// StatusNew means the candidate became a new persisted event
	StatusNew ItemStatus = "NEW"

	// StatusExisting means an event with the same fingerprint already
	// existed, found either by the advisory lookup or by losing the
	// insert race
	StatusExisting ItemStatus = "EXISTING"

	// StatusSkipped means the candidate was dropped without persisting
	StatusSkipped ItemStatus = "SKIPPED"
)

// SkipReason explains a StatusSkipped item
type SkipReason string

const (
	// SkipInvalidDate marks a candidate whose event date did not parse.
	// These never reach the store.
	SkipInvalidDate SkipReason = "invalid_date"

	// SkipPersistenceError marks a candidate dropped because a store
	// operation failed in a way conflict recovery could not handle
	SkipPersistenceError SkipReason = "persistence_error"
)

// ItemResult records the outcome for one candidate event
type ItemResult struct {
	Status ItemStatus   `json:"status"`
	Event  *types.Event `json:"event,omitempty"`
	Reason SkipReason   `json:"reason,omitempty"`
	Err    error        `json:"-"`
}

// Outcome summarizes one processed batch. Items preserve the input order
// of the batch; Created plus Skipped always equals len(Items).
type Outcome struct {
	Created int          `json:"created"`
	Skipped int          `json:"skipped"`
	Items   []ItemResult `json:"items"`
}
