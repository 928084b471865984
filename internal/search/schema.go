package search

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/vigilhq/vigil/internal/fingerprint"
)

// Batch is a validated set of candidate events from one collaborator call.
// Candidates are ephemeral: the processor consumes them and they are
// discarded.
type Batch struct {
	Events []CandidateEvent `json:"events"`
}

// CandidateEvent is one reported event, not yet deduplicated or persisted
type CandidateEvent struct {
	Title     string            `json:"title"`
	EventDate string            `json:"eventDate"`
	Summary   string            `json:"summary"`
	Quotes    []string          `json:"quotes"`
	Sources   []CandidateSource `json:"sources"`
}

// CandidateSource is one reported citation for a candidate event
type CandidateSource struct {
	URL       string `json:"url"`
	Publisher string `json:"publisher"`
	Headline  string `json:"headline"`
}

// parseBatch parses the extracted JSON span and validates it against the
// batch schema. A span that is not valid JSON returns a plain error, which
// callers retry. A span that parses but violates the schema returns a
// *SchemaError, which is terminal.
func parseBatch(span string) (*Batch, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(span), &envelope); err != nil {
		return nil, fmt.Errorf("extracted span is not valid JSON: %w", err)
	}

	eventsRaw, ok := envelope["events"]
	if !ok {
		return nil, &SchemaError{Violations: []string{`missing "events" key`}}
	}

	var events []CandidateEvent
	if err := json.Unmarshal(eventsRaw, &events); err != nil {
		return nil, &SchemaError{Violations: []string{fmt.Sprintf(`"events" is not an array of events: %v`, err)}}
	}

	// Re-read the array as raw key sets: the typed unmarshal above cannot
	// tell a missing field from an empty one, and the schema requires
	// every declared string field to be present.
	var keys []eventKeys
	if err := json.Unmarshal(eventsRaw, &keys); err != nil {
		return nil, &SchemaError{Violations: []string{fmt.Sprintf(`"events" is not an array of events: %v`, err)}}
	}

	batch := &Batch{Events: events}
	if err := validateBatch(batch, keys); err != nil {
		return nil, err
	}
	return batch, nil
}

type eventKeys struct {
	fields  map[string]json.RawMessage
	sources []map[string]json.RawMessage
}

func (k *eventKeys) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &k.fields); err != nil {
		return err
	}
	if raw, ok := k.fields["sources"]; ok {
		return json.Unmarshal(raw, &k.sources)
	}
	return nil
}

func (k *eventKeys) has(key string) bool {
	_, ok := k.fields[key]
	return ok
}

func (k *eventKeys) sourceHas(j int, key string) bool {
	if j >= len(k.sources) {
		return false
	}
	_, ok := k.sources[j][key]
	return ok
}

// Declared string fields the schema requires on every event and source.
var (
	eventStringFields  = []string{"title", "eventDate", "summary"}
	sourceStringFields = []string{"url", "publisher", "headline"}
)

// validateBatch collects every schema violation in the batch rather than
// stopping at the first, so the terminal error names everything wrong with
// the response.
func validateBatch(batch *Batch, keys []eventKeys) error {
	var violations []string

	for i, event := range batch.Events {
		for _, field := range eventStringFields {
			if !keys[i].has(field) {
				violations = append(violations, fmt.Sprintf("events[%d]: missing %q", i, field))
			}
		}
		if keys[i].has("title") && strings.TrimSpace(event.Title) == "" {
			violations = append(violations, fmt.Sprintf("events[%d]: title is empty", i))
		}
		if keys[i].has("eventDate") {
			if _, err := fingerprint.ParseDate(event.EventDate); err != nil {
				violations = append(violations, fmt.Sprintf("events[%d]: %v", i, err))
			}
		}
		for j, source := range event.Sources {
			for _, field := range sourceStringFields {
				if !keys[i].sourceHas(j, field) {
					violations = append(violations, fmt.Sprintf("events[%d].sources[%d]: missing %q", i, j, field))
				}
			}
			if keys[i].sourceHas(j, "url") && !isValidURL(source.URL) {
				violations = append(violations, fmt.Sprintf("events[%d].sources[%d]: invalid url %q", i, j, source.URL))
			}
		}
	}

	if len(violations) > 0 {
		return &SchemaError{Violations: violations}
	}
	return nil
}

// isValidURL requires an absolute URI with a scheme and host
func isValidURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}
