package types

import (
	"fmt"
	"time"
)

// Monitor pairs a watched subject with a topic of interest. Each pipeline
// run fetches candidate events for one monitor and records when it last ran.
type Monitor struct {
	ID        string     `json:"id"`
	SubjectID string     `json:"subject_id"`
	Subject   string     `json:"subject"`
	Aliases   []string   `json:"aliases,omitempty"`
	TopicID   string     `json:"topic_id"`
	Topic     string     `json:"topic"`
	Keywords  []string   `json:"keywords,omitempty"`
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Validate checks if the monitor has valid field values
func (m *Monitor) Validate() error {
	if m.SubjectID == "" {
		return fmt.Errorf("subject_id is required")
	}
	if m.Subject == "" {
		return fmt.Errorf("subject is required")
	}
	if m.TopicID == "" {
		return fmt.Errorf("topic_id is required")
	}
	if m.Topic == "" {
		return fmt.Errorf("topic is required")
	}
	return nil
}

// Event is a deduplicated record of something a subject did or said.
// Its fingerprint is derived from the normalized title, the event day,
// and the subject, and is unique across the whole store.
type Event struct {
	ID          string    `json:"id"`
	SubjectID   string    `json:"subject_id"`
	TopicID     string    `json:"topic_id"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary,omitempty"`
	EventDate   time.Time `json:"event_date"`
	EventType   EventType `json:"event_type"`
	Fingerprint string    `json:"fingerprint"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate checks if the event has valid field values
func (e *Event) Validate() error {
	if e.Title == "" {
		return fmt.Errorf("title is required")
	}
	if e.SubjectID == "" {
		return fmt.Errorf("subject_id is required")
	}
	if e.TopicID == "" {
		return fmt.Errorf("topic_id is required")
	}
	if e.EventDate.IsZero() {
		return fmt.Errorf("event_date is required")
	}
	if !e.EventType.IsValid() {
		return fmt.Errorf("invalid event type: %s", e.EventType)
	}
	if e.Fingerprint == "" {
		return fmt.Errorf("fingerprint is required")
	}
	return nil
}

// Source is a published citation for an event. The URL is unique across
// the whole store, not per event: the first event to cite a URL owns the
// row and later events reuse it.
type Source struct {
	ID                 string     `json:"id"`
	EventID            string     `json:"event_id"`
	URL                string     `json:"url"`
	Headline           string     `json:"headline,omitempty"`
	Publisher          string     `json:"publisher,omitempty"`
	PublishedAt        time.Time  `json:"published_at"`
	SourceType         SourceType `json:"source_type"`
	ContentFingerprint string     `json:"content_fingerprint"`
	KeyQuotes          []string   `json:"key_quotes,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// Validate checks if the source has valid field values
func (s *Source) Validate() error {
	if s.EventID == "" {
		return fmt.Errorf("event_id is required")
	}
	if s.URL == "" {
		return fmt.Errorf("url is required")
	}
	if !s.SourceType.IsValid() {
		return fmt.Errorf("invalid source type: %s", s.SourceType)
	}
	return nil
}

// EventType categorizes what kind of public activity an event records
type EventType string

const (
	EventSpeech          EventType = "speech"
	EventInterview       EventType = "interview"
	EventStatement       EventType = "statement"
	EventVote            EventType = "vote"
	EventHearing         EventType = "hearing"
	EventPressConference EventType = "press_conference"
)

// IsValid checks if the event type value is valid
func (t EventType) IsValid() bool {
	switch t {
	case EventSpeech, EventInterview, EventStatement, EventVote, EventHearing, EventPressConference:
		return true
	}
	return false
}

// SourceType categorizes where a citation was published
type SourceType string

const (
	SourceHansard      SourceType = "hansard"
	SourceCommittee    SourceType = "committee"
	SourcePressRelease SourceType = "press_release"
	SourceMedia        SourceType = "media"
)

// IsValid checks if the source type value is valid
func (t SourceType) IsValid() bool {
	switch t {
	case SourceHansard, SourceCommittee, SourcePressRelease, SourceMedia:
		return true
	}
	return false
}
