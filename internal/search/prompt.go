package search

import (
	"fmt"
	"strings"
	"time"

	"github.com/vigilhq/vigil/internal/types"
)

// Query describes one monitor's search: who to look for, in what topic,
// and which keywords signal relevance.
type Query struct {
	SubjectID string
	Subject   string
	Aliases   []string
	TopicID   string
	Topic     string
	Keywords  []string
}

// QueryFromMonitor builds the search query for a monitor
func QueryFromMonitor(m *types.Monitor) Query {
	return Query{
		SubjectID: m.SubjectID,
		Subject:   m.Subject,
		Aliases:   m.Aliases,
		TopicID:   m.TopicID,
		Topic:     m.Topic,
		Keywords:  m.Keywords,
	}
}

// Validate checks that the query carries enough to search on
func (q *Query) Validate() error {
	if strings.TrimSpace(q.SubjectID) == "" {
		return fmt.Errorf("query subject ID is required")
	}
	if strings.TrimSpace(q.Subject) == "" {
		return fmt.Errorf("query subject is required")
	}
	if strings.TrimSpace(q.Topic) == "" {
		return fmt.Errorf("query topic is required")
	}
	return nil
}

// buildPrompt renders the search prompt for a query. The window is anchored
// at now and extends windowDays into the past.
func buildPrompt(q Query, now time.Time, windowDays int) string {
	subject := q.Subject
	if len(q.Aliases) > 0 {
		subject = fmt.Sprintf("%s (also known as: %s)", q.Subject, strings.Join(q.Aliases, ", "))
	}

	topic := q.Topic
	if len(q.Keywords) > 0 {
		topic = fmt.Sprintf("%s (related keywords: %s)", q.Topic, strings.Join(q.Keywords, ", "))
	}

	windowStart := now.AddDate(0, 0, -windowDays)

	return fmt.Sprintf(`You are a public-affairs researcher tracking statements by public figures.

TASK: Find public events involving the subject below, on the topic below, between %s and %s (inclusive).

SUBJECT: %s
TOPIC: %s

An event is any occasion where the subject spoke or acted publicly: a speech, an interview, a formal statement, a parliamentary vote, a committee hearing, or a press conference.

IMPORTANT GUIDELINES:
1. Only report events within the date window. Older coverage of older events does not qualify.
2. Only report events where the subject is a direct participant, not merely mentioned.
3. Every event needs at least one source: a publicly accessible URL where the event is reported.
4. Quote the subject verbatim where possible. Do not paraphrase inside quotes.
5. Use the date the event happened, not the date it was reported.
6. If the same event is covered by several outlets, report it once with multiple sources.

OUTPUT FORMAT (JSON only, no markdown):
{
  "events": [
    {
      "title": "short factual headline for the event",
      "eventDate": "2026-01-15",
      "summary": "one or two sentences on what happened",
      "quotes": ["verbatim quote from the subject"],
      "sources": [
        {
          "url": "https://example.org/coverage",
          "publisher": "name of the outlet or institution",
          "headline": "headline of the source article"
        }
      ]
    }
  ]
}

If you find nothing relevant, respond with {"events": []}.

IMPORTANT: Respond with ONLY raw JSON. Do NOT wrap it in markdown code fences.`,
		windowStart.Format("2006-01-02"), now.Format("2006-01-02"), subject, topic)
}
