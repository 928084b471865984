// Package fingerprint derives the content-addressed identity keys used to
// deduplicate events and sources. Keys are deterministic: the same inputs
// always produce the same key, so re-ingesting a report of an event the
// store already holds collides on the key instead of creating a second row.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Date layouts accepted from the search collaborator, most specific first.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// NormalizeTitle lowercases a title and strips every character that is not
// an ASCII letter or digit. Punctuation and whitespace carry no identity:
// "PM Speaks on Climate!" and "pm speaks on climate" normalize identically.
func NormalizeTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ParseDate parses an event date as reported by the search collaborator.
// Several layouts are accepted because models are loose about formats.
func ParseDate(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("empty event date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable event date: %q", raw)
}

// Day truncates a timestamp to day precision in UTC. Two reports of the
// same event on the same calendar day collide regardless of clock time.
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DayKey renders a timestamp as the YYYY-MM-DD day string used inside keys.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Event returns the deduplication key for an event: a hex-encoded sha256
// digest over the normalized title, the UTC day, and the subject.
func Event(title string, eventDate time.Time, subjectID string) string {
	material := NormalizeTitle(title) + "-" + DayKey(eventDate) + "-" + subjectID
	sum := sha256.Sum256([]byte(material))
	return hex.EncodeToString(sum[:])
}

// URL returns the content fingerprint recorded for a source citation.
func URL(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(sum[:])
}
