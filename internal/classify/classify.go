// Package classify maps free-text titles and publisher names onto the
// closed category sets persisted with events and sources. Rules are ordered
// keyword matches; every input classifies to something, so callers never
// branch on an error here.
package classify

import (
	"strings"

	"github.com/vigilhq/vigil/internal/types"
)

type eventRule struct {
	keywords  []string
	eventType types.EventType
}

type sourceRule struct {
	keywords   []string
	sourceType types.SourceType
}

// Rule order matters: the first rule with any matching keyword wins.
var eventRules = []eventRule{
	{[]string{"speech", "address", "speak"}, types.EventSpeech},
	{[]string{"interview"}, types.EventInterview},
	{[]string{"statement", "announce"}, types.EventStatement},
	{[]string{"vote", "voted"}, types.EventVote},
	{[]string{"hearing", "committee"}, types.EventHearing},
	{[]string{"press", "conference"}, types.EventPressConference},
}

var sourceRules = []sourceRule{
	{[]string{"parliament", "hansard"}, types.SourceHansard},
	{[]string{"committee"}, types.SourceCommittee},
	{[]string{"press", "release"}, types.SourcePressRelease},
}

// ForTitle categorizes an event from its title. Titles that match no rule
// default to statement.
func ForTitle(title string) types.EventType {
	lower := strings.ToLower(title)
	for _, rule := range eventRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.eventType
			}
		}
	}
	return types.EventStatement
}

// ForPublisher categorizes a source from its publisher name. Publishers
// that match no rule default to media.
func ForPublisher(publisher string) types.SourceType {
	lower := strings.ToLower(publisher)
	for _, rule := range sourceRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.sourceType
			}
		}
	}
	return types.SourceMedia
}
