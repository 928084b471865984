package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigilhq/vigil/internal/types"
)

func TestBuildPromptWindow(t *testing.T) {
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	prompt := buildPrompt(testQuery(), now, 2)

	assert.Contains(t, prompt, "between 2026-08-24 and 2026-08-26")
}

func TestBuildPromptSubjectAndTopic(t *testing.T) {
	prompt := buildPrompt(testQuery(), time.Now(), 2)

	assert.Contains(t, prompt, "Jane Doe (also known as: J. Doe)")
	assert.Contains(t, prompt, "Energy policy (related keywords: renewables, grid)")
}

func TestBuildPromptBareSubject(t *testing.T) {
	q := Query{
		SubjectID: "subject-jane-doe",
		Subject:   "Jane Doe",
		TopicID:   "topic-energy",
		Topic:     "Energy policy",
	}
	prompt := buildPrompt(q, time.Now(), 2)

	assert.Contains(t, prompt, "SUBJECT: Jane Doe\n")
	assert.NotContains(t, prompt, "also known as")
	assert.NotContains(t, prompt, "related keywords")
}

func TestBuildPromptOutputContract(t *testing.T) {
	prompt := buildPrompt(testQuery(), time.Now(), 2)

	assert.Contains(t, prompt, `respond with {"events": []}`)
	assert.Contains(t, prompt, "Respond with ONLY raw JSON")
}

func TestQueryValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Query)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*Query) {},
		},
		{
			name:    "missing subject ID",
			mutate:  func(q *Query) { q.SubjectID = "" },
			wantErr: "subject ID is required",
		},
		{
			name:    "missing subject",
			mutate:  func(q *Query) { q.Subject = "  " },
			wantErr: "subject is required",
		},
		{
			name:    "missing topic",
			mutate:  func(q *Query) { q.Topic = "" },
			wantErr: "topic is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := testQuery()
			tt.mutate(&q)

			err := q.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestQueryFromMonitor(t *testing.T) {
	monitor := &types.Monitor{
		ID:        "mon-1",
		SubjectID: "subject-jane-doe",
		Subject:   "Jane Doe",
		Aliases:   []string{"J. Doe"},
		TopicID:   "topic-energy",
		Topic:     "Energy policy",
		Keywords:  []string{"renewables"},
	}

	q := QueryFromMonitor(monitor)
	assert.Equal(t, "subject-jane-doe", q.SubjectID)
	assert.Equal(t, "Jane Doe", q.Subject)
	assert.Equal(t, []string{"J. Doe"}, q.Aliases)
	assert.Equal(t, "topic-energy", q.TopicID)
	assert.Equal(t, "Energy policy", q.Topic)
	assert.Equal(t, []string{"renewables"}, q.Keywords)
}
