package meeting

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ActionItem is one task extracted from the meeting by analysis.
type ActionItem struct {
	Task        string `json:"task"`
	Assignee    string `json:"assignee"`
	Deadline    string `json:"deadline"`
	IsCompleted bool   `json:"isCompleted"`
}

// Sentiment is the meeting sentiment distribution. The three values are
// non-negative and approximately sum to 100.
type Sentiment struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// Analysis is the structured meeting intelligence produced from a
// transcript: summary, action items, and sentiment distribution.
type Analysis struct {
	Summary     string       `json:"summary"`
	ActionItems []ActionItem `json:"actionItems"`
	Sentiment   Sentiment    `json:"sentiment"`
}

// Record is the persisted meeting aggregate. It is created exactly once per
// session and never edited in place.
type Record struct {
	ID            string       `json:"id"`
	UserID        string       `json:"userId"`
	Title         string       `json:"title"`
	Date          string       `json:"date"`
	StartTime     time.Time    `json:"startTime"`
	Duration      string       `json:"duration"`
	Transcript    string       `json:"transcript"`
	Summary       string       `json:"summary"`
	ActionItems   []ActionItem `json:"actionItems"`
	Sentiment     Sentiment    `json:"sentiment"`
	AudioURL      string       `json:"audioUrl,omitempty"`
	TranscriptURL string       `json:"transcriptUrl,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
}

// SessionMeta carries the session identity the assembler needs. It is
// provided by the session controller at finalization.
type SessionMeta struct {
	SessionID string
	UserID    string
	StartedAt time.Time
	Duration  time.Duration
}

// PipelineOutput bundles the joined results of the post-processing
// pipeline, already degraded where individual branches failed.
type PipelineOutput struct {
	AudioURL      string
	Transcript    string
	Analysis      Analysis
	TranscriptURL string
}

// Assemble merges session metadata and pipeline outputs into one Record.
// It performs no I/O and no mutation of its inputs.
func Assemble(meta SessionMeta, out PipelineOutput) *Record {
	transcript := out.Transcript
	if transcript == "" {
		transcript = "No transcript generated."
	}

	items := make([]ActionItem, len(out.Analysis.ActionItems))
	copy(items, out.Analysis.ActionItems)
	for i := range items {
		if items[i].Assignee == "" {
			items[i].Assignee = "Team Member"
		}
		if items[i].Deadline == "" {
			items[i].Deadline = "TBD"
		}
	}

	now := time.Now()

	return &Record{
		ID:            uuid.NewString(),
		UserID:        meta.UserID,
		Title:         fmt.Sprintf("Meeting %s", meta.SessionID),
		Date:          meta.StartedAt.UTC().Format("2006-01-02"),
		StartTime:     meta.StartedAt,
		Duration:      formatDuration(meta.Duration),
		Transcript:    transcript,
		Summary:       out.Analysis.Summary,
		ActionItems:   items,
		Sentiment:     out.Analysis.Sentiment,
		AudioURL:      out.AudioURL,
		TranscriptURL: out.TranscriptURL,
		CreatedAt:     now,
	}
}

// formatDuration renders a session duration the way the listing UI shows
// it, rounded to whole minutes with a floor of "0 min".
func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0 min"
	}
	minutes := int(d.Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%d min", minutes)
}
