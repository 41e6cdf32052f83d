package session

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/chiraglokhande04/AI-meet-Summarizer/internal/audio"
)

// Session is one active recording session. All mutable capture state
// lives in the Buffer; the finalized flag guarantees the teardown
// sequence runs at most once however many termination signals race.
type Session struct {
	ID          string
	UserID      string
	MeetingURL  string
	DriverToken string
	StartedAt   time.Time

	Buffer *audio.Buffer

	finalized atomic.Bool
}

// NewSession creates a session for a parsed meeting URL.
func NewSession(id, userID, meetingURL, driverToken string) *Session {
	return &Session{
		ID:          id,
		UserID:      userID,
		MeetingURL:  meetingURL,
		DriverToken: driverToken,
		StartedAt:   time.Now(),
		Buffer:      audio.NewBuffer(),
	}
}

// TryFinalize claims the finalization slot. Exactly one caller across
// all goroutines gets true; everyone else gets false.
func (s *Session) TryFinalize() bool {
	return s.finalized.CompareAndSwap(false, true)
}

// Finalized reports whether finalization has been claimed.
func (s *Session) Finalized() bool {
	return s.finalized.Load()
}

// ParseSessionID extracts the session identifier from a meeting URL:
// the last path segment with any query string stripped.
func ParseSessionID(meetingURL string) (string, error) {
	trimmed := strings.TrimSpace(meetingURL)
	if trimmed == "" {
		return "", fmt.Errorf("meeting URL cannot be empty")
	}

	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	trimmed = strings.TrimRight(trimmed, "/")

	id := trimmed
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		id = trimmed[i+1:]
	}
	if id == "" {
		return "", fmt.Errorf("meeting URL %q has no path segment", meetingURL)
	}
	return id, nil
}
