package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chiraglokhande04/AI-meet-Summarizer/internal/audio"
	"github.com/chiraglokhande04/AI-meet-Summarizer/internal/driver"
	"github.com/chiraglokhande04/AI-meet-Summarizer/internal/meeting"
	"github.com/chiraglokhande04/AI-meet-Summarizer/internal/metrics"
)

// DriverRegistry connects sessions to capture drivers. The WebSocket
// bridge satisfies this interface.
type DriverRegistry interface {
	Register(token string, events driver.Events) driver.Driver
}

// RecordStore persists finalized meeting records.
type RecordStore interface {
	Create(ctx context.Context, rec *meeting.Record) error
}

// ManagerConfig contains session manager configuration.
type ManagerConfig struct {
	// FallbackSampleRate is assumed for sessions whose driver never
	// reports a capture rate. Zero means 48000 Hz.
	FallbackSampleRate int
}

// ManagerStats is a snapshot of manager counters for the stats endpoint.
type ManagerStats struct {
	ActiveSessions    int    `json:"active_sessions"`
	SessionsLaunched  uint64 `json:"sessions_launched"`
	SessionsFinalized uint64 `json:"sessions_finalized"`
	PersistFailures   uint64 `json:"persist_failures"`
}

// Manager owns all active recording sessions. Launch starts capture for
// a meeting URL; any termination signal (driver event, connection drop,
// shutdown) funnels through finalize, which runs the teardown sequence
// exactly once per session.
type Manager struct {
	registry DriverRegistry
	pipeline *Pipeline
	store    RecordStore
	config   ManagerConfig
	metrics  *metrics.Metrics
	logger   *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
	drivers  map[string]driver.Driver

	sessionsLaunched  uint64
	sessionsFinalized uint64
	persistFailures   uint64

	// Tracks in-flight finalization goroutines for shutdown.
	finalizeWG sync.WaitGroup
}

// NewManager creates a session manager.
func NewManager(registry DriverRegistry, pipeline *Pipeline, store RecordStore, config ManagerConfig, m *metrics.Metrics, logger *slog.Logger) *Manager {
	return &Manager{
		registry: registry,
		pipeline: pipeline,
		store:    store,
		config:   config,
		metrics:  m,
		logger:   logger,
		sessions: make(map[string]*Session),
		drivers:  make(map[string]driver.Driver),
	}
}

// Launch starts a recording session for a meeting URL and returns the
// session id and the one-time driver connection token. A second launch
// for the same meeting while a session is active is rejected.
func (m *Manager) Launch(meetingURL, userID string) (sessionID, driverToken string, err error) {
	id, err := ParseSessionID(meetingURL)
	if err != nil {
		return "", "", err
	}

	token := uuid.NewString()
	sess := NewSession(id, userID, meetingURL, token)
	if m.config.FallbackSampleRate > 0 {
		sess.Buffer = audio.NewBufferWithFallback(m.config.FallbackSampleRate)
	}

	m.mu.Lock()
	if _, exists := m.sessions[id]; exists {
		m.mu.Unlock()
		return "", "", fmt.Errorf("session %s is already being recorded", id)
	}
	m.sessions[id] = sess
	m.sessionsLaunched++
	active := len(m.sessions)
	m.mu.Unlock()

	d := m.registry.Register(token, driver.Events{
		OnAudioFrame: func(samples []float32) {
			if sess.Buffer.Append(samples) {
				m.metrics.RecordFrameReceived()
			} else {
				m.metrics.RecordFrameDropped()
				m.logger.Debug("Dropped audio frame after finalization",
					slog.String("session_id", id),
					slog.Int("samples", len(samples)),
				)
			}
		},
		OnSampleRate: func(rate int) {
			if !sess.Buffer.SetSampleRate(rate) {
				m.logger.Debug("Ignoring sample rate report",
					slog.String("session_id", id),
					slog.Int("rate", rate),
				)
			}
		},
		OnTerminated: func(reason driver.Reason) {
			m.Finalize(id, reason.String())
		},
	})

	m.mu.Lock()
	m.drivers[id] = d
	m.mu.Unlock()

	m.metrics.RecordSessionLaunched()
	m.metrics.SetActiveSessions(active)

	m.logger.Info("Recording session launched",
		slog.String("session_id", id),
		slog.String("user_id", userID),
		slog.String("meeting_url", meetingURL),
	)

	return id, token, nil
}

// GetSession retrieves an active session.
func (m *Manager) GetSession(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	return sess, ok
}

// GetStats returns a snapshot of manager counters.
func (m *Manager) GetStats() ManagerStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return ManagerStats{
		ActiveSessions:    len(m.sessions),
		SessionsLaunched:  m.sessionsLaunched,
		SessionsFinalized: m.sessionsFinalized,
		PersistFailures:   m.persistFailures,
	}
}

// Finalize requests teardown of a session. The first signal wins and
// starts the teardown goroutine; later signals for the same session are
// counted and dropped.
func (m *Manager) Finalize(id, cause string) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return
	}

	if !sess.TryFinalize() {
		m.metrics.RecordFinalizeRejection()
		m.logger.Debug("Ignoring duplicate finalization signal",
			slog.String("session_id", id),
			slog.String("cause", cause),
		)
		return
	}

	m.logger.Info("Finalizing session",
		slog.String("session_id", id),
		slog.String("cause", cause),
	)

	m.finalizeWG.Add(1)
	go func() {
		defer m.finalizeWG.Done()
		m.runFinalization(sess)
	}()
}

// runFinalization executes the teardown sequence: stop the driver, seal
// the buffer, encode, run the pipeline, persist the record, and release
// the session slot. Persistence is the only step whose failure aborts
// the attempt; everything before it degrades.
func (m *Manager) runFinalization(sess *Session) {
	m.mu.RLock()
	d := m.drivers[sess.ID]
	m.mu.RUnlock()

	if d != nil {
		if err := d.Stop(); err != nil {
			m.logger.Warn("Failed to stop driver",
				slog.String("session_id", sess.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	sess.Buffer.Close()
	samples := sess.Buffer.Snapshot()
	sampleRate := sess.Buffer.SampleRate()
	sessionDuration := time.Since(sess.StartedAt)

	enc, err := audio.Encode(samples, sampleRate)
	if err != nil {
		m.logger.Error("Failed to encode captured audio",
			slog.String("session_id", sess.ID),
			slog.String("error", err.Error()),
		)
	}
	if enc.Empty() {
		m.metrics.RecordEmptyEncode()
	}

	ctx := context.Background()
	out := m.pipeline.Run(ctx, sess.ID, enc)

	record := meeting.Assemble(meeting.SessionMeta{
		SessionID: sess.ID,
		UserID:    sess.UserID,
		StartedAt: sess.StartedAt,
		Duration:  sessionDuration,
	}, out)

	if err := m.store.Create(ctx, record); err != nil {
		m.metrics.RecordPersistFailure()
		m.mu.Lock()
		m.persistFailures++
		m.mu.Unlock()
		m.logger.Error("Failed to persist meeting record",
			slog.String("session_id", sess.ID),
			slog.String("record_id", record.ID),
			slog.String("error", err.Error()),
		)
	} else {
		m.metrics.RecordRecordPersisted()
		m.logger.Info("Meeting record persisted",
			slog.String("session_id", sess.ID),
			slog.String("record_id", record.ID),
			slog.Duration("session_duration", sessionDuration),
		)
	}

	m.mu.Lock()
	delete(m.sessions, sess.ID)
	delete(m.drivers, sess.ID)
	m.sessionsFinalized++
	active := len(m.sessions)
	m.mu.Unlock()

	m.metrics.RecordSessionFinalized(sessionDuration.Seconds())
	m.metrics.SetActiveSessions(active)
}

// Stop finalizes every active session and waits for teardown to finish
// or the context to expire.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	for _, id := range ids {
		m.Finalize(id, "shutdown")
	}

	done := make(chan struct{})
	go func() {
		m.finalizeWG.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timed out with sessions still finalizing: %w", ctx.Err())
	}
}
