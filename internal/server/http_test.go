package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/chiraglokhande04/AI-meet-Summarizer/internal/audio"
	"github.com/chiraglokhande04/AI-meet-Summarizer/internal/auth"
	"github.com/chiraglokhande04/AI-meet-Summarizer/internal/config"
	"github.com/chiraglokhande04/AI-meet-Summarizer/internal/driver"
	"github.com/chiraglokhande04/AI-meet-Summarizer/internal/meeting"
	"github.com/chiraglokhande04/AI-meet-Summarizer/internal/metrics"
	"github.com/chiraglokhande04/AI-meet-Summarizer/internal/session"
	"github.com/chiraglokhande04/AI-meet-Summarizer/internal/transcription"
)

type noopTranscriber struct{}

func (noopTranscriber) Transcribe(context.Context, audio.EncodedAudio) (string, error) {
	return "", nil
}

type noopAnalyzer struct{}

func (noopAnalyzer) Analyze(context.Context, string) (meeting.Analysis, error) {
	return meeting.Analysis{}, nil
}

type noopPublisher struct{}

func (noopPublisher) Upload(context.Context, []byte, string, string) (string, error) {
	return "", nil
}

type testEnv struct {
	server *httptest.Server
	store  *meeting.Store
	auth   *auth.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		t.Fatalf("Failed to open in-memory badger: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.NewMetricsWith(prometheus.NewRegistry())

	store := meeting.NewStore(db)
	authSvc := auth.NewService(db, time.Hour)
	bridge := driver.NewBridge(logger)
	pipeline := session.NewPipeline(noopTranscriber{}, noopAnalyzer{}, noopPublisher{}, session.PipelineConfig{}, m, logger)
	mgr := session.NewManager(bridge, pipeline, store, session.ManagerConfig{}, m, logger)

	transcribe, err := transcription.NewClient(transcription.Config{
		Endpoint: "http://localhost:1",
		APIKey:   "test",
	})
	if err != nil {
		t.Fatalf("Failed to create transcription client: %v", err)
	}

	h := NewHTTPServer(config.HTTPConfig{Port: 8080, Address: "127.0.0.1"},
		logger, mgr, store, authSvc, bridge, transcribe, m)

	ts := httptest.NewServer(h.Handler())
	t.Cleanup(ts.Close)

	return &testEnv{server: ts, store: store, auth: authSvc}
}

func (e *testEnv) register(t *testing.T, email, password string) {
	t.Helper()
	resp := e.post(t, "/api/auth/register", "", map[string]string{"email": email, "password": password})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Register returned %d", resp.StatusCode)
	}
}

func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	resp := e.post(t, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Login returned %d", resp.StatusCode)
	}
	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode login response: %v", err)
	}
	return body.Token
}

func (e *testEnv) post(t *testing.T, path, token string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, e.server.URL+path, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	return resp
}

func (e *testEnv) get(t *testing.T, path, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, e.server.URL+path, nil)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	return resp
}

func TestRegisterLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	env.register(t, "alice@example.com", "password123")
	token := env.login(t, "alice@example.com", "password123")
	if token == "" {
		t.Fatal("Expected a token")
	}

	resp := env.post(t, "/api/auth/register", "", map[string]string{"email": "alice@example.com", "password": "password456"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("Expected 409 for duplicate email, got %d", resp.StatusCode)
	}
}

func TestBotStartRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, "/api/bot/start", "", map[string]string{"meetingUrl": "https://meet.google.com/abc"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", resp.StatusCode)
	}
}

func TestBotStartAccepted(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "bob@example.com", "password123")
	token := env.login(t, "bob@example.com", "password123")

	resp := env.post(t, "/api/bot/start", token, map[string]string{"meetingUrl": "https://meet.google.com/abc-defg-hij?hs=187"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d", resp.StatusCode)
	}

	var body struct {
		SessionID   string `json:"sessionId"`
		DriverToken string `json:"driverToken"`
		Status      string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.SessionID != "abc-defg-hij" {
		t.Errorf("Unexpected session id %q", body.SessionID)
	}
	if body.DriverToken == "" {
		t.Error("Expected a driver token")
	}

	// Second launch for the same meeting conflicts.
	resp2 := env.post(t, "/api/bot/start", token, map[string]string{"meetingUrl": "https://meet.google.com/abc-defg-hij"})
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusConflict {
		t.Errorf("Expected 409 for duplicate launch, got %d", resp2.StatusCode)
	}
}

func TestMeetingsListPagination(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "carol@example.com", "password123")
	token := env.login(t, "carol@example.com", "password123")

	userID, err := env.auth.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}

	for i := 0; i < 15; i++ {
		rec := meeting.Assemble(meeting.SessionMeta{
			SessionID: fmt.Sprintf("mtg-%02d", i),
			UserID:    userID,
			StartedAt: time.Now().Add(time.Duration(-i) * time.Hour),
			Duration:  10 * time.Minute,
		}, meeting.PipelineOutput{})
		if err := env.store.Create(context.Background(), rec); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	resp := env.get(t, "/api/meetings?page=2&limit=10", token)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var page meeting.Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("Failed to decode page: %v", err)
	}
	if page.TotalMeetings != 15 {
		t.Errorf("Expected 15 total meetings, got %d", page.TotalMeetings)
	}
	if page.TotalPages != 2 {
		t.Errorf("Expected 2 total pages, got %d", page.TotalPages)
	}
	if page.CurrentPage != 2 {
		t.Errorf("Expected current page 2, got %d", page.CurrentPage)
	}
	if len(page.Meetings) != 5 {
		t.Errorf("Expected 5 meetings on page 2, got %d", len(page.Meetings))
	}
}

func TestMeetingDetailOwnership(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "dave@example.com", "password123")
	env.register(t, "eve@example.com", "password123")
	daveToken := env.login(t, "dave@example.com", "password123")
	eveToken := env.login(t, "eve@example.com", "password123")

	daveID, err := env.auth.Authenticate(context.Background(), daveToken)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}

	rec := meeting.Assemble(meeting.SessionMeta{
		SessionID: "private-mtg",
		UserID:    daveID,
		StartedAt: time.Now(),
		Duration:  5 * time.Minute,
	}, meeting.PipelineOutput{})
	if err := env.store.Create(context.Background(), rec); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	resp := env.get(t, "/api/meetings/"+rec.ID, daveToken)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 for owner, got %d", resp.StatusCode)
	}

	resp2 := env.get(t, "/api/meetings/"+rec.ID, eveToken)
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusForbidden {
		t.Errorf("Expected 403 for non-owner, got %d", resp2.StatusCode)
	}

	resp3 := env.get(t, "/api/meetings/does-not-exist", daveToken)
	defer resp3.Body.Close()
	if resp3.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown meeting, got %d", resp3.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/health", "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode health response: %v", err)
	}
	if body.Status != "healthy" {
		t.Errorf("Unexpected status %q", body.Status)
	}
}

func TestStatsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/stats", "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
}
