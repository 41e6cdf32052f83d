package driver

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeTimeout   = 10 * time.Second
	maxMessageSize = 4 << 20 // 4 MiB, bounds one audio frame
)

// controlEvent is a text-frame JSON message exchanged with the driver.
type controlEvent struct {
	Type   string `json:"type"`
	Rate   int    `json:"rate,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Bridge accepts driver WebSocket connections and routes their frames to
// the registered session callbacks. Each session registers a one-time
// token before launching its driver; the driver presents the token when
// it connects.
type Bridge struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.Mutex
	pending map[string]*driverConn
}

// NewBridge creates a driver bridge.
func NewBridge(logger *slog.Logger) *Bridge {
	return &Bridge{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 << 10,
			WriteBufferSize: 64 << 10,
			// Drivers are local headless processes, not browsers with
			// meaningful origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger:  logger,
		pending: make(map[string]*driverConn),
	}
}

// Register reserves a connection token for a session and returns the
// driver handle. The handle is valid immediately; Stop before the driver
// connects simply cancels the reservation.
func (b *Bridge) Register(token string, events Events) Driver {
	conn := &driverConn{bridge: b, token: token, events: events}

	b.mu.Lock()
	b.pending[token] = conn
	b.mu.Unlock()

	return conn
}

// Unregister drops a pending token. No-op if the driver already
// connected or the token is unknown.
func (b *Bridge) Unregister(token string) {
	b.mu.Lock()
	delete(b.pending, token)
	b.mu.Unlock()
}

// HandleWS upgrades a driver connection and runs its read loop until the
// driver terminates or the connection drops.
func (b *Bridge) HandleWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	b.mu.Lock()
	conn, ok := b.pending[token]
	if ok {
		delete(b.pending, token)
	}
	b.mu.Unlock()

	if !ok {
		http.Error(w, "unknown driver token", http.StatusForbidden)
		return
	}

	ws, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Error("Driver upgrade failed", slog.String("error", err.Error()))
		return
	}
	ws.SetReadLimit(maxMessageSize)
	conn.attach(ws)

	b.logger.Info("Driver connected", slog.String("remote", ws.RemoteAddr().String()))
	b.readLoop(ws, conn.events)
}

func (b *Bridge) readLoop(ws *websocket.Conn, events Events) {
	terminated := false
	defer func() {
		ws.Close()
		if !terminated && events.OnTerminated != nil {
			events.OnTerminated(Disconnected)
		}
	}()

	for {
		msgType, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				b.logger.Warn("Driver connection lost", slog.String("error", err.Error()))
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			samples, err := DecodeFrame(data)
			if err != nil {
				b.logger.Warn("Discarding malformed audio frame",
					slog.Int("bytes", len(data)),
					slog.String("error", err.Error()),
				)
				continue
			}
			if events.OnAudioFrame != nil {
				events.OnAudioFrame(samples)
			}

		case websocket.TextMessage:
			var event controlEvent
			if err := json.Unmarshal(data, &event); err != nil {
				b.logger.Warn("Discarding malformed control event", slog.String("error", err.Error()))
				continue
			}

			switch event.Type {
			case "sample_rate":
				if events.OnSampleRate != nil {
					events.OnSampleRate(event.Rate)
				}
			case "terminated":
				terminated = true
				if events.OnTerminated != nil {
					events.OnTerminated(ParseReason(event.Reason))
				}
				return
			default:
				b.logger.Warn("Unknown control event", slog.String("type", event.Type))
			}
		}
	}
}

// DecodeFrame converts a binary driver frame into float32 samples.
func DecodeFrame(data []byte) ([]float32, error) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, fmt.Errorf("frame length %d is not a multiple of 4", len(data))
	}

	samples := make([]float32, len(data)/4)
	for i := range samples {
		bits := binary.LittleEndian.Uint32(data[i*4:])
		samples[i] = math.Float32frombits(bits)
	}
	return samples, nil
}

// ParseReason maps a driver-reported reason string to a Reason.
func ParseReason(s string) Reason {
	switch s {
	case "navigated_away", "meeting_ended":
		return NavigatedAway
	case "runtime_error":
		return RuntimeError
	default:
		return Disconnected
	}
}

// driverConn is the session-facing handle for one driver connection.
type driverConn struct {
	bridge *Bridge
	token  string
	events Events

	mu   sync.Mutex
	ws   *websocket.Conn
	done bool
}

func (c *driverConn) attach(ws *websocket.Conn) {
	c.mu.Lock()
	c.ws = ws
	c.mu.Unlock()
}

// Stop requests the driver to leave the conference. If the driver never
// connected, the pending token is dropped instead.
func (c *driverConn) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done {
		return nil
	}
	c.done = true

	if c.ws == nil {
		c.bridge.Unregister(c.token)
		return nil
	}

	msg, _ := json.Marshal(controlEvent{Type: "stop"})
	c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
		c.ws.Close()
		return fmt.Errorf("failed to send stop: %w", err)
	}
	return nil
}
