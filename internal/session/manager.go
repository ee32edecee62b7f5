// Package session implements the chat session manager: it owns the single
// WebSocket connection to the legal-chat backend, assembles streamed reply
// fragments into messages, and recovers from disconnects with exponential
// backoff.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/silsgah/Ghana-Legal-AI/internal/protocol"
)

// Status is the connection state visible to consumers.
type Status string

const (
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
	StatusError        Status = "error"
)

// Role identifies which side of the conversation a message belongs to.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in the conversation. Assistant messages grow in place
// while a reply streams; user messages are immutable once created.
type Message struct {
	ID        string
	Role      Role
	Content   string
	Timestamp time.Time
}

// Snapshot is a point-in-time copy of the session state.
type Snapshot struct {
	Messages  []Message
	Streaming bool
	Status    Status
	Attempts  int
}

// ErrNotConnected is returned by SendMessage when the channel is not open.
var ErrNotConnected = errors.New("not connected")

// Config holds the session manager settings. Zero values fall back to the
// production defaults.
type Config struct {
	// WSURL is the chat WebSocket endpoint.
	WSURL string
	// APIURL is the HTTP base URL for the reset-memory side channel.
	APIURL string
	// ExpertID is the initially selected expert persona.
	ExpertID string

	// BaseDelay is the first reconnect delay (default 1s). Each automatic
	// attempt doubles it, capped at MaxDelay (default 30s), for at most
	// MaxAttempts attempts (default 5).
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int

	// HTTPClient and Dialer override the transports, mainly for tests.
	HTTPClient *http.Client
	Dialer     *websocket.Dialer
}

func (c *Config) withDefaults() Config {
	cfg := *c
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 30 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	return cfg
}

// Manager owns one live WebSocket connection and at most one pending
// reconnect timer. A mutex serializes every event handler and API call, so
// message assembly needs no further coordination. Connection and timer
// handles carry generation counters; a stale reader or a superseded timer
// can never mutate state.
type Manager struct {
	cfg Config
	log *zap.Logger

	mu       sync.Mutex
	conn     *websocket.Conn
	connGen  int
	retry    *time.Timer
	retryGen int
	attempts int
	closed   bool

	expertID  string
	messages  []Message
	streaming bool
	status    Status

	updates chan struct{}
}

// New creates a session manager. It does not connect; call Connect.
func New(cfg Config, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		cfg:      cfg.withDefaults(),
		log:      log,
		expertID: cfg.ExpertID,
		status:   StatusDisconnected,
		updates:  make(chan struct{}, 1),
	}
}

// Connect opens the channel. Safe to call once after New.
func (m *Manager) Connect() {
	m.open()
}

// Reconnect resets the attempt counter, cancels any pending automatic
// retry, and re-opens the channel.
func (m *Manager) Reconnect() {
	m.mu.Lock()
	m.attempts = 0
	m.mu.Unlock()
	m.open()
}

// SetExpert switches the selected expert persona. The next SendMessage uses
// it; no reconnection is needed.
func (m *Manager) SetExpert(id string) {
	m.mu.Lock()
	m.expertID = id
	m.mu.Unlock()
}

// Expert returns the currently selected expert persona.
func (m *Manager) Expert() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expertID
}

// Snapshot returns a copy of the current session state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := make([]Message, len(m.messages))
	copy(msgs, m.messages)
	return Snapshot{
		Messages:  msgs,
		Streaming: m.streaming,
		Status:    m.status,
		Attempts:  m.attempts,
	}
}

// Updates returns a coalescing notification channel: a receive means the
// state changed since the last Snapshot.
func (m *Manager) Updates() <-chan struct{} {
	return m.updates
}

// SendMessage appends a user message and sends it with the currently
// selected expert. Returns ErrNotConnected, with no state change, when the
// channel is not open.
func (m *Manager) SendMessage(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.status != StatusConnected || m.conn == nil {
		m.log.Warn("send attempted while not connected", zap.String("status", string(m.status)))
		return ErrNotConnected
	}

	m.appendMessageLocked(RoleUser, text)
	m.notifyLocked()

	req := protocol.ChatRequest{Message: text, ExpertID: m.expertID}
	if err := m.conn.WriteJSON(req); err != nil {
		// The read loop observes the broken connection and drives recovery.
		m.log.Warn("failed to write chat request", zap.Error(err))
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// ResetChat asks the backend to drop its conversation memory, then clears
// the local history. On any failure the local history is left untouched.
func (m *Manager) ResetChat(ctx context.Context) error {
	url := strings.TrimSuffix(m.cfg.APIURL, "/") + "/reset-memory"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("build reset request: %w", err)
	}

	resp, err := m.cfg.HTTPClient.Do(req)
	if err != nil {
		m.log.Warn("reset-memory request failed, keeping local history", zap.Error(err))
		return fmt.Errorf("reset memory: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		m.log.Warn("reset-memory rejected, keeping local history", zap.Int("status", resp.StatusCode))
		return fmt.Errorf("reset memory: unexpected status %d", resp.StatusCode)
	}

	m.mu.Lock()
	m.messages = nil
	m.notifyLocked()
	m.mu.Unlock()
	return nil
}

// Close tears the session down: the pending retry timer is invalidated and
// the connection closed as one step, so no timer can fire into a dead
// session.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.cancelRetryLocked()
	conn := m.conn
	m.conn = nil
	m.connGen++
	m.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

// open supersedes any existing connection and pending retry, then dials in
// the background.
func (m *Manager) open() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.cancelRetryLocked()
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
	m.connGen++
	gen := m.connGen
	m.status = StatusConnecting
	m.notifyLocked()
	m.mu.Unlock()

	go m.dial(gen)
}

func (m *Manager) dial(gen int) {
	conn, resp, err := m.cfg.Dialer.Dial(m.cfg.WSURL, nil)
	if err != nil && resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || gen != m.connGen {
		if conn != nil {
			conn.Close()
		}
		return
	}

	if err != nil {
		m.log.Warn("websocket dial failed", zap.String("url", m.cfg.WSURL), zap.Error(err))
		m.status = StatusError
		m.notifyLocked()
		m.streaming = false
		m.status = StatusDisconnected
		m.scheduleRetryLocked()
		m.notifyLocked()
		return
	}

	m.conn = conn
	m.status = StatusConnected
	m.attempts = 0
	m.notifyLocked()

	go m.readLoop(conn, gen)
}

func (m *Manager) readLoop(conn *websocket.Conn, gen int) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			m.handleClosed(gen, err)
			return
		}
		m.handleFrame(gen, data)
	}
}

func (m *Manager) handleFrame(gen int, data []byte) {
	frame, err := protocol.Decode(data)
	if err != nil {
		m.log.Warn("dropping malformed frame", zap.Error(err))
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || gen != m.connGen {
		return
	}

	switch frame.Kind() {
	case protocol.KindStreamStart:
		m.streaming = true
	case protocol.KindChunk:
		m.appendChunkLocked(*frame.Chunk)
	case protocol.KindStreamEnd:
		m.streaming = false
	case protocol.KindError:
		m.streaming = false
		m.appendMessageLocked(RoleAssistant, "Sorry, something went wrong: "+*frame.Error)
	default:
		m.log.Warn("dropping unrecognized frame", zap.ByteString("frame", data))
		return
	}
	m.notifyLocked()
}

func (m *Manager) handleClosed(gen int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || gen != m.connGen {
		return
	}

	if err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		m.log.Warn("websocket closed", zap.Error(err))
	}

	m.conn = nil
	m.streaming = false
	m.status = StatusDisconnected
	m.scheduleRetryLocked()
	m.notifyLocked()
}

// appendChunkLocked grows the open assistant message, or opens one when the
// tail of the conversation is not an assistant message.
func (m *Manager) appendChunkLocked(chunk string) {
	if n := len(m.messages); n > 0 && m.messages[n-1].Role == RoleAssistant {
		m.messages[n-1].Content += chunk
		return
	}
	m.appendMessageLocked(RoleAssistant, chunk)
}

func (m *Manager) appendMessageLocked(role Role, content string) {
	m.messages = append(m.messages, Message{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
}

// scheduleRetryLocked arms the reconnect timer, unless the attempt budget
// is spent. The delay doubles per attempt: base, 2*base, 4*base, ... capped
// at MaxDelay.
func (m *Manager) scheduleRetryLocked() {
	if m.attempts >= m.cfg.MaxAttempts {
		m.log.Warn("reconnect attempts exhausted, waiting for manual reconnect",
			zap.Int("attempts", m.attempts))
		return
	}

	delay := backoffDelay(m.cfg.BaseDelay, m.cfg.MaxDelay, m.attempts)
	m.attempts++
	m.retryGen++
	gen := m.retryGen
	m.retry = time.AfterFunc(delay, func() {
		m.mu.Lock()
		if m.closed || gen != m.retryGen {
			m.mu.Unlock()
			return
		}
		m.retry = nil
		m.mu.Unlock()
		m.open()
	})
	m.log.Info("reconnect scheduled",
		zap.Duration("delay", delay), zap.Int("attempt", m.attempts))
}

// cancelRetryLocked invalidates then stops the pending retry timer, if any.
// Invalidation comes first so a timer that already fired cannot act.
func (m *Manager) cancelRetryLocked() {
	m.retryGen++
	if m.retry != nil {
		m.retry.Stop()
		m.retry = nil
	}
}

func (m *Manager) notifyLocked() {
	select {
	case m.updates <- struct{}{}:
	default:
	}
}

// backoffDelay returns the delay before automatic attempt number attempt
// (zero-based): min(base << attempt, max).
func backoffDelay(base, max time.Duration, attempt int) time.Duration {
	if attempt >= 30 {
		return max
	}
	d := base << uint(attempt)
	if d <= 0 || d > max {
		return max
	}
	return d
}
