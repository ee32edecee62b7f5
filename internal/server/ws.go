package server

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/silsgah/Ghana-Legal-AI/internal/expert"
	"github.com/silsgah/Ghana-Legal-AI/internal/protocol"
)

// errInvalidFormat mirrors the wording clients already handle.
const errInvalidFormat = "Invalid message format. Required fields: 'message' and 'expert_id'"

// chatConn wraps a WebSocket connection with a write lock so the reply
// stream and the keepalive pinger never interleave writes.
type chatConn struct {
	ws *websocket.Conn
	mu sync.Mutex

	writeTimeout time.Duration
}

func (c *chatConn) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.ws.WriteJSON(v)
}

func (c *chatConn) writeControl(messageType int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.ws.WriteMessage(messageType, nil)
}

// handleChat upgrades the request and serves chat requests until the client
// disconnects. Requests are handled one at a time per connection; a reply
// is fully streamed before the next request is read.
func (s *Server) handleChat(c echo.Context) error {
	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.log.Warn("failed to upgrade websocket", zap.Error(err))
		return err
	}
	defer ws.Close()

	conn := &chatConn{ws: ws, writeTimeout: s.cfg.Server.WriteTimeout}
	ws.SetReadLimit(s.cfg.Server.MaxMessageSize)
	ws.SetReadDeadline(time.Now().Add(s.cfg.Server.ReadTimeout))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(s.cfg.Server.ReadTimeout))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go s.pingLoop(conn, done)

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.log.Warn("websocket read failed", zap.Error(err))
			}
			return nil
		}
		ws.SetReadDeadline(time.Now().Add(s.cfg.Server.ReadTimeout))
		s.serveChatRequest(conn, data)
	}
}

// pingLoop keeps the connection alive until the read loop finishes.
func (s *Server) pingLoop(conn *chatConn, done <-chan struct{}) {
	ticker := time.NewTicker(s.cfg.Server.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.writeControl(websocket.PingMessage); err != nil {
				return
			}
		}
	}
}

// serveChatRequest validates one inbound request and streams the reply.
func (s *Server) serveChatRequest(conn *chatConn, data []byte) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		conn.writeJSON(protocol.ErrorFrame(errInvalidFormat))
		return
	}
	if _, ok := raw["message"]; !ok {
		conn.writeJSON(protocol.ErrorFrame(errInvalidFormat))
		return
	}
	if _, ok := raw["expert_id"]; !ok {
		conn.writeJSON(protocol.ErrorFrame(errInvalidFormat))
		return
	}

	var req protocol.ChatRequest
	if err := json.Unmarshal(data, &req); err != nil {
		conn.writeJSON(protocol.ErrorFrame(errInvalidFormat))
		return
	}

	ex, err := expert.Get(req.ExpertID)
	if err != nil {
		conn.writeJSON(protocol.ErrorFrame(err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	history, err := s.store.History(ctx, ex.ID, historyLimit)
	if err != nil {
		s.log.Warn("failed to load conversation history", zap.Error(err))
		history = nil
	}

	if err := conn.writeJSON(protocol.StreamStart()); err != nil {
		return
	}

	var full strings.Builder
	err = s.responder.Respond(ctx, ex, history, req.Message, func(chunk string) error {
		full.WriteString(chunk)
		return conn.writeJSON(protocol.ChunkFrame(chunk))
	})
	if err != nil {
		s.log.Warn("responder failed", zap.String("expert", ex.ID), zap.Error(err))
		conn.writeJSON(protocol.ErrorFrame(err.Error()))
		return
	}

	if err := conn.writeJSON(protocol.StreamEnd(full.String())); err != nil {
		return
	}

	if err := s.store.AppendTurn(ctx, ex.ID, "user", req.Message); err != nil {
		s.log.Warn("failed to record user turn", zap.Error(err))
	}
	if err := s.store.AppendTurn(ctx, ex.ID, "assistant", full.String()); err != nil {
		s.log.Warn("failed to record assistant turn", zap.Error(err))
	}
}
