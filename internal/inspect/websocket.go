package inspect

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 64 << 10
	sendBuffer     = 16
)

// Message is the JSON frame exchanged over /ws.
//
// The server sends "update" frames carrying the markup of the tree and
// "error" frames for unhandled errors. Clients send "event" frames naming
// the target element id, the event type and an optional value.
type Message struct {
	Type      string `json:"type"`
	HTML      string `json:"html,omitempty"`
	Mutations uint64 `json:"mutations,omitempty"`
	Error     string `json:"error,omitempty"`

	Target string `json:"target,omitempty"`
	Event  string `json:"event,omitempty"`
	Value  string `json:"value,omitempty"`
}

func encode(m Message) []byte {
	data, _ := json.Marshal(m)
	return data
}

func updateMessage(html string, mutations uint64) []byte {
	return encode(Message{Type: "update", HTML: html, Mutations: mutations})
}

func errorMessage(err error) []byte {
	return encode(Message{Type: "error", Error: err.Error()})
}

type client struct {
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
	done      chan struct{}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// queue hands data to the write pump. A client that cannot keep up is
// disconnected.
func (c *client) queue(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		c.close()
		return false
	}
}

func (s *Server) register(c *client) {
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) unregister(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	c.close()
}

func (s *Server) broadcast(data []byte) {
	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		if !c.queue(data) {
			s.unregister(c)
		}
	}
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("inspect: websocket upgrade failed", "error", err)
		return
	}
	c := &client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}

	// The first frame is the current tree. It is queued on the loop so no
	// publish can slip in between it and registration.
	err = s.loop.Do(r.Context(), func() {
		html, err := s.renderer.InnerHTML(s.doc.Body())
		if err != nil {
			c.queue(errorMessage(err))
		} else {
			c.queue(updateMessage(html, s.doc.Mutations()))
		}
		s.register(c)
	})
	if err != nil {
		s.logger.Warn("inspect: websocket attach failed", "error", err)
		c.close()
		return
	}
	s.logger.Debug("inspect: client connected", "remote", r.RemoteAddr)

	go s.writePump(c)
	s.readPump(c)
}

func (s *Server) readPump(c *client) {
	defer s.unregister(c)

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("inspect: websocket read error", "error", err)
			}
			return
		}

		var m Message
		if err := json.Unmarshal(data, &m); err != nil {
			s.logger.Warn("inspect: invalid frame", "error", err)
			c.queue(errorMessage(err))
			continue
		}
		switch m.Type {
		case "event":
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := s.Dispatch(ctx, m.Target, m.Event, m.Value)
			cancel()
			var te *TargetError
			switch {
			case errors.As(err, &te):
				c.queue(errorMessage(err))
			case err != nil:
				return
			}
		default:
			s.logger.Warn("inspect: unknown frame type", "type", m.Type)
		}
	}
}

func (s *Server) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Debug("inspect: websocket write error", "error", err)
				s.unregister(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.unregister(c)
				return
			}
		}
	}
}
