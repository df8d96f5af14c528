package api

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/seenimoa/headlines/pkg/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS does not apply to WebSocket upgrades
	},
}

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// Stream message types.
const (
	MsgHeadline = "headline"
	MsgSummary  = "summary"
	MsgError    = "error"
)

// WSMessage is a message sent over the stream.
type WSMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// StreamRequest is the first and only message a client sends on /api/v1/stream.
type StreamRequest struct {
	Ticker string `json:"ticker"`
	Period string `json:"period,omitempty"`
	Max    int    `json:"max,omitempty"`
	Recent bool   `json:"recent,omitempty"`
}

// wsConn serializes writes to a connection.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) send(msg WSMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(msg)
}

func (c *wsConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// handleStream upgrades to WebSocket, reads one StreamRequest and streams every
// scored headline as it is accepted, then a summary, then closes.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	c := &wsConn{conn: conn}
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	var sr StreamRequest
	if err := conn.ReadJSON(&sr); err != nil {
		_ = c.send(WSMessage{Type: MsgError, Data: "invalid request: " + err.Error()})
		return
	}

	q := map[string][]string{"period": {sr.Period}}
	if sr.Max > 0 {
		q["max"] = []string{strconv.Itoa(sr.Max)}
	}
	if sr.Recent {
		q["recent"] = []string{"true"}
	}
	req, err := s.parseSentimentRequest(sr.Ticker, q)
	if err != nil {
		_ = c.send(WSMessage{Type: MsgError, Data: err.Error()})
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go readPump(conn, cancel)
	go pingPump(ctx, c)

	resp, err := s.sentiment(ctx, req, func(e models.ScoredEntry) error {
		return c.send(WSMessage{Type: MsgHeadline, Data: e})
	})
	if err != nil {
		if ctx.Err() == nil {
			_ = c.send(WSMessage{Type: MsgError, Data: err.Error()})
		}
		s.log.Infow("stream ended early", "ticker", req.Ticker, "error", err)
		return
	}

	_ = c.send(WSMessage{Type: MsgSummary, Data: resp.Summary})
	c.mu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"), time.Now().Add(writeWait))
	c.mu.Unlock()
}

// readPump drains client frames so pongs and close frames are processed, and
// cancels the stream when the client goes away.
func readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

// pingPump keeps the connection alive while a long fetch runs.
func pingPump(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}
