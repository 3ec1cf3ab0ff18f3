package connection

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
	sendBuffer     = 64
)

// Conn wraps one WebSocket. Writes go through a buffered channel drained by
// a single writer goroutine.
type Conn struct {
	ws     *websocket.Conn
	send   chan []byte
	logger *zap.Logger

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

func NewConn(ws *websocket.Conn, logger *zap.Logger) *Conn {
	return &Conn{
		ws:     ws,
		send:   make(chan []byte, sendBuffer),
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Enqueue never blocks. A full buffer means the client is not keeping up
// and the message is dropped.
func (c *Conn) Enqueue(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// Close stops the writer and closes the socket. Safe to call more than once.
func (c *Conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()
	<-c.done
	c.ws.Close()
}

// ReadPump delivers each text message to handle until the socket fails or
// ctx ends. The read deadline is extended on every pong.
func (c *Conn) ReadPump(ctx context.Context, handle func([]byte)) {
	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	// ctx が終わったらソケットを閉じて ReadMessage を抜けさせる
	stop := context.AfterFunc(ctx, func() { c.ws.Close() })
	defer stop()
	for {
		if ctx.Err() != nil {
			return
		}
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("WebSocket read failed", zap.Error(err))
			}
			return
		}
		handle(message)
	}
}

// WritePump drains the send buffer and pings the client every pingPeriod.
func (c *Conn) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		close(c.done)
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Warn("WebSocket write failed", zap.Error(err))
				c.drain()
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Warn("Error sending ping", zap.Error(err))
				c.drain()
				return
			}
		}
	}
}

// drain は書き込み失敗後、Closeされるまでキューを捨てる
func (c *Conn) drain() {
	c.ws.Close()
	for range c.send {
	}
}
