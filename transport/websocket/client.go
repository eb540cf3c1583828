package websocket

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/gomoku-backend/internal/config"
	"github.com/rocketscienceinc/gomoku-backend/internal/protocol"
	"github.com/rocketscienceinc/gomoku-backend/internal/stats"
)

// client wraps one WebSocket connection. Only writePump writes to conn.
// The send channel is never closed; done signals the end of the connection.
type client struct {
	id     string
	conn   *websocket.Conn
	logger *slog.Logger
	stats  *stats.Counters
	conf   config.Socket

	send      chan *protocol.Message
	done      chan struct{}
	closeOnce sync.Once
}

func newClient(logger *slog.Logger, conn *websocket.Conn, counters *stats.Counters, conf config.Socket) *client {
	id := uuid.NewString()

	return &client{
		id:     id,
		conn:   conn,
		logger: logger.With("component", "client", "connID", id),
		stats:  counters,
		conf:   conf,
		send:   make(chan *protocol.Message, conf.SendBuffer),
		done:   make(chan struct{}),
	}
}

func (that *client) ID() string {
	return that.id
}

// Send - enqueues the message without blocking. A full queue drops the message.
func (that *client) Send(msg *protocol.Message) {
	select {
	case <-that.done:
		return
	default:
	}

	select {
	case that.send <- msg:
	default:
		that.stats.IncMessagesDropped()
		that.logger.Warn("send buffer is full, message dropped", "action", msg.Action)
	}
}

func (that *client) close() {
	that.closeOnce.Do(func() {
		close(that.done)
	})
}

// writePump - drains the send queue to the socket and keeps the peer alive with pings.
func (that *client) writePump(ctx context.Context) {
	ticker := time.NewTicker(that.conf.PongTimeout * 9 / 10)
	defer func() {
		ticker.Stop()
		_ = that.conn.Close()
	}()

	for {
		select {
		case <-that.done:
			that.writeClose(websocket.CloseNormalClosure)
			return
		case <-ctx.Done():
			that.writeClose(websocket.CloseGoingAway)
			return
		case msg := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(that.conf.WriteTimeout))
			if err := that.conn.WriteJSON(msg); err != nil {
				that.logger.Debug("failed to write message", "error", err)
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(that.conf.WriteTimeout)
			if err := that.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				that.logger.Debug("failed to write ping", "error", err)
				return
			}
		}
	}
}

// readPump - hands every text frame to handle until the connection fails or the peer stops answering pings.
func (that *client) readPump(handle func(data []byte)) {
	that.conn.SetReadLimit(that.conf.ReadLimit)
	_ = that.conn.SetReadDeadline(time.Now().Add(that.conf.PongTimeout))
	that.conn.SetPongHandler(func(string) error {
		return that.conn.SetReadDeadline(time.Now().Add(that.conf.PongTimeout))
	})

	for {
		msgType, data, err := that.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				that.logger.Info("connection closed unexpectedly", "error", err)
			}
			return
		}

		if msgType != websocket.TextMessage {
			continue
		}

		handle(data)
	}
}

func (that *client) writeClose(code int) {
	deadline := time.Now().Add(that.conf.WriteTimeout)
	_ = that.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, ""), deadline)
}
