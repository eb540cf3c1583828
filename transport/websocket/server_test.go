package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gomoku-backend/internal/config"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/protocol"
	"github.com/rocketscienceinc/gomoku-backend/internal/registry"
	"github.com/rocketscienceinc/gomoku-backend/internal/room"
	"github.com/rocketscienceinc/gomoku-backend/internal/stats"
	"github.com/rocketscienceinc/gomoku-backend/internal/usecase"
)

const readTimeout = 2 * time.Second

var socketConf = config.Socket{
	SendBuffer:   64,
	WriteTimeout: time.Second,
	PongTimeout:  10 * time.Second,
	ReadLimit:    4096,
}

type testServer struct {
	url      string
	registry *registry.Registry
	stats    *stats.Counters
}

func newServer(conf config.Socket) (*Server, *registry.Registry, *stats.Counters) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	counters := stats.New()
	reg := registry.New(logger, counters, registry.NewCounterSequence(), room.Options{
		Size:        entity.DefaultBoardSize,
		WinLength:   entity.DefaultWinLength,
		StrictTurns: true,
	})

	return New(logger, usecase.NewLobbyUseCase(logger, reg), counters, conf), reg, counters
}

func newTestServer(t *testing.T, conf config.Socket) *testServer {
	t.Helper()

	server, reg, counters := newServer(conf)

	httpServer := httptest.NewServer(server.Handler())
	t.Cleanup(httpServer.Close)

	return &testServer{
		url:      "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/ws",
		registry: reg,
		stats:    counters,
	}
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func send(t *testing.T, conn *websocket.Conn, action string, payload any) {
	t.Helper()

	msg := map[string]any{"action": action}
	if payload != nil {
		msg["payload"] = payload
	}

	require.NoError(t, conn.WriteJSON(msg))
}

func read(t *testing.T, conn *websocket.Conn) protocol.Message {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(readTimeout)))

	var msg protocol.Message
	require.NoError(t, conn.ReadJSON(&msg))

	return msg
}

func expect(t *testing.T, conn *websocket.Conn, actions ...string) []protocol.Message {
	t.Helper()

	messages := make([]protocol.Message, 0, len(actions))
	for _, action := range actions {
		msg := read(t, conn)
		require.Equal(t, action, msg.Action)
		messages = append(messages, msg)
	}

	return messages
}

func TestServer_Game(t *testing.T) {
	srv := newTestServer(t, socketConf)

	// Given: two connected clients in the menu
	host := dial(t, srv.url)
	guest := dial(t, srv.url)
	expect(t, host, protocol.ActionDisplayMenu)
	expect(t, guest, protocol.ActionDisplayMenu)

	// When: host creates a room
	send(t, host, protocol.ActionCreateRoom, nil)

	// Then: it gets an empty 20x20 field
	messages := expect(t, host, protocol.ActionHideMenu, protocol.ActionDrawGamefield, protocol.ActionGameState)
	assert.JSONEq(t, "20", string(messages[1].Payload))

	// When: guest browses and joins room 1
	send(t, guest, protocol.ActionSelectRoom, nil)
	messages = expect(t, guest, protocol.ActionHideMenu, protocol.ActionRoomList)
	assert.JSONEq(t, `["1"]`, string(messages[1].Payload))

	send(t, guest, protocol.ActionJoinRoom, "1")
	expect(t, guest, protocol.ActionDrawGamefield, protocol.ActionGameState)

	// When: host plays a cell
	send(t, host, protocol.ActionPressedCell, map[string]any{"id": "r0c0"})

	// Then: both see it
	for _, conn := range []*websocket.Conn{host, guest} {
		msg := expect(t, conn, protocol.ActionGameState)[0]

		var state protocol.GameStatePayload
		require.NoError(t, json.Unmarshal(msg.Payload, &state))
		assert.Equal(t, entity.MarkX, state.Cells["r0c0"])
	}

	// When: host plays again out of turn
	send(t, host, protocol.ActionPressedCell, map[string]any{"row": 0, "col": 1})

	// Then: only host is told
	rejected := expect(t, host, protocol.ActionRejected)[0]
	assert.Contains(t, string(rejected.Payload), "not your turn")

	// When: guest leaves the field
	send(t, guest, protocol.ActionExitGamefield, nil)
	expect(t, guest, protocol.ActionHideResult, protocol.ActionHideGamefield, protocol.ActionDisplayMenu)

	// Then: room 1 waits for a player again
	assert.Equal(t, []string{"1"}, srv.registry.ListJoinable())
}

func TestServer_MalformedFrame(t *testing.T) {
	srv := newTestServer(t, socketConf)
	conn := dial(t, srv.url)
	expect(t, conn, protocol.ActionDisplayMenu)

	// When: the client sends something that is not a message
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hello")))

	// Then: it is rejected and the connection stays usable
	rejected := expect(t, conn, protocol.ActionRejected)[0]
	assert.Contains(t, string(rejected.Payload), "malformed payload")

	send(t, conn, protocol.ActionSelectRoom, nil)
	expect(t, conn, protocol.ActionHideMenu, protocol.ActionRoomList)
}

func TestServer_DisconnectLeavesRoom(t *testing.T) {
	srv := newTestServer(t, socketConf)

	// Given: a client alone in room 1
	conn := dial(t, srv.url)
	expect(t, conn, protocol.ActionDisplayMenu)
	send(t, conn, protocol.ActionCreateRoom, nil)
	expect(t, conn, protocol.ActionHideMenu, protocol.ActionDrawGamefield, protocol.ActionGameState)
	require.Equal(t, 1, srv.registry.Len())

	// When: the client goes away
	require.NoError(t, conn.Close())

	// Then: the empty room is removed
	assert.Eventually(t, func() bool {
		return srv.registry.Len() == 0
	}, readTimeout, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		return srv.stats.Snapshot()["connections_active"] == 0
	}, readTimeout, 10*time.Millisecond)
}

func TestServer_Serve(t *testing.T) {
	// Given: a served client sitting alone in room 1
	server, reg, counters := newServer(socketConf)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	served := make(chan error, 1)
	go func() {
		served <- server.Serve(ctx, listener)
	}()

	conn := dial(t, "ws://"+listener.Addr().String()+"/ws")
	expect(t, conn, protocol.ActionDisplayMenu)
	send(t, conn, protocol.ActionCreateRoom, nil)
	expect(t, conn, protocol.ActionHideMenu, protocol.ActionDrawGamefield, protocol.ActionGameState)

	// When: the server is stopped
	cancel()

	// Then: the client is told the server is going away
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(readTimeout)))
	_, _, err = conn.ReadMessage()

	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.CloseGoingAway, closeErr.Code)

	// And: Serve returns only once the session has left its room
	select {
	case err = <-served:
		require.NoError(t, err)
	case <-time.After(readTimeout):
		t.Fatal("Serve did not return after shutdown")
	}

	assert.Zero(t, reg.Len())
	assert.Zero(t, counters.Snapshot()["connections_active"])
}

func TestServer_CheckOrigin(t *testing.T) {
	conf := socketConf
	conf.AllowedOrigins = []string{"http://gomoku.local"}
	srv := newTestServer(t, conf)

	t.Run("Allowed origin", func(t *testing.T) {
		conn, resp, err := websocket.DefaultDialer.Dial(srv.url, http.Header{"Origin": []string{"http://gomoku.local"}})
		require.NoError(t, err)
		_ = resp.Body.Close()
		defer conn.Close()

		expect(t, conn, protocol.ActionDisplayMenu)
	})

	t.Run("Foreign origin", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial(srv.url, http.Header{"Origin": []string{"http://evil.local"}})

		require.ErrorIs(t, err, websocket.ErrBadHandshake)
		require.NotNil(t, resp)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestClient_Send(t *testing.T) {
	t.Run("Full queue drops the message", func(t *testing.T) {
		// Given: a client whose queue holds one message and nobody drains it
		counters := stats.New()
		conf := socketConf
		conf.SendBuffer = 1
		c := newClient(slog.New(slog.NewTextHandler(io.Discard, nil)), nil, counters, conf)

		// When: two messages are sent
		c.Send(protocol.DisplayMenu())
		c.Send(protocol.HideMenu())

		// Then: the second is dropped without blocking
		assert.Len(t, c.send, 1)
		assert.Equal(t, int64(1), counters.MessagesDropped.Load())
	})

	t.Run("Closed client ignores messages", func(t *testing.T) {
		counters := stats.New()
		c := newClient(slog.New(slog.NewTextHandler(io.Discard, nil)), nil, counters, socketConf)
		c.close()
		c.close()

		c.Send(protocol.DisplayMenu())

		assert.Empty(t, c.send)
		assert.Zero(t, counters.MessagesDropped.Load())
	})
}
