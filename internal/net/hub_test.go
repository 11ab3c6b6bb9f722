package net

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"localboard/internal/protocol"
	"localboard/internal/state"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub(state.NewOperationLog(), 16, 1<<20)
	go h.Run(ctx)
	srv := httptest.NewServer(NewRouter(h, Canvas{Width: 100, Height: 100}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return h, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) protocol.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)
	msg, err := protocol.Decode(frame)
	require.NoError(t, err)
	return msg
}

func write(t *testing.T, conn *websocket.Conn, msg protocol.Message) {
	t.Helper()
	frame, err := protocol.Encode(msg)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
}

func waitForLog(t *testing.T, h *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		ops, err := h.Snapshot(context.Background())
		return err == nil && len(ops) == n
	}, 2*time.Second, 10*time.Millisecond)
}

func TestUndoRedoAcrossClients(t *testing.T) {
	h, srv := startHub(t)

	a := dial(t, srv)
	hist := read(t, a)
	assert.Equal(t, protocol.EventLoadHistory, hist.Event)
	assert.JSONEq(t, `[]`, string(hist.Payload))

	rect := state.Rect{X: 10, Y: 10, Width: 50, Height: 50, Color: "#ff0000", StrokeWidth: 5, LineStyle: state.LineSolid}
	commit, err := protocol.Operation(rect)
	require.NoError(t, err)
	write(t, a, commit)
	waitForLog(t, h, 1)

	b := dial(t, srv)
	hist = read(t, b)
	assert.Equal(t, protocol.EventLoadHistory, hist.Event)
	ops, err := state.DecodeOperations(hist.Payload)
	require.NoError(t, err)
	assert.Equal(t, []state.Operation{rect}, ops)

	write(t, a, protocol.Bare(protocol.EventRequestUndo))
	for _, c := range []*websocket.Conn{a, b} {
		msg := read(t, c)
		assert.Equal(t, protocol.EventGlobalRedraw, msg.Event)
		assert.JSONEq(t, `[]`, string(msg.Payload))
	}

	write(t, a, protocol.Bare(protocol.EventRequestRedo))
	for _, c := range []*websocket.Conn{a, b} {
		msg := read(t, c)
		assert.Equal(t, protocol.EventGlobalRedraw, msg.Event)
		ops, err := state.DecodeOperations(msg.Payload)
		require.NoError(t, err)
		assert.Equal(t, []state.Operation{rect}, ops)
	}
}

func TestSegmentSkipsSender(t *testing.T) {
	_, srv := startHub(t)
	a := dial(t, srv)
	read(t, a)
	b := dial(t, srv)
	read(t, b)

	payload := json.RawMessage(`{"startX":1,"startY":2,"endX":3,"endY":4,"color":"#000000","width":5}`)
	write(t, a, protocol.Message{Event: protocol.EventDrawStroke, Payload: payload})
	msg := read(t, b)
	assert.Equal(t, protocol.EventDrawStroke, msg.Event)
	assert.JSONEq(t, string(payload), string(msg.Payload))

	// the sender's next message is the clear, not its own segment
	write(t, a, protocol.Bare(protocol.EventRequestClear))
	assert.Equal(t, protocol.EventGlobalClear, read(t, a).Event)
	assert.Equal(t, protocol.EventGlobalClear, read(t, b).Event)
}

func TestBadFrameIsSkipped(t *testing.T) {
	h, srv := startHub(t)
	a := dial(t, srv)
	read(t, a)

	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte("not json")))
	write(t, a, protocol.Message{Event: protocol.EventAddOperation, Payload: json.RawMessage(`{"type":"fill","x":1,"y":1,"color":"#00ff00"}`)})
	waitForLog(t, h, 1)
}

func TestHistoryEndpoint(t *testing.T) {
	h, srv := startHub(t)
	a := dial(t, srv)
	read(t, a)
	write(t, a, protocol.Message{Event: protocol.EventAddOperation, Payload: json.RawMessage(`{"type":"fill","x":1,"y":1,"color":"#00FF00"}`)})
	waitForLog(t, h, 1)

	resp, err := http.Get(srv.URL + "/api/history")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"type":"fill","x":1,"y":1,"color":"#00ff00"}]`, string(body))
}

func TestExportEndpoints(t *testing.T) {
	_, srv := startHub(t)
	for path, contentType := range map[string]string{"/export.png": "image/png", "/export.pdf": "application/pdf"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, contentType, resp.Header.Get("Content-Type"), path)
	}
}

func TestSnapshotAfterStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub(state.NewOperationLog(), 0, 0)
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped
	_, err := h.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrHubStopped)
}
