package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxi-rl-go/internal/engine"
	"taxi-rl-go/internal/taxi"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return newTestServerWith(t, engine.Config{Episodes: 3, Seed: 3, MaxSteps: 30, SkipStepSnapshots: true})
}

func newTestServerWith(t *testing.T, base engine.Config) *httptest.Server {
	t.Helper()
	model, err := taxi.Build(taxi.DefaultLayout())
	require.NoError(t, err)
	render := func(state, action int) string {
		var last *taxi.Action
		if action >= 0 {
			a := taxi.Action(action)
			last = &a
		}
		frame, _ := model.RenderString(state, last)
		return frame
	}
	srv := httptest.NewServer(NewServer(model, base, render, nil).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestSessionStreamsEpisodes(t *testing.T) {
	conn := dial(t, newTestServer(t))
	require.NoError(t, conn.WriteJSON(StartMsg{Type: TypeStart, Episodes: 4}))

	var msgs []SnapshotMsg
	for {
		var m SnapshotMsg
		if err := conn.ReadJSON(&m); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected error %v", err)
			break
		}
		msgs = append(msgs, m)
	}
	// Four episode snapshots plus the final one.
	require.Len(t, msgs, 5)
	for _, m := range msgs[:4] {
		assert.Equal(t, TypeSnapshot, m.Type)
		assert.Equal(t, engine.StatusEpisodeComplete, m.Snapshot.Status)
		assert.Contains(t, m.Frame, "+-------+")
	}
	last := msgs[4]
	assert.Equal(t, engine.StatusDone, last.Snapshot.Status)
	assert.Equal(t, 4, last.Snapshot.EpisodesCompleted)
	assert.Equal(t, msgs[0].Session, last.Session)
}

func TestSessionRejectsBadHandshake(t *testing.T) {
	conn := dial(t, newTestServer(t))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"HELLO"}`)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
}

func TestSessionReportsBadConfig(t *testing.T) {
	conn := dial(t, newTestServer(t))
	require.NoError(t, conn.WriteJSON(StartMsg{Type: TypeStart, Algorithm: "dqn"}))
	var m ErrorMsg
	require.NoError(t, conn.ReadJSON(&m))
	assert.Equal(t, TypeError, m.Type)
	assert.Contains(t, m.Message, "unknown algorithm")
}

func TestSessionStop(t *testing.T) {
	conn := dial(t, newTestServer(t))
	delay := 5
	steps := true
	require.NoError(t, conn.WriteJSON(StartMsg{Type: TypeStart, Episodes: 1000, StepDelayMs: &delay, StepSnapshots: &steps}))

	var m SnapshotMsg
	require.NoError(t, conn.ReadJSON(&m))
	require.NoError(t, conn.WriteJSON(map[string]string{"type": TypeStop}))

	status := ""
	for {
		var m SnapshotMsg
		if err := conn.ReadJSON(&m); err != nil {
			break
		}
		status = m.Snapshot.Status
	}
	assert.Equal(t, engine.StatusCancelled, status)
}

func TestDelayDoesNotHoldBackEpisodeSnapshots(t *testing.T) {
	base := engine.Config{Episodes: 2, Seed: 3, MaxSteps: 30, StepDelayMs: 50, SkipStepSnapshots: true}
	conn := dial(t, newTestServerWith(t, base))
	require.NoError(t, conn.WriteJSON(StartMsg{Type: TypeStart}))

	// Thirty paced steps would take 1.5s before the first episode reports.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	var m SnapshotMsg
	require.NoError(t, conn.ReadJSON(&m))
	assert.Equal(t, engine.StatusEpisodeComplete, m.Snapshot.Status)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
