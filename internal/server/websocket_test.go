package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/droneforge/internal/config"
	"github.com/zeusync/droneforge/internal/core/assembly"
	"github.com/zeusync/droneforge/internal/core/builder"
	"github.com/zeusync/droneforge/internal/core/catalog"
	"github.com/zeusync/droneforge/internal/core/events/bus"
	"github.com/zeusync/droneforge/internal/core/observability/log"
	"github.com/zeusync/droneforge/internal/core/projector"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) (*Server, *httptest.Server) {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	srv := NewServer(cfg, catalog.Drone(), bus.New(), log.NewNop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func dial(t *testing.T, ts *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func readUntil(t *testing.T, conn *websocket.Conn, typ string) Message {
	t.Helper()
	for i := 0; i < 10; i++ {
		msg := readMessage(t, conn)
		if msg.Type == typ {
			return msg
		}
	}
	t.Fatalf("no %s message received", typ)
	return Message{}
}

func TestWebSocketInitialState(t *testing.T) {
	_, ts := newTestServer(t, nil)
	conn := dial(t, ts, "?room=a")

	msg := readMessage(t, conn)
	require.Equal(t, MessageState, msg.Type)
	require.NotNil(t, msg.State)
	assert.Equal(t, assembly.Idle, msg.State.State)
	require.NotNil(t, msg.State.CurrentTask)
	assert.Equal(t, "bottom_plate", msg.State.CurrentTask.ID)
}

func TestWebSocketSpawnBroadcastsToRoom(t *testing.T) {
	_, ts := newTestServer(t, nil)
	alice := dial(t, ts, "?room=bench")
	bob := dial(t, ts, "?room=bench")
	other := dial(t, ts, "?room=elsewhere")
	readMessage(t, alice)
	readMessage(t, bob)
	readMessage(t, other)

	require.NoError(t, alice.WriteJSON(Command{Seq: 1, Op: OpSpawn}))

	state := readMessage(t, alice)
	require.Equal(t, MessageState, state.Type)
	assert.Equal(t, OpSpawn, state.Op)
	require.Len(t, state.State.Parts, 1)

	ack := readMessage(t, alice)
	require.Equal(t, MessageAck, ack.Type)
	assert.Equal(t, uint64(1), ack.Seq)
	assert.Equal(t, state.State.Parts[0].ID, ack.PartID)

	seen := readUntil(t, bob, MessageState)
	assert.Equal(t, ack.PartID, seen.State.ActiveID)

	require.NoError(t, other.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	var none Message
	assert.Error(t, other.ReadJSON(&none))
}

func TestWebSocketDragAndUndo(t *testing.T) {
	_, ts := newTestServer(t, nil)
	conn := dial(t, ts, "")
	readMessage(t, conn)

	require.NoError(t, conn.WriteJSON(Command{Seq: 1, Op: OpSpawn}))
	id := readUntil(t, conn, MessageAck).PartID

	require.NoError(t, conn.WriteJSON(Command{Seq: 2, Op: OpPickUp, ID: id}))
	readUntil(t, conn, MessageAck)

	require.NoError(t, conn.WriteJSON(Command{Seq: 3, Op: OpMove, Point: &projector.GroundPoint{X: 1.23, Z: -4.56}}))
	readUntil(t, conn, MessageAck)
	ray := projector.Ray{Origin: [3]float64{2, 5, -4.56}, Direction: [3]float64{0, -1, 0}}
	require.NoError(t, conn.WriteJSON(Command{Seq: 4, Op: OpMove, Ray: &ray}))
	readUntil(t, conn, MessageAck)

	require.NoError(t, conn.WriteJSON(Command{Seq: 5, Op: OpStopCarry}))
	state := readUntil(t, conn, MessageState)
	require.Len(t, state.State.Parts, 1)
	assert.Equal(t, assembly.Vec3{X: 2, Z: -4.56}, state.State.Parts[0].Position)
	assert.Equal(t, 2, state.State.HistoryDepth)
	readUntil(t, conn, MessageAck)

	require.NoError(t, conn.WriteJSON(Command{Seq: 6, Op: OpUndo}))
	state = readUntil(t, conn, MessageState)
	assert.Equal(t, assembly.Vec3{}, state.State.Parts[0].Position)
	assert.True(t, state.State.CanRedo)
}

func TestWebSocketRejections(t *testing.T) {
	_, ts := newTestServer(t, nil)
	conn := dial(t, ts, "")
	readMessage(t, conn)

	cases := []Command{
		{Seq: 1, Op: OpSpawn, Kind: catalog.Motor},
		{Seq: 2, Op: OpUndo},
		{Seq: 3, Op: "explode"},
		{Seq: 4, Op: OpSetElevation, ID: "x"},
		{Seq: 5, Op: OpMove, Ray: &projector.Ray{Direction: [3]float64{1, 0, 0}}},
		{Seq: 6, Op: OpLock, ID: "ghost"},
	}
	for _, cmd := range cases {
		require.NoError(t, conn.WriteJSON(cmd))
		msg := readMessage(t, conn)
		assert.Equal(t, MessageRejected, msg.Type, "op %s", cmd.Op)
		assert.Equal(t, cmd.Seq, msg.Seq)
		assert.NotEmpty(t, msg.Error)
	}
}

func TestWebSocketAuthToken(t *testing.T) {
	_, ts := newTestServer(t, func(c *config.Config) { c.AuthToken = "supersecrettoken" })
	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	_, _, err := websocket.DefaultDialer.Dial(u, nil)
	assert.Error(t, err)
	_, _, err = websocket.DefaultDialer.Dial(u+"?token=invalid", nil)
	assert.Error(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(u+"?token=supersecrettoken", nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, MessageState, readMessage(t, conn).Type)
}

func TestCatalogEndpoint(t *testing.T) {
	_, ts := newTestServer(t, nil)
	resp, err := http.Get(ts.URL + "/catalog")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body CatalogResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Parts, 5)
	assert.Len(t, body.Sequence, 10)
}

func TestCatalogEndpointFillsPlaceholderAssets(t *testing.T) {
	cat, err := catalog.New([]catalog.Entry{
		{Kind: "wheel", Category: catalog.CategoryOther},
		{Kind: "frame", Category: catalog.CategoryFrame, Asset: "/frame.glb"},
	}, nil)
	require.NoError(t, err)
	srv := NewServer(config.Default(), cat, bus.New(), log.NewNop())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/catalog")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body CatalogResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Parts, 2)
	assert.Equal(t, "/frame.glb", body.Parts[0].Asset)
	assert.Equal(t, catalog.PlaceholderAsset, body.Parts[1].Asset)
}

func TestStateEndpoint(t *testing.T) {
	srv, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/state?room=missing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, err = srv.Room("r1").Builder().Spawn("", nil)
	require.NoError(t, err)

	resp, err = http.Get(ts.URL + "/state?room=r1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var update builder.Update
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&update))
	assert.Len(t, update.Parts, 1)
	assert.Equal(t, assembly.Selected, update.State)
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts := newTestServer(t, nil)
	conn := dial(t, ts, "?room=m")
	readMessage(t, conn)

	require.NoError(t, conn.WriteJSON(Command{Seq: 1, Op: OpSpawn, Kind: catalog.Motor}))
	require.Equal(t, MessageRejected, readUntil(t, conn, MessageRejected).Type)
	require.NoError(t, conn.WriteJSON(Command{Seq: 2, Op: OpLock, ID: "ghost"}))
	readUntil(t, conn, MessageRejected)
	require.NoError(t, conn.WriteJSON(Command{Seq: 3, Op: OpSpawn}))
	readUntil(t, conn, MessageAck)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var m MetricsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))
	assert.Equal(t, uint64(1), m.Changes)
	assert.Equal(t, uint64(2), m.Rejections)
	assert.Equal(t, uint64(0), m.Failures)
	assert.Equal(t, uint64(3), m.Bus.Published)

	require.Len(t, m.Rooms, 1)
	assert.Equal(t, RoomMetrics{ID: "m", Clients: 1, Rejected: 2}, m.Rooms[0])
	require.Len(t, m.Topics, 1)
	assert.Equal(t, "m", m.Topics[0].Name)
	assert.Equal(t, 2, m.Topics[0].Subs)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	cfg := config.Default()
	cfg.ListenAddr = "127.0.0.1:0"
	srv := NewServer(cfg, catalog.Drone(), bus.New(), log.NewNop())

	ln, err := srv.Listen()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/catalog")
	require.NoError(t, err)
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.ErrorIs(t, srv.Serve(context.Background(), ln), ErrServerClosed)
}
