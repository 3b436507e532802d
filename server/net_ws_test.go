package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"quickarena/proto"
)

func newTestServer(t *testing.T, cfg Config) (*RoomManager, string) {
	t.Helper()
	rm := NewRoomManager(cfg)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", HandleWS(rm))
	mux.HandleFunc("/metrics", HandleMetrics(rm))
	mux.HandleFunc("/admin/config", HandleAdminConfig(rm))
	mux.HandleFunc("/protocol/schema", HandleSchema())
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		rm.Close()
		srv.Close()
	})
	return rm, srv.URL
}

func dial(t *testing.T, baseURL string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(baseURL, "http") + "/ws?room=it"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	if err := conn.WriteJSON(v); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

func waitFor(t *testing.T, conn *websocket.Conn, match func(proto.ServerMessage) bool) proto.ServerMessage {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		_ = conn.SetReadDeadline(deadline)
		_, payload, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read failed while waiting: %v", err)
		}
		m, err := proto.DecodeServer(payload)
		if err != nil {
			t.Fatalf("bad frame %s: %v", payload, err)
		}
		if match(m) {
			return m
		}
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.TickRate = 100
	return cfg
}

func TestWebSocketRelayLifecycle(t *testing.T) {
	_, base := newTestServer(t, testConfig())
	connA := dial(t, base)
	connB := dial(t, base)

	send(t, connA, map[string]any{"type": "init", "playerId": "a", "position": map[string]float64{"x": 1, "y": 0, "z": 0}})
	snap := waitFor(t, connA, func(m proto.ServerMessage) bool { return m.Type == proto.TypeInit })
	if len(snap.Players) != 1 || snap.Players[0].PlayerID != "a" {
		t.Fatalf("snapshot = %+v", snap)
	}

	send(t, connB, map[string]any{"type": "init", "playerId": "b", "position": map[string]float64{"x": 2, "y": 0, "z": 0}})
	joined := waitFor(t, connA, func(m proto.ServerMessage) bool { return m.Type == proto.TypeInitPlayer })
	if joined.Player.PlayerID != "b" || joined.Player.Position.X != 2 {
		t.Fatalf("init_player = %+v", joined)
	}
	snapB := waitFor(t, connB, func(m proto.ServerMessage) bool { return m.Type == proto.TypeInit })
	if len(snapB.Players) != 2 {
		t.Fatalf("b snapshot = %+v", snapB)
	}

	// 非法帧只会被丢弃，连接保持可用
	if err := connB.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatal(err)
	}
	send(t, connB, map[string]any{"type": "update", "position": map[string]float64{"x": 5, "y": 1, "z": -3}})
	moved := waitFor(t, connA, func(m proto.ServerMessage) bool { return m.Type == proto.TypeUpdatePlayer })
	if moved.Player.PlayerID != "b" || moved.Player.Position != (proto.Vec3{X: 5, Y: 1, Z: -3}) {
		t.Fatalf("update_player = %+v", moved)
	}

	if err := connB.Close(); err != nil {
		t.Fatal(err)
	}
	gone := waitFor(t, connA, func(m proto.ServerMessage) bool { return m.Type == proto.TypeRemovePlayer })
	if gone.PlayerID != "b" {
		t.Fatalf("remove_player = %+v", gone)
	}
}

func TestWebSocketServerIDPolicy(t *testing.T) {
	cfg := testConfig()
	cfg.IDPolicy = IDPolicyServer
	_, base := newTestServer(t, cfg)
	conn := dial(t, base)

	welcome := waitFor(t, conn, func(m proto.ServerMessage) bool { return m.Type == proto.TypeWelcome })
	if welcome.PlayerID == "" {
		t.Fatal("welcome without id")
	}
	send(t, conn, map[string]any{"type": "init", "playerId": "spoofed", "position": map[string]float64{"x": 0, "y": 0, "z": 0}})
	snap := waitFor(t, conn, func(m proto.ServerMessage) bool { return m.Type == proto.TypeInit })
	if len(snap.Players) != 1 || snap.Players[0].PlayerID != welcome.PlayerID {
		t.Fatalf("snapshot = %+v, want id %s", snap, welcome.PlayerID)
	}
}

func TestInitTimeoutClosesIdleConnection(t *testing.T) {
	cfg := testConfig()
	cfg.InitTimeout = 100 * time.Millisecond
	_, base := newTestServer(t, cfg)
	conn := dial(t, base)

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected the idle connection to be closed")
	}
}

func TestMetricsAndAdminEndpoints(t *testing.T) {
	rm, base := newTestServer(t, testConfig())
	conn := dial(t, base)
	send(t, conn, map[string]any{"type": "init", "playerId": "m", "position": map[string]float64{"x": 0, "y": 0, "z": 0}})
	waitFor(t, conn, func(m proto.ServerMessage) bool { return m.Type == proto.TypeInit })

	resp, err := http.Post(base+"/admin/config?room=it", "application/json", strings.NewReader(`{"maxUpdatesPerTick":3,"simulateDropProb":0.5}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin status %d", resp.StatusCode)
	}
	room, _ := rm.Room("it")
	if s := room.Settings(); s.MaxUpdatesPerTick != 3 || s.SimulateDropProb != 0.5 {
		t.Fatalf("settings = %+v", s)
	}

	resp, err = http.Post(base+"/admin/config?room=it", "application/json", strings.NewReader(`{"simulateDropProb":2}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("out of range drop prob accepted: %d", resp.StatusCode)
	}

	resp, err = http.Get(base + "/metrics?room=it")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body struct {
		Room    string         `json:"room"`
		Metrics map[string]any `json:"metrics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Room != "it" || body.Metrics["messages_accepted"].(float64) < 1 {
		t.Fatalf("metrics = %+v", body)
	}

	resp2, err := http.Get(base + "/metrics?room=nope")
	if err != nil {
		t.Fatal(err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown room status %d", resp2.StatusCode)
	}
}

func TestInitializedIdlePlayerOutlivesInitTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.InitTimeout = 300 * time.Millisecond
	_, base := newTestServer(t, cfg)

	connA := dial(t, base)
	send(t, connA, map[string]any{"type": "init", "playerId": "a", "position": map[string]float64{"x": 0, "y": 0, "z": 0}})
	waitFor(t, connA, func(m proto.ServerMessage) bool { return m.Type == proto.TypeInit })

	// 静止的玩家不发送任何更新
	time.Sleep(1 * time.Second)

	connB := dial(t, base)
	send(t, connB, map[string]any{"type": "init", "playerId": "b", "position": map[string]float64{"x": 1, "y": 0, "z": 0}})
	snap := waitFor(t, connB, func(m proto.ServerMessage) bool { return m.Type == proto.TypeInit })
	if len(snap.Players) != 2 {
		t.Fatalf("idle player dropped after init timeout: snapshot = %+v", snap.Players)
	}
	joined := waitFor(t, connA, func(m proto.ServerMessage) bool { return m.Type == proto.TypeInitPlayer })
	if joined.Player.PlayerID != "b" {
		t.Fatalf("init_player = %+v", joined)
	}
}
