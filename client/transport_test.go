package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"quickarena/server"
	"quickarena/sim"
)

func TestSendDropsOldestWhenQueueFull(t *testing.T) {
	tr := &WSTransport{out: make(chan []byte, 2), done: make(chan struct{})}
	for _, f := range []string{"1", "2", "3"} {
		if err := tr.Send([]byte(f)); err != nil {
			t.Fatal(err)
		}
	}
	if got := string(<-tr.out) + string(<-tr.out); got != "23" {
		t.Fatalf("queue = %q, want 23", got)
	}
	if tr.Dropped() != 1 {
		t.Fatalf("dropped = %d", tr.Dropped())
	}
	close(tr.done)
	if err := tr.Send([]byte("4")); !errors.Is(err, ErrClosed) {
		t.Fatalf("send after close: %v", err)
	}
}

func startRelay(t *testing.T) string {
	t.Helper()
	cfg := server.DefaultConfig()
	cfg.TickRate = 100
	rm := server.NewRoomManager(cfg)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", server.HandleWS(rm))
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		rm.Close()
		srv.Close()
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?room=e2e"
}

func connectGame(t *testing.T, url, id string, spawn mgl64.Vec3) (*Game, *WSTransport) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	tr, err := Dial(ctx, DialConfig{URL: url})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = tr.Close() })
	cfg := DefaultGameConfig(id)
	cfg.Spawn = spawn
	g := NewGame(cfg, DefaultArena(), nil, tr)
	if err := g.Start(); err != nil {
		t.Fatal(err)
	}
	return g, tr
}

// runUntil 以固定步长推进所有游戏，直到条件满足或超时
func runUntil(t *testing.T, what string, in InputSource, games []*Game, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		for i, g := range games {
			if i == 0 {
				g.Frame(0.02, in)
			} else {
				g.Frame(0.02, nil)
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestGamesConvergeThroughRelay(t *testing.T) {
	url := startRelay(t)
	a, trA := connectGame(t, url, "a", mgl64.Vec3{0, 0.6, 0})
	b, _ := connectGame(t, url, "b", mgl64.Vec3{2, 0.6, 0})
	games := []*Game{a, b}

	runUntil(t, "mutual shadows", nil, games, func() bool {
		_, aSeesB := a.Shadows.Position("b")
		_, bSeesA := b.Shadows.Position("a")
		return aSeesB && bSeesA
	})

	walk := StaticInput{Keys: sim.KeySet{"KeyW": true}}
	runUntil(t, "b to see a walk forward", walk, games, func() bool {
		pos, ok := b.Shadows.Position("a")
		return ok && pos.Z() < -0.5
	})

	if err := trA.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	runUntil(t, "a to be removed", nil, []*Game{b}, func() bool {
		_, ok := b.Shadows.Position("a")
		return !ok
	})
	if b.Shadows.Len() != 0 {
		t.Fatalf("b shadows = %v", b.Shadows.IDs())
	}
}
